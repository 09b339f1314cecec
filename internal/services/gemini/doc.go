// Package gemini adapts the Google Gen AI SDK to the analyzer's ModelService
// and the synthesizer's SpeechModel.
//
// The same Client serves both the Gemini Developer API (API key) and Vertex
// AI (project and location). Authentication failures are tagged with
// services.ErrAuthentication so the CLI can report them distinctly.
package gemini
