// Package openaitts is an alternative speech backend using the OpenAI audio
// speech endpoint. It only receives the line's text; the performance prompt
// has no equivalent in that API.
package openaitts
