// Package dubbing runs one video through the full dubbing pipeline.
//
// A run moves through EXTRACTING, then SEPARATING and ANALYZING in
// parallel, SCRIPT_READY, SYNTHESIZING, COMPOSITING, MUXING and DONE.
// Analysis and muxing failures end the run; every other stage degrades to
// silence and records a warning.
//
// Collaborators are narrow interfaces so tests can swap in fakes. Build
// wires the production implementations from config.
package dubbing
