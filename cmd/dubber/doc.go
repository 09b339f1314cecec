// Package main hosts the dubber CLI entrypoint and command graph.
//
// "dubber dub" runs the whole pipeline for one video. The remaining commands
// expose its pieces for inspection: script analysis, voice assignment,
// prompt rendering, readiness checks, run directory maintenance and
// configuration scaffolding.
//
// Keep this package lean: behaviour belongs in internal packages and is
// surfaced here through flags.
package main
