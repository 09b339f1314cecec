// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Prober runs ffprobe through a process.Runner and decodes the streams and
// format sections. Helper methods on Result answer the questions the dubbing
// pipeline asks: does the video carry audio, and how long is it.
package ffprobe
