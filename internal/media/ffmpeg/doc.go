// Package ffmpeg wraps the ffmpeg invocations the dubbing pipeline needs:
// pulling the audio track out of a video as PCM WAV, converting clips to the
// timeline format, and muxing the finished mix back over the original video.
//
// All commands run through a process.Runner so tests can assert on argument
// lists without an ffmpeg install.
package ffmpeg
