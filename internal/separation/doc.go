// Package separation splits extracted dialogue audio into vocal and background
// stems with demucs, run as an external Python module.
//
// Only the background stem (no_vocals.wav) is used downstream. Any failure,
// whether a non-zero exit, a timeout, or a missing stem, is returned as an
// error and callers substitute silence.
package separation
