// Package wavio reads and writes 16-bit PCM WAV files as go-audio buffers.
package wavio
