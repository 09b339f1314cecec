// Package voices maps diarized speakers onto prebuilt TTS voices.
//
// Assignment is deterministic: speakers are visited in lexicographic order
// and each character type walks its own pool round-robin, so the same script
// always produces the same casting.
package voices
