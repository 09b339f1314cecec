// Package tts turns script segments into voiced WAV clips.
//
// BuildPrompt renders the performance direction sent with each line: the
// character's voice and accent, prosody, emotional context, naturalness hints,
// and the slot length. Synthesizer drives a SpeechModel one segment at a
// time and writes the returned PCM as WAV. A failed segment is reported and
// skipped; it never aborts the run.
package tts
