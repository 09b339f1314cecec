// Package progress carries human-readable status narration from the pipeline
// to whatever is watching it.
//
// Producers call Queue.Log, which never blocks; a single Drain loop batches
// messages to a Consumer such as the console renderer or the Redis publisher.
// Narration is best-effort: a full queue drops messages and the pipeline is
// never affected by consumer failures.
package progress
