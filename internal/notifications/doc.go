// Package notifications posts run outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// the pipeline can publish events unconditionally.
package notifications
