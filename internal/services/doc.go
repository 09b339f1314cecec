// Package services defines shared utilities consumed by the dubbing stages and
// their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and segment indexes for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can separate
//     validation, authentication, and timeout failures from tool failures.
//
// Subpackages wrap the remote model services (gemini, openaitts).
package services
