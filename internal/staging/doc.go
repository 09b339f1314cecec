// Package staging owns the per-run scratch directories under paths.work_dir.
//
// Each run creates run-<id> and holds an advisory lock on it for its
// lifetime. Cleanup only removes directories whose lock is free, so a
// concurrent run's intermediates are never deleted underneath it.
package staging
