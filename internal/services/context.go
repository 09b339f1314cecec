package services

import "context"

type contextKey int

const (
	runIDKey contextKey = iota
	stageKey
	segmentKey
)

func lookup[T any](ctx context.Context, key contextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// WithRunID tags ctx with the dubbing run identifier. Blank IDs are ignored.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

func RunIDFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, runIDKey)
}

// WithStage tags ctx with the pipeline stage name. Blank names are ignored.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, stageKey)
}

// WithSegment tags ctx with a zero-based script segment index. Negative
// indexes are ignored.
func WithSegment(ctx context.Context, index int) context.Context {
	if index < 0 {
		return ctx
	}
	return context.WithValue(ctx, segmentKey, index)
}

func SegmentFromContext(ctx context.Context) (int, bool) {
	return lookup[int](ctx, segmentKey)
}
