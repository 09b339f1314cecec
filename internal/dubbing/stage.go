package dubbing

import (
	"errors"
	"fmt"
)

// Stage names a pipeline state.
type Stage string

const (
	StageExtracting   Stage = "extracting"
	StageSeparating   Stage = "separating"
	StageAnalyzing    Stage = "analyzing"
	StageScriptReady  Stage = "script_ready"
	StageSynthesizing Stage = "synthesizing"
	StageCompositing  Stage = "compositing"
	StageMuxing       Stage = "muxing"
	StagePublishing   Stage = "publishing"
	StageDone         Stage = "done"
)

// RunError is a fatal run failure tagged with the stage that produced it.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("dubbing failed during %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// FailedStage reports the stage of a RunError, or "" for other errors.
func FailedStage(err error) Stage {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Stage
	}
	return ""
}

// Warning records a soft failure that degraded the output.
type Warning struct {
	Stage   Stage
	Segment int // -1 when not tied to a segment
	Message string
}
