package pipeline

import "fmt"

// Stage names one step of the request pipeline.
type Stage string

const (
	StageAcquire   Stage = "acquire"
	StageNormalize Stage = "normalize"
	StageRecognize Stage = "recognize"
)

// Error wraps a stage failure so callers can tell which step broke while
// still exposing the underlying message.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &Error{Stage: stage, Err: err}
}
