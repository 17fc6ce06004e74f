package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/cocomerge/internal/coco"
	"github.com/roach88/cocomerge/internal/merge"
	"github.com/roach88/cocomerge/internal/schema"
)

// Stage names one step of a run.
type Stage string

const (
	StageLoad            Stage = "load"
	StageSchema          Stage = "schema"
	StageCheck           Stage = "check"
	StageImageMerge      Stage = "image_merge"
	StageCategoryMerge   Stage = "category_merge"
	StageAnnotationMerge Stage = "annotation_merge"
	StageSave            Stage = "save"
	StageImageMove       Stage = "image_move"
)

// Error codes recorded for failures that carry no merge.ErrorCode.
const (
	codeSchema    = "SCHEMA"
	codeDecode    = "DECODE"
	codeCancelled = "CANCELLED"
	codeIO        = "IO"
)

// StageError reports the stage a run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage if err is or wraps a StageError.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// ErrorCode classifies err for the run ledger.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code, ok := merge.CodeOf(err); ok {
		return string(code)
	}
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		return codeSchema
	}
	if coco.IsDecodeError(err) {
		return codeDecode
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return codeCancelled
	}
	return codeIO
}
