package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/roach88/cocomerge/internal/coco"
	"github.com/roach88/cocomerge/internal/merge"
	"github.com/roach88/cocomerge/internal/pipeline"
	"github.com/roach88/cocomerge/internal/schema"
	"github.com/roach88/cocomerge/internal/store"
)

// classify maps a command failure to an exit code and a CLI error code.
// Data problems in the inputs are failures (exit 1); unusable paths are
// command errors (exit 2).
func classify(err error) (int, string) {
	var (
		integrity *merge.DataIntegrityError
		lookup    *merge.CategoryLookupError
		reference *merge.ReferenceError
		overflow  *merge.CategoryIDOverflowError
		invalid   *schema.ValidationError
	)
	switch {
	case errors.As(err, &integrity):
		return ExitFailure, ErrCodeIntegrity
	case errors.As(err, &lookup):
		return ExitFailure, ErrCodeLookup
	case errors.As(err, &reference):
		return ExitFailure, ErrCodeReference
	case errors.As(err, &overflow):
		return ExitFailure, ErrCodeIDOverflow
	case errors.As(err, &invalid):
		return ExitFailure, ErrCodeSchema
	case coco.IsDecodeError(err):
		return ExitFailure, ErrCodeDecode
	case errors.Is(err, store.ErrRunNotFound):
		return ExitFailure, ErrCodeRunNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitFailure, ErrCodeCancelled
	case errors.Is(err, fs.ErrNotExist):
		return ExitCommandError, ErrCodeNotFound
	}

	if stage, ok := pipeline.StageOf(err); ok {
		switch stage {
		case pipeline.StageSave, pipeline.StageImageMove:
			return ExitFailure, ErrCodeWriteFailed
		case pipeline.StageLoad, pipeline.StageCheck:
			return ExitCommandError, ErrCodeNotFound
		}
	}
	return ExitFailure, ErrCodeGeneric
}
