// Package schema validates COCO annotation documents against an embedded
// CUE schema before they are merged.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed coco.cue
var cocoSchema string

// maxIssues bounds how many CUE errors a ValidationError keeps.
const maxIssues = 20

// Issue is one schema violation.
type Issue struct {
	Message string
	Pos     token.Pos
}

func (i Issue) String() string {
	if i.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", i.Pos.Filename(), i.Pos.Line(), i.Pos.Column(), i.Message)
	}
	return i.Message
}

// ValidationError reports every schema violation found in one document.
type ValidationError struct {
	Source    string
	Issues    []Issue
	Truncated int // issues dropped beyond maxIssues
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: schema validation failed", e.Source)
	}
	msg := fmt.Sprintf("%s: schema validation failed: %s", e.Source, e.Issues[0])
	if n := len(e.Issues) - 1 + e.Truncated; n > 0 {
		msg += fmt.Sprintf(" (+%d more)", n)
	}
	return msg
}

// Validator checks documents against the #Document definition.
type Validator struct {
	ctx *cue.Context
	doc cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(cocoSchema, cue.Filename("coco.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Document"))
	if !def.Exists() {
		return nil, fmt.Errorf("compile schema: #Document not defined")
	}
	return &Validator{ctx: ctx, doc: def}, nil
}

// Validate checks raw JSON. source names the document in positions and errors.
func (v *Validator) Validate(source string, data []byte) error {
	expr, err := cuejson.Extract(source, data)
	if err != nil {
		return newValidationError(source, err)
	}
	val := v.ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return newValidationError(source, err)
	}
	if err := v.doc.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return newValidationError(source, err)
	}
	return nil
}

// ValidateFile reads and validates the document at path.
func (v *Validator) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return v.Validate(path, data)
}

func newValidationError(source string, err error) *ValidationError {
	ve := &ValidationError{Source: source}
	for _, e := range cueerrors.Errors(err) {
		if len(ve.Issues) == maxIssues {
			ve.Truncated++
			continue
		}
		issue := Issue{Message: issueMessage(e)}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			issue.Pos = positions[0]
		}
		ve.Issues = append(ve.Issues, issue)
	}
	if len(ve.Issues) == 0 {
		ve.Issues = append(ve.Issues, Issue{Message: err.Error()})
	}
	return ve
}

func issueMessage(e cueerrors.Error) string {
	format, args := e.Msg()
	msg := fmt.Sprintf(format, args...)
	if path := e.Path(); len(path) > 0 {
		return strings.Join(path, ".") + ": " + msg
	}
	return msg
}
