package coco

import (
	"errors"
	"fmt"
)

// MemberError reports a missing or malformed member of a single record.
type MemberError struct {
	Member string
	Reason string
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("member %q: %s", e.Member, e.Reason)
}

// DecodeError locates a decoding failure inside a document.
// Container is empty for top-level failures; Index is -1 when the failure is
// not tied to a single record.
type DecodeError struct {
	Path      string
	Container string
	Index     int
	Err       error
}

func (e *DecodeError) Error() string {
	loc := ""
	switch {
	case e.Container != "" && e.Index >= 0:
		loc = fmt.Sprintf("%s[%d]: ", e.Container, e.Index)
	case e.Container != "":
		loc = e.Container + ": "
	}
	if e.Path != "" {
		return fmt.Sprintf("decode %s: %s%v", e.Path, loc, e.Err)
	}
	return fmt.Sprintf("decode: %s%v", loc, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
