package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// Errors returned before any byte has been written. Retrying is safe once the cause is fixed.
var (
	ErrNotMatroska = errors.New("not a valid Matroska file (no EBML head found)")
	ErrNoSegment   = errors.New("not a valid Matroska file (no segment/level 0 element found)")
	ErrAborted     = errors.New("scan aborted")
	ErrNotScanned  = errors.New("file has not been scanned")
	ErrReadOnly    = errors.New("analyzer was opened read-only")
)

// Mutation error kinds. They are matched with errors.Is against a *MutationError.
var (
	ErrSegmentSizeForElement  = errors.New("the element was written at the end of the file, but the segment size could not be updated")
	ErrSegmentSizeForMetaSeek = errors.New("the seek head was written at the end of the file, but the segment size could not be updated")
	ErrMetaSeek               = errors.New("the seek head could not be updated")
	ErrNotIndexable           = errors.New("no room for a seek head before the first cluster")
	ErrOneByteGap             = errors.New("a one-byte gap could not be covered")
	ErrInternal               = errors.New("internal analyzer error")
)

// MutationError reports a failed update_element/remove_elements step. The file may already
// contain the effects of earlier steps.
type MutationError struct {
	Op   string
	Step string
	ID   ebml.ID
	Pos  int64
	Kind error
	Err  error
}

func (e *MutationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Op)
	if e.Step != "" {
		fmt.Fprintf(&b, " at %s", e.Step)
	}
	if e.ID != 0 {
		fmt.Fprintf(&b, " (element %s", e.ID)
		if e.Pos >= 0 {
			fmt.Fprintf(&b, " at %d", e.Pos)
		}
		b.WriteString(")")
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	b.WriteString("; the file has been modified and its state is uncertain")
	return b.String()
}

func (e *MutationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// stepError is what the individual step functions return; the orchestrator lifts it into a
// MutationError with the operation and checkpoint name filled in.
type stepError struct {
	kind error
	id   ebml.ID
	pos  int64
	err  error
}

func (e *stepError) Error() string {
	if e.err == nil {
		return e.kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.kind, e.err)
}

func (e *stepError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

func failure(kind error, id ebml.ID, pos int64, err error) error {
	return &stepError{kind: kind, id: id, pos: pos, err: err}
}

func internalf(id ebml.ID, pos int64, format string, args ...any) error {
	return failure(ErrInternal, id, pos, fmt.Errorf(format, args...))
}

func asMutationError(op, step string, err error) *MutationError {
	var me *MutationError
	if errors.As(err, &me) {
		return me
	}
	out := &MutationError{Op: op, Step: step, Pos: -1, Kind: ErrInternal, Err: err}
	var se *stepError
	if errors.As(err, &se) {
		out.Kind = se.kind
		out.ID = se.id
		out.Pos = se.pos
		out.Err = se.err
	}
	return out
}
