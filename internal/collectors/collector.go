// Package collectors extracts normalized integration artifacts from optional
// candidate inputs. Each collector succeeds or fails on its own.
package collectors

import (
	"context"
	"fmt"
)

// Source tags the integration an artifact came from.
type Source string

// Integration sources
const (
	SourceResume   Source = "resume"
	SourceGitHub   Source = "github"
	SourceLinkedIn Source = "linkedin"
	SourceCP       Source = "cp"
)

// Sources returns all sources in canonical order.
func Sources() []Source {
	return []Source{SourceResume, SourceGitHub, SourceLinkedIn, SourceCP}
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceResume, SourceGitHub, SourceLinkedIn, SourceCP:
		return true
	default:
		return false
	}
}

// Collector turns one raw input into a normalized payload.
type Collector[In any] interface {
	Source() Source
	Collect(ctx context.Context, input In) (any, error)
}

// Error is a collector failure. It never aborts an evaluation.
type Error struct {
	Source  Source
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s collector: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s collector: %s", e.Source, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Summary returns the degraded payload shown to callers in place of an artifact.
func (e *Error) Summary() map[string]string {
	return map[string]string{"error": e.Message}
}

// Outcome is the tagged result of one collector run: exactly one of Payload
// or Err is set.
type Outcome struct {
	Source  Source
	Payload any
	Err     *Error
}

// OK reports whether the collector produced an artifact.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Summary returns the payload on success and the degraded error payload otherwise.
func (o Outcome) Summary() any {
	if o.Err != nil {
		return o.Err.Summary()
	}
	return o.Payload
}

// Run invokes c and folds any failure into an Outcome. Errors that are not
// already *Error are wrapped with a generic message.
func Run[In any](ctx context.Context, c Collector[In], input In) Outcome {
	src := c.Source()
	payload, err := c.Collect(ctx, input)
	if err == nil {
		return Outcome{Source: src, Payload: payload}
	}

	if cErr, ok := err.(*Error); ok {
		return Outcome{Source: src, Err: cErr}
	}
	return Outcome{
		Source: src,
		Err:    &Error{Source: src, Message: fmt.Sprintf("Unable to process %s data", src), Cause: err},
	}
}
