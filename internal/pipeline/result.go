package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a run stage failed, so callers can tell a
// missing guide from a cancellation without string matching.
type ErrorKind int

const (
	// KindGuideNotFound means no guide PDF exists for the class level.
	KindGuideNotFound ErrorKind = iota
	// KindNoTocText means the guide's front matter yielded no text.
	KindNoTocText
	// KindNoPages means no strategy produced a usable page list.
	KindNoPages
	// KindNoText means the resolved pages yielded no lesson text.
	KindNoText
	// KindCancelled means the run observed a cancellation at a checkpoint.
	KindCancelled
	// KindBusy means another run was already active on this runner.
	KindBusy
	// KindInternal means an unexpected failure escaped a stage.
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindGuideNotFound:
		return "guide_not_found"
	case KindNoTocText:
		return "no_toc_text"
	case KindNoPages:
		return "no_pages"
	case KindNoText:
		return "no_text"
	case KindCancelled:
		return "cancelled"
	case KindBusy:
		return "busy"
	default:
		return "internal"
	}
}

// StageError is a run failure tagged with its kind and the stage that
// produced it.
type StageError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Stage, e.Kind)
}

func (e *StageError) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from an error returned by Run.
// Non-stage errors report KindInternal.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	RunID          string
	GuidePath      string
	TextbookPath   string
	Topic          string
	CorrectedTopic string
	Offset         int
	Pages          []int
	PagesSource    string
	LessonText     string
	TextbookText   string
}
