package story

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/storytree/pkg/dsl/ast"
)

var (
	// ErrUnknownNode is returned when a reference names a node that does not exist.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode is returned when two nodes of a story share an ID.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrEmptyNodeID is returned when a node is declared without an ID.
	ErrEmptyNodeID = errors.New("node ID must not be empty")
	// ErrDuplicateStory is returned when one evaluation declares two stories with the same ID.
	ErrDuplicateStory = errors.New("stories built at the same time must not have identical IDs")
	// ErrNoInitialNode is returned when a story has no node to start from.
	ErrNoInitialNode = errors.New("initial node does not exist")
	// ErrNoStories is returned when a script declares no story at all.
	ErrNoStories = errors.New("no stories described in file")
	// ErrAborted is returned when the story was closed while it was being built.
	ErrAborted = errors.New("story loading aborted")
	// ErrForcedFailure is returned by the fail statement.
	ErrForcedFailure = errors.New("the story was forced to crash")
	// ErrResourcesUnsupported is returned when the engine cannot serve resources.
	ErrResourcesUnsupported = errors.New("engine does not support resources")
)

// IncompatibleEngineError reports a story requiring a capability the engine lacks.
type IncompatibleEngineError struct {
	Required string
}

func (e *IncompatibleEngineError) Error() string {
	return fmt.Sprintf("engine does not match story requirements. Required: %s", e.Required)
}

// InvalidResourceError reports a resource that the engine cannot use for the requested purpose.
type InvalidResourceError struct {
	Name string
}

func (e *InvalidResourceError) Error() string {
	return fmt.Sprintf("the provided resource (%s) does not correspond to what was expected", e.Name)
}

// Phase identifies where an evaluation failed.
type Phase string

const (
	PhaseParse   Phase = "parse"
	PhaseBuild   Phase = "build"
	PhaseRuntime Phase = "runtime"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Diagnostic is one problem found in a script.
type Diagnostic struct {
	Severity Severity
	Message  string
	Pos      ast.Pos
	End      *ast.Pos
}

// EvaluationError is returned when a script cannot be turned into stories,
// or when its runtime code fails while a story is being played.
type EvaluationError struct {
	Phase       Phase
	Source      string
	Diagnostics []Diagnostic
	Err         error
}

func (e *EvaluationError) Error() string {
	var b strings.Builder
	b.WriteString("story building failed")
	if e.Phase == PhaseRuntime {
		b.Reset()
		b.WriteString("story script failed")
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if len(e.Diagnostics) > 0 {
		d := e.Diagnostics[0]
		if d.Pos.Line > 0 {
			fmt.Fprintf(&b, " at %d:%d", d.Pos.Line, d.Pos.Col)
		}
		fmt.Fprintf(&b, ": %s", d.Message)
		if n := len(e.Diagnostics) - 1; n > 0 {
			fmt.Fprintf(&b, " (and %d more)", n)
		}
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Report renders every diagnostic on several lines, suitable for an error dialog.
func (e *EvaluationError) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Story building failed (%s phase). Check the diagnostics for why.\n", e.Phase)
	if len(e.Diagnostics) == 0 && e.Err != nil {
		fmt.Fprintf(&b, "%s: %v\n", SeverityError, e.Err)
	}
	for _, d := range e.Diagnostics {
		fmt.Fprintf(&b, "%s: %s\n", d.Severity, d.Message)
		if d.Pos.Line > 0 {
			fmt.Fprintf(&b, "  Location: line %d @ character %d\n", d.Pos.Line, d.Pos.Col)
			if d.End != nil {
				fmt.Fprintf(&b, "              to line %d @ character %d\n", d.End.Line, d.End.Col)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// NewEvaluationError wraps err into an EvaluationError with a single diagnostic.
func NewEvaluationError(phase Phase, source string, pos ast.Pos, err error) *EvaluationError {
	return &EvaluationError{
		Phase:  phase,
		Source: source,
		Diagnostics: []Diagnostic{{
			Severity: SeverityError,
			Message:  err.Error(),
			Pos:      pos,
		}},
		Err: err,
	}
}
