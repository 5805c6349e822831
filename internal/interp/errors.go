package interp

import (
	"errors"
	"fmt"

	"github.com/aretw0/storytree/pkg/dsl/ast"
)

// RuntimeError is a failure of script code at a known position.
type RuntimeError struct {
	Pos ast.Pos
	Err error
}

func (e *RuntimeError) Error() string {
	return e.Err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// at attaches pos to err unless it already carries a position.
func at(pos ast.Pos, err error) error {
	if err == nil {
		return nil
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return &RuntimeError{Pos: pos, Err: err}
}

func errorf(pos ast.Pos, format string, args ...any) error {
	return &RuntimeError{Pos: pos, Err: fmt.Errorf(format, args...)}
}

// Position extracts the script position of err, if any.
func Position(err error) ast.Pos {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Pos
	}
	return ast.Pos{}
}
