package compiler

import (
	"errors"
	"fmt"
)

// Error classes. User-facing classes describe invalid programs; internal
// classes describe a broken contract between the front-end and the core.
var (
	ErrType              = errors.New("type error")
	ErrControlFlow       = errors.New("control flow error")
	ErrDuplicate         = errors.New("duplicate declaration")
	ErrSyntax            = errors.New("syntax error")
	ErrInternal          = errors.New("internal compiler error")
	ErrUnknownIdentifier = errors.New("unknown identifier")
)

// Error is a classified compilation failure.
type Error struct {
	Class error  // one of the Err* sentinels
	Node  string // node being built or processed, if known
	Msg   string
	Line  int // 1-based source line, 0 when not known
}

func (e *Error) Error() string {
	msg := e.Class.Error() + ": " + e.Msg
	if e.Node != "" {
		msg += " [" + e.Node + "]"
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Class }

// IsInternal reports whether err signals a compiler defect rather than an
// invalid input program.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal) || errors.Is(err, ErrUnknownIdentifier)
}

func newError(class error, format string, args ...any) *Error {
	return &Error{Class: class, Msg: fmt.Sprintf(format, args...)}
}

func typeErrorf(format string, args ...any) error {
	return newError(ErrType, format, args...)
}

func internalErrorf(format string, args ...any) error {
	return newError(ErrInternal, format, args...)
}

// inNode attaches the node name to a classified error that does not have
// one yet. Other errors pass through untouched.
func inNode(err error, node string) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Node == "" {
		ce.Node = node
	}
	return err
}

// atLine attaches a source line to a classified error that does not have
// one yet.
func atLine(err error, line int) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Line == 0 {
		ce.Line = line
	}
	return err
}
