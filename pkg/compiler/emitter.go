package compiler

import (
	"fmt"
	"io"
	"strings"
)

// Emitter is the append-only instruction stream. Lines are written in the
// order they are produced; the first write error sticks and later writes
// are dropped.
type Emitter struct {
	w        io.Writer
	comments bool
	lines    int
	instrs   int
	err      error
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w, comments: true}
}

// SetComments turns the "#" traceability lines on or off.
func (e *Emitter) SetComments(on bool) { e.comments = on }

func (e *Emitter) line(s string) bool {
	if e.err != nil {
		return false
	}
	if _, err := io.WriteString(e.w, s+"\n"); err != nil {
		e.err = fmt.Errorf("write instruction stream: %w", err)
		return false
	}
	e.lines++
	return true
}

// Instr writes one instruction: mnemonic followed by its operands.
func (e *Emitter) Instr(mnemonic string, operands ...string) {
	text := mnemonic
	if len(operands) > 0 {
		text += " " + strings.Join(operands, " ")
	}
	if e.line(text) {
		e.instrs++
	}
}

// Label writes a label definition line.
func (e *Emitter) Label(name string) {
	e.line(name + ":")
}

// Comment writes a "#" line when comments are enabled.
func (e *Emitter) Comment(format string, args ...any) {
	if !e.comments {
		return
	}
	e.line("# " + fmt.Sprintf(format, args...))
}

// Lines returns the number of lines written so far.
func (e *Emitter) Lines() int { return e.lines }

// Instructions returns the number of instructions written so far.
func (e *Emitter) Instructions() int { return e.instrs }

func (e *Emitter) Err() error { return e.err }
