package compiler

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"valc/pkg/asm"
)

// Options configures a compilation.
type Options struct {
	// Comments emits "#" traceability lines into the listing.
	Comments bool
	// Check runs the finished listing through the asm reader.
	Check bool
	// Trace receives scope and loop-stack tracing. Nil disables it.
	Trace tracing.Trace
}

func DefaultOptions() Options {
	return Options{Comments: true, Check: true}
}

// Compile turns source text into an instruction listing.
func Compile(src string, opts Options) (string, error) {
	return NewSession(opts).Compile(src)
}

// Session compiles a sequence of sources against one symbol table, so
// declarations, slot locations and label counters carry over from one
// call to the next.
type Session struct {
	opts Options
	syms *SymbolTable
}

func NewSession(opts Options) *Session {
	syms := NewSymbolTable()
	syms.SetTrace(opts.Trace)
	return &Session{opts: opts, syms: syms}
}

// Symbols exposes the session's symbol table.
func (s *Session) Symbols() *SymbolTable { return s.syms }

// Parse lexes and parses src into a tree, declaring into the session's
// table. On failure the scopes, loops and global names opened by the call
// are undone; slot locations and labels it issued are not reused.
func (s *Session) Parse(src string) (*Root, error) {
	cp := s.syms.checkpoint()

	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	root, err := Parse(tokens, src, s.syms)
	if err != nil {
		s.syms.rollback(cp)
		return nil, fmt.Errorf("parse: %w", err)
	}
	return root, nil
}

// Compile parses src and generates its listing.
func (s *Session) Compile(src string) (string, error) {
	root, err := s.Parse(src)
	if err != nil {
		return "", err
	}
	listing, err := Generate(root, s.syms, s.opts)
	if err != nil {
		return "", err
	}
	if s.opts.Check {
		if _, err := asm.Read(listing); err != nil {
			return listing, fmt.Errorf("%w: listing check: %v", ErrInternal, err)
		}
	}
	return listing, nil
}
