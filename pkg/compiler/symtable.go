package compiler

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
)

// Slot is one storage location in the target machine's memory.
type Slot struct {
	Kind     Kind
	Name     string // empty for compiler temporaries
	Location int
}

// Loc renders the slot as an instruction operand, e.g. "s7".
func (s *Slot) Loc() (string, error) {
	prefix, ok := s.Kind.slotPrefix()
	if !ok {
		return "", newError(ErrInternal, "don't know how to place %s in memory: %q", s.Kind, s.Name)
	}
	return fmt.Sprintf("%s%d", prefix, s.Location), nil
}

func (s *Slot) String() string {
	loc, err := s.Loc()
	if err != nil {
		loc = fmt.Sprintf("?%d", s.Location)
	}
	if s.Name == "" {
		return fmt.Sprintf("%s:%s", loc, s.Kind)
	}
	return fmt.Sprintf("%s:%s(%s)", loc, s.Kind, s.Name)
}

// SymbolTable maps identifiers to storage slots.
// Scopes form a stack; the bottom frame is the global scope and is never
// popped. Every slot ever created stays in the arena, so a location is
// never handed out twice.
// Loop labels form a second stack used by break and continue.
type SymbolTable struct {
	// Stack of scopes. Each scope maps name -> slot.
	scopes []map[string]*Slot

	// Every slot ever allocated, indexed by Location-1.
	slots []*Slot

	// Slots whose scope has closed, plus all temporaries.
	archive []*Slot

	nextLabel int
	loops     []string

	trace tracing.Trace
}

func NewSymbolTable() *SymbolTable {
	s := &SymbolTable{trace: quietTracer()}
	s.EnterScope()
	return s
}

// NewTracer returns a tracer that writes scope and loop-stack activity
// to w at debug level.
func NewTracer(w io.Writer) tracing.Trace {
	t := gologadapter.New()
	t.SetOutput(w)
	t.SetTraceLevel(tracing.LevelDebug)
	return t
}

func quietTracer() tracing.Trace {
	t := gologadapter.New()
	t.SetOutput(io.Discard)
	t.SetTraceLevel(tracing.LevelError)
	return t
}

// SetTrace routes scope and loop-stack tracing to t. A nil tracer silences it.
func (s *SymbolTable) SetTrace(t tracing.Trace) {
	if t == nil {
		t = quietTracer()
	}
	s.trace = t
}

func (s *SymbolTable) EnterScope() {
	s.scopes = append(s.scopes, make(map[string]*Slot))
	s.trace.Debugf("enter scope %d", len(s.scopes)-1)
}

// ExitScope closes the innermost scope and archives its slots.
// The global scope cannot be closed.
func (s *SymbolTable) ExitScope() error {
	if len(s.scopes) <= 1 {
		return internalErrorf("exit scope with no open block scope")
	}
	finished := s.scopes[len(s.scopes)-1]
	names := make([]string, 0, len(finished))
	for name := range finished {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.archive = append(s.archive, finished[name])
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
	s.trace.Debugf("exit scope %d (%d archived)", len(s.scopes), len(names))
	return nil
}

// ScopeDepth returns the number of open scopes, the global scope included.
func (s *SymbolTable) ScopeDepth() int {
	return len(s.scopes)
}

func (s *SymbolTable) newSlot(kind Kind, name string) *Slot {
	slot := &Slot{Kind: kind, Name: name, Location: len(s.slots) + 1}
	s.slots = append(s.slots, slot)
	return slot
}

// Declare binds name to a fresh slot in the innermost scope.
func (s *SymbolTable) Declare(kind Kind, name string) (*Slot, error) {
	if s.DeclaredInCurrentScope(name) {
		return nil, newError(ErrDuplicate, "%q already declared in this scope", name)
	}
	slot := s.newSlot(kind, name)
	s.scopes[len(s.scopes)-1][name] = slot
	return slot, nil
}

// NewTemporary allocates an unnamed slot for an intermediate value.
func (s *SymbolTable) NewTemporary(kind Kind) *Slot {
	slot := s.newSlot(kind, "")
	s.archive = append(s.archive, slot)
	return slot
}

// find descends the scopes until name is found.
func (s *SymbolTable) find(name string) *Slot {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if slot, ok := s.scopes[i][name]; ok {
			return slot
		}
	}
	return nil
}

// Resolve returns the innermost slot bound to name.
func (s *SymbolTable) Resolve(name string) (*Slot, error) {
	slot := s.find(name)
	if slot == nil {
		return nil, newError(ErrUnknownIdentifier, "resolve on unknown name %q", name)
	}
	return slot, nil
}

// Declared reports whether name is visible from the current scope.
func (s *SymbolTable) Declared(name string) bool {
	return s.find(name) != nil
}

// DeclaredInCurrentScope reports whether name is bound in the innermost scope.
func (s *SymbolTable) DeclaredInCurrentScope(name string) bool {
	_, ok := s.scopes[len(s.scopes)-1][name]
	return ok
}

// NextLabel issues prefix_N with a counter shared by the whole compilation.
func (s *SymbolTable) NextLabel(prefix string) string {
	s.nextLabel++
	return fmt.Sprintf("%s_%d", prefix, s.nextLabel)
}

// PushLoop opens a loop context with a fresh while label and returns it.
func (s *SymbolTable) PushLoop() string {
	label := s.NextLabel("while")
	s.loops = append(s.loops, label)
	s.trace.Infof("pushing loop %s (depth %d)", label, len(s.loops))
	return label
}

// TopLoop returns the innermost loop label.
func (s *SymbolTable) TopLoop() (string, error) {
	if len(s.loops) == 0 {
		return "", internalErrorf("loop label requested outside of any loop")
	}
	return s.loops[len(s.loops)-1], nil
}

func (s *SymbolTable) PopLoop() error {
	if len(s.loops) == 0 {
		return internalErrorf("pop from empty loop stack")
	}
	s.trace.Infof("popping loop %s", s.loops[len(s.loops)-1])
	s.loops = s.loops[:len(s.loops)-1]
	return nil
}

func (s *SymbolTable) LoopDepth() int {
	return len(s.loops)
}

// SlotCount returns how many slots have been allocated so far.
func (s *SymbolTable) SlotCount() int {
	return len(s.slots)
}

// Archived returns the slots retained after their scope closed, followed
// in allocation order by the temporaries.
func (s *SymbolTable) Archived() []*Slot {
	out := make([]*Slot, len(s.archive))
	copy(out, s.archive)
	return out
}

// unwind closes scopes and loop contexts until the table is back at the
// given depths.
func (s *SymbolTable) unwind(scopeDepth, loopDepth int) {
	for len(s.scopes) > scopeDepth && len(s.scopes) > 1 {
		_ = s.ExitScope()
	}
	for len(s.loops) > loopDepth {
		_ = s.PopLoop()
	}
}

// checkpoint records what a failed compilation has to undo.
type checkpoint struct {
	scopes  int
	loops   int
	globals map[string]bool
}

func (s *SymbolTable) checkpoint() checkpoint {
	globals := make(map[string]bool, len(s.scopes[0]))
	for name := range s.scopes[0] {
		globals[name] = true
	}
	return checkpoint{scopes: len(s.scopes), loops: len(s.loops), globals: globals}
}

// rollback returns scopes, loops and global bindings to cp. Slots and
// labels issued since cp stay consumed; unbound globals move to the
// archive so their locations are never handed out again.
func (s *SymbolTable) rollback(cp checkpoint) {
	s.unwind(cp.scopes, cp.loops)
	global := s.scopes[0]
	names := make([]string, 0)
	for name := range global {
		if !cp.globals[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		s.archive = append(s.archive, global[name])
		delete(global, name)
	}
	if len(names) > 0 {
		s.trace.Debugf("dropped globals %s", strings.Join(names, ", "))
	}
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	sb.WriteString("Scopes (Active Stack):\n")
	for i, scope := range s.scopes {
		fmt.Fprintf(&sb, "  Scope %d:\n", i)
		names := make([]string, 0, len(scope))
		for name := range scope {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "    %-20s  %s\n", name, scope[name])
		}
	}
	fmt.Fprintf(&sb, "Slots: %d allocated, %d archived\n", len(s.slots), len(s.archive))
	if len(s.loops) > 0 {
		fmt.Fprintf(&sb, "Loops: %s\n", strings.Join(s.loops, ", "))
	}
	return sb.String()
}
