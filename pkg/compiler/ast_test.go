package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func mustLiteral(t *testing.T, kind Kind, lexeme string) *Literal {
	t.Helper()
	lit, err := NewLiteral(kind, lexeme)
	if err != nil {
		t.Fatalf("NewLiteral(%s, %q): %v", kind, lexeme, err)
	}
	return lit
}

func mustVar(t *testing.T, s *SymbolTable, kind Kind, name string) *Variable {
	t.Helper()
	slot, err := s.Declare(kind, name)
	if err != nil {
		t.Fatalf("Declare(%s): %v", name, err)
	}
	return NewVariable(slot)
}

func TestNodeTypes(t *testing.T) {
	s := NewSymbolTable()
	x := mustVar(t, s, KindVal, "x")
	c := mustVar(t, s, KindChar, "c")
	be.Equal(t, x.Type(), KindVal)
	be.Equal(t, c.Type(), KindChar)

	assign, err := NewAssign(c, mustLiteral(t, KindChar, "'a'"))
	be.Err(t, err, nil)
	be.Equal(t, assign.Type(), KindChar)

	cmp, err := NewBinaryMath("==", NewVariable(c.Slot), mustLiteral(t, KindChar, "'b'"))
	be.Err(t, err, nil)
	be.Equal(t, cmp.Type(), KindVal)
	be.Equal(t, cmp.Instruction, "test_equ")

	stmt, err := NewPrint(x)
	be.Err(t, err, nil)
	be.Equal(t, stmt.Type(), KindVoid)
}

func TestConstructionErrors(t *testing.T) {
	s := NewSymbolTable()
	val := func() Node { return mustLiteral(t, KindVal, "1") }
	chr := func() Node { return mustLiteral(t, KindChar, "'x'") }

	tests := []struct {
		name  string
		build func() error
		want  error
		msg   string
	}{
		{"literal of string kind", func() error { _, err := NewLiteral(KindString, `"hi"`); return err }, ErrInternal, "literal of kind string"},
		{"assign mismatch", func() error { _, err := NewAssign(val(), chr()); return err }, ErrType, "assignment kind mismatch"},
		{"relational mismatch", func() error { _, err := NewBinaryMath("<", val(), chr()); return err }, ErrType, "relational operand mismatch"},
		{"math on char", func() error { _, err := NewBinaryMath("+", chr(), chr()); return err }, ErrType, "non-value in mathematical expression"},
		{"unknown operator", func() error { _, err := NewBinaryMath("%", val(), val()); return err }, ErrInternal, "no instruction"},
		{"unary minus on char", func() error { _, err := NewUnaryMinus(chr()); return err }, ErrType, "non-value"},
		{"and on char", func() error { _, err := NewBoolAnd(val(), chr()); return err }, ErrType, "non-value"},
		{"or on char", func() error { _, err := NewBoolOr(chr(), val()); return err }, ErrType, "non-value"},
		{"not on char", func() error { _, err := NewNot(chr()); return err }, ErrType, "non-value"},
		{"random of char", func() error { _, err := NewRandom(chr()); return err }, ErrType, "non-value"},
		{"print void", func() error { _, err := NewPrint(val(), NewRoot()); return err }, ErrInternal, "unprintable kind"},
		{"if on char", func() error { _, err := NewIf(chr(), NewRoot(), nil); return err }, ErrType, "condition must be Val"},
		{"while on char", func() error { _, err := NewWhile(s, chr(), NewRoot()); return err }, ErrType, "condition must be Val"},
		{"while without loop context", func() error { _, err := NewWhile(s, val(), NewRoot()); return err }, ErrInternal, "outside of any loop"},
		{"break outside loop", func() error { _, err := NewBreak(s); return err }, ErrControlFlow, "'break' command used outside of any loop"},
		{"continue outside loop", func() error { _, err := NewContinue(s); return err }, ErrControlFlow, "'continue' command used outside of any loop"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("error %q does not mention %q", err, tc.msg)
			}
		})
	}
}

func TestErrorNodeContext(t *testing.T) {
	_, err := NewAssign(mustLiteral(t, KindVal, "1"), mustLiteral(t, KindChar, "'x'"))
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %T", err)
	}
	be.Equal(t, ce.Node, "Assign")
	be.True(t, !IsInternal(err))

	ce.Line = 7
	be.True(t, strings.HasPrefix(err.Error(), "line 7: type error: assignment kind mismatch"))
}

func TestLoopContextBinding(t *testing.T) {
	s := NewSymbolTable()
	outer := s.PushLoop()
	brkOuter, err := NewBreak(s)
	be.Err(t, err, nil)

	inner := s.PushLoop()
	brkInner, err := NewBreak(s)
	be.Err(t, err, nil)
	cont, err := NewContinue(s)
	be.Err(t, err, nil)
	w, err := NewWhile(s, mustLiteral(t, KindVal, "1"), NewRoot())
	be.Err(t, err, nil)
	s.PopLoop()

	be.Equal(t, brkOuter.Label, outer)
	be.Equal(t, brkInner.Label, inner)
	be.Equal(t, cont.Label, inner)
	be.Equal(t, w.Label, inner)

	// Labels are bound at construction; later stack changes do not move them.
	s.PopLoop()
	be.Equal(t, brkInner.Label, inner)
}

// programOf builds a finished Root the way the parser does.
func programOf(stmts ...Node) *Root {
	tmp := NewTemp(KindVoid)
	for _, s := range stmts {
		tmp.AddChild(s)
	}
	root := NewRoot()
	root.TransferChildren(tmp)
	return root
}

func TestTransferChildren(t *testing.T) {
	tmp := NewTemp(KindVoid)
	a := mustLiteral(t, KindVal, "1")
	b := mustLiteral(t, KindVal, "2")
	tmp.AddChild(a)
	tmp.AddChild(b)

	root := NewRoot()
	root.TransferChildren(tmp)

	be.Equal(t, root.NumChildren(), 2)
	be.Equal(t, tmp.NumChildren(), 0)
	be.True(t, root.Child(0) == Node(a))
	be.True(t, root.Child(1) == Node(b))

	// Transferring onto itself is a no-op.
	root.TransferChildren(root)
	be.Equal(t, root.NumChildren(), 2)

	// Only the placeholder accepts children one at a time.
	_, ok := any(root).(interface{ AddChild(Node) })
	be.True(t, !ok)
}

func TestIfChildren(t *testing.T) {
	cond := mustLiteral(t, KindVal, "1")
	withoutElse, err := NewIf(cond, NewRoot(), nil)
	be.Err(t, err, nil)
	be.True(t, !withoutElse.HasElse())
	be.Equal(t, len(withoutElse.Children()), 2)

	withElse, err := NewIf(mustLiteral(t, KindVal, "1"), NewRoot(), NewRoot())
	be.Err(t, err, nil)
	be.True(t, withElse.HasElse())
}

func TestDump(t *testing.T) {
	s := NewSymbolTable()
	x := mustVar(t, s, KindVal, "x")
	sum, _ := NewBinaryMath("+", x, mustLiteral(t, KindVal, "4"))
	stmt, _ := NewPrint(sum)
	root := programOf(stmt)

	var sb strings.Builder
	Dump(&sb, root, 0)
	want := `Root (container) [1 children]
  Print (print command) [1 children]
    BinaryMath (operator+) [2 children]
      Variable (x) [0 children]
      Literal (4) [0 children]
`
	be.Equal(t, sb.String(), want)
}
