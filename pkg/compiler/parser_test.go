package compiler

import (
	"errors"
	"strings"
	"testing"
)

func parseSource(t *testing.T, src string) (*Root, *SymbolTable, error) {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	syms := NewSymbolTable()
	root, err := Parse(tokens, src, syms)
	return root, syms, err
}

func dump(n Node) string {
	var sb strings.Builder
	Dump(&sb, n, 0)
	return sb.String()
}

func TestParse_Trees(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "declaration without init emits nothing",
			input: "val x;",
			want:  "Root (container) [0 children]\n",
		},
		{
			name:  "declaration with init",
			input: "val x = 1 + 2 * 3;",
			want: `Root (container) [1 children]
  Assign (operator=) [2 children]
    Variable (x) [0 children]
    BinaryMath (operator+) [2 children]
      Literal (1) [0 children]
      BinaryMath (operator*) [2 children]
        Literal (2) [0 children]
        Literal (3) [0 children]
`,
		},
		{
			name:  "compound assignment",
			input: "val x; x -= 4;",
			want: `Root (container) [1 children]
  Assign (operator=) [2 children]
    Variable (x) [0 children]
    BinaryMath (operator-=) [2 children]
      Variable (x) [0 children]
      Literal (4) [0 children]
`,
		},
		{
			name:  "logical precedence",
			input: "val a; val b; val c; print a || b && !c;",
			want: `Root (container) [1 children]
  Print (print command) [1 children]
    BoolOr [2 children]
      Variable (a) [0 children]
      BoolAnd [2 children]
        Variable (b) [0 children]
        Not (!) [1 children]
          Variable (c) [0 children]
`,
		},
		{
			name:  "block flattens into root",
			input: "{ val x = 1; ; print -x, 'a'; }",
			want: `Root (container) [1 children]
  Root (container) [2 children]
    Assign (operator=) [2 children]
      Variable (x) [0 children]
      Literal (1) [0 children]
    Print (print command) [2 children]
      UnaryMinus (unary -) [1 children]
        Variable (x) [0 children]
      Literal ('a') [0 children]
`,
		},
		{
			name:  "if else",
			input: "val x; if (x < random(5)) ; else x = 1;",
			want: `Root (container) [1 children]
  If [3 children]
    BinaryMath (operator<) [2 children]
      Variable (x) [0 children]
      Random (random command) [1 children]
        Literal (5) [0 children]
    Root (container) [0 children]
    Assign (operator=) [2 children]
      Variable (x) [0 children]
      Literal (1) [0 children]
`,
		},
		{
			name:  "while with break",
			input: "val x; while (x) { break; }",
			want: `Root (container) [1 children]
  While (while_1) [2 children]
    Variable (x) [0 children]
    Root (container) [1 children]
      Break [0 children]
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root, _, err := parseSource(t, tc.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got := dump(root); got != tc.want {
				t.Errorf("tree mismatch\ngot:\n%s\nwant:\n%s", got, tc.want)
			}
		})
	}
}

func TestParse_Scopes(t *testing.T) {
	src := `val x = 1;
{
	char x = 'a';
	print x;
}
print x;`
	root, syms, err := parseSource(t, src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if syms.ScopeDepth() != 1 {
		t.Errorf("scopes left open: %d", syms.ScopeDepth())
	}

	inner := root.Child(1).(*Root).Child(1).(*Print)
	outer := root.Child(2).(*Print)
	if k := inner.Child(0).Type(); k != KindChar {
		t.Errorf("inner x should be char, got %s", k)
	}
	if k := outer.Child(0).Type(); k != KindVal {
		t.Errorf("outer x should be val, got %s", k)
	}
}

func TestParse_InitReadsOuterBinding(t *testing.T) {
	src := "val x = 1; { char y = 'q'; val x = x; }"
	root, _, err := parseSource(t, src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	decl := root.Child(1).(*Root).Child(1).(*Assign)
	lhs := decl.Child(0).(*Variable)
	rhs := decl.Child(1).(*Variable)
	if lhs.Slot == rhs.Slot {
		t.Errorf("initialiser should read the outer x")
	}
	if rhs.Slot.Location != 1 {
		t.Errorf("outer x location: expected 1, got %d", rhs.Slot.Location)
	}
}

func TestParse_LoopStack(t *testing.T) {
	src := `val x;
while (x) {
	while (x) { break; }
	continue;
}`
	root, syms, err := parseSource(t, src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if syms.LoopDepth() != 0 {
		t.Errorf("loop stack not empty after parse: %d", syms.LoopDepth())
	}
	outer := root.Child(0).(*While)
	body := outer.Child(1).(*Root)
	inner := body.Child(0).(*While)
	brk := inner.Child(1).(*Root).Child(0).(*Break)
	cont := body.Child(1).(*Continue)

	if outer.Label != "while_1" || inner.Label != "while_2" {
		t.Errorf("labels: outer %s, inner %s", outer.Label, inner.Label)
	}
	if brk.Label != inner.Label {
		t.Errorf("inner break bound to %s, expected %s", brk.Label, inner.Label)
	}
	if cont.Label != outer.Label {
		t.Errorf("continue bound to %s, expected %s", cont.Label, outer.Label)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		class error
		line  int
		msg   string
	}{
		{"break outside loop", "val x;\nbreak;", ErrControlFlow, 2, "'break' command used outside of any loop"},
		{"continue outside loop", "continue;", ErrControlFlow, 1, "'continue' command used outside of any loop"},
		{"break after loop", "val x; while (x) ;\nbreak;", ErrControlFlow, 2, "outside of any loop"},
		{"redeclaration", "val x;\nchar x;", ErrDuplicate, 2, `"x" already declared`},
		{"assign mismatch", "val x; char c;\nx = c;", ErrType, 2, "assignment kind mismatch"},
		{"init mismatch", "char c = 3;", ErrType, 1, "assignment kind mismatch"},
		{"relational mismatch", "val x; char c; print x == c;", ErrType, 1, "relational operand mismatch"},
		{"math on char", "char c; print c + c;", ErrType, 1, "non-value in mathematical expression"},
		{"compound on char", "char c; c += 'a';", ErrType, 1, "non-value in mathematical expression"},
		{"char condition", "char c;\n\nwhile (c) ;", ErrType, 3, "condition must be Val"},
		{"unknown variable", "print y;", ErrSyntax, 1, `unknown variable "y"`},
		{"missing semicolon", "val x = 1\nprint x;", ErrSyntax, 2, "expected SEMICOLON"},
		{"unterminated block", "{ val x;", ErrSyntax, 1, "unterminated block"},
		{"bad expression", "print );", ErrSyntax, 1, "unexpected token RPAREN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := parseSource(t, tc.input)
			if !errors.Is(err, tc.class) {
				t.Fatalf("expected %v, got %v", tc.class, err)
			}
			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if ce.Line != tc.line {
				t.Errorf("line: expected %d, got %d (%v)", tc.line, ce.Line, err)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("error %q does not mention %q", err, tc.msg)
			}
			if IsInternal(err) {
				t.Errorf("program errors must not be classified internal")
			}
		})
	}
}
