package compiler

import (
	"fmt"
	"io"
	"strings"
)

// Node is implemented by every AST variant. The set of variants is closed:
// the unexported base method keeps other packages from adding new ones, and
// CodeGen.Process switches over all of them.
//
// A node's Type is decided when it is built, after its children have been
// checked, and never changes.
type Node interface {
	Type() Kind
	Children() []Node
	Name() string
	base() *node
}

// node carries the state shared by every variant.
// A child belongs to exactly one parent.
type node struct {
	typ      Kind
	children []Node
}

func (n *node) Type() Kind       { return n.typ }
func (n *node) Children() []Node { return n.children }
func (n *node) base() *node      { return n }

func (n *node) Child(i int) Node { return n.children[i] }
func (n *node) NumChildren() int { return len(n.children) }

// TransferChildren moves every child of from onto the end of n's child list
// and leaves from with none.
func (n *node) TransferChildren(from Node) {
	src := from.base()
	if src == n {
		return
	}
	n.children = append(n.children, src.children...)
	src.children = nil
}

//  Containers

// Root runs its children in order. It is used for whole programs and for
// braced blocks. A Root receives its children in one move from a Temp and
// is not extended after that.
type Root struct {
	node
}

func NewRoot() *Root {
	return &Root{node{typ: KindVoid}}
}

func (*Root) Name() string { return "Root (container)" }

// Temp is a placeholder that collects children while a construct is still
// being parsed. It must be emptied into a real node before code generation.
type Temp struct {
	node
}

func NewTemp(kind Kind) *Temp {
	return &Temp{node{typ: kind}}
}

func (t *Temp) AddChild(c Node) { t.children = append(t.children, c) }

func (*Temp) Name() string { return "Temp (under construction)" }

//  Leaves

// Variable refers to a declared slot.
//
//	x = 3;
//	^  Variable{Slot: x}
type Variable struct {
	node
	Slot *Slot
}

func NewVariable(slot *Slot) *Variable {
	return &Variable{node: node{typ: slot.Kind}, Slot: slot}
}

func (v *Variable) Name() string { return fmt.Sprintf("Variable (%s)", v.Slot.Name) }

// Literal is a val or char constant, copied verbatim into the listing.
//
//	print 'a', 10;
//	      ^^^  ^^  Literal{KindChar, "'a'"}, Literal{KindVal, "10"}
type Literal struct {
	node
	Lexeme string
}

func NewLiteral(kind Kind, lexeme string) (*Literal, error) {
	if kind != KindVal && kind != KindChar {
		return nil, newError(ErrInternal, "literal of kind %s is not supported", kind)
	}
	return &Literal{node: node{typ: kind}, Lexeme: lexeme}, nil
}

func (l *Literal) Name() string { return fmt.Sprintf("Literal (%s)", l.Lexeme) }

//  Expressions

// Assign copies the right side into the left side and yields the left slot.
type Assign struct {
	node
}

func NewAssign(lhs, rhs Node) (*Assign, error) {
	if err := CheckAssign(lhs.Type(), rhs.Type()); err != nil {
		return nil, inNode(err, "Assign")
	}
	return &Assign{node{typ: lhs.Type(), children: []Node{lhs, rhs}}}, nil
}

func (*Assign) Name() string { return "Assign (operator=)" }

// UnaryMinus computes 0 - x.
type UnaryMinus struct {
	node
}

func NewUnaryMinus(x Node) (*UnaryMinus, error) {
	if err := CheckMath(x.Type()); err != nil {
		return nil, inNode(err, "UnaryMinus")
	}
	return &UnaryMinus{node{typ: KindVal, children: []Node{x}}}, nil
}

func (*UnaryMinus) Name() string { return "UnaryMinus (unary -)" }

// BinaryMath is an arithmetic or relational operator with one instruction.
//
//	x + 1
//	^ ^ ^
//	| | children[1]
//	| Op
//	children[0]
type BinaryMath struct {
	node
	Op          string
	Instruction string
}

func NewBinaryMath(op string, lhs, rhs Node) (*BinaryMath, error) {
	instr, ok := Mnemonic(op)
	if !ok {
		return nil, newError(ErrInternal, "no instruction for operator %q", op)
	}
	if err := CheckOperator(op, lhs.Type(), rhs.Type()); err != nil {
		return nil, inNode(err, "BinaryMath "+op)
	}
	return &BinaryMath{
		node:        node{typ: KindVal, children: []Node{lhs, rhs}},
		Op:          op,
		Instruction: instr,
	}, nil
}

func (b *BinaryMath) Name() string { return fmt.Sprintf("BinaryMath (operator%s)", b.Op) }

// BoolAnd is && with short-circuit evaluation.
type BoolAnd struct {
	node
}

func NewBoolAnd(lhs, rhs Node) (*BoolAnd, error) {
	if err := CheckMath(lhs.Type(), rhs.Type()); err != nil {
		return nil, inNode(err, "BoolAnd")
	}
	return &BoolAnd{node{typ: KindVal, children: []Node{lhs, rhs}}}, nil
}

func (*BoolAnd) Name() string { return "BoolAnd" }

// BoolOr is || with short-circuit evaluation.
type BoolOr struct {
	node
}

func NewBoolOr(lhs, rhs Node) (*BoolOr, error) {
	if err := CheckMath(lhs.Type(), rhs.Type()); err != nil {
		return nil, inNode(err, "BoolOr")
	}
	return &BoolOr{node{typ: KindVal, children: []Node{lhs, rhs}}}, nil
}

func (*BoolOr) Name() string { return "BoolOr" }

// Not yields 1 when x is zero and 0 otherwise.
type Not struct {
	node
}

func NewNot(x Node) (*Not, error) {
	if err := CheckMath(x.Type()); err != nil {
		return nil, inNode(err, "Not")
	}
	return &Not{node{typ: KindVal, children: []Node{x}}}, nil
}

func (*Not) Name() string { return "Not (!)" }

// Random draws a value below its argument.
type Random struct {
	node
}

func NewRandom(x Node) (*Random, error) {
	if err := CheckMath(x.Type()); err != nil {
		return nil, inNode(err, "Random")
	}
	return &Random{node{typ: KindVal, children: []Node{x}}}, nil
}

func (*Random) Name() string { return "Random (random command)" }

//  Statements

// Print writes each item and then a newline.
type Print struct {
	node
}

func NewPrint(items ...Node) (*Print, error) {
	for _, item := range items {
		if err := CheckPrintable(item.Type()); err != nil {
			return nil, inNode(err, "Print")
		}
	}
	return &Print{node{typ: KindVoid, children: items}}, nil
}

func (*Print) Name() string { return "Print (print command)" }

// If runs Then when the condition is non-zero and Else (optional) otherwise.
type If struct {
	node
}

func NewIf(cond, then, els Node) (*If, error) {
	if err := CheckCondition(cond.Type()); err != nil {
		return nil, inNode(err, "If")
	}
	children := []Node{cond, then}
	if els != nil {
		children = append(children, els)
	}
	return &If{node{typ: KindVoid, children: children}}, nil
}

func (i *If) HasElse() bool { return len(i.children) == 3 }

func (*If) Name() string { return "If" }

// While loops on its condition. Its label is the loop context that was
// pushed on the symbol table before the body was built.
type While struct {
	node
	Label string
}

func NewWhile(syms *SymbolTable, cond, body Node) (*While, error) {
	if err := CheckCondition(cond.Type()); err != nil {
		return nil, inNode(err, "While")
	}
	label, err := syms.TopLoop()
	if err != nil {
		return nil, inNode(err, "While")
	}
	return &While{node: node{typ: KindVoid, children: []Node{cond, body}}, Label: label}, nil
}

func (w *While) Name() string { return fmt.Sprintf("While (%s)", w.Label) }

// Break jumps to the end of the innermost enclosing loop.
type Break struct {
	node
	Label string
}

func NewBreak(syms *SymbolTable) (*Break, error) {
	label, err := loopLabel(syms, "break")
	if err != nil {
		return nil, err
	}
	return &Break{node: node{typ: KindVoid}, Label: label}, nil
}

func (*Break) Name() string { return "Break" }

// Continue jumps back to the condition of the innermost enclosing loop.
type Continue struct {
	node
	Label string
}

func NewContinue(syms *SymbolTable) (*Continue, error) {
	label, err := loopLabel(syms, "continue")
	if err != nil {
		return nil, err
	}
	return &Continue{node: node{typ: KindVoid}, Label: label}, nil
}

func (*Continue) Name() string { return "Continue" }

func loopLabel(syms *SymbolTable, keyword string) (string, error) {
	if syms.LoopDepth() <= 0 {
		return "", newError(ErrControlFlow, "'%s' command used outside of any loop", keyword)
	}
	return syms.TopLoop()
}

// Dump writes an indented outline of the tree rooted at n.
func Dump(w io.Writer, n Node, indent int) {
	if n == nil {
		fmt.Fprintf(w, "%s<nil>\n", strings.Repeat("  ", indent))
		return
	}
	fmt.Fprintf(w, "%s%s [%d children]\n", strings.Repeat("  ", indent), n.Name(), len(n.Children()))
	for _, c := range n.Children() {
		Dump(w, c, indent+1)
	}
}
