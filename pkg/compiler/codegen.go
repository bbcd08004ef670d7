package compiler

import (
	"fmt"
	"strings"
)

// CodeGen walks a typed AST and emits instructions for the val machine.
type CodeGen struct {
	syms *SymbolTable
	out  *Emitter
}

func NewCodeGen(syms *SymbolTable, out *Emitter) *CodeGen {
	return &CodeGen{syms: syms, out: out}
}

// loc renders a slot operand.
func (cg *CodeGen) loc(s *Slot) (string, error) {
	if s == nil {
		return "", internalErrorf("statement used where a value is required")
	}
	return s.Loc()
}

// locs renders several slot operands in order.
func (cg *CodeGen) locs(slots ...*Slot) ([]string, error) {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		l, err := cg.loc(s)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// value processes n and fails if it produced no slot.
func (cg *CodeGen) value(n Node) (*Slot, error) {
	slot, err := cg.Process(n)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, newError(ErrInternal, "%s produced no value", n.Name())
	}
	return slot, nil
}

// Process emits the code for n and its children. Value-producing nodes
// return the slot holding their result; statements return nil.
func (cg *CodeGen) Process(n Node) (*Slot, error) {
	slot, err := cg.process(n)
	if err != nil {
		return nil, inNode(err, n.Name())
	}
	if err := cg.out.Err(); err != nil {
		return nil, err
	}
	return slot, nil
}

func (cg *CodeGen) process(n Node) (*Slot, error) {
	switch n := n.(type) {

	case *Root:
		cg.out.Comment("Processing Root")
		for _, c := range n.children {
			if _, err := cg.Process(c); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case *Variable:
		return n.Slot, nil

	case *Literal:
		result := cg.syms.NewTemporary(n.typ)
		loc, err := cg.loc(result)
		if err != nil {
			return nil, err
		}
		cg.out.Instr("val_copy", n.Lexeme, loc)
		return result, nil

	case *Assign:
		cg.out.Comment("Process Assign")
		lhs, err := cg.value(n.children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := cg.value(n.children[1])
		if err != nil {
			return nil, err
		}
		instr, err := copyMnemonic(n.typ)
		if err != nil {
			return nil, err
		}
		ops, err := cg.locs(rhs, lhs)
		if err != nil {
			return nil, err
		}
		cg.out.Instr(instr, ops...)
		return lhs, nil

	case *UnaryMinus:
		x, err := cg.value(n.children[0])
		if err != nil {
			return nil, err
		}
		result := cg.syms.NewTemporary(KindVal)
		ops, err := cg.locs(x, result)
		if err != nil {
			return nil, err
		}
		cg.out.Comment("Unary Minus")
		cg.out.Instr("sub", "0", ops[0], ops[1])
		return result, nil

	case *BinaryMath:
		lhs, err := cg.value(n.children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := cg.value(n.children[1])
		if err != nil {
			return nil, err
		}
		result := cg.syms.NewTemporary(KindVal)
		ops, err := cg.locs(lhs, rhs, result)
		if err != nil {
			return nil, err
		}
		cg.out.Comment("Math2 %s", n.Instruction)
		cg.out.Instr(n.Instruction, ops...)
		return result, nil

	case *BoolAnd:
		cg.out.Comment("Process And")
		return cg.shortCircuit(n.children[0], n.children[1], "And_ShortCircut", "jump_if_0")

	case *BoolOr:
		cg.out.Comment("Process Or")
		return cg.shortCircuit(n.children[0], n.children[1], "Or_ShortCircuit", "jump_if_n0")

	case *Not:
		cg.out.Comment("Process Not")
		x, err := cg.value(n.children[0])
		if err != nil {
			return nil, err
		}
		result := cg.syms.NewTemporary(KindVal)
		ops, err := cg.locs(x, result)
		if err != nil {
			return nil, err
		}
		cg.out.Instr("test_equ", "0", ops[0], ops[1])
		return result, nil

	case *Random:
		cg.out.Comment("Process Random")
		x, err := cg.value(n.children[0])
		if err != nil {
			return nil, err
		}
		result := cg.syms.NewTemporary(KindVal)
		ops, err := cg.locs(x, result)
		if err != nil {
			return nil, err
		}
		cg.out.Instr("random", ops...)
		return result, nil

	case *Print:
		cg.out.Comment("Process Print")
		for _, c := range n.children {
			item, err := cg.value(c)
			if err != nil {
				return nil, err
			}
			instr, err := outMnemonic(item.Kind)
			if err != nil {
				return nil, err
			}
			loc, err := cg.loc(item)
			if err != nil {
				return nil, err
			}
			cg.out.Instr(instr, loc)
		}
		cg.out.Instr("out_char", `'\n'`)
		return nil, nil

	case *If:
		cg.out.Comment("Process If")
		cond, err := cg.value(n.children[0])
		if err != nil {
			return nil, err
		}
		c, err := cg.loc(cond)
		if err != nil {
			return nil, err
		}
		elseStart := cg.syms.NextLabel("else_start")
		cg.out.Instr("jump_if_0", c, elseStart)
		cg.out.Comment("If True Statement")
		if _, err := cg.Process(n.children[1]); err != nil {
			return nil, err
		}
		elseEnd := cg.syms.NextLabel("else_end")
		cg.out.Instr("jump", elseEnd)
		cg.out.Label(elseStart)
		cg.out.Comment("If False Statement")
		if n.HasElse() {
			if _, err := cg.Process(n.children[2]); err != nil {
				return nil, err
			}
		}
		cg.out.Label(elseEnd)
		return nil, nil

	case *While:
		cg.out.Comment("Process While")
		start, end := loopStart(n.Label), loopEnd(n.Label)
		cg.out.Label(start)
		cond, err := cg.value(n.children[0])
		if err != nil {
			return nil, err
		}
		c, err := cg.loc(cond)
		if err != nil {
			return nil, err
		}
		cg.out.Instr("jump_if_0", c, end)
		if _, err := cg.Process(n.children[1]); err != nil {
			return nil, err
		}
		cg.out.Instr("jump", start)
		cg.out.Label(end)
		return nil, nil

	case *Break:
		cg.out.Comment("Process Break")
		cg.out.Instr("jump", loopEnd(n.Label))
		return nil, nil

	case *Continue:
		cg.out.Comment("Process Continue")
		cg.out.Instr("jump", loopStart(n.Label))
		return nil, nil

	case *Temp:
		return nil, internalErrorf("placeholder node reached code generation")
	}

	return nil, internalErrorf("no emission rule for %T", n)
}

// shortCircuit emits && / ||. Both operand tests write the same result
// slot; jump skips the right operand when the left one decides the result.
func (cg *CodeGen) shortCircuit(left, right Node, prefix, jump string) (*Slot, error) {
	lhs, err := cg.value(left)
	if err != nil {
		return nil, err
	}
	result := cg.syms.NewTemporary(KindVal)
	ops, err := cg.locs(lhs, result)
	if err != nil {
		return nil, err
	}
	cg.out.Instr("test_nequ", ops[0], "0", ops[1])
	label := cg.syms.NextLabel(prefix)
	cg.out.Instr(jump, ops[1], label)

	rhs, err := cg.value(right)
	if err != nil {
		return nil, err
	}
	r, err := cg.loc(rhs)
	if err != nil {
		return nil, err
	}
	cg.out.Instr("test_nequ", r, "0", ops[1])
	cg.out.Label(label)
	return result, nil
}

func loopStart(label string) string { return label + "_start" }
func loopEnd(label string) string   { return label + "_end" }

// Generate emits the listing for the tree rooted at root.
func Generate(root Node, syms *SymbolTable, opts Options) (string, error) {
	var sb strings.Builder
	out := NewEmitter(&sb)
	out.SetComments(opts.Comments)
	if _, err := NewCodeGen(syms, out).Process(root); err != nil {
		return "", fmt.Errorf("codegen: %w", err)
	}
	return sb.String(), nil
}
