package compiler

import "fmt"

// Kind tags the value category carried by a node or a storage slot.
type Kind int

const (
	KindVoid Kind = iota
	KindVal
	KindChar
	KindString   // reserved, no storage scheme yet
	KindValArray // reserved, no storage scheme yet
)

var kindNames = [...]string{
	KindVoid:     "void",
	KindVal:      "val",
	KindChar:     "char",
	KindString:   "string",
	KindValArray: "val_array",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// slotPrefix returns the memory bank letter used when rendering a slot of
// this kind. Only scalar kinds live in scalar memory.
func (k Kind) slotPrefix() (string, bool) {
	switch k {
	case KindVal, KindChar:
		return "s", true
	}
	return "", false
}

// opMnemonics maps a source operator to the instruction that implements it.
var opMnemonics = map[string]string{
	"==": "test_equ",
	"!=": "test_nequ",
	"<":  "test_less",
	"<=": "test_lte",
	">":  "test_gtr",
	">=": "test_gte",
	"+":  "add",
	"-":  "sub",
	"*":  "mult",
	"/":  "div",
}

var relationalOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

var mathOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true,
	"&&": true, "||": true, "!": true,
	"+=": true, "-=": true, "*=": true, "/=": true,
}

// Mnemonic returns the instruction for a binary operator. Compound
// assignment operators map to their arithmetic instruction.
func Mnemonic(op string) (string, bool) {
	if len(op) == 2 && op[1] == '=' && mathOps[op] {
		op = op[:1]
	}
	m, ok := opMnemonics[op]
	return m, ok
}

// IsRelational reports whether op compares its operands.
func IsRelational(op string) bool { return relationalOps[op] }

// IsMath reports whether op requires every operand to be a val.
func IsMath(op string) bool { return mathOps[op] }

// CheckOperator validates the operand kinds of a binary operator.
func CheckOperator(op string, lhs, rhs Kind) error {
	if IsRelational(op) && lhs != rhs {
		return typeErrorf("relational operand mismatch (%s %s %s)", lhs, op, rhs)
	}
	if IsMath(op) {
		return CheckMath(lhs, rhs)
	}
	return nil
}

// CheckMath fails unless every kind is a val.
func CheckMath(kinds ...Kind) error {
	for _, k := range kinds {
		if k != KindVal {
			return typeErrorf("non-value in mathematical expression (got %s)", k)
		}
	}
	return nil
}

// CheckAssign requires both sides of an assignment to carry the same kind.
func CheckAssign(lhs, rhs Kind) error {
	if lhs != rhs {
		return typeErrorf("assignment kind mismatch (%s = %s)", lhs, rhs)
	}
	return nil
}

// copyMnemonic selects the copy instruction for a kind.
func copyMnemonic(k Kind) (string, error) {
	if k == KindVal || k == KindChar {
		return "val_copy", nil
	}
	return "", internalErrorf("unsupported assignment kind %s", k)
}

// outMnemonic selects the output instruction for a kind.
func outMnemonic(k Kind) (string, error) {
	switch k {
	case KindVal:
		return "out_val", nil
	case KindChar:
		return "out_char", nil
	}
	return "", internalErrorf("unprintable kind %s", k)
}

// CheckPrintable fails unless k can be written by an output instruction.
func CheckPrintable(k Kind) error {
	_, err := outMnemonic(k)
	return err
}

// CheckCondition requires if/while conditions to be vals.
func CheckCondition(k Kind) error {
	if k != KindVal {
		return typeErrorf("condition must be Val (got %s)", k)
	}
	return nil
}
