// Package asm reads instruction listings produced by the compiler. It checks
// the listing the way an assembler's first passes would: every line is a
// label, an instruction or a comment, every mnemonic is known and has the
// right operands, labels are unique, and every jump has a target.
// It never executes anything.
package asm

import (
	"fmt"
	"strings"
	"unicode"
)

type operandKind int

const (
	opSlot  operandKind = iota // memory slot, e.g. s4
	opValue                    // slot or literal
	opLabel                    // jump target
)

// signatures lists the operand shape of every instruction of the val machine.
var signatures = map[string][]operandKind{
	"val_copy":   {opValue, opSlot},
	"add":        {opValue, opValue, opSlot},
	"sub":        {opValue, opValue, opSlot},
	"mult":       {opValue, opValue, opSlot},
	"div":        {opValue, opValue, opSlot},
	"test_equ":   {opValue, opValue, opSlot},
	"test_nequ":  {opValue, opValue, opSlot},
	"test_less":  {opValue, opValue, opSlot},
	"test_lte":   {opValue, opValue, opSlot},
	"test_gtr":   {opValue, opValue, opSlot},
	"test_gte":   {opValue, opValue, opSlot},
	"random":     {opValue, opSlot},
	"jump":       {opLabel},
	"jump_if_0":  {opValue, opLabel},
	"jump_if_n0": {opValue, opLabel},
	"out_val":    {opValue},
	"out_char":   {opValue},
}

// Instruction is one decoded instruction line.
type Instruction struct {
	Line     int // 1-based line in the listing
	Mnemonic string
	Operands []string
}

func (in Instruction) String() string {
	if len(in.Operands) == 0 {
		return in.Mnemonic
	}
	return in.Mnemonic + " " + strings.Join(in.Operands, " ")
}

// Listing is a checked instruction stream.
type Listing struct {
	Instructions []Instruction
	// Labels maps each label to the index of the instruction that follows it.
	Labels   map[string]int
	Comments int
}

type parsedLine struct {
	lineNo   int
	label    string
	comment  bool
	mnemonic string
	operands []string
}

// Reader checks listings. The zero value is not usable; call NewReader.
type Reader struct {
	labels map[string]int
}

func NewReader() *Reader {
	return &Reader{labels: make(map[string]int)}
}

// Read checks a listing and decodes it.
func Read(code string) (*Listing, error) {
	return NewReader().Read(code)
}

func (r *Reader) Read(code string) (*Listing, error) {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")

	parsed, err := r.pass1(lines)
	if err != nil {
		return nil, err
	}
	return r.pass2(parsed)
}

// pass1 splits lines and records where each label points.
func (r *Reader) pass1(lines []string) ([]parsedLine, error) {
	var out []parsedLine
	next := 0
	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}
		if p.label != "" {
			if _, exists := r.labels[p.label]; exists {
				return nil, fmt.Errorf("duplicate label '%s' on line %d", p.label, lineNo)
			}
			r.labels[p.label] = next
		}
		if p.mnemonic != "" {
			next++
		}
		out = append(out, p)
	}
	return out, nil
}

// pass2 validates instructions against their signatures and resolves jumps.
func (r *Reader) pass2(parsed []parsedLine) (*Listing, error) {
	l := &Listing{Labels: r.labels}
	for _, p := range parsed {
		if p.comment {
			l.Comments++
		}
		if p.mnemonic == "" {
			continue
		}
		sig, ok := signatures[p.mnemonic]
		if !ok {
			return nil, fmt.Errorf("unknown instruction '%s' on line %d", p.mnemonic, p.lineNo)
		}
		if len(p.operands) != len(sig) {
			return nil, fmt.Errorf("%s expects %d operands, got %d on line %d", p.mnemonic, len(sig), len(p.operands), p.lineNo)
		}
		for i, kind := range sig {
			if err := r.checkOperand(kind, p.operands[i], p.lineNo); err != nil {
				return nil, err
			}
		}
		l.Instructions = append(l.Instructions, Instruction{Line: p.lineNo, Mnemonic: p.mnemonic, Operands: p.operands})
	}
	return l, nil
}

func (r *Reader) checkOperand(kind operandKind, op string, lineNo int) error {
	switch kind {
	case opSlot:
		if !isSlot(op) {
			return fmt.Errorf("expected memory slot, got '%s' on line %d", op, lineNo)
		}
	case opValue:
		if !isSlot(op) && !isNumber(op) && !isCharLiteral(op) {
			return fmt.Errorf("expected slot or literal, got '%s' on line %d", op, lineNo)
		}
	case opLabel:
		if !isIdentifier(op) {
			return fmt.Errorf("invalid label '%s' on line %d", op, lineNo)
		}
		if _, ok := r.labels[op]; !ok {
			return fmt.Errorf("undefined label '%s' on line %d", op, lineNo)
		}
	}
	return nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(raw)
	if line == "" {
		return p, nil
	}
	if strings.HasPrefix(line, "#") {
		p.comment = true
		return p, nil
	}

	if strings.HasSuffix(line, ":") {
		label := strings.TrimSuffix(line, ":")
		if !isIdentifier(label) {
			return p, fmt.Errorf("invalid label '%s' on line %d", label, lineNo)
		}
		p.label = label
		return p, nil
	}

	fields, err := splitFields(line)
	if err != nil {
		return p, fmt.Errorf("%v on line %d", err, lineNo)
	}
	if len(fields) == 0 {
		return p, nil
	}
	p.mnemonic = fields[0]
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

// splitFields splits an instruction on whitespace, keeping quoted character
// literals such as ' ' whole and stopping at a trailing # comment.
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote:
			cur.WriteByte(c)
			if c == '\\' && i+1 < len(line) {
				i++
				cur.WriteByte(line[i])
			} else if c == '\'' {
				inQuote = false
			}
		case c == '\'':
			inQuote = true
			cur.WriteByte(c)
		case c == '#':
			flush()
			return fields, nil
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated character literal")
	}
	flush()
	return fields, nil
}

func isSlot(s string) bool {
	if len(s) < 2 || !unicode.IsLower(rune(s[0])) {
		return false
	}
	for _, r := range s[1:] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r == '.' && !dot:
			dot = true
		case unicode.IsDigit(r):
		default:
			return false
		}
	}
	return s[0] != '.' && s[len(s)-1] != '.'
}

func isCharLiteral(s string) bool {
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return false
	}
	body := s[1 : len(s)-1]
	return len(body) == 1 || (len(body) == 2 && body[0] == '\\')
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

// Count returns how many instructions use mnemonic.
func (l *Listing) Count(mnemonic string) int {
	n := 0
	for _, in := range l.Instructions {
		if in.Mnemonic == mnemonic {
			n++
		}
	}
	return n
}

// Mnemonics returns the mnemonic of every instruction in order.
func (l *Listing) Mnemonics() []string {
	out := make([]string, len(l.Instructions))
	for i, in := range l.Instructions {
		out[i] = in.Mnemonic
	}
	return out
}

// Text returns every instruction rendered back to one line each.
func (l *Listing) Text() []string {
	out := make([]string, len(l.Instructions))
	for i, in := range l.Instructions {
		out[i] = in.String()
	}
	return out
}
