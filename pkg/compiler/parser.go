package compiler

import (
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds the
// typed AST. It drives the symbol table while it goes: blocks open and close
// scopes, declarations bind slots, and while loops push their loop context
// before the body is parsed so break and continue can bind to it.
//
// Grammar:
//
//	program    = statement* EOF
//	statement  = decl | print | if | while | "break" ";" | "continue" ";" | block | expression ";" | ";"
//	decl       = ("val" | "char") IDENTIFIER ("=" expression)? ";"
//	print      = "print" expression ("," expression)* ";"
//	if         = "if" "(" expression ")" statement ("else" statement)?
//	while      = "while" "(" expression ")" statement
//	block      = "{" statement* "}"
//	expression = assignment
//	assignment = IDENTIFIER ("=" | "+=" | "-=" | "*=" | "/=") assignment | logical_or
//	logical_or = logical_and ("||" logical_and)*
//	logical_and = equality ("&&" equality)*
//	equality   = relational (("=="|"!=") relational)*
//	relational = additive (("<"|"<="|">"|">=") additive)*
//	additive   = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/") unary)*
//	unary      = ("-" | "!") unary | primary
//	primary    = NUMBER | CHAR_LIT | IDENTIFIER | "random" "(" expression ")" | "(" expression ")"
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
	syms        *SymbolTable
}

func NewParser(tokens []Token, rawSource string, syms *SymbolTable) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n"), syms: syms}
}

// fmtError builds a syntax error quoting the source line where tok appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	err := newError(ErrSyntax, format, args...)
	err.Line = tok.Line
	err.Msg += "\n  |> " + p.snippet(tok.Line)
	return err
}

func (p *Parser) snippet(line int) string {
	lineIdx := line - 1 // Lines are 1-based
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		return strings.TrimSpace(p.sourceLines[lineIdx])
	}
	return "<source unavailable>"
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// peekNext returns the token immediately after the current one.
func (p *Parser) peekNext() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+1]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

// variable resolves an identifier token to a Variable node. Undeclared names
// are the program's fault, so they are reported here as syntax errors before
// the symbol table is asked to resolve them.
func (p *Parser) variable(tok Token) (*Variable, error) {
	if !p.syms.Declared(tok.Lexeme) {
		return nil, p.fmtError(tok, "unknown variable %q", tok.Lexeme)
	}
	slot, err := p.syms.Resolve(tok.Lexeme)
	if err != nil {
		return nil, atLine(err, tok.Line)
	}
	return NewVariable(slot), nil
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Node, error) {
	return p.parseAssignment()
}

var assignOps = map[TokenType]string{
	ASSIGN:       "=",
	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",
	STAR_ASSIGN:  "*=",
	SLASH_ASSIGN: "/=",
}

// parseAssignment handles = and the compound forms, right associative.
// x += e is built as x = x + e.
func (p *Parser) parseAssignment() (Node, error) {
	op, isAssign := assignOps[p.peekNext().Type]
	if p.peek().Type != IDENTIFIER || !isAssign {
		return p.parseLogicalOr()
	}
	nameTok := p.advance()
	opTok := p.advance()

	lhs, err := p.variable(nameTok)
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if op != "=" {
		math, err := NewBinaryMath(op, NewVariable(lhs.Slot), rhs)
		if err != nil {
			return nil, atLine(err, opTok.Line)
		}
		rhs = math
	}
	assign, err := NewAssign(lhs, rhs)
	if err != nil {
		return nil, atLine(err, opTok.Line)
	}
	return assign, nil
}

// parseLogicalOr handles ||
func (p *Parser) parseLogicalOr() (Node, error) {
	expr, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == OR_LOGICAL {
		opTok := p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		or, err := NewBoolOr(expr, right)
		if err != nil {
			return nil, atLine(err, opTok.Line)
		}
		expr = or
	}
	return expr, nil
}

// parseLogicalAnd handles &&
func (p *Parser) parseLogicalAnd() (Node, error) {
	expr, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == AND_LOGICAL {
		opTok := p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		and, err := NewBoolAnd(expr, right)
		if err != nil {
			return nil, atLine(err, opTok.Line)
		}
		expr = and
	}
	return expr, nil
}

// parseBinary parses a left-associative chain of the operators in ops,
// with next parsing each operand.
func (p *Parser) parseBinary(ops map[TokenType]bool, next func() (Node, error)) (Node, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for ops[p.peek().Type] {
		opTok := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		math, err := NewBinaryMath(opTok.Lexeme, expr, right)
		if err != nil {
			return nil, atLine(err, opTok.Line)
		}
		expr = math
	}
	return expr, nil
}

var (
	equalityOps       = map[TokenType]bool{EQUALS: true, NOT_EQ: true}
	relationalTokOps  = map[TokenType]bool{LESS: true, LESS_EQ: true, GREATER: true, GREATER_EQ: true}
	additiveOps       = map[TokenType]bool{PLUS: true, MINUS: true}
	multiplicativeOps = map[TokenType]bool{STAR: true, SLASH: true}
)

func (p *Parser) parseEquality() (Node, error) {
	return p.parseBinary(equalityOps, p.parseRelational)
}

func (p *Parser) parseRelational() (Node, error) {
	return p.parseBinary(relationalTokOps, p.parseAdditive)
}

func (p *Parser) parseAdditive() (Node, error) {
	return p.parseBinary(additiveOps, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (Node, error) {
	return p.parseBinary(multiplicativeOps, p.parseUnary)
}

// parseUnary handles prefix - and !
func (p *Parser) parseUnary() (Node, error) {
	switch p.peek().Type {
	case MINUS:
		opTok := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		neg, err := NewUnaryMinus(x)
		if err != nil {
			return nil, atLine(err, opTok.Line)
		}
		return neg, nil
	case NOT:
		opTok := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		not, err := NewNot(x)
		if err != nil {
			return nil, atLine(err, opTok.Line)
		}
		return not, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.advance()
	switch tok.Type {
	case NUMBER, CHAR_LIT:
		kind := KindVal
		if tok.Type == CHAR_LIT {
			kind = KindChar
		}
		lit, err := NewLiteral(kind, tok.Lexeme)
		if err != nil {
			return nil, atLine(err, tok.Line)
		}
		return lit, nil
	case IDENTIFIER:
		return p.variable(tok)
	case RANDOM:
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		rnd, err := NewRandom(arg)
		if err != nil {
			return nil, atLine(err, tok.Line)
		}
		return rnd, nil
	case LPAREN:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.fmtError(tok, "unexpected token %s (%q) in expression", tok.Type, tok.Lexeme)
}

// parseDecl handles val/char declarations. The initialiser is parsed before
// the name is bound, so "val x = x;" reads an outer x.
func (p *Parser) parseDecl() (Node, error) {
	typeTok := p.advance()
	kind := KindVal
	if typeTok.Type == CHAR {
		kind = KindChar
	}
	nameTok, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}

	var init Node
	if p.peek().Type == ASSIGN {
		p.advance()
		if init, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}

	slot, err := p.syms.Declare(kind, nameTok.Lexeme)
	if err != nil {
		return nil, atLine(err, nameTok.Line)
	}
	if init == nil {
		return nil, nil
	}
	assign, err := NewAssign(NewVariable(slot), init)
	if err != nil {
		return nil, atLine(err, nameTok.Line)
	}
	return assign, nil
}

func (p *Parser) parsePrint() (Node, error) {
	printTok := p.advance()
	var items []Node
	for {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	stmt, err := NewPrint(items...)
	if err != nil {
		return nil, atLine(err, printTok.Line)
	}
	return stmt, nil
}

// parseBlock gathers the statements of a braced block inside its own scope
// and flattens them into a Root.
func (p *Parser) parseBlock() (Node, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	p.syms.EnterScope()

	stmts := NewTemp(KindVoid)
	for p.peek().Type != RBRACE {
		if p.peek().Type == EOF {
			return nil, p.fmtError(p.peek(), "unterminated block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts.AddChild(stmt)
		}
	}
	p.advance() // }

	if err := p.syms.ExitScope(); err != nil {
		return nil, err
	}
	block := NewRoot()
	block.TransferChildren(stmts)
	return block, nil
}

// parseCondition parses "(" expression ")".
func (p *Parser) parseCondition() (Node, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseBody parses the statement governed by if/else/while. An empty
// statement becomes an empty Root.
func (p *Parser) parseBody() (Node, error) {
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return NewRoot(), nil
	}
	return stmt, nil
}

func (p *Parser) parseIf() (Node, error) {
	ifTok := p.advance()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	var els Node
	if p.peek().Type == ELSE {
		p.advance()
		if els, err = p.parseBody(); err != nil {
			return nil, err
		}
	}
	stmt, err := NewIf(cond, then, els)
	if err != nil {
		return nil, atLine(err, ifTok.Line)
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (Node, error) {
	whileTok := p.advance()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	p.syms.PushLoop()
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	stmt, err := NewWhile(p.syms, cond, body)
	if err != nil {
		return nil, atLine(err, whileTok.Line)
	}
	if err := p.syms.PopLoop(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseStatement returns nil for statements that emit nothing
// (declarations without an initialiser and empty statements).
func (p *Parser) parseStatement() (Node, error) {
	tok := p.peek()
	switch tok.Type {
	case VAL, CHAR:
		return p.parseDecl()
	case PRINT:
		return p.parsePrint()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case LBRACE:
		return p.parseBlock()
	case SEMICOLON:
		p.advance()
		return nil, nil
	case BREAK, CONTINUE:
		p.advance()
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		var (
			stmt Node
			err  error
		)
		if tok.Type == BREAK {
			stmt, err = NewBreak(p.syms)
		} else {
			stmt, err = NewContinue(p.syms)
		}
		if err != nil {
			return nil, atLine(err, tok.Line)
		}
		return stmt, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return expr, nil
}

// Parse builds the program tree from tokens, declaring into syms.
func Parse(tokens []Token, rawSource string, syms *SymbolTable) (*Root, error) {
	p := NewParser(tokens, rawSource, syms)
	stmts := NewTemp(KindVoid)
	for p.peek().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts.AddChild(stmt)
		}
	}
	root := NewRoot()
	root.TransferChildren(stmts)
	return root, nil
}
