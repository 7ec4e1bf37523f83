package parser

import (
	"strconv"
)

// Keywords of the language. Keywords are ordinary lowercase identifiers
// recognized by text, so they are case-sensitive.
const (
	KeywordDef    = "def"
	KeywordVar    = "var"
	KeywordIf     = "if"
	KeywordElse   = "else"
	KeywordWhile  = "while"
	KeywordPrint  = "print"
	KeywordReturn = "return"
)

// Parser builds an AST from a token cursor using recursive descent for
// statements and a precedence-table parser for expressions.
type Parser struct {
	cursor *Cursor
	expr   *OperatorParser
}

// NewParser creates a parser over the cursor using the default operator
// precedence table.
func NewParser(cursor *Cursor) *Parser {
	p := &Parser{cursor: cursor}
	p.expr = NewOperatorParser(DefaultPrecedence(), p.parseAtom, "(", ")")
	return p
}

// ParseSource tokenizes and parses a whole source buffer into a program
// node. filename is used for positions only.
func ParseSource(input, filename string) (*Node, error) {
	cursor, err := NewCursor(NewLexer(input, filename))
	if err != nil {
		return nil, err
	}
	return NewParser(cursor).ParseProgram()
}

// ParseProgram parses a sequence of function definitions until the token
// stream is exhausted.
func (p *Parser) ParseProgram() (*Node, error) {
	program := &Node{Kind: KindProgram, Pos: Position{Filename: p.lexFilename(), Line: 1, Column: 1}}

	for !p.cursor.Finished() {
		fn, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		program.List = append(program.List, fn)
	}

	return program, nil
}

func (p *Parser) lexFilename() string {
	if p.cursor.lexer != nil {
		return p.cursor.lexer.filename
	}
	return ""
}

// eat consumes the next token and checks it against an expected kind
// and/or text. Pass TokenUndefined or "" to skip either check.
func (p *Parser) eat(kind TokenKind, text, expectation string) (Token, error) {
	if p.cursor.Finished() {
		return Token{}, NewError(Position{}, ErrorParse, expectation+", got end of input")
	}

	tok, err := p.cursor.Advance()
	if err != nil {
		return Token{}, err
	}

	if kind != TokenUndefined && !tok.Is(kind) {
		return Token{}, NewErrorWithContext(tok.Pos, ErrorParse, expectation, tok.Text)
	}
	if text != "" && !tok.IsText(text) {
		return Token{}, NewErrorWithContext(tok.Pos, ErrorParse, expectation, tok.Text)
	}

	return tok, nil
}

//-------------------------------------------------------------------------
// Expressions
//-------------------------------------------------------------------------

// ParseExpression parses a single expression
func (p *Parser) ParseExpression() (*Node, error) {
	return p.expr.Parse(p.cursor)
}

// parseAtom parses an atomic expression: a number literal, a variable
// reference, or a call distinguished by a '(' lookahead after the name.
func (p *Parser) parseAtom(c *Cursor) (*Node, error) {
	if c.Finished() {
		return nil, NewError(Position{}, ErrorParse, "expected expression, got end of input")
	}

	switch c.Peek().Kind {
	case TokenNumber:
		return p.parseNumber()
	case TokenIdentLower:
		return p.parseCallOrVariable()
	}

	tok := c.Peek()
	return nil, NewErrorWithContext(tok.Pos, ErrorParse,
		"expected number, variable or function call", tok.Text)
}

func (p *Parser) parseNumber() (*Node, error) {
	tok, err := p.eat(TokenNumber, "", "expected number")
	if err != nil {
		return nil, err
	}

	value, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		return nil, NewErrorWithContext(tok.Pos, ErrorParse, "malformed number literal", tok.Text)
	}

	return NewNumber(value, tok.Pos), nil
}

func (p *Parser) parseCallOrVariable() (*Node, error) {
	tok, err := p.eat(TokenIdentLower, "", "expected variable or function name")
	if err != nil {
		return nil, err
	}

	if p.cursor.Finished() || !p.cursor.Peek().IsText("(") {
		return NewVariable(tok.Text, tok.Pos), nil
	}
	if _, err := p.cursor.Advance(); err != nil {
		return nil, err
	}

	var args []*Node
	first := true
	for !p.cursor.Finished() {
		if p.cursor.Peek().IsText(")") {
			if _, err := p.cursor.Advance(); err != nil {
				return nil, err
			}
			return NewCall(tok.Text, args, tok.Pos), nil
		}

		if !first {
			if _, err := p.eat(TokenComma, "", "expected , between arguments"); err != nil {
				return nil, err
			}
		}
		first = false

		arg, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	return nil, NewErrorWithContext(tok.Pos, ErrorParse, "unclosed argument list", tok.Text)
}

//-------------------------------------------------------------------------
// Statements
//-------------------------------------------------------------------------

// parseStatement dispatches on the leading keyword; anything else is an
// assignment.
func (p *Parser) parseStatement() (*Node, error) {
	if p.cursor.Finished() {
		return nil, NewError(Position{}, ErrorParse, "expected statement, got end of input")
	}

	tok := p.cursor.Peek()
	if !tok.Is(TokenIdentLower) {
		return nil, NewErrorWithContext(tok.Pos, ErrorParse,
			"statements start with a keyword or a variable name", tok.Text)
	}

	switch tok.Text {
	case KeywordVar:
		return p.parseVarDef()
	case KeywordIf:
		return p.parseIf()
	case KeywordWhile:
		return p.parseWhile()
	case KeywordPrint:
		return p.parsePrint()
	case KeywordReturn:
		return p.parseReturn()
	case KeywordDef:
		return p.parseFuncDef()
	}

	return p.parseAssign()
}

// parseBlock parses either a braced statement sequence or a single
// statement; both produce a sequence node.
func (p *Parser) parseBlock() (*Node, error) {
	if p.cursor.Finished() {
		return nil, NewError(Position{}, ErrorParse, "expected block, got end of input")
	}

	tok := p.cursor.Peek()
	if tok.Is(TokenBracket) && tok.IsText("{") {
		if _, err := p.cursor.Advance(); err != nil {
			return nil, err
		}

		seq := &Node{Kind: KindSequence, Pos: tok.Pos}
		for !p.cursor.Finished() && !p.cursor.Peek().IsText("}") {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			seq.List = append(seq.List, stmt)
		}

		if _, err := p.eat(TokenBracket, "}", "expected } after code block"); err != nil {
			return nil, err
		}

		return seq, nil
	}

	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindSequence, List: []*Node{stmt}, Pos: tok.Pos}, nil
}

func (p *Parser) parseAssign() (*Node, error) {
	tok, err := p.eat(TokenIdentLower, "", "expected variable name")
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenOperator, "=", "expected = in assignment"); err != nil {
		return nil, err
	}

	value, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenSemicolon, "", "expected ; after assignment"); err != nil {
		return nil, err
	}

	return &Node{Kind: KindAssign, Name: tok.Text, X: value, Pos: tok.Pos}, nil
}

func (p *Parser) parseVarDef() (*Node, error) {
	if _, err := p.eat(TokenIdentLower, KeywordVar, "expected keyword var"); err != nil {
		return nil, err
	}

	tok, err := p.eat(TokenIdentLower, "", "expected variable name")
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenOperator, "=", "expected = in variable definition"); err != nil {
		return nil, err
	}

	value, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenSemicolon, "", "expected ; after variable definition"); err != nil {
		return nil, err
	}

	return &Node{Kind: KindVarDef, Name: tok.Text, X: value, Pos: tok.Pos}, nil
}

func (p *Parser) parseIf() (*Node, error) {
	tok, err := p.eat(TokenIdentLower, KeywordIf, "expected keyword if")
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenBracket, "(", "expected ( after if"); err != nil {
		return nil, err
	}

	cond, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenBracket, ")", "expected ) after if condition"); err != nil {
		return nil, err
	}

	thenBranch, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	node := &Node{Kind: KindIf, Cond: cond, Then: thenBranch, Pos: tok.Pos}

	if p.cursor.Finished() || !p.cursor.Peek().Is(TokenIdentLower) || !p.cursor.Peek().IsText(KeywordElse) {
		return node, nil
	}
	if _, err := p.cursor.Advance(); err != nil {
		return nil, err
	}

	elseBranch, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node.Else = elseBranch

	return node, nil
}

func (p *Parser) parseWhile() (*Node, error) {
	tok, err := p.eat(TokenIdentLower, KeywordWhile, "expected keyword while")
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenBracket, "(", "expected ( after while"); err != nil {
		return nil, err
	}

	cond, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenBracket, ")", "expected ) after while condition"); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &Node{Kind: KindWhile, Cond: cond, Body: body, Pos: tok.Pos}, nil
}

func (p *Parser) parsePrint() (*Node, error) {
	tok, err := p.eat(TokenIdentLower, KeywordPrint, "expected keyword print")
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenBracket, "(", "expected ( after print"); err != nil {
		return nil, err
	}

	value, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenBracket, ")", "expected ) after print argument"); err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenSemicolon, "", "expected ; after print statement"); err != nil {
		return nil, err
	}

	return &Node{Kind: KindPrint, X: value, Pos: tok.Pos}, nil
}

func (p *Parser) parseReturn() (*Node, error) {
	tok, err := p.eat(TokenIdentLower, KeywordReturn, "expected keyword return")
	if err != nil {
		return nil, err
	}

	value, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenSemicolon, "", "expected ; after return statement"); err != nil {
		return nil, err
	}

	return &Node{Kind: KindReturn, X: value, Pos: tok.Pos}, nil
}

func (p *Parser) parseFuncDef() (*Node, error) {
	tok, err := p.eat(TokenIdentLower, KeywordDef, "expected keyword def")
	if err != nil {
		return nil, err
	}

	name, err := p.eat(TokenIdentLower, "", "expected function name")
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(TokenBracket, "(", "expected ( after function name"); err != nil {
		return nil, err
	}

	var params []string
	first := true
	closed := false
	for !p.cursor.Finished() {
		if p.cursor.Peek().IsText(")") {
			if _, err := p.cursor.Advance(); err != nil {
				return nil, err
			}
			closed = true
			break
		}

		if !first {
			if _, err := p.eat(TokenComma, "", "expected , between parameters"); err != nil {
				return nil, err
			}
		}
		first = false

		param, err := p.eat(TokenIdentLower, "", "expected parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, param.Text)
	}

	if !closed {
		return nil, NewErrorWithContext(tok.Pos, ErrorParse, "unclosed parameter list", name.Text)
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &Node{
		Kind:   KindFuncDef,
		Name:   name.Text,
		Params: params,
		Body:   body,
		Pos:    tok.Pos,
	}, nil
}
