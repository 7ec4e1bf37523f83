package parser

// Layer is one precedence level: the operator symbols it recognizes and
// the class they all share. Layers are ordered lowest precedence first.
type Layer struct {
	Symbols []string
	Class   OpClass
}

func (l Layer) match(tok Token) (Operator, bool) {
	for _, sym := range l.Symbols {
		if tok.IsText(sym) {
			return Operator{Class: l.Class, Symbol: sym}, true
		}
	}
	return Operator{}, false
}

// DefaultPrecedence returns the language's operator table, lowest
// precedence first.
func DefaultPrecedence() []Layer {
	return []Layer{
		{Symbols: []string{"||"}, Class: BinaryInfixLeft},
		{Symbols: []string{"&&"}, Class: BinaryInfixLeft},
		{Symbols: []string{"==", "!="}, Class: BinaryInfix},
		{Symbols: []string{"<", ">", "<=", ">="}, Class: BinaryInfix},
		{Symbols: []string{"+", "-"}, Class: BinaryInfixLeft},
		{Symbols: []string{"*", "/"}, Class: BinaryInfixLeft},
		{Symbols: []string{"+", "-"}, Class: UnaryPrefix},
	}
}

// AtomParser parses an expression past the last precedence layer
type AtomParser func(c *Cursor) (*Node, error)

// OperatorParser is a layered expression parser parameterized by a
// precedence table. Past the last layer it delegates to the atom parser;
// an optional bracket pair re-enters the lowest layer.
type OperatorParser struct {
	layers   []Layer
	atom     AtomParser
	brackets bool
	lbr, rbr string
}

// NewOperatorParser creates a parser over the given precedence table.
// Pass empty bracket strings to disable bracket grouping.
func NewOperatorParser(layers []Layer, atom AtomParser, lbr, rbr string) *OperatorParser {
	return &OperatorParser{
		layers:   layers,
		atom:     atom,
		brackets: lbr != "" && rbr != "",
		lbr:      lbr,
		rbr:      rbr,
	}
}

// Parse parses an expression starting at the lowest precedence layer
func (p *OperatorParser) Parse(c *Cursor) (*Node, error) {
	return p.parseAt(c, 0)
}

func (p *OperatorParser) parseAt(c *Cursor, layer int) (*Node, error) {
	if c.Finished() {
		return nil, NewError(Position{}, ErrorParse, "unexpected end of input in expression")
	}

	if layer == len(p.layers) {
		if p.brackets && c.Peek().IsText(p.lbr) {
			return p.parseBracketed(c)
		}
		return p.atom(c)
	}

	switch p.layers[layer].Class {
	case UnaryPrefix:
		return p.parseUnaryPrefix(c, layer)
	case UnaryPostfix:
		return p.parseUnaryPostfix(c, layer)
	case BinaryInfix:
		return p.parseBinaryInfix(c, layer)
	case BinaryInfixRight:
		return p.parseBinaryInfixRight(c, layer)
	case BinaryInfixLeft:
		return p.parseBinaryInfixLeft(c, layer)
	}

	return nil, NewError(c.Peek().Pos, ErrorParse, "unknown operator class in precedence table")
}

// parseBracketed consumes '(', an expression at the lowest layer, and ')'
func (p *OperatorParser) parseBracketed(c *Cursor) (*Node, error) {
	if _, err := c.Advance(); err != nil {
		return nil, err
	}

	inner, err := p.parseAt(c, 0)
	if err != nil {
		return nil, err
	}

	if c.Finished() || !c.Peek().IsText(p.rbr) {
		pos := Position{}
		context := ""
		if !c.Finished() {
			pos = c.Peek().Pos
			context = c.Peek().Text
		}
		return nil, NewErrorWithContext(pos, ErrorParse, "missing closing bracket", context)
	}
	if _, err := c.Advance(); err != nil {
		return nil, err
	}

	return inner, nil
}

func (p *OperatorParser) parseUnaryPrefix(c *Cursor, layer int) (*Node, error) {
	tok := c.Peek()
	op, ok := p.layers[layer].match(tok)
	if !ok {
		return p.parseAt(c, layer+1)
	}

	if _, err := c.Advance(); err != nil {
		return nil, err
	}

	operand, err := p.parseAt(c, layer+1)
	if err != nil {
		return nil, err
	}

	return NewOperation(op, []*Node{operand}, tok.Pos), nil
}

func (p *OperatorParser) parseUnaryPostfix(c *Cursor, layer int) (*Node, error) {
	operand, err := p.parseAt(c, layer+1)
	if err != nil {
		return nil, err
	}

	if c.Finished() {
		return operand, nil
	}

	tok := c.Peek()
	op, ok := p.layers[layer].match(tok)
	if !ok {
		return operand, nil
	}

	if _, err := c.Advance(); err != nil {
		return nil, err
	}

	return NewOperation(op, []*Node{operand}, tok.Pos), nil
}

func (p *OperatorParser) parseBinaryInfix(c *Cursor, layer int) (*Node, error) {
	left, err := p.parseAt(c, layer+1)
	if err != nil {
		return nil, err
	}

	if c.Finished() {
		return left, nil
	}

	tok := c.Peek()
	op, ok := p.layers[layer].match(tok)
	if !ok {
		return left, nil
	}

	if _, err := c.Advance(); err != nil {
		return nil, err
	}

	if c.Finished() {
		return nil, NewErrorWithContext(tok.Pos, ErrorParse, "missing second operand", tok.Text)
	}

	right, err := p.parseAt(c, layer+1)
	if err != nil {
		return nil, err
	}

	return NewOperation(op, []*Node{left, right}, tok.Pos), nil
}

// parseBinaryInfixLeft folds a run of same-layer operators into a
// left-leaning tree: a + b + c = (a + b) + c
func (p *OperatorParser) parseBinaryInfixLeft(c *Cursor, layer int) (*Node, error) {
	left, err := p.parseAt(c, layer+1)
	if err != nil {
		return nil, err
	}

	for !c.Finished() {
		tok := c.Peek()
		op, ok := p.layers[layer].match(tok)
		if !ok {
			break
		}

		if _, err := c.Advance(); err != nil {
			return nil, err
		}

		if c.Finished() {
			return nil, NewErrorWithContext(tok.Pos, ErrorParse, "missing second operand", tok.Text)
		}

		right, err := p.parseAt(c, layer+1)
		if err != nil {
			return nil, err
		}

		left = NewOperation(op, []*Node{left, right}, tok.Pos)
	}

	return left, nil
}

// parseBinaryInfixRight folds a run of same-layer operators into a
// right-leaning tree: a + b + c = a + (b + c). The tree grows down the
// right child, so the last-seen operation stays the insertion point.
func (p *OperatorParser) parseBinaryInfixRight(c *Cursor, layer int) (*Node, error) {
	root, err := p.parseAt(c, layer+1)
	if err != nil {
		return nil, err
	}

	var tail *Node // deepest operation node, insertion happens at tail.List[1]

	for !c.Finished() {
		tok := c.Peek()
		op, ok := p.layers[layer].match(tok)
		if !ok {
			break
		}

		if _, err := c.Advance(); err != nil {
			return nil, err
		}

		if c.Finished() {
			return nil, NewErrorWithContext(tok.Pos, ErrorParse, "missing second operand", tok.Text)
		}

		right, err := p.parseAt(c, layer+1)
		if err != nil {
			return nil, err
		}

		if tail == nil {
			root = NewOperation(op, []*Node{root, right}, tok.Pos)
			tail = root
		} else {
			inner := NewOperation(op, []*Node{tail.List[1], right}, tok.Pos)
			tail.List[1] = inner
			tail = inner
		}
	}

	return root, nil
}
