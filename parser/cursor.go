package parser

// Cursor is the parser's view of the token stream. It holds exactly one
// lookahead token and filters out whitespace and comments: SPACE tokens
// are dropped, and a PREPROCESSOR_CMD token comments out every remaining
// token on its source line.
type Cursor struct {
	lexer           *Lexer
	cur             Token
	finished        bool
	lastCommentLine int
}

// NewCursor creates a cursor over the lexer and primes the lookahead.
// Returns a LexError if the very first token cannot be matched.
func NewCursor(lexer *Lexer) (*Cursor, error) {
	c := &Cursor{
		lexer:           lexer,
		lastCommentLine: -1,
	}
	if err := c.skipToCode(); err != nil {
		return nil, err
	}
	return c, nil
}

// skipToCode advances the lookahead past spaces and commented-out tokens
func (c *Cursor) skipToCode() error {
	for {
		if c.lexer.Finished() {
			c.finished = true
			return nil
		}

		tok, err := c.lexer.Next()
		if err != nil {
			return err
		}

		if tok.Is(TokenPreprocessor) {
			c.lastCommentLine = tok.Pos.Line
		}

		if tok.Is(TokenSpace) || tok.Is(TokenPreprocessor) || tok.Pos.Line == c.lastCommentLine {
			continue
		}

		c.cur = tok
		return nil
	}
}

// Finished reports whether the token stream is exhausted
func (c *Cursor) Finished() bool {
	return c.finished
}

// Peek returns the lookahead token without consuming it.
// Only valid while Finished() is false.
func (c *Cursor) Peek() Token {
	return c.cur
}

// Advance consumes and returns the lookahead token, refilling it from the
// lexer. Returns a LexError if the following input cannot be tokenized.
func (c *Cursor) Advance() (Token, error) {
	tok := c.cur
	if err := c.skipToCode(); err != nil {
		return Token{}, err
	}
	return tok, nil
}
