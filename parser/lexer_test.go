package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()

	lexer := NewLexer(input, "test.vl")
	var tokens []Token
	for !lexer.Finished() {
		tok, err := lexer.Next()
		require.NoError(t, err)
		tokens = append(tokens, tok)
	}
	return tokens
}

func TestLexer_TokenKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"  \t\n", TokenSpace},
		{"#comment", TokenPreprocessor},
		{"#a_b#c", TokenPreprocessor},
		{"foo", TokenIdentLower},
		{"fooBar_9", TokenIdentLower},
		{"Type9", TokenIdentUpper},
		{"==", TokenOperator},
		{"<=", TokenOperator},
		{"42", TokenNumber},
		{"3.25", TokenNumber},
		{"0", TokenNumber},
		{"(", TokenBracket},
		{"}", TokenBracket},
		{",", TokenComma},
		{";", TokenSemicolon},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer(tt.input, "test.vl")
			tok, err := lexer.Next()
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tok.Kind)
			assert.Equal(t, tt.input, tok.Text)
			assert.True(t, lexer.Finished(), "single token should consume the whole input")
		})
	}
}

func TestLexer_FirstMatchWins(t *testing.T) {
	// A '-' in front of a number is an operator: the operator pattern
	// comes before the number pattern in the priority order.
	tokens := lexAll(t, "-5")

	require.Len(t, tokens, 2)
	assert.Equal(t, TokenOperator, tokens[0].Kind)
	assert.Equal(t, "-", tokens[0].Text)
	assert.Equal(t, TokenNumber, tokens[1].Kind)
	assert.Equal(t, "5", tokens[1].Text)
}

func TestLexer_Positions(t *testing.T) {
	lexer := NewLexer("ab cd\nef", "test.vl")

	tok, err := lexer.Next()
	require.NoError(t, err)
	assert.Equal(t, "ab", tok.Text)
	assert.Equal(t, Position{Filename: "test.vl", Line: 1, Column: 1}, tok.Pos)

	_, err = lexer.Next() // space
	require.NoError(t, err)

	tok, err = lexer.Next()
	require.NoError(t, err)
	assert.Equal(t, "cd", tok.Text)
	assert.Equal(t, Position{Filename: "test.vl", Line: 1, Column: 4}, tok.Pos)

	_, err = lexer.Next() // newline
	require.NoError(t, err)

	tok, err = lexer.Next()
	require.NoError(t, err)
	assert.Equal(t, "ef", tok.Text)
	assert.Equal(t, Position{Filename: "test.vl", Line: 2, Column: 1}, tok.Pos)
}

func TestLexer_UnknownToken(t *testing.T) {
	lexer := NewLexer("$", "test.vl")

	_, err := lexer.Next()
	require.Error(t, err)

	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, ErrorLex, lexErr.Kind)
	assert.Equal(t, 1, lexErr.Pos.Line)
	assert.Equal(t, 1, lexErr.Pos.Column)
}

func TestLexer_TokenSizeBound(t *testing.T) {
	// Lexemes longer than the 63-byte window are truncated at the
	// boundary and continue as a fresh token.
	long := strings.Repeat("a", 100)
	tokens := lexAll(t, long)

	require.Len(t, tokens, 2)
	assert.Equal(t, MaxTokenSize, len(tokens[0].Text))
	assert.Equal(t, 100-MaxTokenSize, len(tokens[1].Text))
	assert.Equal(t, TokenIdentLower, tokens[0].Kind)
}

func TestLexer_OperatorRuns(t *testing.T) {
	// Adjacent operator characters lex as one token
	tokens := lexAll(t, "a<=b")

	require.Len(t, tokens, 3)
	assert.Equal(t, "<=", tokens[1].Text)
	assert.Equal(t, TokenOperator, tokens[1].Kind)
}
