package sql

import (
	"fmt"
	"unicode/utf8"
)

// TokenPosition is the zero-indexed line and column of a token's first
// character. Columns count characters, not bytes.
type TokenPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (position TokenPosition) String() string {
	return fmt.Sprintf("%d:%d", position.Line+1, position.Column+1)
}

// Before reports whether position sorts strictly before other.
func (position TokenPosition) Before(other TokenPosition) bool {
	if position.Line != other.Line {
		return position.Line < other.Line
	}
	return position.Column < other.Column
}

type Token struct {
	Position TokenPosition `json:"position"`
	Value    string        `json:"value"`
}

func NewToken(position TokenPosition, first rune) Token {
	return Token{Position: position, Value: string(first)}
}

// Append returns the token extended by one character.
func (token Token) Append(ch rune) Token {
	token.Value += string(ch)
	return token
}

// End returns the cursor position just after the token's last character.
func (token Token) End() TokenPosition {
	end := token.Position
	for _, ch := range token.Value {
		end = advance(end, ch)
	}
	return end
}

func (token Token) String() string {
	return fmt.Sprintf("Token(%s %q)", token.Position, token.Value)
}

const quoteChar = '"'

var whitespaceChars = map[rune]bool{
	' ':  true,
	'\n': true,
	'\t': true,
}

var tokenTerminators = map[rune]bool{
	'.': true,
	';': true,
	',': true,
}

func isWhitespace(ch rune) bool {
	return whitespaceChars[ch]
}

func isTerminator(ch rune) bool {
	return tokenTerminators[ch]
}

func advance(position TokenPosition, ch rune) TokenPosition {
	if ch == '\n' {
		return TokenPosition{Line: position.Line + 1, Column: 0}
	}
	return TokenPosition{Line: position.Line, Column: position.Column + 1}
}

// Lexer splits SQL text into whitespace runs, word runs, quoted
// identifiers and single-character terminators. Token values are slices of
// the source, so concatenating them reproduces the input exactly.
type Lexer struct {
	sql      string
	offset   int
	position TokenPosition
}

func NewLexer(sql string) *Lexer {
	return &Lexer{sql: sql}
}

func (lexer *Lexer) peek() (rune, int) {
	if lexer.offset >= len(lexer.sql) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(lexer.sql[lexer.offset:])
}

func (lexer *Lexer) readChar() rune {
	ch, width := lexer.peek()
	lexer.offset += width
	lexer.position = advance(lexer.position, ch)
	return ch
}

// NextToken returns the next token and true, or false once the input is
// exhausted.
func (lexer *Lexer) NextToken() (Token, bool) {
	if lexer.offset >= len(lexer.sql) {
		return Token{}, false
	}

	start := lexer.offset
	position := lexer.position
	first := lexer.readChar()

	switch {
	case first == quoteChar:
		lexer.readQuotedIdentifier()
	case isTerminator(first):
	case isWhitespace(first):
		lexer.readRun(true)
	default:
		lexer.readRun(false)
	}

	return Token{Position: position, Value: lexer.sql[start:lexer.offset]}, true
}

// readQuotedIdentifier consumes up to and including the closing quote. An
// unterminated identifier runs to the end of the input.
func (lexer *Lexer) readQuotedIdentifier() {
	for lexer.offset < len(lexer.sql) {
		if lexer.readChar() == quoteChar {
			return
		}
	}
}

func (lexer *Lexer) readRun(whitespace bool) {
	for lexer.offset < len(lexer.sql) {
		ch, _ := lexer.peek()
		if ch == quoteChar || isTerminator(ch) || isWhitespace(ch) != whitespace {
			return
		}
		lexer.readChar()
	}
}

// Tokenize converts text into its full token sequence. It never fails.
func Tokenize(sql string) []Token {
	lexer := NewLexer(sql)

	var tokens []Token

	for {
		token, ok := lexer.NextToken()
		if !ok {
			return tokens
		}
		tokens = append(tokens, token)
	}
}
