package sql

// Parser turns a token sequence into an AbstractSyntaxTree. Statements that
// fail to parse are skipped up to the next semicolon and recorded as
// diagnostics; running out of input inside a command ends the parse.
type Parser struct {
	tokens      []Token
	diagnostics []Diagnostic
}

func NewParser(sql string) *Parser {
	return &Parser{tokens: Tokenize(sql)}
}

func NewTokenParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

func (parser *Parser) Tokens() []Token {
	return parser.tokens
}

// Diagnostics returns the failures recorded by the last call to Parse.
func (parser *Parser) Diagnostics() []Diagnostic {
	return parser.diagnostics
}

func (parser *Parser) Parse() *AbstractSyntaxTree {
	tree := NewAbstractSyntaxTree()
	parser.diagnostics = nil
	tokens := parser.tokens

	idx := 0
	for idx < len(tokens) {
		start := idxAfterOptionalWhitespace(tokens, idx)
		if start >= len(tokens) {
			break
		}

		keyword := toLower(tokens[start].Value)
		parse, ok := commandParsers[keyword]
		if !ok {
			idx = skipInvalidCommand(tokens, start)
			parser.diagnostics = append(parser.diagnostics, unknownCommandDiagnostic(tokens, start, idx))
			continue
		}

		result := parse(tokens, start)
		switch result.Status {
		case CommandValid:
			tree.PushCommand(result.Command)
			idx = result.Next
		case CommandInvalid:
			parser.diagnostics = append(parser.diagnostics, newDiagnostic(tokens, start, result.Next, result, commandName(keyword)))
			idx = result.Next
		case CommandEndOfInput:
			parser.diagnostics = append(parser.diagnostics, newDiagnostic(tokens, start, len(tokens), result, commandName(keyword)))
			return tree
		}
	}

	return tree
}

func commandName(keyword string) string {
	if keyword == ";" {
		return "empty"
	}
	return toUpper(keyword)
}

// ParseTokens parses an already tokenized input.
func ParseTokens(tokens []Token) *AbstractSyntaxTree {
	return NewTokenParser(tokens).Parse()
}
