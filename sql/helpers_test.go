package sql

// tokensFromStrings builds a token sequence from pre-split values, with
// positions computed as if the values had been lexed in order.
func tokensFromStrings(values ...string) []Token {
	tokens := make([]Token, 0, len(values))
	var position TokenPosition
	for _, value := range values {
		tokens = append(tokens, Token{Position: position, Value: value})
		for _, ch := range value {
			position = advance(position, ch)
		}
	}
	return tokens
}

func ident(value string) Identifier {
	return Identifier{Quoted: false, Value: value}
}

func identPtr(value string) *Identifier {
	i := ident(value)
	return &i
}

func quoted(value string) Identifier {
	return Identifier{Quoted: true, Value: value}
}

func quotedPtr(value string) *Identifier {
	i := quoted(value)
	return &i
}

func selectCommand(from FromItem, expressions ...SelectedExpression) SelectCommand {
	return SelectCommand{SelectedExpressions: expressions, FromItem: from}
}
