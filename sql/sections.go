package sql

import "unicode"

const (
	SelectKeyword = "select"
	FromKeyword   = "from"
)

func parseWhitespace(tokens []Token, idx int) SectionResult[struct{}] {
	return parseSimpleToken(tokens, idx, "whitespace", tokenIsWhitespace, noValue)
}

func parseDot(tokens []Token, idx int) SectionResult[struct{}] {
	return parseSimpleToken(tokens, idx, `"."`, tokenIs("."), noValue)
}

func parseComma(tokens []Token, idx int) SectionResult[struct{}] {
	return parseSimpleToken(tokens, idx, `","`, tokenIs(","), noValue)
}

func parseSemicolon(tokens []Token, idx int) SectionResult[struct{}] {
	return parseSimpleToken(tokens, idx, `";"`, tokenIs(";"), noValue)
}

func parseStar(tokens []Token, idx int) SectionResult[struct{}] {
	return parseSimpleToken(tokens, idx, `"*"`, tokenIs("*"), noValue)
}

func parseKeywordFrom(tokens []Token, idx int) SectionResult[struct{}] {
	return parseKeyword(tokens, idx, FromKeyword)
}

func parseKeywordSelect(tokens []Token, idx int) SectionResult[struct{}] {
	return parseKeyword(tokens, idx, SelectKeyword)
}

func parseKeyword(tokens []Token, idx int, keyword string) SectionResult[struct{}] {
	return parseSimpleToken(tokens, idx, toUpper(keyword), func(token Token) bool {
		return toLower(token.Value) == keyword
	}, noValue)
}

// parseIdentifierToken accepts any token that could hold a name or the
// wildcard: anything but whitespace and the reserved delimiters. Whether
// the text is a well-formed identifier is decided by ClassifyIdentifier.
func parseIdentifierToken(tokens []Token, idx int) SectionResult[string] {
	return parseSimpleToken(tokens, idx, "identifier", func(token Token) bool {
		return token.Value != "" && !tokenIsWhitespace(token) && !isReservedDelimiter(token.Value)
	}, tokenValue)
}

func isReservedDelimiter(value string) bool {
	return value == "." || value == "," || value == ";"
}

// parseDotSeparatedValue reads value ('.' value)* with at most maxDots
// dots. The result holds the token indexes of the values, between 1 and
// maxDots+1 of them. Whitespace on either side of a dot is allowed;
// whitespace that is not followed by a dot is left for the caller.
func parseDotSeparatedValue(tokens []Token, start int, maxDots int) SectionResult[[]int] {
	idx := start
	values := make([]int, 0, maxDots+1)
	for {
		value := parseIdentifierToken(tokens, idx)
		switch value.Status {
		case Invalid:
			return propagate[[]int](value)
		case EndOfInput:
			if idx == start {
				return propagate[[]int](value)
			}
			return invalid[[]int](value.At, value.Expected)
		}
		values = append(values, idx)
		idx = value.Next

		if len(values) > maxDots {
			break
		}
		dot := parseDot(tokens, idxAfterOptionalWhitespace(tokens, idx))
		if dot.Status != Valid {
			break
		}
		idx = idxAfterOptionalWhitespace(tokens, dot.Next)
	}
	return valid(idx, values)
}

// ClassifyIdentifier turns a raw token value into an Identifier. Quoted
// identifiers keep everything between the quotes; unquoted identifiers
// start with a letter or underscore and continue with letters, digits,
// underscores or dollar signs.
func ClassifyIdentifier(value string) (Identifier, bool) {
	if len(value) >= 2 && value[0] == quoteChar && value[len(value)-1] == quoteChar {
		return Identifier{Quoted: true, Value: value[1 : len(value)-1]}, true
	}
	if isUnquotedIdentifier(value) {
		return Identifier{Quoted: false, Value: value}, true
	}
	return Identifier{}, false
}

func isUnquotedIdentifier(value string) bool {
	if value == "" {
		return false
	}
	for i, ch := range value {
		if i == 0 {
			if !unicode.IsLetter(ch) && ch != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' && ch != '$' {
			return false
		}
	}
	return true
}

// classifyAll classifies the tokens at the given indexes as identifiers.
func classifyAll(tokens []Token, indexes []int, expected string) ([]Identifier, SectionResult[struct{}]) {
	identifiers := make([]Identifier, len(indexes))
	for i, idx := range indexes {
		identifier, ok := ClassifyIdentifier(tokens[idx].Value)
		if !ok {
			return nil, invalid[struct{}](idx, expected)
		}
		identifiers[i] = identifier
	}
	return identifiers, SectionResult[struct{}]{Status: Valid}
}

// qualifiers splits the names preceding a final column or wildcard into
// schema and table. The dot limit of the callers keeps len(names) <= 2.
func qualifiers(names []Identifier) (schema, table *Identifier) {
	if len(names) >= 1 {
		table = &names[len(names)-1]
	}
	if len(names) >= 2 {
		schema = &names[len(names)-2]
	}
	return schema, table
}

func parseSelectedExpression(tokens []Token, start int) SectionResult[SelectedExpression] {
	separated := parseDotSeparatedValue(tokens, start, 2)
	if separated.Status != Valid {
		return propagate[SelectedExpression](separated)
	}
	values := separated.Value
	last := len(values) - 1

	if parseStar(tokens, values[last]).Status == Valid {
		names, result := classifyAll(tokens, values[:last], "table or schema name")
		if result.Status != Valid {
			return propagate[SelectedExpression](result)
		}
		schema, table := qualifiers(names)
		return valid[SelectedExpression](separated.Next, AllColumnsSelectedExpression{
			SchemaName: schema,
			TableName:  table,
		})
	}

	names, result := classifyAll(tokens, values, "column name or *")
	if result.Status != Valid {
		return propagate[SelectedExpression](result)
	}
	schema, table := qualifiers(names[:last])
	return valid[SelectedExpression](separated.Next, ColumnSelectedExpression{
		SchemaName: schema,
		TableName:  table,
		ColumnName: names[last],
	})
}

// parseSelectedExpressions reads a comma-separated list of expressions.
// Whitespace after the last expression is not consumed.
func parseSelectedExpressions(tokens []Token, start int) SectionResult[[]SelectedExpression] {
	var expressions []SelectedExpression
	idx := start

	for {
		expression := parseSelectedExpression(tokens, idx)
		if expression.Status != Valid {
			return propagate[[]SelectedExpression](expression)
		}
		expressions = append(expressions, expression.Value)

		comma := parseComma(tokens, idxAfterOptionalWhitespace(tokens, expression.Next))
		if comma.Status != Valid {
			idx = expression.Next
			break
		}
		idx = idxAfterOptionalWhitespace(tokens, comma.Next)
	}
	return valid(idx, expressions)
}

func parseFromItem(tokens []Token, start int) SectionResult[FromItem] {
	separated := parseDotSeparatedValue(tokens, start, 1)
	if separated.Status != Valid {
		return propagate[FromItem](separated)
	}

	names, result := classifyAll(tokens, separated.Value, "table name")
	if result.Status != Valid {
		return propagate[FromItem](result)
	}

	item := FromItem{TableName: names[len(names)-1]}
	if len(names) == 2 {
		item.SchemaName = &names[0]
	}
	return valid(separated.Next, item)
}

func toLower(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'A' && s[j] <= 'Z' {
					b[j] = s[j] + 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}

func toUpper(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'a' && s[j] <= 'z' {
					b[j] = s[j] - 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}
