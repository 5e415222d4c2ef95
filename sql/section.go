package sql

type SectionStatus int

const (
	Valid SectionStatus = iota
	Invalid
	EndOfInput
)

func (status SectionStatus) String() string {
	switch status {
	case Valid:
		return "Valid"
	case Invalid:
		return "Invalid"
	case EndOfInput:
		return "EndOfInput"
	default:
		return "Unknown"
	}
}

// SectionResult is the outcome of parsing one grammar fragment starting at
// a token index. Next and Value are meaningful only when Status is Valid.
// At and Expected describe a failure for diagnostics and never affect
// control flow.
type SectionResult[T any] struct {
	Status   SectionStatus
	Next     int
	Value    T
	At       int
	Expected string
}

func valid[T any](next int, value T) SectionResult[T] {
	return SectionResult[T]{Status: Valid, Next: next, Value: value}
}

func invalid[T any](at int, expected string) SectionResult[T] {
	return SectionResult[T]{Status: Invalid, At: at, Expected: expected}
}

func endOfInput[T any](at int, expected string) SectionResult[T] {
	return SectionResult[T]{Status: EndOfInput, At: at, Expected: expected}
}

// propagate re-raises a failed result as a result of another value type.
func propagate[U, T any](result SectionResult[T]) SectionResult[U] {
	return SectionResult[U]{Status: result.Status, At: result.At, Expected: result.Expected}
}

// parseSimpleToken matches the single token at idx against test.
func parseSimpleToken[T any](tokens []Token, idx int, expected string, test func(Token) bool, extract func(Token) T) SectionResult[T] {
	if idx >= len(tokens) {
		return endOfInput[T](idx, expected)
	}
	token := tokens[idx]
	if !test(token) {
		return invalid[T](idx, expected)
	}
	return valid(idx+1, extract(token))
}

func noValue(Token) struct{} {
	return struct{}{}
}

func tokenValue(token Token) string {
	return token.Value
}

func tokenIs(value string) func(Token) bool {
	return func(token Token) bool {
		return token.Value == value
	}
}

func tokenIsWhitespace(token Token) bool {
	for _, ch := range token.Value {
		return isWhitespace(ch)
	}
	return false
}

// idxAfterOptionalWhitespace skips a single whitespace token at idx, if any.
func idxAfterOptionalWhitespace(tokens []Token, idx int) int {
	if idx < len(tokens) && tokenIsWhitespace(tokens[idx]) {
		return idx + 1
	}
	return idx
}

// skipInvalidCommand returns the index just past the next semicolon at or
// after idx, or one past the end when none remains.
func skipInvalidCommand(tokens []Token, idx int) int {
	for idx < len(tokens) && tokens[idx].Value != ";" {
		idx++
	}
	return idx + 1
}
