package sql

import (
	"encoding/json"
	"fmt"
)

type DiagnosticKind int

const (
	// UnknownCommand: the statement does not start with a known keyword.
	UnknownCommand DiagnosticKind = iota
	// InvalidCommand: the statement started a command but did not match its grammar.
	InvalidCommand
	// UnexpectedEndOfInput: the input ended in the middle of a command. Parsing stops here.
	UnexpectedEndOfInput
)

func (kind DiagnosticKind) String() string {
	switch kind {
	case UnknownCommand:
		return "unknown_command"
	case InvalidCommand:
		return "invalid_command"
	case UnexpectedEndOfInput:
		return "unexpected_end_of_input"
	default:
		return "unknown"
	}
}

func (kind DiagnosticKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(kind.String())
}

// Diagnostic describes a statement that was dropped from the tree. Start
// is the statement's first token and End the position just after the last
// discarded token.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Message  string         `json:"message"`
	Start    TokenPosition  `json:"start"`
	End      TokenPosition  `json:"end"`
	Expected string         `json:"expected,omitempty"`
	Found    string         `json:"found,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Start, d.Message)
}

const endOfInputFound = "end of input"

// endPosition returns the position after the tokens before idx.
func endPosition(tokens []Token, idx int) TokenPosition {
	if idx > len(tokens) {
		idx = len(tokens)
	}
	if idx == 0 {
		return TokenPosition{}
	}
	return tokens[idx-1].End()
}

func newDiagnostic(tokens []Token, start int, next int, result CommandResult, commandName string) Diagnostic {
	d := Diagnostic{
		Start: tokens[start].Position,
		End:   endPosition(tokens, next),
	}

	found := endOfInputFound
	if result.Failure != nil {
		d.Expected = result.Failure.Expected
		if result.Failure.At < len(tokens) {
			found = fmt.Sprintf("%q", tokens[result.Failure.At].Value)
			d.Found = tokens[result.Failure.At].Value
		}
	}

	switch result.Status {
	case CommandEndOfInput:
		d.Kind = UnexpectedEndOfInput
		d.Message = fmt.Sprintf("unexpected end of input in %s command, expected %s", commandName, d.Expected)
	default:
		// An invalid section may still fail past the last token, as in
		// "select * from t." where a name must follow the dot.
		d.Kind = InvalidCommand
		if d.Found == "" {
			d.Found = endOfInputFound
		}
		d.Message = fmt.Sprintf("invalid %s command: expected %s, found %s", commandName, d.Expected, found)
	}
	return d
}

func unknownCommandDiagnostic(tokens []Token, start int, next int) Diagnostic {
	found := tokens[start].Value
	return Diagnostic{
		Kind:     UnknownCommand,
		Message:  fmt.Sprintf("unknown command %q", found),
		Start:    tokens[start].Position,
		End:      endPosition(tokens, next),
		Expected: "SELECT or ;",
		Found:    found,
	}
}
