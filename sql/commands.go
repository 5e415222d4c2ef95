package sql

type CommandStatus int

const (
	CommandValid CommandStatus = iota
	CommandInvalid
	CommandEndOfInput
)

// CommandResult is the outcome of one command parser. For CommandValid,
// Next is the index after the command; for CommandInvalid it is the index
// after the skipped statement.
type CommandResult struct {
	Status  CommandStatus
	Command Command
	Next    int
	Failure *failure
}

// failure records where and why a section failed inside a command.
type failure struct {
	At       int
	Expected string
}

// commandParser parses one command whose start keyword is the token at idx.
type commandParser func(tokens []Token, idx int) CommandResult

var commandParsers = map[string]commandParser{
	";":           parseEmptyCommand,
	SelectKeyword: parseSelectCommand,
}

// section runs one step of a command, stopping the command on the first
// failed step. A failure skips from the step's start to the end of the
// statement.
type section struct {
	tokens []Token
	idx    int
	result *CommandResult
}

func (s *section) failed() bool {
	return s.result != nil
}

func sectionStep[T any](s *section, parse func([]Token, int) SectionResult[T]) T {
	var zero T
	if s.failed() {
		return zero
	}
	result := parse(s.tokens, s.idx)
	switch result.Status {
	case Valid:
		s.idx = result.Next
		return result.Value
	case Invalid:
		s.result = &CommandResult{
			Status:  CommandInvalid,
			Next:    skipInvalidCommand(s.tokens, s.idx),
			Failure: &failure{At: result.At, Expected: result.Expected},
		}
	default:
		s.result = &CommandResult{
			Status:  CommandEndOfInput,
			Failure: &failure{At: result.At, Expected: result.Expected},
		}
	}
	return zero
}

func (s *section) optionalWhitespace() {
	if !s.failed() {
		s.idx = idxAfterOptionalWhitespace(s.tokens, s.idx)
	}
}

func (s *section) done(command Command) CommandResult {
	if s.failed() {
		return *s.result
	}
	return CommandResult{Status: CommandValid, Command: command, Next: s.idx}
}

func parseEmptyCommand(tokens []Token, idx int) CommandResult {
	s := &section{tokens: tokens, idx: idx}
	sectionStep(s, parseSemicolon)
	return s.done(EmptyCommand{})
}

// parseSelectCommand parses
//
//	SELECT <ws> expressions <ws> FROM <ws> from_item [<ws>] ;
func parseSelectCommand(tokens []Token, idx int) CommandResult {
	s := &section{tokens: tokens, idx: idx}
	sectionStep(s, parseKeywordSelect)
	sectionStep(s, parseWhitespace)
	expressions := sectionStep(s, parseSelectedExpressions)
	sectionStep(s, parseWhitespace)
	sectionStep(s, parseKeywordFrom)
	sectionStep(s, parseWhitespace)
	fromItem := sectionStep(s, parseFromItem)
	s.optionalWhitespace()
	sectionStep(s, parseSemicolon)
	return s.done(SelectCommand{
		SelectedExpressions: expressions,
		FromItem:            fromItem,
	})
}
