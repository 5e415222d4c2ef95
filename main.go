package postgresql

import (
	"context"

	"github.com/jcgsville/postgresql-parsing/check"
	"github.com/jcgsville/postgresql-parsing/ps"
	"github.com/jcgsville/postgresql-parsing/sql"
)

// Parse returns the tree of every command in text that parsed. It never
// fails; statements that do not parse are left out.
func Parse(text string) *sql.AbstractSyntaxTree {
	return sql.NewParser(text).Parse()
}

// ParseWithDiagnostics is Parse plus one diagnostic per dropped statement.
func ParseWithDiagnostics(text string) (*sql.AbstractSyntaxTree, []sql.Diagnostic) {
	parser := sql.NewParser(text)
	tree := parser.Parse()
	return tree, parser.Diagnostics()
}

// IsSyntacticallyNonEmpty reports whether text holds at least one command
// that parsed, including a lone ";".
func IsSyntacticallyNonEmpty(text string) bool {
	return len(Parse(text).Commands) > 0
}

func Tokenize(text string) []sql.Token {
	return sql.Tokenize(text)
}

type Instance struct {
	Persistence *ps.Persistence
}

func Open(persistence *ps.Persistence) *Instance {
	return &Instance{
		Persistence: persistence,
	}
}

func (instance *Instance) Engine(opts ...check.Option) *check.Engine {
	return check.NewEngine(opts...)
}

// Check parses every .sql document in the store.
func (instance *Instance) Check(ctx context.Context, opts ...check.Option) ([]check.Result, error) {
	return instance.Engine(opts...).CheckPersistence(ctx, instance.Persistence)
}
