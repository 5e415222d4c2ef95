// Package postgresql parses a small subset of PostgreSQL into an abstract
// syntax tree.
//
// Parsing never fails: text is split into tokens, each statement is matched
// against the grammar, and statements that do not match are skipped up to
// the next semicolon. The tree holds the commands that parsed.
//
// # Quick Start
//
//	tree, diagnostics := postgresql.ParseWithDiagnostics("select firstname, t.* from public.t;")
//	for _, command := range tree.Commands {
//	    fmt.Println(command)
//	}
//	for _, d := range diagnostics {
//	    fmt.Println(d)
//	}
//
// # Checking a Repository
//
// Documents kept in a git-backed store can be checked together:
//
//	persistence, _ := ps.NewFilePersistence("/path/to/queries", nil)
//	results, _ := postgresql.Open(&persistence).Check(ctx)
//	for _, result := range results {
//	    result.Display(os.Stdout)
//	}
//
// # Supported SQL
//
//   - Empty statements: ;
//   - SELECT expr [, expr ...] FROM [schema.]table;
//     where expr is a column or *, optionally qualified by table or
//     schema and table
//   - Quoted ("Any Name") and unquoted (letters, digits, _ and $)
//     identifiers
//   - Case-insensitive keywords
package postgresql
