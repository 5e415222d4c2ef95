// Package sql provides lexing and parsing for a small subset of PostgreSQL.
//
// The package includes a lexer that splits SQL text into position-tagged
// tokens and a recursive-descent parser that produces an abstract syntax
// tree of commands.
//
// # Lexer Usage
//
//	lexer := sql.NewLexer("SELECT * FROM public.users;")
//	for {
//	    token, ok := lexer.NextToken()
//	    if !ok {
//	        break
//	    }
//	    fmt.Printf("%s %q\n", token.Position, token.Value)
//	}
//
// Concatenating the values of all tokens reproduces the input exactly.
// Whitespace runs, word runs and quoted identifiers are single tokens;
// '.', ',' and ';' are always tokens of their own.
//
// # Parser Usage
//
//	parser := sql.NewParser("select firstname, account.* from public.account;")
//	tree := parser.Parse()
//	for _, d := range parser.Diagnostics() {
//	    log.Println(d)
//	}
//
// Parse never fails. A statement that does not match the grammar is
// skipped up to and including the next semicolon and leaves a Diagnostic;
// running out of input in the middle of a statement ends the parse.
//
// # Supported Commands
//
//   - EmptyCommand: a lone ";"
//   - SelectCommand: SELECT expr [, expr ...] FROM [schema.]table ;
//     where expr is [[schema.]table.]column or [[schema.]table.]*
package sql
