package sql

import (
	"encoding/json"
	"reflect"
	"testing"
)

func tree(commands ...Command) *AbstractSyntaxTree {
	return NewAbstractSyntaxTreeFromCommands(commands)
}

func TestParser(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected *AbstractSyntaxTree
	}{
		{"empty input", "", tree()},
		{"whitespace only", " \n\t ", tree()},
		{"empty command", ";", tree(EmptyCommand{})},
		{"empty command after whitespace", " ;", tree(EmptyCommand{})},
		{"empty commands", ";;", tree(EmptyCommand{}, EmptyCommand{})},
		{
			"select all columns",
			"select * from foobar;",
			tree(selectCommand(FromItem{TableName: ident("foobar")}, AllColumnsSelectedExpression{})),
		},
		{
			"upper case keywords",
			"SELECT * FROM foobar;",
			tree(selectCommand(FromItem{TableName: ident("foobar")}, AllColumnsSelectedExpression{})),
		},
		{
			"extra whitespace",
			"select *  from  \nfoobar ; ",
			tree(selectCommand(FromItem{TableName: ident("foobar")}, AllColumnsSelectedExpression{})),
		},
		{
			"schema qualified table",
			"select * from foo.bar;",
			tree(selectCommand(FromItem{SchemaName: identPtr("foo"), TableName: ident("bar")}, AllColumnsSelectedExpression{})),
		},
		{
			"multiple expressions",
			"select firstname, account.lastname, account.* from public.account;",
			tree(selectCommand(
				FromItem{SchemaName: identPtr("public"), TableName: ident("account")},
				ColumnSelectedExpression{ColumnName: ident("firstname")},
				ColumnSelectedExpression{TableName: identPtr("account"), ColumnName: ident("lastname")},
				AllColumnsSelectedExpression{TableName: identPtr("account")},
			)),
		},
		{
			"fully qualified column",
			"select public.account.firstname from public.account;",
			tree(selectCommand(
				FromItem{SchemaName: identPtr("public"), TableName: ident("account")},
				ColumnSelectedExpression{SchemaName: identPtr("public"), TableName: identPtr("account"), ColumnName: ident("firstname")},
			)),
		},
		{
			"whitespace around dots",
			"select a . b from s . t;",
			tree(selectCommand(
				FromItem{SchemaName: identPtr("s"), TableName: ident("t")},
				ColumnSelectedExpression{TableName: identPtr("a"), ColumnName: ident("b")},
			)),
		},
		{
			"quoted identifiers",
			`select "first name", "Account"."Last.Name" from "My Schema"."T";`,
			tree(selectCommand(
				FromItem{SchemaName: quotedPtr("My Schema"), TableName: quoted("T")},
				ColumnSelectedExpression{ColumnName: quoted("first name")},
				ColumnSelectedExpression{TableName: quotedPtr("Account"), ColumnName: quoted("Last.Name")},
			)),
		},
		{
			"empty quoted identifier",
			`select "" from t;`,
			tree(selectCommand(FromItem{TableName: ident("t")}, ColumnSelectedExpression{ColumnName: quoted("")})),
		},
		{
			"identifier characters",
			"select _a$b, c1 from t;",
			tree(selectCommand(
				FromItem{TableName: ident("t")},
				ColumnSelectedExpression{ColumnName: ident("_a$b")},
				ColumnSelectedExpression{ColumnName: ident("c1")},
			)),
		},
		{"misspelled keyword", "select *  fromm;", tree()},
		{"missing semicolon", "select * from foobar", tree()},
		{"too many dots", "select a.b.c.d from t;", tree()},
		{"too many dots in from item", "select * from a.b.c;", tree()},
		{"invalid identifier", "select 1abc from t;", tree()},
		{"wildcard qualifier", "select *.* from t;", tree()},
		{"unterminated quote", `select "abc from t;`, tree()},
		{"unknown command", "insert into t;", tree()},
		{
			"recovers after invalid command",
			"select * from foo.; select * from bar;",
			tree(selectCommand(FromItem{TableName: ident("bar")}, AllColumnsSelectedExpression{})),
		},
		{
			"recovers after unknown command",
			"; select * from t; garbage; ;",
			tree(
				EmptyCommand{},
				selectCommand(FromItem{TableName: ident("t")}, AllColumnsSelectedExpression{}),
				EmptyCommand{},
			),
		},
		{
			"recovers after missing from",
			"select *; select * from t;",
			tree(selectCommand(FromItem{TableName: ident("t")}, AllColumnsSelectedExpression{})),
		},
		{
			"end of input discards earlier partial command only",
			"select * from a; select * from",
			tree(selectCommand(FromItem{TableName: ident("a")}, AllColumnsSelectedExpression{})),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := NewParser(test.sql).Parse()
			if !reflect.DeepEqual(result, test.expected) {
				t.Errorf("Expected %v, got %v", test.expected, result)
			}
		})
	}
}

func TestParserWhitespaceTolerance(t *testing.T) {
	minimal := NewParser("select a,b.c,* from s.t;").Parse()
	spaced := NewParser("\n  SELECT\ta ,\n b . c ,  *\n\nFROM  s .t \n;\n").Parse()
	if !reflect.DeepEqual(minimal, spaced) {
		t.Errorf("Expected %v, got %v", minimal, spaced)
	}
}

func TestParserDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []Diagnostic
	}{
		{"valid input", "select * from t;", nil},
		{
			"misspelled keyword",
			"select *  fromm;",
			[]Diagnostic{{
				Kind:     InvalidCommand,
				Message:  `invalid SELECT command: expected FROM, found "fromm"`,
				Start:    TokenPosition{Line: 0, Column: 0},
				End:      TokenPosition{Line: 0, Column: 16},
				Expected: "FROM",
				Found:    "fromm",
			}},
		},
		{
			"missing semicolon",
			"select * from foobar",
			[]Diagnostic{{
				Kind:     UnexpectedEndOfInput,
				Message:  `unexpected end of input in SELECT command, expected ";"`,
				Start:    TokenPosition{Line: 0, Column: 0},
				End:      TokenPosition{Line: 0, Column: 20},
				Expected: `";"`,
			}},
		},
		{
			"unknown command",
			";\ninsert into t;",
			[]Diagnostic{{
				Kind:     UnknownCommand,
				Message:  `unknown command "insert"`,
				Start:    TokenPosition{Line: 1, Column: 0},
				End:      TokenPosition{Line: 1, Column: 14},
				Expected: "SELECT or ;",
				Found:    "insert",
			}},
		},
		{
			"invalid identifier",
			"select 1abc from t;",
			[]Diagnostic{{
				Kind:     InvalidCommand,
				Message:  `invalid SELECT command: expected column name or *, found "1abc"`,
				Start:    TokenPosition{Line: 0, Column: 0},
				End:      TokenPosition{Line: 0, Column: 19},
				Expected: "column name or *",
				Found:    "1abc",
			}},
		},
		{
			"trailing dot",
			"select * from t.",
			[]Diagnostic{{
				Kind:     InvalidCommand,
				Message:  `invalid SELECT command: expected identifier, found end of input`,
				Start:    TokenPosition{Line: 0, Column: 0},
				End:      TokenPosition{Line: 0, Column: 16},
				Expected: "identifier",
				Found:    "end of input",
			}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			parser := NewParser(test.sql)
			parser.Parse()
			if !reflect.DeepEqual(parser.Diagnostics(), test.expected) {
				t.Errorf("Expected %+v, got %+v", test.expected, parser.Diagnostics())
			}
		})
	}
}

func TestParserDiagnosticsOnePerDroppedStatement(t *testing.T) {
	parser := NewParser("select; select * from t; bogus; select * from a.b.c;")
	tree := parser.Parse()
	if len(tree.Commands) != 1 {
		t.Fatalf("Expected 1 command, got %d", len(tree.Commands))
	}
	if len(parser.Diagnostics()) != 3 {
		t.Fatalf("Expected 3 diagnostics, got %v", parser.Diagnostics())
	}
	kinds := []DiagnosticKind{InvalidCommand, UnknownCommand, InvalidCommand}
	for i, d := range parser.Diagnostics() {
		if d.Kind != kinds[i] {
			t.Errorf("Expected diagnostic %d to be %v, got %v", i, kinds[i], d.Kind)
		}
	}
}

func TestParseTokens(t *testing.T) {
	tokens := tokensFromStrings("select", " ", "*", " ", "from", " ", "foobar", ";")
	expected := tree(selectCommand(FromItem{TableName: ident("foobar")}, AllColumnsSelectedExpression{}))
	if result := ParseTokens(tokens); !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestAbstractSyntaxTreeString(t *testing.T) {
	tests := []struct {
		sql      string
		expected string
	}{
		{"", ""},
		{";", ";"},
		{"select * from foobar;", "SELECT * FROM foobar;"},
		{
			"select firstname, account.lastname, account.* from public.account;",
			"SELECT firstname, account.lastname, account.* FROM public.account;",
		},
		{`select "a b" from "S".t ; ;`, "SELECT \"a b\" FROM \"S\".t;\n;"},
	}

	for _, test := range tests {
		t.Run(test.sql, func(t *testing.T) {
			result := NewParser(test.sql).Parse().String()
			if result != test.expected {
				t.Errorf("Expected %q, got %q", test.expected, result)
			}
		})
	}
}

func TestAbstractSyntaxTreeStringReparses(t *testing.T) {
	sql := `select a, s.t.b, "Q".*, * from "S"."T"; ;`
	first := NewParser(sql).Parse()
	second := NewParser(first.String()).Parse()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected %v, got %v", first, second)
	}
}

func TestAbstractSyntaxTreeJSON(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected string
	}{
		{"empty", "", `{"commands":[]}`},
		{"empty command", ";", `{"commands":[{"type":"empty"}]}`},
		{
			"select",
			"select * from foobar;",
			`{"commands":[{"type":"select","selected_expressions":[{"type":"all_columns","schema_name":null,"table_name":null}],"from_item":{"schema_name":null,"table_name":{"quoted":false,"value":"foobar"}}}]}`,
		},
		{
			"qualified column",
			`select t."C" from s.t;`,
			`{"commands":[{"type":"select","selected_expressions":[{"type":"column","schema_name":null,"table_name":{"quoted":false,"value":"t"},"column_name":{"quoted":true,"value":"C"}}],"from_item":{"schema_name":{"quoted":false,"value":"s"},"table_name":{"quoted":false,"value":"t"}}}]}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := json.Marshal(NewParser(test.sql).Parse())
			if err != nil {
				t.Fatalf("Failed to marshal tree: %v", err)
			}
			if string(data) != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, data)
			}
		})
	}
}

func TestDiagnosticJSON(t *testing.T) {
	parser := NewParser("bogus;")
	parser.Parse()
	data, err := json.Marshal(parser.Diagnostics())
	if err != nil {
		t.Fatalf("Failed to marshal diagnostics: %v", err)
	}
	expected := `[{"kind":"unknown_command","message":"unknown command \"bogus\"","start":{"line":0,"column":0},"end":{"line":0,"column":6},"expected":"SELECT or ;","found":"bogus"}]`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, data)
	}
}
