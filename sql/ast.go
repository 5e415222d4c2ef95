package sql

import (
	"encoding/json"
	"strings"
)

type CommandType int

const (
	EmptyCommandType CommandType = iota
	DataManipulationCommandType
)

type DataManipulationType int

const (
	SelectType DataManipulationType = iota
)

type SelectedExpressionType int

const (
	AllColumnsExpressionType SelectedExpressionType = iota
	ColumnExpressionType
)

// AbstractSyntaxTree holds the commands parsed from one input, in source
// order. Commands that failed to parse are absent.
type AbstractSyntaxTree struct {
	Commands []Command
}

func NewAbstractSyntaxTree() *AbstractSyntaxTree {
	return &AbstractSyntaxTree{Commands: []Command{}}
}

func NewAbstractSyntaxTreeFromCommands(commands []Command) *AbstractSyntaxTree {
	if commands == nil {
		commands = []Command{}
	}
	return &AbstractSyntaxTree{Commands: commands}
}

func (tree *AbstractSyntaxTree) PushCommand(command Command) {
	tree.Commands = append(tree.Commands, command)
}

// String renders every command as normalized SQL, one per line.
func (tree *AbstractSyntaxTree) String() string {
	lines := make([]string, len(tree.Commands))
	for i, command := range tree.Commands {
		lines[i] = command.String()
	}
	return strings.Join(lines, "\n")
}

func (tree *AbstractSyntaxTree) MarshalJSON() ([]byte, error) {
	commands := tree.Commands
	if commands == nil {
		commands = []Command{}
	}
	return json.Marshal(struct {
		Commands []Command `json:"commands"`
	}{commands})
}

type Command interface {
	Type() CommandType
	String() string
}

type DataManipulationCommand interface {
	Command
	DataManipulationType() DataManipulationType
}

type EmptyCommand struct{}

type SelectCommand struct {
	SelectedExpressions []SelectedExpression
	FromItem            FromItem
}

type SelectedExpression interface {
	SelectedExpressionType() SelectedExpressionType
	String() string
}

type AllColumnsSelectedExpression struct {
	SchemaName *Identifier
	TableName  *Identifier
}

type ColumnSelectedExpression struct {
	SchemaName *Identifier
	TableName  *Identifier
	ColumnName Identifier
}

type FromItem struct {
	SchemaName *Identifier
	TableName  Identifier
}

type Identifier struct {
	Quoted bool   `json:"quoted"`
	Value  string `json:"value"`
}

func (c EmptyCommand) Type() CommandType {
	return EmptyCommandType
}

func (c SelectCommand) Type() CommandType {
	return DataManipulationCommandType
}

func (c SelectCommand) DataManipulationType() DataManipulationType {
	return SelectType
}

func (e AllColumnsSelectedExpression) SelectedExpressionType() SelectedExpressionType {
	return AllColumnsExpressionType
}

func (e ColumnSelectedExpression) SelectedExpressionType() SelectedExpressionType {
	return ColumnExpressionType
}

func (c EmptyCommand) String() string {
	return ";"
}

func (c SelectCommand) String() string {
	expressions := make([]string, len(c.SelectedExpressions))
	for i, expression := range c.SelectedExpressions {
		expressions[i] = expression.String()
	}
	return "SELECT " + strings.Join(expressions, ", ") + " FROM " + c.FromItem.String() + ";"
}

func (e AllColumnsSelectedExpression) String() string {
	return qualifiedName(e.SchemaName, e.TableName) + "*"
}

func (e ColumnSelectedExpression) String() string {
	return qualifiedName(e.SchemaName, e.TableName) + e.ColumnName.String()
}

func (f FromItem) String() string {
	return qualifiedName(f.SchemaName, nil) + f.TableName.String()
}

func qualifiedName(schema, table *Identifier) string {
	var b strings.Builder
	if schema != nil {
		b.WriteString(schema.String())
		b.WriteByte('.')
	}
	if table != nil {
		b.WriteString(table.String())
		b.WriteByte('.')
	}
	return b.String()
}

func (i Identifier) String() string {
	if i.Quoted {
		return `"` + i.Value + `"`
	}
	return i.Value
}

func (c EmptyCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{"empty"})
}

func (c SelectCommand) MarshalJSON() ([]byte, error) {
	expressions := c.SelectedExpressions
	if expressions == nil {
		expressions = []SelectedExpression{}
	}
	return json.Marshal(struct {
		Type                string               `json:"type"`
		SelectedExpressions []SelectedExpression `json:"selected_expressions"`
		FromItem            FromItem             `json:"from_item"`
	}{"select", expressions, c.FromItem})
}

func (e AllColumnsSelectedExpression) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string      `json:"type"`
		SchemaName *Identifier `json:"schema_name"`
		TableName  *Identifier `json:"table_name"`
	}{"all_columns", e.SchemaName, e.TableName})
}

func (e ColumnSelectedExpression) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string      `json:"type"`
		SchemaName *Identifier `json:"schema_name"`
		TableName  *Identifier `json:"table_name"`
		ColumnName Identifier  `json:"column_name"`
	}{"column", e.SchemaName, e.TableName, e.ColumnName})
}

func (f FromItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SchemaName *Identifier `json:"schema_name"`
		TableName  Identifier  `json:"table_name"`
	}{f.SchemaName, f.TableName})
}
