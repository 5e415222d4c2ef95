package check

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
)

// ReferenceVerdict is a second opinion on a document from a full SQL parser.
type ReferenceVerdict struct {
	Parser     string `json:"parser"`
	Accepted   bool   `json:"accepted"`
	Statements int    `json:"statements"`
	Message    string `json:"message,omitempty"`
}

// Reference asks an independent parser whether it accepts a script. Its
// verdict is reported next to the diagnostics and never changes them.
type Reference interface {
	Verdict(ctx context.Context, text string) (ReferenceVerdict, error)
	Close() error
}

// DuckDBReference uses DuckDB's parser, which is derived from PostgreSQL's,
// through json_serialize_sql. Only SELECT statements serialize, so other
// statements come back rejected with DuckDB's message.
type DuckDBReference struct {
	db *sql.DB
}

func NewDuckDBReference() (*DuckDBReference, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}
	return &DuckDBReference{db: db}, nil
}

type serializedSQL struct {
	Error        bool              `json:"error"`
	ErrorType    string            `json:"error_type"`
	ErrorMessage string            `json:"error_message"`
	Statements   []json.RawMessage `json:"statements"`
}

func (reference *DuckDBReference) Verdict(ctx context.Context, text string) (ReferenceVerdict, error) {
	var raw string
	if err := reference.db.QueryRowContext(ctx, "SELECT json_serialize_sql(?::VARCHAR)::VARCHAR", text).Scan(&raw); err != nil {
		return ReferenceVerdict{}, fmt.Errorf("failed to run json_serialize_sql: %w", err)
	}

	var serialized serializedSQL
	if err := json.Unmarshal([]byte(raw), &serialized); err != nil {
		return ReferenceVerdict{}, fmt.Errorf("failed to decode json_serialize_sql output: %w", err)
	}

	verdict := ReferenceVerdict{
		Parser:     "duckdb",
		Accepted:   !serialized.Error,
		Statements: len(serialized.Statements),
	}
	if serialized.Error {
		verdict.Message = serialized.ErrorMessage
	}
	return verdict, nil
}

func (reference *DuckDBReference) Close() error {
	return reference.db.Close()
}
