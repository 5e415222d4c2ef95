// Package main provides a TCP server that parses SQL for its clients.
package main

import (
	"encoding/json"

	"github.com/jcgsville/postgresql-parsing/sql"
)

// Request is one line from the client. A line that is not a JSON object
// is taken as the query itself.
type Request struct {
	Query  string `json:"query"`
	Tokens bool   `json:"tokens,omitempty"`
	// Save commits the query to the document store under this path,
	// authored by the connection's identity.
	Save string `json:"save,omitempty"`
}

// Response is one JSON line sent back per request.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"` // "parse" or "auth"
	Result  json.RawMessage `json:"result,omitempty"`
}

// ParseResponse carries the tree of one request.
type ParseResponse struct {
	Tree        *sql.AbstractSyntaxTree `json:"tree"`
	Diagnostics []sql.Diagnostic        `json:"diagnostics"`
	NonEmpty    bool                    `json:"non_empty"`
	Tokens      []sql.Token             `json:"tokens,omitempty"`
	Transaction string                  `json:"transaction,omitempty"`
	TimeMs      float64                 `json:"time_ms"`
}

// AuthResponse contains authentication result.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity,omitempty"`
	Session       string `json:"session"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest reads a request line: a JSON object or raw SQL.
func DecodeRequest(line string) (Request, error) {
	if len(line) == 0 || line[0] != '{' {
		return Request{Query: line}, nil
	}
	var req Request
	err := json.Unmarshal([]byte(line), &req)
	return req, err
}

func errorResponse(kind string, err error) Response {
	return Response{
		Success: false,
		Type:    kind,
		Error:   err.Error(),
	}
}
