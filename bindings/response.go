package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	postgresql "github.com/jcgsville/postgresql-parsing"
	"github.com/jcgsville/postgresql-parsing/check"
	"github.com/jcgsville/postgresql-parsing/ps"
	"github.com/jcgsville/postgresql-parsing/sql"
)

// Response mirrors the server protocol for consistency
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type ParseResponse struct {
	Commands    []sql.Command    `json:"commands"`
	Diagnostics []sql.Diagnostic `json:"diagnostics"`
}

// Handle is an open document store.
type Handle struct {
	instance *postgresql.Instance
}

var (
	handlesMu  sync.Mutex
	handles    = make(map[int]*Handle)
	nextHandle = 1
)

func isValid(text string) bool {
	return postgresql.IsSyntacticallyNonEmpty(text)
}

func parseJSON(text string) []byte {
	tree, diagnostics := postgresql.ParseWithDiagnostics(text)
	if tree.Commands == nil {
		tree.Commands = []sql.Command{}
	}
	if diagnostics == nil {
		diagnostics = []sql.Diagnostic{}
	}
	return successJSON("parse", ParseResponse{Commands: tree.Commands, Diagnostics: diagnostics})
}

func tokenizeJSON(text string) []byte {
	return successJSON("tokens", postgresql.Tokenize(text))
}

func openStore(path string) (int, error) {
	var persistence ps.Persistence
	var err error
	if path == "" {
		persistence, err = ps.NewMemoryPersistence()
	} else {
		persistence, err = ps.NewFilePersistence(path, nil)
	}
	if err != nil {
		return -1, err
	}

	handlesMu.Lock()
	defer handlesMu.Unlock()
	handle := nextHandle
	nextHandle++
	handles[handle] = &Handle{instance: postgresql.Open(&persistence)}
	return handle, nil
}

func closeStore(handle int) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	delete(handles, handle)
}

func checkStoreJSON(handle int) []byte {
	handlesMu.Lock()
	h, ok := handles[handle]
	handlesMu.Unlock()
	if !ok {
		return errorJSON("Invalid handle")
	}

	results, err := h.instance.Check(context.Background())
	if err != nil {
		return errorJSON(err.Error())
	}
	if results == nil {
		results = []check.Result{}
	}
	return successJSON("check", results)
}

func successJSON(kind string, result any) []byte {
	data, err := json.Marshal(result)
	if err != nil {
		return errorJSON(fmt.Sprintf("failed to encode result: %v", err))
	}
	jsonData, _ := json.Marshal(Response{Success: true, Type: kind, Result: data})
	return jsonData
}

func errorJSON(msg string) []byte {
	jsonData, _ := json.Marshal(Response{Success: false, Error: msg})
	return jsonData
}
