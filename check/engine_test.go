package check

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jcgsville/postgresql-parsing/core"
	"github.com/jcgsville/postgresql-parsing/ps"
	"github.com/jcgsville/postgresql-parsing/sql"
)

type fakeReference struct {
	verdict ReferenceVerdict
	err     error
	calls   int
	closed  bool
}

func (f *fakeReference) Verdict(ctx context.Context, text string) (ReferenceVerdict, error) {
	f.calls++
	return f.verdict, f.err
}

func (f *fakeReference) Close() error {
	f.closed = true
	return nil
}

func TestEngineCheck(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		commands    int
		diagnostics int
	}{
		{"empty", "", 0, 0},
		{"valid", "select * from foobar;", 1, 0},
		{"several", "; select a, b from s.t;\nselect * from u;", 3, 0},
		{"invalid", "select *  fromm;", 0, 1},
		{"partly invalid", "select * from a; bogus; select * from b;", 2, 1},
		{"unterminated", "select * from a", 0, 1},
	}

	engine := NewEngine()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := engine.Check(context.Background(), core.Document{Path: "q.sql", Text: test.text})
			if len(result.Tree.Commands) != test.commands {
				t.Errorf("Expected %d commands, got %d", test.commands, len(result.Tree.Commands))
			}
			if len(result.Diagnostics) != test.diagnostics {
				t.Errorf("Expected %d diagnostics, got %v", test.diagnostics, result.Diagnostics)
			}
			if result.Valid() != (test.diagnostics == 0) {
				t.Errorf("Unexpected Valid() = %v", result.Valid())
			}
			if result.TokenCount != len(sql.Tokenize(test.text)) {
				t.Errorf("Expected %d tokens, got %d", len(sql.Tokenize(test.text)), result.TokenCount)
			}
			if result.Reference != nil {
				t.Error("Expected no reference verdict without a reference parser")
			}
		})
	}
}

func TestEngineCheckWithReference(t *testing.T) {
	reference := &fakeReference{verdict: ReferenceVerdict{Parser: "fake", Accepted: true, Statements: 1}}
	engine := NewEngine(WithReference(reference))

	result := engine.Check(context.Background(), core.Document{Text: "select * from t;"})
	if result.Reference == nil || *result.Reference != reference.verdict {
		t.Errorf("Expected verdict %v, got %v", reference.verdict, result.Reference)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Failed to close engine: %v", err)
	}
	if !reference.closed {
		t.Error("Expected reference to be closed")
	}
}

func TestEngineCheckReferenceFailure(t *testing.T) {
	reference := &fakeReference{err: errors.New("boom")}
	engine := NewEngine(WithReference(reference))

	result := engine.Check(context.Background(), core.Document{Text: "select * from t;"})
	if result.Reference != nil {
		t.Errorf("Expected no verdict, got %v", result.Reference)
	}
	if !result.Valid() {
		t.Errorf("Expected reference failure not to affect diagnostics, got %v", result.Diagnostics)
	}
	if reference.calls != 1 {
		t.Errorf("Expected 1 reference call, got %d", reference.calls)
	}
}

func TestEngineCheckPathLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.sql")
	if err := os.WriteFile(path, []byte("select * from t;"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	engine := NewEngine()
	for _, p := range []string{path, "file://" + path} {
		result, err := engine.CheckPath(context.Background(), p, nil)
		if err != nil {
			t.Fatalf("Failed to check %s: %v", p, err)
		}
		if !result.Valid() || len(result.Tree.Commands) != 1 {
			t.Errorf("Unexpected result for %s: %+v", p, result)
		}
		if result.Document.Path != p {
			t.Errorf("Expected document path %s, got %s", p, result.Document.Path)
		}
	}

	if _, err := engine.CheckPath(context.Background(), filepath.Join(dir, "missing.sql"), nil); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestEngineCheckPathHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/q.sql" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "select a from t; select from;")
	}))
	defer server.Close()

	engine := NewEngine()
	result, err := engine.CheckPath(context.Background(), server.URL+"/q.sql", nil)
	if err != nil {
		t.Fatalf("Failed to check URL: %v", err)
	}
	if len(result.Tree.Commands) != 1 || len(result.Diagnostics) != 1 {
		t.Errorf("Unexpected result: %d commands, %v", len(result.Tree.Commands), result.Diagnostics)
	}

	if _, err := engine.CheckPath(context.Background(), server.URL+"/missing.sql", nil); err == nil {
		t.Error("Expected error for 404")
	}
}

func TestEngineCheckPathUnsupportedScheme(t *testing.T) {
	_, err := NewEngine().CheckPath(context.Background(), "ftp://host/q.sql", nil)
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestEngineCheckPersistence(t *testing.T) {
	persistence, err := ps.NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	identity := core.Identity{Name: "test", Email: "test@test.com"}
	_, err = persistence.WriteDocuments([]core.Document{
		{Path: "good.sql", Text: "select * from t;"},
		{Path: "bad.sql", Text: "select * form t;"},
		{Path: "notes.txt", Text: "not checked"},
	}, identity, "Add queries")
	if err != nil {
		t.Fatalf("Failed to write documents: %v", err)
	}

	results, err := NewEngine().CheckPersistence(context.Background(), &persistence)
	if err != nil {
		t.Fatalf("Failed to check persistence: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Document.Path != "bad.sql" || results[0].Valid() {
		t.Errorf("Expected bad.sql to fail, got %+v", results[0])
	}
	if results[1].Document.Path != "good.sql" || !results[1].Valid() {
		t.Errorf("Expected good.sql to pass, got %+v", results[1])
	}
}

func TestEngineCheckPersistenceCancelled(t *testing.T) {
	persistence, err := ps.NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	identity := core.Identity{Name: "test", Email: "test@test.com"}
	if _, err := persistence.WriteDocument(core.Document{Path: "a.sql", Text: ";"}, identity, ""); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEngine().CheckPersistence(ctx, &persistence); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
