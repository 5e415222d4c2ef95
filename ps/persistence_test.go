package ps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jcgsville/postgresql-parsing/core"
)

func TestNewMemoryPersistence(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create memory persistence: %v", err)
	}

	if !persistence.IsInitialized() {
		t.Error("Expected persistence to be initialized")
	}
}

func TestPersistenceNotInitialized(t *testing.T) {
	var persistence Persistence

	if persistence.IsInitialized() {
		t.Error("Expected uninitialized persistence to return false")
	}

	err := persistence.ensureInitialized()
	if err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}

	if _, err := persistence.ListDocuments(); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}

	if txn := persistence.LatestTransaction(); txn.Id != "" {
		t.Errorf("Expected empty transaction, got %v", txn)
	}
}

func TestFilePersistenceReopen(t *testing.T) {
	dir := t.TempDir()
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	persistence, err := NewFilePersistence(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	doc := core.Document{Path: "reports/accounts.sql", Text: "select * from account;"}
	txn, err := persistence.WriteDocument(doc, identity, "Add report")
	if err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	reopened, err := NewFilePersistence(dir, nil)
	if err != nil {
		t.Fatalf("Failed to reopen file persistence: %v", err)
	}

	got, err := reopened.ReadDocument("reports/accounts.sql")
	if err != nil {
		t.Fatalf("Failed to read document: %v", err)
	}
	if got != doc {
		t.Errorf("Expected %v, got %v", doc, got)
	}

	if latest := reopened.LatestTransaction(); latest.Id != txn.Id {
		t.Errorf("Expected latest transaction %s, got %s", txn.Id, latest.Id)
	}
}

func TestLatestTransaction(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	if txn := persistence.LatestTransaction(); txn.Id != "" {
		t.Errorf("Expected no transaction in empty repository, got %v", txn)
	}

	identity := core.Identity{Name: "Test User", Email: "test@example.com"}
	txn, err := persistence.WriteDocument(core.Document{Path: "a.sql", Text: ";"}, identity, "Add a")
	if err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	latest := persistence.LatestTransaction()
	if latest.Id != txn.Id {
		t.Errorf("Expected %s, got %s", txn.Id, latest.Id)
	}
	if latest.Author != "Test User <test@example.com>" {
		t.Errorf("Unexpected author %q", latest.Author)
	}
	if latest.Message != "Add a" {
		t.Errorf("Unexpected message %q", latest.Message)
	}
}

func TestReadDocumentNotFound(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	if _, err := persistence.ReadDocument("missing.sql"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got %v", err)
	}

	identity := core.Identity{Name: "test", Email: "test@test.com"}
	if _, err := persistence.WriteDocument(core.Document{Path: "a.sql", Text: ";"}, identity, ""); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	if _, err := persistence.ReadDocument("missing.sql"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got %v", err)
	}
}

func TestOpenFilePersistence(t *testing.T) {
	dir := t.TempDir()
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	created, err := NewFilePersistence(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	doc := core.Document{Path: "a.sql", Text: ";"}
	if _, err := created.WriteDocument(doc, identity, ""); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	opened, err := OpenFilePersistence(dir)
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	if got, err := opened.ReadDocument("a.sql"); err != nil || got != doc {
		t.Errorf("Expected %v, got %v (%v)", doc, got, err)
	}
}

func TestOpenFilePersistenceNotARepository(t *testing.T) {
	plain := t.TempDir()
	missing := filepath.Join(t.TempDir(), "missing")

	if _, err := OpenFilePersistence(plain); !errors.Is(err, ErrNotARepository) {
		t.Errorf("Expected ErrNotARepository, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(plain, ".git")); !os.IsNotExist(err) {
		t.Errorf("Expected no .git directory to be created, got %v", err)
	}

	if _, err := OpenFilePersistence(missing); err == nil {
		t.Error("Expected error for missing directory")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("Expected %s not to be created", missing)
	}
}
