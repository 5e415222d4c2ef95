package ps

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/jcgsville/postgresql-parsing/core"
)

// WriteDocument stores doc at its path and commits it as identity.
func (p *Persistence) WriteDocument(doc core.Document, identity core.Identity, message string) (Transaction, error) {
	return p.WriteDocuments([]core.Document{doc}, identity, message)
}

// WriteDocuments stores every document in a single commit.
func (p *Persistence) WriteDocuments(docs []core.Document, identity core.Identity, message string) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	changes := make([]treeChange, 0, len(docs))
	for _, doc := range docs {
		docPath, err := core.CleanPath(doc.Path)
		if err != nil {
			return Transaction{}, err
		}

		blobHash, err := p.createBlob([]byte(doc.Text))
		if err != nil {
			return Transaction{}, fmt.Errorf("failed to create blob for %s: %w", docPath, err)
		}

		changes = append(changes, treeChange{path: docPath, blob: blobHash})
	}

	if message == "" {
		message = fmt.Sprintf("Saving %d document(s)", len(docs))
	}
	return p.commitChanges(changes, identity, message)
}

// DeleteDocument removes the document at path and commits the removal.
func (p *Persistence) DeleteDocument(path string, identity core.Identity, message string) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	docPath, err := core.CleanPath(path)
	if err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.readDocument(docPath); err != nil {
		return Transaction{}, err
	}

	if message == "" {
		message = "Deleting " + docPath
	}
	return p.commitChanges([]treeChange{{path: docPath, blob: plumbing.ZeroHash}}, identity, message)
}

// ReadDocument reads the document at path from the HEAD tree.
func (p *Persistence) ReadDocument(path string) (core.Document, error) {
	if err := p.ensureInitialized(); err != nil {
		return core.Document{}, err
	}

	docPath, err := core.CleanPath(path)
	if err != nil {
		return core.Document{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.readDocument(docPath)
}

// readDocument expects a cleaned path and the caller to hold p.mu.
func (p *Persistence) readDocument(docPath string) (core.Document, error) {
	tree, err := p.headTree()
	if err != nil {
		return core.Document{}, err
	}
	if tree == nil {
		return core.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, docPath)
	}

	file, err := tree.File(docPath)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return core.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, docPath)
		}
		return core.Document{}, fmt.Errorf("failed to read %s: %w", docPath, err)
	}

	content, err := file.Contents()
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to read contents: %w", err)
	}

	return core.Document{Path: docPath, Text: content}, nil
}

// ListDocuments returns every .sql document in the HEAD tree, sorted by path.
func (p *Persistence) ListDocuments() ([]core.Document, error) {
	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	tree, err := p.headTree()
	if err != nil || tree == nil {
		return nil, err
	}

	var docs []core.Document
	err = tree.Files().ForEach(func(file *object.File) error {
		if file.Mode != filemode.Regular && file.Mode != filemode.Executable {
			return nil
		}
		doc := core.Document{Path: file.Name}
		if !doc.IsSQL() {
			return nil
		}
		content, err := file.Contents()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		doc.Text = content
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
	return docs, nil
}
