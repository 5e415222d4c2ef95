// Package ps provides the git-backed document store.
//
// Documents are SQL files kept in a Git repository through go-git. Every
// write creates a commit authored by a core.Identity, so the history of a
// query file is the history of its edits.
//
// # Memory Persistence
//
// For tests or a throwaway store:
//
//	persistence, err := ps.NewMemoryPersistence()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File Persistence
//
// For a repository on disk, optionally cloned from a remote:
//
//	persistence, err := ps.NewFilePersistence("/path/to/queries", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Documents
//
//	txn, err := persistence.WriteDocument(core.Document{
//	    Path: "reports/accounts.sql",
//	    Text: "select * from public.account;",
//	}, identity, "Add account report")
//
//	docs, err := persistence.ListDocuments()
//
// Writes build blobs, trees and commits directly in the object store
// without staging through the worktree.
package ps
