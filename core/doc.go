// Package core provides the types shared by the parser hosts.
//
// # Identity
//
// Identity names the author of stored documents (Git commit author) and
// the subject of an authenticated server session:
//
//	identity := core.Identity{
//	    Name:  "John Doe",
//	    Email: "john@example.com",
//	}
//
// # Document
//
// Document is a named piece of SQL text. Paths are slash separated and
// relative to the store root:
//
//	doc := core.Document{
//	    Path: "queries/accounts.sql",
//	    Text: "select * from public.account;",
//	}
package core
