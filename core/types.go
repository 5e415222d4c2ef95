package core

import (
	"fmt"
	"path"
	"strings"
)

type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (identity Identity) String() string {
	return fmt.Sprintf("%s <%s>", identity.Name, identity.Email)
}

// IsZero reports whether neither name nor email is set.
func (identity Identity) IsZero() bool {
	return identity.Name == "" && identity.Email == ""
}

const DocumentExtension = ".sql"

type Document struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// IsSQL reports whether the document path carries the .sql extension.
func (doc Document) IsSQL() bool {
	return strings.EqualFold(path.Ext(doc.Path), DocumentExtension)
}

// CleanPath normalizes a document path for storage: slash separated,
// without leading "/" or "./" and without ".." elements.
func CleanPath(p string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid document path %q", p)
	}
	return cleaned, nil
}
