package check

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDetectScheme(t *testing.T) {
	tests := []struct {
		path     string
		expected urlScheme
	}{
		{"queries/a.sql", schemeLocal},
		{"/abs/a.sql", schemeLocal},
		{"file:///abs/a.sql", schemeFile},
		{"http://host/a.sql", schemeHTTP},
		{"HTTPS://host/a.sql", schemeHTTPS},
		{"s3://bucket/a.sql", schemeS3},
		{"ftp://host/a.sql", ""},
	}

	for _, test := range tests {
		if scheme := detectScheme(test.path); scheme != test.expected {
			t.Errorf("Expected %q for %s, got %q", test.expected, test.path, scheme)
		}
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://my-bucket/path/to/q.sql")
	if err != nil {
		t.Fatalf("Failed to parse S3 URL: %v", err)
	}
	if bucket != "my-bucket" || key != "path/to/q.sql" {
		t.Errorf("Unexpected bucket %q key %q", bucket, key)
	}

	for _, url := range []string{"s3://bucket", "s3://bucket/", "s3:///key"} {
		if _, _, err := parseS3URL(url); err == nil {
			t.Errorf("Expected error for %s", url)
		}
	}
}

func TestLoadDocumentUsesOpener(t *testing.T) {
	original := osOpen
	defer func() { osOpen = original }()

	var opened string
	osOpen = func(path string) (io.ReadCloser, error) {
		opened = path
		return io.NopCloser(strings.NewReader("select * from t;")), nil
	}

	doc, err := LoadDocument(context.Background(), "file:///queries/a.sql", nil)
	if err != nil {
		t.Fatalf("Failed to load document: %v", err)
	}
	if opened != "/queries/a.sql" {
		t.Errorf("Expected /queries/a.sql to be opened, got %s", opened)
	}
	if doc.Path != "file:///queries/a.sql" || doc.Text != "select * from t;" {
		t.Errorf("Unexpected document %+v", doc)
	}
}

func TestOpenReaderUnsupportedScheme(t *testing.T) {
	_, err := OpenReader(context.Background(), "gopher://host/a.sql", nil)
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Expected ErrUnsupportedScheme, got %v", err)
	}
}
