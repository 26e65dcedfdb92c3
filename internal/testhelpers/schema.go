package testhelpers

import (
	_ "embed"
	"github.com/labqa/inspection/internal/schema"
	"os"
	"path/filepath"
	"testing"
)

// SchemaJSON is a schema with two sectors, a solutions process and conditional fields.
//
//go:embed testdata/roteiros.json
var SchemaJSON []byte

// LoadSchema parses [SchemaJSON] and fails the test on error.
func LoadSchema(t testing.TB) *schema.Schema {
	t.Helper()
	s, err := schema.Load(SchemaJSON)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return s
}

// WriteSchemaFile writes [SchemaJSON] to a temporary file and returns its path.
func WriteSchemaFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roteiros.json")
	if err := os.WriteFile(path, SchemaJSON, 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}
