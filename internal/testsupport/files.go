package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backlog/internal/catalog"
)

// CatalogHeader is the canonical header row, newline-terminated.
var CatalogHeader = strings.Join(catalog.Columns, ",") + "\n"

// WriteCatalog writes content to path, creating parent directories. A content
// without a header row gets the canonical one prepended.
func WriteCatalog(t testing.TB, path, content string) {
	t.Helper()

	if !strings.HasPrefix(content, catalog.ColumnGame+",") {
		content = CatalogHeader + content
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the contents of path as a string.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
