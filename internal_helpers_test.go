package fastread

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, root, name string, data []byte) {
	t.Helper()

	path := filepath.Join(root, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testOptions(t *testing.T, opts ...Option) options {
	t.Helper()

	cfg, err := applyOptions(opts)
	if err != nil {
		t.Fatalf("options: %v", err)
	}

	return cfg
}

func mustListDir(t *testing.T, dir string, cfg options) *listing {
	t.Helper()

	l, err := listDir(t.Context(), dir, cfg)
	if err != nil {
		t.Fatalf("list %s: %v", dir, err)
	}

	return l
}

func nameOf(s string) nulTermName {
	return nulTermName(append([]byte(s), 0))
}

// drainEngine pulls every item and waits for the engine to finish.
func drainEngine(t *testing.T, e *engine) map[string]Item {
	t.Helper()

	items := make(map[string]Item)

	for {
		item, ok := e.next(true)
		if !ok {
			break
		}

		if _, dup := items[item.Name]; dup {
			t.Fatalf("duplicate item %s", item.Name)
		}

		items[item.Name] = item
	}

	if err := e.wait(); err != nil {
		t.Fatalf("engine wait: %v", err)
	}

	return items
}
