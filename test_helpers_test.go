package fastread_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/calvinalkan/fastread"
)

const (
	windowsOS = "windows"

	testNumFilesBig = 500
	testNumFilesMed = 300
	testBadFile     = "bad.txt"
	testSecretFile  = "secret.txt"
	openOp          = "open"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()

	fullPath := filepath.Join(root, rel)
	parent := filepath.Dir(fullPath)

	err := os.MkdirAll(parent, 0o750)
	if err != nil {
		t.Fatalf("mkdir %s: %v", parent, err)
	}

	err = os.WriteFile(fullPath, data, 0o600)
	if err != nil {
		t.Fatalf("write %s: %v", fullPath, err)
	}
}

// writeFlatFiles writes n files named by nameFn and returns name → content.
func writeFlatFiles(
	t *testing.T,
	root string,
	n int,
	nameFn func(i int) string,
	contentFn func(i int) []byte,
) map[string][]byte {
	t.Helper()

	want := make(map[string][]byte, n)

	for i := range n {
		name := nameFn(i)

		data := []byte("x")
		if contentFn != nil {
			data = contentFn(i)
		}

		writeFile(t, root, name, data)
		want[name] = data
	}

	return want
}

func indexedName(i int) string {
	return fmt.Sprintf("f-%05d.txt", i)
}

func indexedContent(i int) []byte {
	return fmt.Appendf(nil, "content of file %d", i)
}

func writeSymlink(t *testing.T, root, targetRel, linkRel string) {
	t.Helper()

	target := filepath.Join(root, targetRel)
	link := filepath.Join(root, linkRel)

	err := os.Symlink(target, link)
	if err != nil {
		t.Fatalf("symlink %s -> %s: %v", link, target, err)
	}
}

// makeUnreadable removes all permissions from path. Tests using it are
// skipped where permissions are not enforced.
func makeUnreadable(t *testing.T, path string) {
	t.Helper()

	err := os.Chmod(path, 0)
	if err != nil {
		t.Fatalf("chmod: %v", err)
	}

	t.Cleanup(func() { _ = os.Chmod(path, 0o700) })
}

func skipIfPermissionsIgnored(t *testing.T) {
	t.Helper()

	if runtime.GOOS == windowsOS {
		t.Skip("chmod 000 unsupported on windows")
	}

	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
}

// drainBatches collects every batch until Next returns false.
func drainBatches(t *testing.T, it *fastread.FilesBatchIterator) []fastread.Batch {
	t.Helper()

	var batches []fastread.Batch
	for it.Next() {
		batches = append(batches, it.Batch())
	}

	return batches
}

func drainItems(t *testing.T, it *fastread.FlattenFilesIterator) []fastread.Item {
	t.Helper()

	var items []fastread.Item
	for it.Next() {
		items = append(items, it.Item())
	}

	return items
}

func flattenBatches(batches []fastread.Batch) []fastread.Item {
	var items []fastread.Item
	for _, b := range batches {
		items = append(items, b...)
	}

	return items
}

func itemNames(items []fastread.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}

	return out
}

// assertContents fails unless items is exactly want, with no per-file errors.
func assertContents(t *testing.T, items []fastread.Item, want map[string][]byte) {
	t.Helper()

	if len(items) != len(want) {
		t.Fatalf("item count: got=%d want=%d", len(items), len(want))
	}

	seen := make(map[string]bool, len(items))

	for _, it := range items {
		if it.Err != nil {
			t.Fatalf("unexpected item error for %s: %v", it.Name, it.Err)
		}

		if seen[it.Name] {
			t.Fatalf("duplicate item %s", it.Name)
		}

		seen[it.Name] = true

		data, ok := want[it.Name]
		if !ok {
			t.Fatalf("unexpected item %s", it.Name)
		}

		if string(it.Data) != string(data) {
			t.Fatalf("content mismatch for %s: got=%q want=%q", it.Name, it.Data, data)
		}
	}
}

func assertStringSlicesEqual(t *testing.T, got, want []string) {
	t.Helper()

	gotSorted := append([]string(nil), got...)
	wantSorted := append([]string(nil), want...)

	sort.Strings(gotSorted)
	sort.Strings(wantSorted)

	if len(gotSorted) != len(wantSorted) {
		t.Fatalf("slice length mismatch: got=%d want=%d (got=%v want=%v)", len(gotSorted), len(wantSorted), gotSorted, wantSorted)
	}

	for i := range gotSorted {
		if gotSorted[i] != wantSorted[i] {
			t.Fatalf("slice mismatch at %d: got=%v want=%v", i, gotSorted, wantSorted)
		}
	}
}

func assertIOError(t *testing.T, err error, wantPath, wantOp string) {
	t.Helper()

	var ioErr *fastread.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %T (%v)", err, err)
	}

	if ioErr.Path != wantPath {
		t.Fatalf("unexpected error path: %s", ioErr.Path)
	}

	if ioErr.Op != wantOp {
		t.Fatalf("unexpected error op: %s", ioErr.Op)
	}
}

func assertFileReadError(t *testing.T, err error, wantName, wantOp string) {
	t.Helper()

	var readErr *fastread.FileReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected FileReadError, got %T (%v)", err, err)
	}

	if readErr.Name != wantName {
		t.Fatalf("unexpected error name: %s", readErr.Name)
	}

	if readErr.Op != wantOp {
		t.Fatalf("unexpected error op: %s", readErr.Op)
	}
}

func newDebugLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
