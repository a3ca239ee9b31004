// Package fastread reads the contents of every file in a large flat directory
// with a pool of parallel workers.
//
// It uses platform-specific fast paths where available (Linux getdents64 and
// openat relative to one directory fd) and falls back to portable APIs on
// other platforms.
//
// # Usage
//
// [NewFilesBatchIterator] yields the directory's files in fixed-size batches.
// [NewFlattenFilesIterator] yields them one at a time:
//
//	it, err := fastread.NewFlattenFilesIterator(ctx, dir)
//	if err != nil {
//	        return err
//	}
//	defer it.Close()
//
//	for it.Next() {
//	        item := it.Item()
//	        if item.Err != nil {
//	                log.Printf("skip %s: %v", item.Name, item.Err)
//	                continue
//	        }
//	        consume(item.Data)
//	}
//
//	return it.Err()
//
// Construction only validates arguments. The directory is listed and the
// workers are started on the first call to Next.
//
// # File types
//
// Only regular files are read. Directories, symlinks (to anything), and other
// non-regular file types (FIFOs, sockets, devices, etc.) are skipped while
// listing and never produce an [Item].
//
// # Errors
//
// Directory-level failures ([ErrDirectoryNotFound], [ErrPermissionDenied])
// stop the iteration before any item is produced and are reported by Err.
// Per-file failures are carried inline as [Item.Err] (a [*FileReadError]);
// one unreadable file never stops the others. Every listed file produces
// exactly one Item.
//
// # Ordering
//
// Items are delivered in completion order by default. [WithOrder] with
// [OrderStrict] delivers them in listing order instead. Listing order is the
// raw directory enumeration order unless [WithSorted] is set.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│ ITERATOR LIFETIME                                                       │
//	├─────────────────────────────────────────────────────────────────────────┤
//	│                                                                         │
//	│  New*Iterator()             ← validates options, no I/O                 │
//	│    │                                                                    │
//	│    └─► first Next()                                                     │
//	│          │                                                              │
//	│          ├─► listDir()       ← one dir fd, 32KB dirent buffer, one      │
//	│          │                     name arena for the whole snapshot        │
//	│          │                                                              │
//	│          └─► engine.start()  ← N workers, each owns one scratch buffer  │
//	│                │                                                        │
//	│                │  token ─► claim seq ─► openat ─► read ─► close         │
//	│                │                                                        │
//	│                └─► results (bounded by capacity tokens)                 │
//	│                      └─► orderedBuffer ─► Batch / Item                  │
//	│                                                                         │
//	└─────────────────────────────────────────────────────────────────────────┘
//
// # Memory
//
// Each file is read fully into memory as one unit; contents are not streamed.
// Outstanding results are bounded by the buffer capacity ([WithBufferSize]),
// so memory is roughly capacity × largest file, plus one scratch buffer per
// worker.
package fastread

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrDirectoryNotFound indicates the directory does not exist or is not a
	// directory.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrPermissionDenied indicates the directory could not be opened or
	// enumerated due to permissions.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidConfiguration indicates a bad batch size, worker count or other
	// option value.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrFileTooLarge indicates file content exceeded the [WithMaxFileSize] limit.
	ErrFileTooLarge = errors.New("file too large")

	errContainsNUL = errors.New("contains NUL byte")
)

// IOError is returned when a directory-level file system operation fails.
//
// It is always joined with [ErrDirectoryNotFound], [ErrPermissionDenied] or
// returned alone for other failures, so both errors.Is and errors.As work.
type IOError struct {
	// Path is the directory passed to the iterator constructor.
	Path string
	// Op is the operation that failed: "open", "readdir" or "close".
	Op string
	// Err is the underlying error.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FileReadError is attached to an [Item] whose file could not be read.
type FileReadError struct {
	// Name is the file's basename within the directory.
	Name string
	// Op is the operation that failed: "open", "read", or "close".
	Op string
	// Err is the underlying error.
	Err error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// Item is the outcome of reading one listed file.
type Item struct {
	// Seq is the file's position in the directory listing (0-based).
	Seq int
	// Name is the file's basename.
	Name string
	// Data is the file content, owned by the caller. Empty files have a
	// non-nil, zero-length Data. Nil when Err is set.
	Data []byte
	// Err is a [*FileReadError] when the file could not be read.
	Err error
}

// Path joins dir and the item's name.
func (it Item) Path(dir string) string {
	return filepath.Join(dir, it.Name)
}

// Batch is a group of up to batch-size items. Only the final batch of a
// directory may be shorter.
type Batch []Item

// Payloads returns the Data of every item in b, including nil entries for
// failed items so indices line up with b.
func (b Batch) Payloads() [][]byte {
	out := make([][]byte, len(b))
	for i := range b {
		out[i] = b[i].Data
	}

	return out
}

// Internal constants for buffer sizes and limits.
const (
	// dirReadBufSize is the size of the directory-entry read buffer.
	// On Linux it backs getdents64/ReadDirent parsing. On other platforms the
	// code uses os.File.ReadDir and this size only sizes the name arena.
	dirReadBufSize = 32 * 1024

	// maxWorkers caps worker counts to avoid excessive goroutine/memory
	// overhead.
	maxWorkers = 256

	// maxPipelineQueue caps the default result buffer capacity.
	maxPipelineQueue = maxWorkers

	// defaultReadBufSize is the initial scratch size for file reads when no
	// size hint is given.
	defaultReadBufSize = 4096

	// defaultChunkSize is the number of items the flatten iterator drains per
	// internal batch.
	defaultChunkSize = 128

	// defaultMaxFileSize is the default per-file limit before
	// [ErrFileTooLarge]. 32-bit builds are not supported.
	defaultMaxFileSize = 2 << 30 // 2GiB
)
