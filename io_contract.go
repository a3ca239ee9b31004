package fastread

// ============================================================================
// Internal I/O backend contract
// ============================================================================
//
// The lister and the read engine are written against a small set of
// unexported, platform-dependent functions and types. Those symbols form an
// internal *backend contract* that each supported OS group provides via
// build-tagged files:
//   - Linux fast path:                 io_linux.go
//   - Mainstream non-Linux Unix:       io_unix.go
//   - "Other" platforms (windows/etc): io_other.go
//
// This file contains no runtime dispatch. It uses compile-time assignments to
// document the required surface area and to ensure each build provides it.
//
// Semantics expected by the lister and engine:
//
//   - Paths passed to openDir are NUL-terminated (nulTermPath), as produced
//     by newNulTermPath().
//
//   - readDirBatchImpl appends the names of regular files matching suffix to
//     the batch, each with its trailing NUL. It returns io.EOF once the
//     directory is exhausted. Directories, symlinks and special files are
//     skipped.
//
//   - dirHandle.openFile never follows symlinks. A name that turned into a
//     symlink after listing fails with ELOOP; the engine reports it as a
//     per-file error.
//
//   - fileHandle.readInto reports directories via (isDir=true, err=nil) so
//     the engine can turn a type race into a FileReadError with EISDIR
//     instead of a backend-specific errno.
//
//   - A dirHandle is safe for concurrent openFile calls from many workers.

// Function signatures required by the lister and engine.
var (
	_ func(nulTermPath) (dirHandle, error)                     = openDir
	_ func(dirHandle, []byte, string, *nameBatch) error        = readDirBatchImpl
	_ func(dirHandle, []byte, string, *nameBatch) error        = readDirBatch
	_ func(dirHandle, nulTermName) (fileHandle, error)         = dirHandle.openFile
	_ func(fileHandle, []byte) (n int, isDir bool, err error)  = fileHandle.readInto
)

// Method sets required by the lister and engine.
// These interfaces are only used for compile-time checking.
type (
	ioDirHandle interface {
		closeHandle() error
		openFile(name nulTermName) (fileHandle, error)
	}

	ioFileHandle interface {
		closeHandle() error
		readInto(buf []byte) (n int, isDir bool, err error)
	}
)

var (
	_ ioDirHandle  = dirHandle{}
	_ ioFileHandle = fileHandle{}
)
