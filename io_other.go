//go:build (android || !linux) && !((darwin && !ios) || freebsd || openbsd || netbsd || dragonfly)

// io_other.go implements the internal I/O backend contract (see io_contract.go)
// for platforms where we don't maintain a syscall-level fast path (windows,
// android, ios, solaris/illumos, aix, plan9, wasip1, ...).
//
// This backend uses only portable stdlib APIs (os.Open, (*os.File).ReadDir,
// filepath.Join). The lister and engine stay the same across all platforms;
// only these primitives differ.
package fastread

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

const readDirBatchSize = 4096

// dirHandle wraps a directory for enumeration. Files are opened by joining
// path and name, since there is no portable openat.
type dirHandle struct {
	f    *os.File
	path string
}

// openDir opens a directory. path must include its trailing NUL terminator.
func openDir(path nulTermPath) (dirHandle, error) {
	p := path.String()

	info, err := os.Stat(p)
	if err != nil {
		return dirHandle{}, err
	}

	if !info.IsDir() {
		return dirHandle{}, syscall.ENOTDIR
	}

	f, err := os.Open(p)
	if err != nil {
		return dirHandle{}, err
	}

	return dirHandle{f: f, path: p}, nil
}

func (d dirHandle) closeHandle() error {
	if d.f == nil {
		return nil
	}

	err := d.f.Close()
	if err != nil {
		return fmt.Errorf("close dir: %w", err)
	}

	return nil
}

// readDirBatchImpl enumerates directory entries using (*os.File).ReadDir and
// appends regular-file names matching suffix to batch.
func readDirBatchImpl(dh dirHandle, _ []byte, suffix string, batch *nameBatch) error {
	entries, err := dh.f.ReadDir(readDirBatchSize)
	for _, e := range entries {
		name := e.Name()
		if isDotEntry(name) || !hasSuffix(name, suffix) {
			continue
		}

		// Type() does not follow symlinks; symlinks and special files are
		// skipped.
		if e.Type().IsRegular() {
			batch.appendString(name)
		}
	}

	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return io.EOF
	}

	return fmt.Errorf("readdir: %w", err)
}

func (d dirHandle) openFile(name nulTermName) (fileHandle, error) {
	if len(name) <= 1 {
		return fileHandle{}, syscall.ENOENT
	}

	p := filepath.Join(d.path, name.String())

	// Best effort no-follow: there is a window between Lstat and Open.
	info, err := os.Lstat(p)
	if err != nil {
		return fileHandle{}, err
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		return fileHandle{}, syscall.ELOOP
	}

	if info.IsDir() {
		return fileHandle{isDir: true}, nil
	}

	f, err := os.Open(p)
	if err != nil {
		return fileHandle{}, err
	}

	return fileHandle{f: f}, nil
}

// fileHandle wraps an open file. isDir marks a listed name that has become a
// directory since listing.
type fileHandle struct {
	f     *os.File
	isDir bool
}

func (f fileHandle) readInto(buf []byte) (int, bool, error) {
	if f.isDir {
		return 0, true, nil
	}

	n, err := f.f.Read(buf)
	if errors.Is(err, io.EOF) {
		return n, false, nil
	}

	if err != nil {
		return n, false, fmt.Errorf("read: %w", err)
	}

	return n, false, nil
}

func (f fileHandle) closeHandle() error {
	if f.f == nil {
		return nil
	}

	err := f.f.Close()
	if err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	return nil
}
