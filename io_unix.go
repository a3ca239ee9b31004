//go:build (darwin && !ios) || freebsd || openbsd || netbsd || dragonfly

// io_unix.go implements the internal I/O backend contract (see io_contract.go)
// for "mainstream" non-Linux Unix platforms:
//   - macOS (darwin, excluding iOS)
//   - the BSD family (FreeBSD/OpenBSD/NetBSD/DragonFly)
//
// Enumeration goes through (*os.File).ReadDir, but file opens stay
// openat-relative to the directory fd, which is where most of the per-file
// cost is.
package fastread

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

const readDirBatchSize = 4096

// dirHandle wraps a directory for enumeration and openat-based file opens.
//
// We store both:
//   - fd: used for openat/fstatat
//   - f:  *os.File wrapper used for (*os.File).ReadDir; owns fd
type dirHandle struct {
	fd int
	f  *os.File
}

// openDir opens a directory. path must include its trailing NUL terminator.
func openDir(path nulTermPath) (dirHandle, error) {
	p := path.String()

	for {
		fd, err := unix.Open(p, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if errors.Is(err, syscall.EINTR) {
			continue
		}

		if err != nil {
			return dirHandle{fd: -1}, err
		}

		return dirHandle{fd: fd, f: os.NewFile(uintptr(fd), p)}, nil
	}
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

		// Use Type() instead of IsDir() to avoid following symlinks.
		typ := e.Type()

		// os.File.ReadDir already lstats entries whose d_type is unknown,
		// so Type() is reliable here.
		if typ.IsRegular() {
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
		return fileHandle{fd: -1}, syscall.ENOENT
	}

	for {
		fd, err := unix.Openat(d.fd, name.String(), unix.O_RDONLY|unix.O_CLOEXEC|unix.O_NOFOLLOW|unix.O_NONBLOCK, 0)
		if errors.Is(err, syscall.EINTR) {
			continue
		}

		if err != nil {
			return fileHandle{fd: -1}, err
		}

		return fileHandle{fd: fd}, nil
	}
}

// fileHandle wraps an open file descriptor.
type fileHandle struct {
	fd int
}

func (f fileHandle) readInto(buf []byte) (int, bool, error) {
	for {
		n, err := unix.Read(f.fd, buf)
		if errors.Is(err, syscall.EINTR) {
			continue
		}

		if errors.Is(err, syscall.EISDIR) {
			return 0, true, nil
		}

		if err != nil {
			return 0, false, fmt.Errorf("read: %w", err)
		}

		return n, false, nil
	}
}

func (f fileHandle) closeHandle() error {
	if f.fd < 0 {
		return nil
	}

	err := unix.Close(f.fd)
	if err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	return nil
}
