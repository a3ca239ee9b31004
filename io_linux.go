//go:build linux && !android

package fastread

// io_linux.go implements the internal I/O backend contract (see io_contract.go)
// for Linux.
//
// Linux is the performance-critical backend:
//   - Directory enumeration uses getdents64 (via syscall.ReadDirent) and parses
//     raw dirent64 structures in-place (low allocation).
//   - File opens use openat(2) relative to the listed directory's fd, so the
//     kernel never re-resolves the directory path per file.

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linux_dirent64 offsets (from linux/dirent.h):
//
//	struct linux_dirent64 {
//	    ino64_t        d_ino;    // 8 bytes  (offset 0)
//	    off64_t        d_off;    // 8 bytes  (offset 8)
//	    unsigned short d_reclen; // 2 bytes  (offset 16)
//	    unsigned char  d_type;   // 1 byte   (offset 18)
//	    char           d_name[]; // variable (offset 19)
//	};
const (
	direntReclenOffset = 16
	direntTypeOffset   = 18
	direntNameOffset   = 19
	direntMinSize      = direntNameOffset

	// atFDCWD is AT_FDCWD (-100) as a uintptr for use with syscall.Syscall6.
	atFDCWD = ^uintptr(0) - 99

	dirOpenFlags  = unix.O_RDONLY | unix.O_DIRECTORY | unix.O_CLOEXEC | unix.O_LARGEFILE
	fileOpenFlags = unix.O_RDONLY | unix.O_CLOEXEC | unix.O_LARGEFILE | unix.O_NOFOLLOW | unix.O_NONBLOCK
)

var errInvalidDirent = errors.New("invalid dirent")

// openat opens name relative to dirfd using a raw syscall.
//
// name must include its trailing NUL terminator.
func openat(dirfd uintptr, name []byte, flags int) (int, error) {
	// Retry on EINTR without an upper bound, matching Go's standard library.
	for {
		fd, _, errno := syscall.Syscall6(
			syscall.SYS_OPENAT,
			dirfd,
			uintptr(unsafe.Pointer(&name[0])),
			uintptr(flags),
			0, 0, 0,
		)
		if errno == syscall.EINTR {
			continue
		}

		if errno != 0 {
			return -1, errno
		}

		return int(fd), nil
	}
}

// ============================================================================
// Directory handle
// ============================================================================

// dirHandle wraps a directory fd used both for getdents64 and as the openat
// base for file reads.
type dirHandle struct {
	fd int
}

// openDir opens a directory. path must include its trailing NUL terminator.
//
// The directory itself may be reached through a symlink; entries inside it
// are never followed.
func openDir(path nulTermPath) (dirHandle, error) {
	fd, err := openat(atFDCWD, path, dirOpenFlags)
	if err != nil {
		return dirHandle{fd: -1}, err
	}

	return dirHandle{fd: fd}, nil
}

func (d dirHandle) closeHandle() error {
	if d.fd < 0 {
		return nil
	}

	// We intentionally do not retry close(2) on EINTR.
	err := syscall.Close(d.fd)
	if err != nil {
		return fmt.Errorf("close dir: %w", err)
	}

	return nil
}

// readDirBatchImpl reads directory entries using getdents64 (syscall.ReadDirent)
// and appends regular-file names matching suffix to batch.
func readDirBatchImpl(dh dirHandle, buf []byte, suffix string, batch *nameBatch) error {
	var (
		read int
		err  error
	)
	for {
		read, err = syscall.ReadDirent(dh.fd, buf)
		if err == syscall.EINTR {
			continue
		}

		break
	}

	if err != nil {
		return fmt.Errorf("readdirent: %w", err)
	}

	if read <= 0 {
		return io.EOF
	}

	data := buf[:read]
	for len(data) > 0 {
		if len(data) < direntMinSize {
			return errInvalidDirent
		}

		reclen := int(binary.NativeEndian.Uint16(data[direntReclenOffset:]))
		if reclen < direntMinSize || reclen > len(data) {
			return errInvalidDirent
		}

		entry := data[:reclen]
		data = data[reclen:]

		// Extract filename (ends at first NUL byte).
		nameBytes := entry[direntNameOffset:reclen]
		for i, b := range nameBytes {
			if b == 0 {
				nameBytes = nameBytes[:i]

				break
			}
		}

		if len(nameBytes) == 0 || isDotEntry(nameBytes) {
			continue
		}

		switch entry[direntTypeOffset] {
		case syscall.DT_REG:
			if hasSuffix(nameBytes, suffix) {
				batch.appendBytes(nameBytes)
			}

		case syscall.DT_UNKNOWN:
			if !hasSuffix(nameBytes, suffix) {
				break
			}

			// Some filesystems (xfs without ftype, some FUSE mounts) do not
			// fill d_type.
			isReg, statErr := isRegularAt(dh.fd, nameBytes)
			if statErr != nil {
				// Can't classify (racy entry, permissions, etc.). Skip safely.
				break
			}

			if isReg {
				batch.appendBytes(nameBytes)
			}

		default:
			// Skip directories, symlinks and special file types.
		}
	}

	return nil
}

// isRegularAt reports whether the named entry is a regular file, using
// fstatat(AT_SYMLINK_NOFOLLOW). Only used when d_type == DT_UNKNOWN.
func isRegularAt(dirfd int, name []byte) (bool, error) {
	var st unix.Stat_t

	nameStr := string(name)

	for {
		err := unix.Fstatat(dirfd, nameStr, &st, unix.AT_SYMLINK_NOFOLLOW)
		if errors.Is(err, syscall.EINTR) {
			continue
		}

		if err != nil {
			return false, fmt.Errorf("fstatat: %w", err)
		}

		break
	}

	return st.Mode&unix.S_IFMT == unix.S_IFREG, nil
}

func (d dirHandle) openFile(name nulTermName) (fileHandle, error) {
	if len(name) <= 1 { // empty or just NUL
		return fileHandle{fd: -1}, syscall.ENOENT
	}

	fd, err := openat(uintptr(d.fd), name, fileOpenFlags)
	if err != nil {
		return fileHandle{fd: -1}, err
	}

	return fileHandle{fd: fd}, nil
}

// ============================================================================
// File handle
// ============================================================================

// fileHandle wraps an open file descriptor.
type fileHandle struct {
	fd int
}

func (f fileHandle) readInto(buf []byte) (int, bool, error) {
	var (
		bytesRead int
		err       error
	)
	for {
		bytesRead, err = syscall.Read(f.fd, buf)
		if err == syscall.EINTR {
			continue
		}

		break
	}

	if err == syscall.EISDIR {
		return 0, true, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("read: %w", err)
	}

	return bytesRead, false, nil
}

func (f fileHandle) closeHandle() error {
	if f.fd < 0 {
		return nil
	}

	err := syscall.Close(f.fd)
	if err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	return nil
}
