package fastread

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"syscall"
	"time"
)

// listing is an immutable snapshot of a directory's regular files.
//
// names[i] is FileTask i. The directory handle stays open so workers can
// openat relative to it; the engine closes it once drained.
type listing struct {
	dir   string
	dh    dirHandle
	names []nulTermName
}

// listDir enumerates dir once.
//
// Directory-level failures are fatal: the handle is closed and no partial
// listing is returned.
func listDir(ctx context.Context, dir string, cfg options) (*listing, error) {
	start := time.Now()

	dh, err := openDir(newNulTermPath(dir))
	if err != nil {
		return nil, dirError(dir, "open", err)
	}

	dirBuf := make([]byte, dirReadBufSize)
	arena := &nameBatch{}
	arena.reset(len(dirBuf) * 2)

	for {
		if ctx.Err() != nil {
			_ = dh.closeHandle()

			return nil, context.Cause(ctx)
		}

		readErr := readDirBatch(dh, dirBuf, cfg.Suffix, arena)
		if readErr == nil {
			continue
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		_ = dh.closeHandle()

		return nil, dirError(dir, "readdir", readErr)
	}

	if cfg.Sorted {
		arena.sortNames()
	}

	if cfg.Logger != nil {
		cfg.Logger.Debug("listed directory",
			"dir", dir,
			"files", len(arena.names),
			"duration", time.Since(start),
		)
	}

	return &listing{dir: dir, dh: dh, names: arena.names}, nil
}

// close releases the directory handle.
func (l *listing) close() error {
	err := l.dh.closeHandle()
	if err != nil {
		return &IOError{Path: l.dir, Op: "close", Err: err}
	}

	return nil
}

// dirError wraps a directory-level failure in an [IOError] and tags it with
// the matching sentinel.
func dirError(dir, op string, err error) error {
	ioErr := &IOError{Path: dir, Op: op, Err: err}

	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%w: %w", ErrDirectoryNotFound, ioErr)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, ioErr)
	default:
		return ioErr
	}
}
