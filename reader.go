package fastread

import (
	"fmt"
	"syscall"
)

// readAllInto reads the whole file behind fh into buf, growing it as needed,
// and returns the number of bytes read plus the (possibly grown) buffer.
//
// buf is worker-owned scratch; its length is the initial read window and
// must be in (0, maxBytes]. The caller copies the content out before reusing
// buf for the next file.
//
// A listed name that turned into a directory reports syscall.EISDIR.
func readAllInto(fh fileHandle, buf []byte, maxBytes int) (int, []byte, error) {
	// Fast path: one read handles empty/small files without entering the grow
	// loop. A short read on a regular file means EOF.
	n, isDir, err := fh.readInto(buf)
	if isDir {
		return 0, buf, syscall.EISDIR
	}

	if err != nil {
		return 0, buf, err
	}

	if n < len(buf) {
		return n, buf, nil
	}

	writeCursor := n

	for {
		if writeCursor == len(buf) {
			// Probe for one more byte to distinguish exact-fit EOF from
			// "more data available" before growing.
			var probe [1]byte

			probeRead, isDir, err := fh.readInto(probe[:])
			if isDir {
				return writeCursor, buf, syscall.EISDIR
			}

			if err != nil {
				return writeCursor, buf, err
			}

			if probeRead == 0 {
				return writeCursor, buf, nil
			}

			nextLen, growErr := nextReadBufferLen(len(buf), writeCursor+1, maxBytes)
			if growErr != nil {
				return writeCursor, buf, growErr
			}

			buf = append(buf, make([]byte, nextLen-len(buf))...)
			buf[writeCursor] = probe[0]
			writeCursor++

			continue
		}

		chunkRead, isDir, err := fh.readInto(buf[writeCursor:])
		if isDir {
			return writeCursor, buf, syscall.EISDIR
		}

		// Advance by actual bytes read, even on short reads.
		writeCursor += chunkRead

		if err != nil {
			return writeCursor, buf, err
		}

		if chunkRead == 0 {
			return writeCursor, buf, nil
		}
	}
}

// initialReadLen returns the first read window for a file: the size hint plus
// one byte of EOF headroom, at least defaultReadBufSize, at most maxBytes.
func initialReadLen(sizeHint, maxBytes int) int {
	size := 0
	if sizeHint > 0 {
		// sizeHint is advisory for pre-allocation only; never fail early on it.
		size = min(sizeHint, maxBytes-1)
	}

	return max(min(max(size+1, defaultReadBufSize), maxBytes), 1)
}

// nextReadBufferLen returns the next scratch length when a read needs at
// least minLen bytes.
func nextReadBufferLen(currentLen, minLen, maxBytes int) (int, error) {
	if minLen > maxBytes {
		return 0, fmt.Errorf("%w (max bytes: %d)", ErrFileTooLarge, maxBytes)
	}

	// Geometric growth: double once buffers are large; use 4KiB minimum for
	// small buffers. If the immediate demand is larger, grow exactly to need.
	growBy := max(currentLen, 4096)

	need := minLen - currentLen
	if growBy < need {
		growBy = need
	}

	nextLen := currentLen + growBy
	if nextLen < currentLen {
		return 0, fmt.Errorf("%w (max bytes: %d)", ErrFileTooLarge, maxBytes)
	}

	if nextLen > maxBytes {
		nextLen = maxBytes
	}

	if nextLen < minLen {
		return 0, fmt.Errorf("%w (max bytes: %d)", ErrFileTooLarge, maxBytes)
	}

	return nextLen, nil
}
