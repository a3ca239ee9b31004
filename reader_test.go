package fastread

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func Test_NextReadBufferLen_Grows_Geometrically_When_Below_Limit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		current, minLen, maxBytes int
		want                      int
	}{
		{current: 16, minLen: 17, maxBytes: 1 << 20, want: 16 + 4096},
		{current: 4096, minLen: 4097, maxBytes: 1 << 20, want: 8192},
		{current: 8192, minLen: 8193, maxBytes: 10000, want: 10000},
		{current: 4096, minLen: 100000, maxBytes: 1 << 20, want: 100000},
	}

	for _, tc := range cases {
		got, err := nextReadBufferLen(tc.current, tc.minLen, tc.maxBytes)
		if err != nil {
			t.Fatalf("%+v: unexpected error: %v", tc, err)
		}

		if got != tc.want {
			t.Fatalf("%+v: got %d", tc, got)
		}
	}
}

func Test_NextReadBufferLen_Returns_ErrFileTooLarge_When_Limit_Is_Reached(t *testing.T) {
	t.Parallel()

	_, err := nextReadBufferLen(150, 151, 150)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func Test_InitialReadLen_Respects_Hint_And_Limit_When_Computing_Window(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hint, maxBytes, want int
	}{
		{hint: 0, maxBytes: defaultMaxFileSize, want: defaultReadBufSize},
		{hint: 10000, maxBytes: defaultMaxFileSize, want: 10001},
		{hint: 100, maxBytes: defaultMaxFileSize, want: defaultReadBufSize},
		{hint: 0, maxBytes: 10, want: 10},
		{hint: 100, maxBytes: 10, want: 10},
		{hint: 0, maxBytes: 1, want: 1},
	}

	for _, tc := range cases {
		if got := initialReadLen(tc.hint, tc.maxBytes); got != tc.want {
			t.Fatalf("initialReadLen(%d, %d): got %d, want %d", tc.hint, tc.maxBytes, got, tc.want)
		}
	}
}

func Test_ReadAllInto_Returns_Whole_Content_When_Size_Straddles_Buffer(t *testing.T) {
	t.Parallel()

	const window = 16

	root := t.TempDir()
	sizes := []int{0, 1, window - 1, window, window + 1, 3*window + 5, 5000}

	for _, size := range sizes {
		writeTestFile(t, root, fmt.Sprintf("s-%d", size), bytes.Repeat([]byte{'z'}, size))
	}

	dh, err := openDir(newNulTermPath(root))
	if err != nil {
		t.Fatalf("open dir: %v", err)
	}

	t.Cleanup(func() { _ = dh.closeHandle() })

	for _, size := range sizes {
		fh, err := dh.openFile(nameOf(fmt.Sprintf("s-%d", size)))
		if err != nil {
			t.Fatalf("open %d: %v", size, err)
		}

		n, buf, err := readAllInto(fh, make([]byte, window), defaultMaxFileSize)
		_ = fh.closeHandle()

		if err != nil {
			t.Fatalf("size %d: read: %v", size, err)
		}

		if n != size {
			t.Fatalf("size %d: got %d bytes", size, n)
		}

		if !bytes.Equal(buf[:n], bytes.Repeat([]byte{'z'}, size)) {
			t.Fatalf("size %d: content mismatch", size)
		}
	}
}

func Test_ReadAllInto_Returns_ErrFileTooLarge_When_Content_Exceeds_Max(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, root, "big", bytes.Repeat([]byte{'b'}, 33))

	dh, err := openDir(newNulTermPath(root))
	if err != nil {
		t.Fatalf("open dir: %v", err)
	}

	t.Cleanup(func() { _ = dh.closeHandle() })

	fh, err := dh.openFile(nameOf("big"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	defer func() { _ = fh.closeHandle() }()

	_, _, err = readAllInto(fh, make([]byte, 8), 32)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}
