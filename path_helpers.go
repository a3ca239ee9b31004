package fastread

// ============================================================================
// Path helpers
// ============================================================================

// nulTermPath is a directory path with a trailing NUL terminator, ready to be
// passed to openat(2).
type nulTermPath []byte

// nulTermName is a basename with a trailing NUL terminator. Names stored in a
// nameBatch always carry their terminator.
type nulTermName []byte

// newNulTermPath converts a string path to a NUL-terminated path.
func newNulTermPath(s string) nulTermPath {
	b := make([]byte, 0, len(s)+1)
	b = append(b, s...)
	b = append(b, 0)

	return b
}

// String returns the path without its NUL terminator. Used for error
// messages and non-syscall backends.
func (p nulTermPath) String() string {
	return string(p[:nulTrimmedLen(p)])
}

// String returns the name without its NUL terminator.
func (n nulTermName) String() string {
	return string(n[:nulTrimmedLen(n)])
}

// nulTrimmedLen returns len(b) minus a trailing NUL, if present.
func nulTrimmedLen(b []byte) int {
	if len(b) == 0 {
		return 0
	}

	if b[len(b)-1] == 0 {
		return len(b) - 1
	}

	return len(b)
}

// hasSuffix reports whether name (without its NUL) ends with suffix. Empty
// suffix matches all.
func hasSuffix[S ~string | ~[]byte](name S, suffix string) bool {
	if suffix == "" {
		return true
	}

	if len(name) < len(suffix) {
		return false
	}

	start := len(name) - len(suffix)
	for i := range len(suffix) {
		if name[start+i] != suffix[i] {
			return false
		}
	}

	return true
}

func isDotEntry[S ~string | ~[]byte](name S) bool {
	if len(name) == 1 && name[0] == '.' {
		return true
	}

	return len(name) == 2 && name[0] == '.' && name[1] == '.'
}
