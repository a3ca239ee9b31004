package fastread

import (
	"bytes"
	"slices"
)

// ============================================================================
// nameBatch: Arena-Style Storage for the Directory Snapshot
// ============================================================================
//
// The lister packs every filename of the directory into one contiguous byte
// buffer ("storage") and keeps slice headers into it ("names"). A directory
// with a million files costs a handful of allocations instead of a million.
//
// After appending "file_0.dat" and "file_1.dat":
//
//	storage:
//	┌───┬───┬───┬───┬───┬───┬───┬───┬───┬───┬───┬───┬───┬───┬─── ─ ─ ───┬───┐
//	│ f │ i │ l │ e │ _ │ 0 │ . │ d │ a │ t │\0 │ f │ i │ l │    ...    │\0 │
//	└───┴───┴───┴───┴───┴───┴───┴───┴───┴───┴───┴───┴───┴───┴─── ─ ─ ───┴───┘
//	  └────────────── names[0] ─────────────┘   └───── names[1] ──────────┘
//
// The NUL after each name lets workers pass names straight to openat(2).
//
// Unlike a per-directory scratch batch, the snapshot arena is never reset
// while the engine runs: worker tasks point into it. When storage has to
// grow, earlier names keep pointing at the old backing array, which stays
// alive through those slice headers.
//
// INVARIANT: name[len(name)-1] == 0 for every entry in names.
type nameBatch struct {
	// storage is the arena holding all names with NUL terminators.
	storage []byte

	// names contains slice headers pointing into storage, each including
	// its NUL terminator.
	names []nulTermName
}

// reset prepares the batch for (re)use, preserving allocated capacity.
//
// storageCap hints at expected total bytes for all filenames. Typically
// len(dirBuf) * 2.
func (b *nameBatch) reset(storageCap int) {
	if storageCap > 0 && cap(b.storage) < storageCap {
		b.storage = make([]byte, 0, storageCap)
	} else {
		b.storage = b.storage[:0]
	}

	// Heuristic: average filename ~20 bytes including NUL.
	namesCap := storageCap / 20
	if namesCap > 0 && cap(b.names) < namesCap {
		b.names = make([]nulTermName, 0, namesCap)
	} else {
		b.names = b.names[:0]
	}
}

// appendBytes adds a filename to the batch, appending a NUL terminator.
//
// name must NOT include a NUL terminator (it is added here).
func (b *nameBatch) appendBytes(name []byte) {
	start := len(b.storage)
	b.storage = append(b.storage, name...) // copy filename bytes into arena
	b.storage = append(b.storage, 0)       // append NUL terminator for syscalls
	b.names = append(b.names, nulTermName(b.storage[start:len(b.storage):len(b.storage)]))
}

// appendString copies a filename into the batch, appending a NUL terminator.
// Non-Linux backends get string names from os.File.ReadDir.
func (b *nameBatch) appendString(name string) {
	start := len(b.storage)
	b.storage = append(b.storage, name...)
	b.storage = append(b.storage, 0)
	b.names = append(b.names, nulTermName(b.storage[start:len(b.storage):len(b.storage)]))
}

// sortNames orders names bytewise. Storage is not moved; only the headers.
func (b *nameBatch) sortNames() {
	slices.SortFunc(b.names, func(x, y nulTermName) int {
		return bytes.Compare(x, y)
	})
}
