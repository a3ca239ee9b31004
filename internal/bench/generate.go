// Package bench generates flat datasets and times the ways of reading them:
// a naive sequential read and both fastread iterators.
package bench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// GenerateConfig describes a flat dataset.
type GenerateConfig struct {
	// Files is the number of files to write.
	Files int
	// Size is the byte size of each file.
	Size int
	// Writers is the number of concurrent writers (<= 0 means 1).
	Writers int
	// Ext is appended to every file name.
	Ext string
}

// Dataset is what Generate wrote.
type Dataset struct {
	Dir        string `json:"dir"`
	Files      int    `json:"files"`
	TotalBytes int64  `json:"total_bytes"`
}

// Generate writes cfg.Files pseudo-random files into dir, creating it if
// needed. Content is deterministic per file index.
func Generate(ctx context.Context, dir string, cfg GenerateConfig) (Dataset, error) {
	if cfg.Files <= 0 {
		return Dataset{}, errors.New("files must be > 0")
	}

	if cfg.Size < 0 {
		return Dataset{}, errors.New("size must be >= 0")
	}

	writers := max(cfg.Writers, 1)

	mkdirErr := os.MkdirAll(dir, 0o750)
	if mkdirErr != nil {
		return Dataset{}, fmt.Errorf("mkdir %s: %w", dir, mkdirErr)
	}

	var written atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(writers)

	for w := range writers {
		start, end := splitRange(cfg.Files, writers, w)

		g.Go(func() error {
			return writeRange(gctx, dir, cfg, start, end, &written)
		})
	}

	err := g.Wait()
	if err != nil {
		return Dataset{}, err
	}

	return Dataset{Dir: dir, Files: cfg.Files, TotalBytes: written.Load()}, nil
}

func writeRange(ctx context.Context, dir string, cfg GenerateConfig, start, end int, written *atomic.Int64) error {
	rng := newXorShift64(seedForIndex(uint64(start)))
	buf := bytes.NewBuffer(make([]byte, 0, cfg.Size))

	for i := start; i < end; i++ {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		buf.Reset()
		fillRandom(buf, rng, cfg.Size)

		path := filepath.Join(dir, FileName(i, cfg.Ext))

		writeErr := os.WriteFile(path, buf.Bytes(), 0o600)
		if writeErr != nil {
			return fmt.Errorf("write %s: %w", path, writeErr)
		}

		written.Add(int64(buf.Len()))
	}

	return nil
}

// FileName is the name of dataset file i.
func FileName(i int, ext string) string {
	return fmt.Sprintf("file-%09d%s", i, ext)
}

// splitRange returns writer w's half-open share of [0, total).
func splitRange(total, writers, w int) (int, int) {
	return (total * w) / writers, (total * (w + 1)) / writers
}

func seedForIndex(startIdx uint64) uint64 {
	// Deterministic seed derived from the start index.
	seed := startIdx ^ (startIdx * 0x9E3779B97F4A7C15) ^ 0xD1B54A32D192ED03
	if seed == 0 {
		seed = 0x123456789abcdef0
	}

	return seed
}

const tokenAlphabet32 = "abcdefghijklmnopqrstuvwxyz234567" // 32 chars

// fillRandom appends size printable bytes, with a newline every 64 bytes.
func fillRandom(buf *bytes.Buffer, rng *xorShift64, size int) {
	bitsLeft := 0
	bits := uint64(0)

	for i := range size {
		if i%64 == 63 {
			buf.WriteByte('\n')

			continue
		}

		if bitsLeft < 5 {
			bits = rng.next()
			bitsLeft = 64
		}

		buf.WriteByte(tokenAlphabet32[bits&31])
		bits >>= 5
		bitsLeft -= 5
	}
}

// xorShift64 is a fast PRNG.
type xorShift64 struct {
	state uint64
}

func newXorShift64(seed uint64) *xorShift64 {
	state := seed
	if state == 0 {
		state = 0x123456789abcdef0
	}

	return &xorShift64{state: state}
}

func (rng *xorShift64) next() uint64 {
	state := rng.state
	state ^= state >> 12
	state ^= state << 25
	state ^= state >> 27
	rng.state = state

	return state * 0x2545F4914F6CDD1D
}
