package fastread

import (
	"fmt"
	"log/slog"
	"runtime"
)

// Option configures [NewFilesBatchIterator], [NewFlattenFilesIterator] and
// [ReadDir]. Options are applied in order.
type Option func(*options)

// Order selects how results are released to the consumer.
type Order uint8

const (
	// OrderCompletion releases results as soon as a worker finishes them.
	OrderCompletion Order = iota
	// OrderStrict releases results in directory listing order. A fast
	// worker's result is held until every earlier file has been released.
	OrderStrict
)

func (o Order) String() string {
	switch o {
	case OrderCompletion:
		return "completion"
	case OrderStrict:
		return "strict"
	default:
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
}

// WithWorkers sets the number of read workers.
//
// Each worker holds at most one open file at a time, so this also bounds the
// number of file descriptors the iterator keeps open (plus one for the
// directory itself).
//
// # Default
//
// (GOMAXPROCS × 2) / 3, minimum 4 (e.g., 16 on 24-core). See [DefaultWorkers].
//
// # Tuning guidance
//
// Reading is dominated by open/read/close syscalls, so kernel throughput is
// the bottleneck, not CPU. 8–16 workers are typically optimal; more workers
// add VFS lock contention on the shared directory.
//
// 0 uses the default, values above 256 are clamped, negative values are
// rejected with [ErrInvalidConfiguration].
func WithWorkers(n int) Option {
	return func(o *options) {
		o.Workers = n
	}
}

// WithBufferSize sets the result buffer capacity: the number of results that
// may be read but not yet handed to the caller. Workers stall when it is
// full.
//
// Default: min(workers × 4, 256). 0 uses the default, negative values are
// rejected with [ErrInvalidConfiguration].
func WithBufferSize(n int) Option {
	return func(o *options) {
		o.BufferSize = n
	}
}

// WithOrder sets the result release policy. Default: [OrderCompletion].
func WithOrder(order Order) Option {
	return func(o *options) {
		o.Order = order
	}
}

// WithSorted sorts the directory listing by name before reading.
//
// Combined with [OrderStrict] this makes iteration fully deterministic. It
// costs one extra pass over the names.
func WithSorted() Option {
	return func(o *options) {
		o.Sorted = true
	}
}

// WithSuffix only lists files whose name ends with suffix (e.g. ".dat").
// Empty suffix matches all files.
func WithSuffix(suffix string) Option {
	return func(o *options) {
		o.Suffix = suffix
	}
}

// WithChunkSize sets how many items [FlattenFilesIterator] drains from the
// result buffer per internal batch. Callers never observe the boundaries.
//
// Default: 128. 0 uses the default, negative values are rejected.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.ChunkSize = n
	}
}

// WithSizeHint provides an expected file size to pre-size each worker's read
// buffer. Files larger than the hint are still read completely.
func WithSizeHint(size int) Option {
	return func(o *options) {
		o.SizeHint = size
	}
}

// WithMaxFileSize sets an upper bound on bytes read per file. Files larger
// than the limit produce an [Item] whose Err wraps [ErrFileTooLarge].
//
// Default: 2 GiB. 0 uses the default, negative values are rejected.
func WithMaxFileSize(n int) Option {
	return func(o *options) {
		o.MaxFileSize = n
	}
}

// WithLogger receives debug records about iterator lifecycle (listing done,
// engine drained, early close). Nothing is logged per file.
//
// If nil, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.Logger = logger
	}
}

type options struct {
	// Workers is the read worker count.
	Workers int
	// BufferSize is the result buffer capacity.
	BufferSize int
	// Order is the release policy.
	Order Order
	// Sorted sorts the listing by name.
	Sorted bool
	// Suffix filters files by name suffix.
	Suffix string
	// ChunkSize is the flatten iterator's internal batch size.
	ChunkSize int
	// SizeHint pre-sizes read buffers.
	SizeHint int
	// MaxFileSize caps bytes read per file.
	MaxFileSize int
	// Logger receives lifecycle debug records.
	Logger *slog.Logger
}

// applyOptions merges option values, validates them and applies defaults.
func applyOptions(opts []Option) (options, error) {
	cfg := options{}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.Workers < 0 {
		return cfg, fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfiguration, cfg.Workers)
	}

	if cfg.BufferSize < 0 {
		return cfg, fmt.Errorf("%w: buffer size must be >= 0, got %d", ErrInvalidConfiguration, cfg.BufferSize)
	}

	if cfg.ChunkSize < 0 {
		return cfg, fmt.Errorf("%w: chunk size must be >= 0, got %d", ErrInvalidConfiguration, cfg.ChunkSize)
	}

	if cfg.MaxFileSize < 0 {
		return cfg, fmt.Errorf("%w: max file size must be >= 0, got %d", ErrInvalidConfiguration, cfg.MaxFileSize)
	}

	if cfg.Order != OrderCompletion && cfg.Order != OrderStrict {
		return cfg, fmt.Errorf("%w: unknown order %s", ErrInvalidConfiguration, cfg.Order)
	}

	for i := range len(cfg.Suffix) {
		if cfg.Suffix[i] == 0 {
			return cfg, fmt.Errorf("%w: suffix %w", ErrInvalidConfiguration, errContainsNUL)
		}
	}

	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers()
	}

	if cfg.Workers > maxWorkers {
		cfg.Workers = maxWorkers
	}

	if cfg.BufferSize == 0 {
		cfg.BufferSize = min(cfg.Workers*4, maxPipelineQueue)
	}

	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultChunkSize
	}

	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}

	if cfg.SizeHint < 0 {
		cfg.SizeHint = 0
	}

	return cfg, nil
}

// DefaultWorkers returns the worker count used when [WithWorkers] is not set:
// (GOMAXPROCS × 2) / 3, minimum 4.
func DefaultWorkers() int {
	return max((runtime.GOMAXPROCS(0)*2)/3, 4)
}
