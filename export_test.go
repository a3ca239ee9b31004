package fastread

// Export internal symbols for black-box tests in fastread_test.
const (
	MaxWorkers         = maxWorkers
	DefaultChunkSize   = defaultChunkSize
	DefaultMaxFileSize = defaultMaxFileSize
)

// ResolvedOptions is what the iterators run with after defaults and clamps.
type ResolvedOptions struct {
	Workers     int
	BufferSize  int
	Order       Order
	ChunkSize   int
	SizeHint    int
	MaxFileSize int
}

func Resolve(opts ...Option) (ResolvedOptions, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return ResolvedOptions{}, err
	}

	return ResolvedOptions{
		Workers:     cfg.Workers,
		BufferSize:  cfg.BufferSize,
		Order:       cfg.Order,
		ChunkSize:   cfg.ChunkSize,
		SizeHint:    cfg.SizeHint,
		MaxFileSize: cfg.MaxFileSize,
	}, nil
}
