package fastread

import (
	"context"
	"fmt"
	"iter"
)

// ============================================================================
// Shared iterator lifecycle
// ============================================================================

type iterState uint8

const (
	stateIdle    iterState = iota // constructed, no I/O yet
	stateListed                   // listing taken (by Len), no workers
	stateRunning                  // workers started
	stateDone                     // exhausted, failed or closed
)

// iterCore is the lazily started listing + engine shared by both iterators.
type iterCore struct {
	ctx   context.Context
	dir   string
	cfg   options
	state iterState

	list  *listing
	eng   *engine
	total int
	taken int

	err error
}

func newIterCore(ctx context.Context, dir string, opts []Option) (iterCore, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return iterCore{}, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	return iterCore{ctx: ctx, dir: dir, cfg: cfg}, nil
}

// ensureListed takes the directory snapshot once.
func (c *iterCore) ensureListed() error {
	if c.state != stateIdle {
		return nil
	}

	list, err := listDir(c.ctx, c.dir, c.cfg)
	if err != nil {
		c.state = stateDone

		// Cancellation ends iteration quietly; the caller checks ctx.Err().
		if c.ctx.Err() == nil {
			c.err = err
		}

		return err
	}

	c.list = list
	c.total = len(list.names)
	c.state = stateListed

	return nil
}

// begin starts the engine on first use. It returns false once iteration is
// over.
func (c *iterCore) begin() bool {
	if c.state == stateIdle && c.ensureListed() != nil {
		return false
	}

	switch c.state {
	case stateListed:
		c.eng = startEngine(c.ctx, c.list, c.cfg)
		c.state = stateRunning

		return true
	case stateRunning:
		return true
	default:
		return false
	}
}

// pull returns the next item. A blocking pull that finds the engine drained
// finishes the iteration.
func (c *iterCore) pull(block bool) (Item, bool) {
	if c.state != stateRunning {
		return Item{}, false
	}

	item, ok := c.eng.next(block)
	if ok {
		c.taken++

		return item, true
	}

	if block {
		c.finish()
	}

	return Item{}, false
}

func (c *iterCore) remaining() int {
	return c.total - c.taken
}

func (c *iterCore) finish() {
	closeErr := c.eng.wait()
	if closeErr != nil && c.err == nil {
		c.err = closeErr
	}

	c.state = stateDone
}

func (c *iterCore) length() (int, error) {
	if c.state == stateIdle {
		err := c.ensureListed()
		if err != nil {
			return 0, err
		}
	}

	if c.list == nil && c.err != nil {
		return 0, c.err
	}

	return c.total, nil
}

func (c *iterCore) close() error {
	prev := c.state
	c.state = stateDone

	switch prev {
	case stateListed:
		return c.list.close()
	case stateRunning:
		return c.eng.stop()
	default:
		return nil
	}
}

// ============================================================================
// FilesBatchIterator
// ============================================================================

// FilesBatchIterator yields the files of a directory in batches.
//
// Construction does no I/O; the directory is listed and the workers start on
// the first call to Next. Every batch holds batchSize items except possibly
// the last one. The iterator is single-pass and not safe for concurrent use.
//
// Callers must call Close (or range over All) unless Next returned false.
type FilesBatchIterator struct {
	core      iterCore
	batchSize int
	cur       Batch
}

// NewFilesBatchIterator returns an iterator over the regular files in dir,
// grouped into batches of batchSize.
//
// It fails with [ErrInvalidConfiguration] when batchSize < 1 or an option is
// invalid.
func NewFilesBatchIterator(ctx context.Context, dir string, batchSize int, opts ...Option) (*FilesBatchIterator, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: batch size must be >= 1, got %d", ErrInvalidConfiguration, batchSize)
	}

	core, err := newIterCore(ctx, dir, opts)
	if err != nil {
		return nil, err
	}

	return &FilesBatchIterator{core: core, batchSize: batchSize}, nil
}

// Next advances to the next batch. It returns false when all files were
// delivered, a directory-level error occurred (see Err), the context was
// cancelled, or the iterator was closed.
func (it *FilesBatchIterator) Next() bool {
	it.cur = nil

	if !it.core.begin() {
		return false
	}

	batch := make(Batch, 0, min(it.batchSize, it.core.remaining()))

	for len(batch) < it.batchSize {
		item, ok := it.core.pull(true)
		if !ok {
			break
		}

		batch = append(batch, item)
	}

	if len(batch) == 0 {
		return false
	}

	it.cur = batch

	return true
}

// Batch returns the current batch. The caller owns it.
func (it *FilesBatchIterator) Batch() Batch {
	return it.cur
}

// Err returns the directory-level error that stopped iteration, if any.
// Per-file errors are reported in [Item.Err].
func (it *FilesBatchIterator) Err() error {
	return it.core.err
}

// Len lists the directory if needed and returns the number of files the
// iteration produces.
func (it *FilesBatchIterator) Len() (int, error) {
	return it.core.length()
}

// Close stops the iteration and releases its goroutines and file
// descriptors. It is safe to call more than once.
func (it *FilesBatchIterator) Close() error {
	it.cur = nil

	return it.core.close()
}

// All returns a range-over-func view of the iterator. The iterator is closed
// when the loop ends. A directory-level error is yielded last with a nil
// batch.
func (it *FilesBatchIterator) All() iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		defer func() { _ = it.Close() }()

		for it.Next() {
			if !yield(it.cur, nil) {
				return
			}
		}

		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// ============================================================================
// FlattenFilesIterator
// ============================================================================

// FlattenFilesIterator yields the files of a directory one at a time.
//
// Internally it drains the engine in chunks of [WithChunkSize] items; the
// chunk boundaries are invisible to callers. Same lifecycle rules as
// [FilesBatchIterator].
type FlattenFilesIterator struct {
	core  iterCore
	chunk Batch
	pos   int
	cur   Item
}

// NewFlattenFilesIterator returns an iterator over the regular files in dir.
func NewFlattenFilesIterator(ctx context.Context, dir string, opts ...Option) (*FlattenFilesIterator, error) {
	core, err := newIterCore(ctx, dir, opts)
	if err != nil {
		return nil, err
	}

	return &FlattenFilesIterator{core: core}, nil
}

// Next advances to the next item.
func (it *FlattenFilesIterator) Next() bool {
	if it.pos >= len(it.chunk) && !it.refill() {
		it.cur = Item{}

		return false
	}

	it.cur = it.chunk[it.pos]
	it.chunk[it.pos] = Item{}
	it.pos++

	return true
}

// refill blocks for one item, then takes whatever else is already available
// up to the chunk size.
func (it *FlattenFilesIterator) refill() bool {
	if !it.core.begin() {
		return false
	}

	if it.chunk == nil {
		it.chunk = make(Batch, 0, min(it.core.cfg.ChunkSize, it.core.remaining()))
	}

	it.chunk = it.chunk[:0]
	it.pos = 0

	first, ok := it.core.pull(true)
	if !ok {
		return false
	}

	it.chunk = append(it.chunk, first)

	for len(it.chunk) < it.core.cfg.ChunkSize {
		item, ok := it.core.pull(false)
		if !ok {
			break
		}

		it.chunk = append(it.chunk, item)
	}

	return true
}

// Item returns the current item.
func (it *FlattenFilesIterator) Item() Item {
	return it.cur
}

// Err returns the directory-level error that stopped iteration, if any.
func (it *FlattenFilesIterator) Err() error {
	return it.core.err
}

// Len lists the directory if needed and returns the number of files the
// iteration produces.
func (it *FlattenFilesIterator) Len() (int, error) {
	return it.core.length()
}

// Close stops the iteration. It is safe to call more than once.
func (it *FlattenFilesIterator) Close() error {
	clear(it.chunk)
	it.chunk = it.chunk[:0]
	it.pos = 0
	it.cur = Item{}

	return it.core.close()
}

// All returns a range-over-func view of the iterator. The iterator is closed
// when the loop ends.
func (it *FlattenFilesIterator) All() iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		defer func() { _ = it.Close() }()

		for it.Next() {
			if !yield(it.cur, nil) {
				return
			}
		}

		if err := it.Err(); err != nil {
			yield(Item{}, err)
		}
	}
}
