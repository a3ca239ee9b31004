package fastread

// engine.go contains the worker pool that reads a listing's files.
//
// This file has no build tags - it works on all platforms by calling into
// the platform-specific I/O backend (dirHandle.openFile, fileHandle.readInto).
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│ WORKER LOOP                                                             │
//	├─────────────────────────────────────────────────────────────────────────┤
//	│                                                                         │
//	│  for {                                                                  │
//	│    acquire token          ← blocks while capacity items are outstanding │
//	│    seq := cursor.Add(1)-1 ← each listed name is claimed exactly once    │
//	│    openat ─► readAllInto(scratch) ─► close ─► owned copy                │
//	│    put Item{Seq, Name, Data|Err}                                        │
//	│  }                                                                      │
//	│                                                                         │
//	│  After the last worker exits: close the directory fd, close results.    │
//	│                                                                         │
//	└─────────────────────────────────────────────────────────────────────────┘

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// maxRetainedReadBuf caps the scratch buffer a worker keeps between files.
// A worker that had to grow past it for one large file drops back to the
// initial size afterwards.
const maxRetainedReadBuf = 1 << 20

// engine owns the workers and the ordered buffer for one iteration.
type engine struct {
	list   *listing
	cfg    options
	ctx    context.Context
	cancel context.CancelFunc
	buf    *orderedBuffer

	cursor    atomic.Int64
	readFails atomic.Int64

	// done is closed after every worker exited and the directory was closed.
	// closeErr is written before done is closed.
	done     chan struct{}
	closeErr error

	start time.Time
}

// startEngine launches the workers for l. The engine takes ownership of the
// listing's directory handle.
func startEngine(ctx context.Context, l *listing, cfg options) *engine {
	ctx, cancel := context.WithCancel(ctx)

	e := &engine{
		list:   l,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		buf:    newOrderedBuffer(cfg.BufferSize, cfg.Order),
		done:   make(chan struct{}),
		start:  time.Now(),
	}

	workers := min(cfg.Workers, len(l.names))

	if cfg.Logger != nil {
		cfg.Logger.Debug("engine started",
			"dir", l.dir,
			"files", len(l.names),
			"workers", workers,
			"capacity", cfg.BufferSize,
			"order", cfg.Order.String(),
		)
	}

	var wg sync.WaitGroup

	for range workers {
		wg.Go(e.worker)
	}

	go func() {
		wg.Wait()

		e.closeErr = l.close()
		e.buf.closeResults()
		close(e.done)
	}()

	return e
}

// worker claims and reads files until the listing is exhausted or the engine
// is cancelled.
func (e *engine) worker() {
	initial := initialReadLen(e.cfg.SizeHint, e.cfg.MaxFileSize)
	scratch := make([]byte, initial)
	total := int64(len(e.list.names))
	ctxDone := e.ctx.Done()

	for {
		if !e.buf.acquire(ctxDone) {
			return
		}

		seq := e.cursor.Add(1) - 1
		if seq >= total || e.ctx.Err() != nil {
			e.buf.release()

			return
		}

		var item Item

		item, scratch = readItem(e.list.dh, int(seq), e.list.names[seq], scratch, e.cfg.MaxFileSize)
		if item.Err != nil {
			e.readFails.Add(1)
		}

		if cap(scratch) > maxRetainedReadBuf {
			scratch = make([]byte, initial)
		}

		e.buf.put(item)
	}
}

// readItem reads one listed file. The returned scratch is the (possibly grown)
// buffer to use for the next file.
func readItem(dh dirHandle, seq int, name nulTermName, scratch []byte, maxBytes int) (Item, []byte) {
	item := Item{Seq: seq, Name: name.String()}

	fh, err := dh.openFile(name)
	if err != nil {
		item.Err = &FileReadError{Name: item.Name, Op: "open", Err: err}

		return item, scratch
	}

	n, grown, readErr := readAllInto(fh, scratch[:min(cap(scratch), maxBytes)], maxBytes)
	closeErr := fh.closeHandle()

	switch {
	case readErr != nil:
		item.Err = &FileReadError{Name: item.Name, Op: "read", Err: readErr}
	case closeErr != nil:
		item.Err = &FileReadError{Name: item.Name, Op: "close", Err: closeErr}
	default:
		// Exact-size owned copy; empty files get a non-nil empty slice.
		item.Data = bytes.Clone(grown[:n])
	}

	return item, grown
}

// next returns the next item for the consumer. See orderedBuffer.next.
func (e *engine) next(block bool) (Item, bool) {
	return e.buf.next(block)
}

// wait blocks until the engine has drained and returns the directory close
// error, if any.
func (e *engine) wait() error {
	<-e.done

	e.cancel()

	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug("engine drained",
			"dir", e.list.dir,
			"files", len(e.list.names),
			"read_errors", e.readFails.Load(),
			"duration", time.Since(e.start),
		)
	}

	return e.closeErr
}

// stop cancels the workers, waits for in-flight reads, and discards every
// undelivered item.
func (e *engine) stop() error {
	e.cancel()
	<-e.done

	dropped := e.buf.discard()

	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug("iterator closed early",
			"dir", e.list.dir,
			"discarded", dropped,
		)
	}

	return e.wait()
}
