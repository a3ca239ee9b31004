package fastread

// order.go contains the bounded handshake between read workers and the
// consuming iterator.
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│ CAPACITY TOKENS                                                         │
//	├─────────────────────────────────────────────────────────────────────────┤
//	│                                                                         │
//	│  tokens (cap C, prefilled)                                              │
//	│    │                                                                    │
//	│    ├─► worker: acquire ─► claim seq ─► read ─► results <- item          │
//	│    │                                                                    │
//	│    └─◄ consumer: item handed to caller ─► release                       │
//	│                                                                         │
//	│  Outstanding items (claimed, not yet handed out) never exceed C, so     │
//	│  sends on results (cap C) never block.                                  │
//	│                                                                         │
//	│  OrderStrict keeps a ring of C slots indexed seq % C. Every claimed     │
//	│  seq lies in [nextRelease, nextRelease+C), so slots never collide and   │
//	│  nextRelease is always claimed by a worker that already holds a token.  │
//	│                                                                         │
//	└─────────────────────────────────────────────────────────────────────────┘

// orderedBuffer releases worker results to a single consumer.
//
// next must only be called from one goroutine.
type orderedBuffer struct {
	order   Order
	tokens  chan struct{}
	results chan Item

	// OrderStrict only.
	ring        []Item
	filled      []bool
	nextRelease int
}

func newOrderedBuffer(capacity int, order Order) *orderedBuffer {
	b := &orderedBuffer{
		order:   order,
		tokens:  make(chan struct{}, capacity),
		results: make(chan Item, capacity),
	}

	for range capacity {
		b.tokens <- struct{}{}
	}

	if order == OrderStrict {
		b.ring = make([]Item, capacity)
		b.filled = make([]bool, capacity)
	}

	return b
}

// acquire blocks until a capacity token is available. It returns false when
// done is closed first.
func (b *orderedBuffer) acquire(done <-chan struct{}) bool {
	select {
	case <-b.tokens:
		return true
	case <-done:
		return false
	}
}

// release returns a token. Never blocks: tokens in flight never exceed cap.
func (b *orderedBuffer) release() {
	b.tokens <- struct{}{}
}

// put hands a finished item to the consumer. The caller must hold a token.
func (b *orderedBuffer) put(item Item) {
	b.results <- item
}

// closeResults signals that no more items will be put.
func (b *orderedBuffer) closeResults() {
	close(b.results)
}

// next returns the next releasable item, blocking until one is available.
// ok is false once all producers are done and nothing releasable remains.
//
// With block false, next returns immediately when no item is ready.
func (b *orderedBuffer) next(block bool) (item Item, ok bool) {
	if b.order != OrderStrict {
		return b.recv(block)
	}

	for {
		slot := b.nextRelease % len(b.ring)
		if b.filled[slot] {
			item = b.ring[slot]
			b.ring[slot] = Item{}
			b.filled[slot] = false
			b.nextRelease++
			b.release()

			return item, true
		}

		got, more := b.recvRaw(block)
		if !more {
			return Item{}, false
		}

		s := got.Seq % len(b.ring)
		b.ring[s] = got
		b.filled[s] = true
	}
}

func (b *orderedBuffer) recv(block bool) (Item, bool) {
	item, ok := b.recvRaw(block)
	if ok {
		b.release()
	}

	return item, ok
}

func (b *orderedBuffer) recvRaw(block bool) (Item, bool) {
	if block {
		item, ok := <-b.results

		return item, ok
	}

	select {
	case item, ok := <-b.results:
		return item, ok
	default:
		return Item{}, false
	}
}

// discard drops everything still buffered. Used on early close, after
// producers are done.
func (b *orderedBuffer) discard() int {
	dropped := 0

	for range b.results {
		dropped++
	}

	for i := range b.filled {
		if b.filled[i] {
			b.ring[i] = Item{}
			b.filled[i] = false
			dropped++
		}
	}

	return dropped
}
