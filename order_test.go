package fastread

import (
	"testing"
)

func putSeqs(t *testing.T, b *orderedBuffer, seqs ...int) {
	t.Helper()

	done := make(chan struct{})

	for _, seq := range seqs {
		if !b.acquire(done) {
			t.Fatalf("acquire for seq %d failed", seq)
		}

		b.put(Item{Seq: seq})
	}
}

func Test_OrderedBuffer_Releases_In_Seq_Order_When_Strict(t *testing.T) {
	t.Parallel()

	b := newOrderedBuffer(3, OrderStrict)
	putSeqs(t, b, 2, 0, 1)

	for want := range 3 {
		item, ok := b.next(true)
		if !ok || item.Seq != want {
			t.Fatalf("next: got seq=%d ok=%v, want seq=%d", item.Seq, ok, want)
		}
	}

	// Tokens come back as items are handed out.
	putSeqs(t, b, 4, 3)

	for want := 3; want <= 4; want++ {
		item, ok := b.next(true)
		if !ok || item.Seq != want {
			t.Fatalf("next: got seq=%d ok=%v, want seq=%d", item.Seq, ok, want)
		}
	}

	b.closeResults()

	if _, ok := b.next(true); ok {
		t.Fatal("expected end of results")
	}
}

func Test_OrderedBuffer_Releases_In_Arrival_Order_When_Completion(t *testing.T) {
	t.Parallel()

	b := newOrderedBuffer(2, OrderCompletion)
	putSeqs(t, b, 7, 3)

	first, _ := b.next(true)
	second, _ := b.next(true)

	if first.Seq != 7 || second.Seq != 3 {
		t.Fatalf("got %d,%d want 7,3", first.Seq, second.Seq)
	}
}

func Test_OrderedBuffer_Acquire_Gives_Up_When_Done_Is_Closed(t *testing.T) {
	t.Parallel()

	b := newOrderedBuffer(1, OrderCompletion)
	putSeqs(t, b, 0)

	done := make(chan struct{})
	close(done)

	if b.acquire(done) {
		t.Fatal("acquire succeeded with no tokens left")
	}
}

func Test_OrderedBuffer_Does_Not_Block_When_Next_Is_Non_Blocking(t *testing.T) {
	t.Parallel()

	for _, order := range []Order{OrderCompletion, OrderStrict} {
		b := newOrderedBuffer(2, order)

		if _, ok := b.next(false); ok {
			t.Fatalf("%s: expected no item", order)
		}

		// seq 1 arrives first; strict must hold it back.
		putSeqs(t, b, 1)

		_, ok := b.next(false)
		if want := order == OrderCompletion; ok != want {
			t.Fatalf("%s: ready=%v want %v", order, ok, want)
		}
	}
}

func Test_OrderedBuffer_Discard_Drops_Held_Items_When_Closed_Early(t *testing.T) {
	t.Parallel()

	b := newOrderedBuffer(4, OrderStrict)
	putSeqs(t, b, 1, 2)

	// Moves seq 1 and 2 into the ring while waiting for seq 0.
	if _, ok := b.next(false); ok {
		t.Fatal("seq 0 was never produced")
	}

	putSeqs(t, b, 3)
	b.closeResults()

	if got := b.discard(); got != 3 {
		t.Fatalf("discarded %d, want 3", got)
	}
}
