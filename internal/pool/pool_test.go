package pool

import (
	"testing"
	"time"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := New(2, 8)
	if p.Capacity() != 2 || p.SlotSize() != 8 {
		t.Fatalf("expected capacity=2 slotSize=8, got capacity=%d slotSize=%d", p.Capacity(), p.SlotSize())
	}
	a := p.Acquire()
	b := p.Acquire()
	if len(a) != 8 || len(b) != 8 {
		t.Errorf("expected slots of length 8, got %d and %d", len(a), len(b))
	}
	p.Release(a)
	p.Release(b)
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	p := New(1, 4)
	buf := p.Acquire()

	done := make(chan []byte, 1)
	go func() {
		done <- p.Acquire()
	}()

	select {
	case <-done:
		t.Fatal("Acquire returned before the only slot was released")
	case <-time.After(30 * time.Millisecond):
	}

	p.Release(buf)

	select {
	case got := <-done:
		if len(got) != 4 {
			t.Errorf("expected released slot of length 4, got %d", len(got))
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not unblock after Release")
	}
}

func TestWaitDrained(t *testing.T) {
	p := New(2, 4)
	a := p.Acquire()
	b := p.Acquire()

	drained := make(chan struct{})
	go func() {
		p.WaitDrained()
		close(drained)
	}()

	select {
	case <-drained:
		t.Fatal("WaitDrained returned while slots were still outstanding")
	case <-time.After(30 * time.Millisecond):
	}

	p.Release(a)
	p.Release(b)

	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("WaitDrained did not unblock once every slot was returned")
	}
}
