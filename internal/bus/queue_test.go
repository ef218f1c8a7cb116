package bus

import (
	"sync"
	"testing"
	"time"
)

func TestQueueSendReceive(t *testing.T) {
	q := New[string](4)

	if !q.Send("hello") {
		t.Fatal("send on empty queue rejected")
	}

	select {
	case got := <-q.C():
		if got != "hello" {
			t.Errorf("got %v, want hello", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := New[int](2)

	q.Send(1)
	q.Send(2)
	if q.Send(3) {
		t.Fatal("send on full queue should be rejected")
	}
	if q.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", q.Dropped())
	}

	if got := <-q.C(); got != 1 {
		t.Fatalf("first = %d, want 1", got)
	}
	if got := <-q.C(); got != 2 {
		t.Fatalf("second = %d, want 2", got)
	}
}

func TestQueueDefaultSize(t *testing.T) {
	q := New[int](0)
	for i := 0; i < DefaultSize; i++ {
		if !q.Send(i) {
			t.Fatalf("send %d rejected below capacity", i)
		}
	}
	if q.Send(DefaultSize) {
		t.Fatal("send above capacity should be rejected")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := New[int](DefaultSize)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Send(j)
			}
		}()
	}
	wg.Wait()

	if got := uint64(len(q.C())) + q.Dropped(); got != 400 {
		t.Fatalf("accepted + dropped = %d, want 400", got)
	}
}
