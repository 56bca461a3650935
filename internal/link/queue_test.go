package link

import "testing"

func TestQueueFIFO(t *testing.T) {
	q := newQueue(4)
	for i := byte(0); i < 3; i++ {
		q.push([]byte{i})
	}
	if got := q.len(); got != 3 {
		t.Fatalf("len: got %d, want 3", got)
	}
	for want := byte(0); want < 3; want++ {
		frame, ok := q.pop()
		if !ok || frame[0] != want {
			t.Fatalf("pop: got %v %v, want [%d]", frame, ok, want)
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatalf("pop on empty queue returned a frame")
	}
}

func TestQueueDropsOldest(t *testing.T) {
	q := newQueue(3)
	overwrote := 0
	for i := byte(0); i < 5; i++ {
		if q.push([]byte{i}) {
			overwrote++
		}
	}
	if overwrote != 2 || q.overflows() != 2 {
		t.Fatalf("overwrites: got %d (%d counted), want 2", overwrote, q.overflows())
	}
	for _, want := range []byte{2, 3, 4} {
		frame, ok := q.pop()
		if !ok || frame[0] != want {
			t.Fatalf("pop: got %v %v, want [%d]", frame, ok, want)
		}
	}
}

func TestQueueDefaultCapacity(t *testing.T) {
	q := newQueue(0)
	if len(q.data) != DefaultQueueSize {
		t.Fatalf("capacity: got %d, want %d", len(q.data), DefaultQueueSize)
	}
}
