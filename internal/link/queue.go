package link

import "sync"

// queue is a bounded FIFO of frames. When full, the oldest frame is dropped
// so a slow consumer always sees the most recent traffic.
type queue struct {
	mu         sync.Mutex
	data       [][]byte
	head, tail int // head = next pop, tail = next push
	count      int
	dropped    int64
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &queue{data: make([][]byte, capacity)}
}

// push stores frame and reports whether an older frame was overwritten.
func (q *queue) push(frame []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	overwrote := false
	if q.count == len(q.data) {
		q.data[q.head] = nil
		q.head = (q.head + 1) % len(q.data)
		q.count--
		q.dropped++
		overwrote = true
	}
	q.data[q.tail] = frame
	q.tail = (q.tail + 1) % len(q.data)
	q.count++
	return overwrote
}

func (q *queue) pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil, false
	}
	frame := q.data[q.head]
	q.data[q.head] = nil
	q.head = (q.head + 1) % len(q.data)
	q.count--
	return frame, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// overflows is the number of frames dropped because the queue was full.
func (q *queue) overflows() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
