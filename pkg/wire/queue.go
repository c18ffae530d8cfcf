package wire

import "sync"

// Queue is the unbounded FIFO of inbound frames between the transport
// callback and the dispatcher.
type Queue struct {
	lock sync.Mutex
	head *frameItem
	tail *frameItem
	size int
}

type frameItem struct {
	frame []byte
	next  *frameItem
}

// Push appends a copy of frame. Empty frames are dropped.
func (q *Queue) Push(frame []byte) {
	if len(frame) == 0 {
		return
	}
	item := &frameItem{frame: append([]byte(nil), frame...)}
	q.lock.Lock()
	if q.head == nil {
		q.head = item
	} else {
		q.tail.next = item
	}
	q.tail = item
	q.size++
	q.lock.Unlock()
}

// Pop removes the oldest frame, or returns nil.
func (q *Queue) Pop() []byte {
	q.lock.Lock()
	defer q.lock.Unlock()
	item := q.head
	if item == nil {
		return nil
	}
	if q.head = item.next; q.head == nil {
		q.tail = nil
	}
	q.size--
	return item.frame
}

// Len returns the backlog.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.size
}
