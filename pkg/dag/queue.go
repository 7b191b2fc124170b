package dag

import (
	"strings"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
)

// RankFunc assigns a scheduling priority to a ready task. Higher ranks are
// dequeued first.
type RankFunc func(id string) int

type readyItem struct {
	id   string
	rank int
}

// ReadyQueue holds tasks whose predecessors have all resolved.
//
// Tasks leave the queue highest rank first; equal ranks leave in ascending
// identity order. With a nil RankFunc every task has rank 0 and the queue is a
// plain min-queue by identity. The rank is computed once, when the task is
// pushed.
type ReadyQueue struct {
	rank RankFunc
	pq   *priorityqueue.Queue
}

// NewReadyQueue creates an empty queue ordered by rank.
func NewReadyQueue(rank RankFunc) *ReadyQueue {
	return &ReadyQueue{
		rank: rank,
		pq:   priorityqueue.NewWith(byRankThenID),
	}
}

// byRankThenID orders the underlying min-heap: negative means a leaves first.
func byRankThenID(a, b interface{}) int {
	x, y := a.(readyItem), b.(readyItem)
	if c := -utils.IntComparator(x.rank, y.rank); c != 0 {
		return c
	}
	return strings.Compare(x.id, y.id)
}

// Push adds tasks to the queue.
func (q *ReadyQueue) Push(ids ...string) {
	for _, id := range ids {
		item := readyItem{id: id}
		if q.rank != nil {
			item.rank = q.rank(id)
		}
		q.pq.Enqueue(item)
	}
}

// Pop removes and returns the next task, or false if the queue is empty.
func (q *ReadyQueue) Pop() (string, bool) {
	v, ok := q.pq.Dequeue()
	if !ok {
		return "", false
	}
	return v.(readyItem).id, true
}

// Len returns the number of queued tasks.
func (q *ReadyQueue) Len() int { return q.pq.Size() }

// Empty reports whether the queue has no tasks.
func (q *ReadyQueue) Empty() bool { return q.pq.Empty() }
