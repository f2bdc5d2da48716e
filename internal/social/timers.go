package social

import (
	"container/heap"
	"time"
)

// Timers is a queue of fire-once tasks keyed by id, driven by an external
// clock through RunDue. Scheduling an id that is already pending replaces
// the earlier task. Nothing runs on its own goroutine.
type Timers struct {
	queue taskQueue
	byID  map[string]*task
	seq   uint64
}

type task struct {
	id    string
	due   time.Time
	seq   uint64
	fn    func(now time.Time)
	index int
}

// NewTimers creates an empty timer queue.
func NewTimers() *Timers {
	return &Timers{byID: make(map[string]*task)}
}

// At schedules fn to run once the clock reaches due.
func (t *Timers) At(id string, due time.Time, fn func(now time.Time)) {
	t.Cancel(id)
	t.seq++
	tk := &task{id: id, due: due, seq: t.seq, fn: fn}
	heap.Push(&t.queue, tk)
	t.byID[id] = tk
}

// Cancel removes the pending task for id. It reports whether one existed.
func (t *Timers) Cancel(id string) bool {
	tk, ok := t.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&t.queue, tk.index)
	delete(t.byID, id)
	return true
}

// CancelAll drops every pending task and returns how many there were.
func (t *Timers) CancelAll() int {
	n := len(t.byID)
	t.queue = nil
	t.byID = make(map[string]*task)
	return n
}

// Due returns when the task for id fires.
func (t *Timers) Due(id string) (time.Time, bool) {
	tk, ok := t.byID[id]
	if !ok {
		return time.Time{}, false
	}
	return tk.due, true
}

// Pending returns the number of scheduled tasks.
func (t *Timers) Pending() int {
	return len(t.byID)
}

// RunDue fires every task due at or before now, earliest first, ties in
// scheduling order. Tasks scheduled by a callback run in the same pass if
// they are already due. Returns the number of tasks fired.
func (t *Timers) RunDue(now time.Time) int {
	fired := 0
	for len(t.queue) > 0 {
		next := t.queue[0]
		if next.due.After(now) {
			break
		}
		heap.Pop(&t.queue)
		delete(t.byID, next.id)
		next.fn(now)
		fired++
	}
	return fired
}

// taskQueue implements heap.Interface ordered by due time, then sequence.
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	tk := x.(*task)
	tk.index = len(*q)
	*q = append(*q, tk)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	tk := old[n-1]
	old[n-1] = nil
	tk.index = -1
	*q = old[:n-1]
	return tk
}
