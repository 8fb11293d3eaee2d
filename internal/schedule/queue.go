package schedule

import "github.com/abelbrown/headlines/internal/sources"

// slot is one (priority, source) pair. seq breaks priority ties in push
// order, though a round's priorities are a permutation and never tie.
type slot struct {
	priority int
	seq      int
	src      sources.Source
}

// queue implements heap.Interface, lowest priority first.
type queue []slot

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(slot)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	s := old[n-1]
	*q = old[:n-1]
	return s
}
