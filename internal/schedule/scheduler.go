// Package schedule rotates over sources in rounds: every source is handed out
// exactly once per round, in an order reshuffled at every round.
//
// Two priority queues alternate roles. Next pops from the active queue;
// TickComplete appends the source to the next round's queue. When the
// active queue is empty and nothing is in flight, Rollover gives the next
// queue a fresh random permutation of priorities and swaps the two.
package schedule

import (
	"container/heap"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/abelbrown/headlines/internal/sources"
)

var (
	// ErrRoundComplete is returned by Next once every source of the round
	// has been handed out. Call Rollover when RoundDone reports true.
	ErrRoundComplete = errors.New("round complete, rollover required")
	// ErrRoundInProgress is returned by Rollover before the round is done.
	ErrRoundInProgress = errors.New("round still in progress")
	// ErrNotInFlight is returned by TickComplete for a source Next did not
	// hand out.
	ErrNotInFlight = errors.New("source not in flight")
)

// Scheduler is not safe for concurrent use; the event loop owns it.
type Scheduler struct {
	active   *queue
	next     *queue
	inFlight map[sources.Source]bool
	n        int
	seq      int
	round    int
	rng      *rand.Rand
}

// New loads srcs into the first round with a random permutation of
// priorities 1..N. A nil rng uses a randomly seeded generator.
func New(srcs []sources.Source, rng *rand.Rand) (*Scheduler, error) {
	if len(srcs) == 0 {
		return nil, sources.ErrNoSources
	}
	seen := make(map[sources.Source]bool, len(srcs))
	for _, s := range srcs {
		if seen[s] {
			return nil, fmt.Errorf("duplicate source %s", s)
		}
		seen[s] = true
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := &Scheduler{
		active:   &queue{},
		next:     &queue{},
		inFlight: make(map[sources.Source]bool),
		n:        len(srcs),
		round:    1,
		rng:      rng,
	}

	prio := s.permutation()
	for i, src := range srcs {
		s.push(s.active, prio[i], src)
	}
	return s, nil
}

// permutation returns a random permutation of 1..n.
func (s *Scheduler) permutation() []int {
	p := s.rng.Perm(s.n)
	for i := range p {
		p[i]++
	}
	return p
}

func (s *Scheduler) push(q *queue, priority int, src sources.Source) {
	s.seq++
	heap.Push(q, slot{priority: priority, seq: s.seq, src: src})
}

// Next hands out the next source of the current round.
func (s *Scheduler) Next() (sources.Source, error) {
	if s.active.Len() == 0 {
		return "", ErrRoundComplete
	}
	sl := heap.Pop(s.active).(slot)
	s.inFlight[sl.src] = true
	return sl.src, nil
}

// TickComplete queues src at the back of the next round.
func (s *Scheduler) TickComplete(src sources.Source) error {
	if !s.inFlight[src] {
		return fmt.Errorf("%w: %s", ErrNotInFlight, src)
	}
	delete(s.inFlight, src)
	s.push(s.next, s.next.Len()+1, src)
	return nil
}

// RoundDone reports whether every source of the round has completed.
func (s *Scheduler) RoundDone() bool {
	return s.active.Len() == 0 && len(s.inFlight) == 0 && s.next.Len() == s.n
}

// Rollover reshuffles the next round's priorities and makes it active.
func (s *Scheduler) Rollover() error {
	if !s.RoundDone() {
		return ErrRoundInProgress
	}

	prio := s.permutation()
	for i := range *s.next {
		(*s.next)[i].priority = prio[i]
	}
	heap.Init(s.next)

	s.active, s.next = s.next, s.active
	s.round++
	return nil
}

// Round returns the 1-based number of the current round.
func (s *Scheduler) Round() int { return s.round }

// Remaining returns how many sources the current round has yet to hand out.
func (s *Scheduler) Remaining() int { return s.active.Len() }

// InFlight returns how many handed-out sources have not completed.
func (s *Scheduler) InFlight() int { return len(s.inFlight) }

// Size returns the number of sources being rotated.
func (s *Scheduler) Size() int { return s.n }

// Drain empties both queues and forgets in-flight sources. The scheduler is
// unusable afterwards. Returns the number of sources dropped.
func (s *Scheduler) Drain() int {
	n := s.active.Len() + s.next.Len() + len(s.inFlight)
	*s.active = (*s.active)[:0]
	*s.next = (*s.next)[:0]
	clear(s.inFlight)
	return n
}
