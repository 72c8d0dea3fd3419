// Package attempt hands out attempt numbers per (student, exam) pair.
package attempt

import (
	"context"
	"sync"
)

// Sequencer returns the next attempt number for a pair: the number of
// attempts already recorded plus one. Calls for the same pair are atomic;
// different pairs never wait on each other.
type Sequencer interface {
	Next(ctx context.Context, studentID, examID string) (int, error)
}

// Releaser is implemented by sequencers that can hand back a number whose
// record was never written. Release is a no-op once a later number for the
// pair has been taken.
type Releaser interface {
	Release(ctx context.Context, studentID, examID string, n int)
}

// Counter reports how many attempts a pair already has. Sequencers use it to
// seed their counters so numbering continues after a restart.
type Counter interface {
	CountSubmissions(ctx context.Context, studentID, examID string) (int, error)
}

type pairKey struct{ studentID, examID string }

type pairLock struct {
	mu   sync.Mutex
	refs int
}

// PairLocks is a set of mutexes keyed by (student, exam). Entries are dropped
// once no goroutine holds or waits on them.
type PairLocks struct {
	mu    sync.Mutex
	locks map[pairKey]*pairLock
}

func NewPairLocks() *PairLocks {
	return &PairLocks{locks: map[pairKey]*pairLock{}}
}

// Lock blocks until the pair is free and returns the matching unlock.
func (p *PairLocks) Lock(studentID, examID string) (unlock func()) {
	k := pairKey{studentID, examID}
	p.mu.Lock()
	l, ok := p.locks[k]
	if !ok {
		l = &pairLock{}
		p.locks[k] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, k)
		}
		p.mu.Unlock()
	}
}

// MemorySequencer keeps counters in process memory.
type MemorySequencer struct {
	counter Counter
	locks   *PairLocks

	mu   sync.Mutex
	last map[pairKey]int
}

// NewMemorySequencer returns a sequencer seeded lazily from counter, which
// may be nil to start every pair at zero.
func NewMemorySequencer(counter Counter) *MemorySequencer {
	return &MemorySequencer{counter: counter, locks: NewPairLocks(), last: map[pairKey]int{}}
}

func (s *MemorySequencer) Next(ctx context.Context, studentID, examID string) (int, error) {
	unlock := s.locks.Lock(studentID, examID)
	defer unlock()

	k := pairKey{studentID, examID}
	s.mu.Lock()
	n, seeded := s.last[k]
	s.mu.Unlock()

	if !seeded && s.counter != nil {
		c, err := s.counter.CountSubmissions(ctx, studentID, examID)
		if err != nil {
			return 0, err
		}
		n = c
	}
	n++

	s.mu.Lock()
	s.last[k] = n
	s.mu.Unlock()
	return n, nil
}

func (s *MemorySequencer) Release(_ context.Context, studentID, examID string, n int) {
	k := pairKey{studentID, examID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last[k] == n {
		s.last[k] = n - 1
	}
}
