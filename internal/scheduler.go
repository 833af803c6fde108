package internal

import (
	"sync"

	"github.com/zephyrtronium/contains"
)

// Scheduler tracks which executions are blocked waiting on which others so
// that a wait that would deadlock is refused instead of hanging.
type Scheduler struct {
	// waits maps each waiting execution to the execution it waits on.
	waits map[*execution]*execution
	// m guards waits.
	m sync.Mutex
}

func newScheduler() *Scheduler {
	return &Scheduler{waits: make(map[*execution]*execution)}
}

// await records that a is about to wait on b. It returns false without
// recording anything if b already waits, directly or indirectly, on a.
func (s *Scheduler) await(a, b *execution) bool {
	s.m.Lock()
	defer s.m.Unlock()
	set := contains.Set{}
	for c := b; c != nil; c = s.waits[c] {
		if c == a {
			return false
		}
		if !set.Add(c.id) {
			// Cycle not involving a. It can't be ours to report.
			break
		}
	}
	s.waits[a] = b
	return true
}

// resume records that a is no longer waiting.
func (s *Scheduler) resume(a *execution) {
	s.m.Lock()
	delete(s.waits, a)
	s.m.Unlock()
}

// Waiting returns the names of executions currently waiting on another,
// mapped to the names of what they wait on.
func (s *Scheduler) Waiting() map[string]string {
	s.m.Lock()
	defer s.m.Unlock()
	r := make(map[string]string, len(s.waits))
	for a, b := range s.waits {
		r[a.name] = b.name
	}
	return r
}
