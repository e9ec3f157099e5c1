package scan

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the in-process registry of scan jobs. Entries live from Create
// until a grace period after the job finishes, giving pollers a bounded
// window to fetch the final result set before memory is reclaimed.
type Store struct {
	grace time.Duration

	mu     sync.Mutex
	jobs   map[string]*Job
	timers map[string]*time.Timer
	closed bool
}

// NewStore creates a job registry. A non-positive grace falls back to
// DefaultGrace.
func NewStore(grace time.Duration) *Store {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Store{
		grace:  grace,
		jobs:   make(map[string]*Job),
		timers: make(map[string]*time.Timer),
	}
}

// Create registers a new job for the given number of targets under a fresh
// random identifier.
func (s *Store) Create(total int) *Job {
	job := newJob(uuid.NewString(), total)
	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()
	return job
}

// Get looks up a job by id. Unknown and already-evicted ids report
// ErrJobNotFound, never a stale job.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Evict removes a job immediately. Evicting twice, or an unknown id, is a
// no-op.
func (s *Store) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	delete(s.jobs, id)
}

// scheduleEviction drops the job after the grace period. The timer is
// tracked so Close can cancel it during shutdown.
func (s *Store) scheduleEviction(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.jobs[id]; !ok {
		return
	}
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
	}
	s.timers[id] = time.AfterFunc(s.grace, func() {
		s.Evict(id)
	})
}

// Len reports how many jobs are currently registered.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Close cancels every pending eviction. Registered jobs stay readable until
// the process exits; no new evictions are scheduled afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
