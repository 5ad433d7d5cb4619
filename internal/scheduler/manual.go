package scheduler

import (
	"sync"
	"time"
)

// Manual is a Scheduler whose jobs only run when the caller says so.
// Tests use it to drive debounce timers deterministically.
type Manual struct {
	mu       sync.Mutex
	nextID   int
	oneShots map[int]manualJob
	periodic map[int]manualJob
}

type manualJob struct {
	delay time.Duration
	fn    func()
}

// NewManual creates an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{
		oneShots: make(map[int]manualJob),
		periodic: make(map[int]manualJob),
	}
}

func (m *Manual) AfterFunc(delay time.Duration, fn func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.oneShots[id] = manualJob{delay: delay, fn: fn}

	return func() {
		m.mu.Lock()
		delete(m.oneShots, id)
		m.mu.Unlock()
	}, nil
}

func (m *Manual) Every(interval time.Duration, fn func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.periodic[id] = manualJob{delay: interval, fn: fn}

	return func() {
		m.mu.Lock()
		delete(m.periodic, id)
		m.mu.Unlock()
	}, nil
}

// Pending reports how many one-time jobs are armed.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.oneShots)
}

// LastDelay returns the delay of the most recently armed one-time job.
func (m *Manual) LastDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		last  int
		delay time.Duration
	)
	for id, job := range m.oneShots {
		if id > last {
			last, delay = id, job.delay
		}
	}
	return delay
}

// Fire runs every armed one-time job once. Jobs armed while firing wait for
// the next call.
func (m *Manual) Fire() int {
	m.mu.Lock()
	jobs := make([]func(), 0, len(m.oneShots))
	for id, job := range m.oneShots {
		jobs = append(jobs, job.fn)
		delete(m.oneShots, id)
	}
	m.mu.Unlock()

	for _, fn := range jobs {
		fn()
	}
	return len(jobs)
}

// Tick runs every periodic job once.
func (m *Manual) Tick() {
	m.mu.Lock()
	jobs := make([]func(), 0, len(m.periodic))
	for _, job := range m.periodic {
		jobs = append(jobs, job.fn)
	}
	m.mu.Unlock()

	for _, fn := range jobs {
		fn()
	}
}
