// Package jobs runs ingestion work on a fixed-size worker pool with an
// observable per-job lifecycle.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Status represents the state of a background job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether a job in this status can never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

var (
	// ErrDuplicateJob is returned when a job ID is submitted twice.
	ErrDuplicateJob = errors.New("job id already exists")

	// ErrNotFound is returned for lookups of unknown job IDs.
	ErrNotFound = errors.New("job not found")

	// ErrStopped is returned when submitting to a stopped manager.
	ErrStopped = errors.New("job manager stopped")
)

// ProgressFunc reports fractional progress (0..100) with a human-readable
// stage message.
type ProgressFunc func(progress int, message string)

// WorkFunc is the body of a job. It runs entirely on one worker; failures
// are captured in the job record, never returned to the submitter.
type WorkFunc func(ctx context.Context, report ProgressFunc) (any, error)

// Job is the observable record of one unit of ingestion work. Snapshot
// copies are handed out; the manager owns the live record.
type Job struct {
	ID          string     `json:"job_id"`
	Owner       string     `json:"-"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      any        `json:"result,omitempty"`

	work WorkFunc
}

// ProgressHook observes job state changes (queued, stage progress,
// terminal transitions). Called outside the manager's lock.
type ProgressHook func(job Job)

// Manager owns the job table and the worker pool. The queue is unbounded;
// a sustained high submission rate grows memory without bound.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	queue   []string
	cond    *sync.Cond
	stopped bool

	workers int
	hook    ProgressHook
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithProgressHook installs a hook observing every job state change.
func WithProgressHook(hook ProgressHook) Option {
	return func(m *Manager) { m.hook = hook }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager with a pool of `workers` workers.
func NewManager(workers int, opts ...Option) *Manager {
	if workers <= 0 {
		workers = 4
	}
	m := &Manager{
		jobs:    make(map[string]*Job),
		workers: workers,
		logger:  slog.Default(),
	}
	m.cond = sync.NewCond(&m.mu)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the worker pool. Workers exit when Stop is called.
func (m *Manager) Start() {
	m.logger.Info("starting job workers", "workers", m.workers)
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
}

// Stop drains the workers: queued jobs are no longer picked up, running
// jobs finish. Blocks until all workers exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	m.cond.Broadcast()
	m.wg.Wait()
	m.logger.Info("job workers stopped")
}

// Submit enqueues a new job. It fails only on duplicate IDs or a stopped
// manager; execution errors are captured inside the job.
func (m *Manager) Submit(id, owner string, work WorkFunc) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	if _, exists := m.jobs[id]; exists {
		m.mu.Unlock()
		return ErrDuplicateJob
	}

	job := &Job{
		ID:        id,
		Owner:     owner,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
		work:      work,
	}
	m.jobs[id] = job
	m.queue = append(m.queue, id)
	snapshot := job.snapshot()
	m.mu.Unlock()

	// Pending is published before a worker can wake and report running,
	// so subscribers see per-job events in lifecycle order.
	m.notify(snapshot)
	m.cond.Signal()
	m.logger.Info("job submitted", "job_id", id)
	return nil
}

// Cancel moves a pending job to cancelled. It returns false once the job
// has left pending, or when the ID is unknown.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok || job.Status != StatusPending {
		m.mu.Unlock()
		return false
	}
	job.Status = StatusCancelled
	now := time.Now().UTC()
	job.CompletedAt = &now
	snapshot := job.snapshot()
	m.mu.Unlock()

	m.notify(snapshot)
	m.logger.Info("job cancelled", "job_id", id)
	return true
}

// Get returns a snapshot of the job, or ErrNotFound.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job.snapshot(), nil
}

// List returns snapshots of all jobs, most recent first, optionally
// filtered by status.
func (m *Manager) List(filter Status) []Job {
	m.mu.RLock()
	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if filter != "" && job.Status != filter {
			continue
		}
		jobs = append(jobs, job.snapshot())
	}
	m.mu.RUnlock()

	slices.SortFunc(jobs, func(a, b Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return jobs
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for {
		job := m.next()
		if job == nil {
			return
		}
		m.run(id, job)
	}
}

// next blocks until a runnable job is queued or the manager stops.
// Cancelled jobs left in the queue are skipped.
func (m *Manager) next() *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		for len(m.queue) > 0 {
			id := m.queue[0]
			m.queue = m.queue[1:]
			job := m.jobs[id]
			if job == nil || job.Status != StatusPending {
				continue
			}
			job.Status = StatusRunning
			now := time.Now().UTC()
			job.StartedAt = &now
			return job
		}
		if m.stopped {
			return nil
		}
		m.cond.Wait()
	}
}

func (m *Manager) run(workerID int, job *Job) {
	m.notify(m.snapshotOf(job))
	m.logger.Info("job started", "job_id", job.ID, "worker", workerID)

	report := func(progress int, message string) {
		m.mu.Lock()
		if job.Status != StatusRunning {
			m.mu.Unlock()
			return
		}
		if progress < job.Progress {
			progress = job.Progress // progress never moves backwards
		}
		if progress > 100 {
			progress = 100
		}
		job.Progress = progress
		job.Message = message
		snapshot := job.snapshot()
		m.mu.Unlock()
		m.notify(snapshot)
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("job panicked", "job_id", job.ID, "panic", r)
			m.finish(job, nil, errors.New("internal panic during job execution"))
		}
	}()

	result, err := job.work(context.Background(), report)
	m.finish(job, result, err)
}

func (m *Manager) finish(job *Job, result any, err error) {
	m.mu.Lock()
	if job.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	job.CompletedAt = &now
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusCompleted
		job.Progress = 100
		job.Result = result
	}
	snapshot := job.snapshot()
	m.mu.Unlock()

	m.notify(snapshot)
	if err != nil {
		m.logger.Error("job failed", "job_id", job.ID, "error", err)
	} else {
		m.logger.Info("job completed", "job_id", job.ID)
	}
}

func (m *Manager) snapshotOf(job *Job) Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return job.snapshot()
}

func (m *Manager) notify(job Job) {
	if m.hook != nil {
		m.hook(job)
	}
}

// snapshot copies the job record without the work closure.
// Callers must hold the manager lock.
func (j *Job) snapshot() Job {
	snap := *j
	snap.work = nil
	return snap
}
