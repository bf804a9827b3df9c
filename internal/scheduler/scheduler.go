// Package scheduler runs feed collection on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrRunning is returned by RunNow when the job is already running.
var ErrRunning = errors.New("job already running")

// Job is a scheduled task.
type Job func(ctx context.Context) error

// JobInfo describes a scheduled job.
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// Scheduler runs named jobs on cron schedules. A job never overlaps itself:
// a scheduled tick that fires while the job runs is skipped, whether the
// running instance was scheduled or started with RunNow.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	loc     *time.Location

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	running map[string]*sync.Mutex
	base    context.Context
}

// New creates a scheduler in the given IANA timezone ("" means local).
// Each job run is bounded by timeout when it is positive.
func New(timezone string, timeout time.Duration) (*Scheduler, error) {
	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
		}
		loc = l
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:    c,
		timeout: timeout,
		loc:     loc,
		jobs:    make(map[string]cron.EntryID),
		running: make(map[string]*sync.Mutex),
		base:    context.Background(),
	}, nil
}

// Location returns the scheduler's timezone.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// AddJob schedules job under name. schedule uses the standard five-field
// cron format, e.g. "*/30 * * * *".
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}

	id, err := s.cron.AddFunc(schedule, func() {
		err := s.run(name, job)
		switch {
		case errors.Is(err, ErrRunning):
			slog.Debug("job skipped, still running", "job", name)
		case err != nil:
			slog.Error("job failed", "job", name, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = id
	slog.Debug("job added", "job", name, "schedule", schedule)
	return nil
}

// RemoveJob unschedules a job. Unknown names are ignored.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
		slog.Debug("job removed", "job", name)
	}
}

// Start begins running scheduled jobs. Job contexts derive from ctx, so
// cancelling it aborts in-flight runs.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	slog.Debug("scheduler started", "location", s.loc.String())
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	slog.Debug("scheduler stopping")
	return s.cron.Stop()
}

// RunNow executes job immediately, outside the schedule. It returns
// ErrRunning if a run of the same name is in progress.
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

// Jobs returns scheduled jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, id := range s.jobs {
		entry := s.cron.Entry(id)
		infos = append(infos, JobInfo{
			Name:    name,
			NextRun: entry.Next,
			LastRun: entry.Prev,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Scheduler) run(name string, job Job) error {
	s.mu.Lock()
	base := s.base
	guard, ok := s.running[name]
	if !ok {
		guard = &sync.Mutex{}
		s.running[name] = guard
	}
	s.mu.Unlock()

	if !guard.TryLock() {
		return ErrRunning
	}
	defer guard.Unlock()

	ctx := base
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(base, s.timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Debug("job started", "job", name)
	if err := job(ctx); err != nil {
		return err
	}
	slog.Debug("job completed", "job", name, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
