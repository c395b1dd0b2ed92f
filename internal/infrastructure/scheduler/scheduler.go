package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus represents the outcome of the most recent run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is the unit of work executed on every tick
type JobFunc func(ctx context.Context) error

// RunObserver is notified after each run. Used for metrics.
type RunObserver func(name string, duration time.Duration, err error)

// JobInfo is a snapshot of a registered job
type JobInfo struct {
	Name      string
	Interval  time.Duration
	Status    JobStatus
	Runs      int
	Failures  int
	LastError string
	LastRunAt *time.Time
}

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc

	running   bool
	status    JobStatus
	runs      int
	failures  int
	lastError string
	lastRunAt *time.Time
}

// Config holds scheduler configuration
type Config struct {
	// JobTimeout bounds a single run. Zero means the interval is used.
	JobTimeout time.Duration
	// RunOnStart executes each job once immediately on Start
	RunOnStart bool
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		RunOnStart: true,
	}
}

// IntervalScheduler runs named jobs on fixed intervals, one goroutine per job.
// A job never overlaps with itself: a tick or RunNow that finds the job
// running is skipped. No tick starts a run once Stop has been called.
type IntervalScheduler struct {
	config   Config
	logger   *zap.Logger
	observer RunObserver

	jobs      map[string]*job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalScheduler creates a new scheduler instance
func NewIntervalScheduler(config Config, logger *zap.Logger) *IntervalScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalScheduler{
		config: config,
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// SetObserver installs a callback invoked after every run
func (s *IntervalScheduler) SetObserver(observer RunObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Register adds a job. Jobs must be registered before Start.
func (s *IntervalScheduler) Register(name string, interval time.Duration, fn JobFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("%w: job name and function are required", ErrInvalidConfig)
	}
	if interval <= 0 {
		return fmt.Errorf("%w: interval for %q must be positive", ErrInvalidConfig, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	s.jobs[name] = &job{
		name:     name,
		interval: interval,
		fn:       fn,
		status:   JobStatusPending,
	}
	return nil
}

// Start launches one loop per registered job
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	jobs := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, j := range jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}

	s.logger.Info("Interval scheduler started", zap.Int("jobs", len(jobs)))
	return nil
}

// Stop cancels all loops and waits for in-flight runs, bounded by ctx
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Interval scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Interval scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether Start has been called without a matching Stop
func (s *IntervalScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow executes a registered job synchronously, outside its schedule.
// It returns ErrJobRunning without running anything when the job is
// already in progress.
func (s *IntervalScheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, j)
}

// RunCount returns how many times a job has run
func (s *IntervalScheduler) RunCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[name]; ok {
		return j.runs
	}
	return 0
}

// Jobs returns a snapshot of all registered jobs sorted by name
func (s *IntervalScheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{
			Name:      j.name,
			Interval:  j.interval,
			Status:    j.status,
			Runs:      j.runs,
			Failures:  j.failures,
			LastError: j.lastError,
		}
		if j.lastRunAt != nil {
			t := *j.lastRunAt
			info.LastRunAt = &t
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Name < infos[b].Name })
	return infos
}

func (s *IntervalScheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	if s.config.RunOnStart && ctx.Err() == nil {
		s.tick(ctx, j)
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Job loop stopping", zap.String("job", j.name))
			return
		case <-ticker.C:
			// both cases can be ready at once; a stopped loop must not run
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx, j)
		}
	}
}

func (s *IntervalScheduler) tick(ctx context.Context, j *job) {
	if err := s.run(ctx, j); errors.Is(err, ErrJobRunning) {
		s.logger.Debug("Job still running, tick skipped", zap.String("job", j.name))
	}
}

// run executes a job once. Panics are recovered and reported as failures.
func (s *IntervalScheduler) run(ctx context.Context, j *job) (err error) {
	s.mu.Lock()
	if j.running {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobRunning, j.name)
	}
	j.running = true
	j.status = JobStatusRunning
	observer := s.observer
	s.mu.Unlock()

	timeout := s.config.JobTimeout
	if timeout <= 0 {
		timeout = j.interval
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
		elapsed := time.Since(start)
		s.finish(j, start, err)
		if observer != nil {
			observer(j.name, elapsed, err)
		}
	}()

	return j.fn(runCtx)
}

func (s *IntervalScheduler) finish(j *job, startedAt time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j.running = false
	j.runs++
	j.lastRunAt = &startedAt
	if err != nil {
		j.failures++
		j.status = JobStatusFailed
		j.lastError = err.Error()
		s.logger.Error("Job failed", zap.String("job", j.name), zap.Int("run", j.runs), zap.Error(err))
		return
	}
	j.status = JobStatusSuccess
	j.lastError = ""
	s.logger.Debug("Job completed", zap.String("job", j.name), zap.Int("run", j.runs))
}
