package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"langpredict/pkg/logger"
)

// maxJobHistory bounds the number of finished reload jobs kept for Stats
const maxJobHistory = 32

// JobStatus represents the status of a reload job
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ReloadJob is one run of the profile reload
type ReloadJob struct {
	ID        uuid.UUID  `json:"id"`
	Trigger   string     `json:"trigger"`
	StartedAt time.Time  `json:"started_at"`
	Status    JobStatus  `json:"status"`
	Result    *JobResult `json:"result,omitempty"`
}

// JobResult holds the result of a reload job
type JobResult struct {
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Changed     bool          `json:"changed"`
	CompletedAt time.Time     `json:"completed_at"`
}

// Scheduler reloads the profile registry on a fixed interval so retrained
// profiles are picked up without a restart.
type Scheduler struct {
	registry *ProfileRegistry
	interval time.Duration
	logger   *logger.Logger

	mu      sync.RWMutex
	jobs    []*ReloadJob
	running bool
	stopCh  chan struct{}
}

// NewScheduler creates a new Scheduler
func NewScheduler(registry *ProfileRegistry, interval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		registry: registry,
		interval: interval,
		logger:   log.WithComponent("scheduler"),
		stopCh:   make(chan struct{}),
	}
}

// Start runs the reload loop until ctx is done or Stop is called. A
// non-positive interval returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			if _, err := s.RunNow(ctx, "interval"); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled reload failed, keeping current set")
			}
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	close(s.stopCh)
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow reloads the profiles immediately and records the job. The returned
// error is the reload error, also summarized in the job result.
func (s *Scheduler) RunNow(ctx context.Context, trigger string) (*ReloadJob, error) {
	job := &ReloadJob{
		ID:        uuid.New(),
		Trigger:   trigger,
		StartedAt: time.Now(),
		Status:    JobStatusRunning,
	}
	s.record(job)

	var before string
	if set := s.registry.Current(); set != nil {
		before = set.Fingerprint()
	}

	info, err := s.registry.Reload(ctx)

	result := &JobResult{
		Duration:    time.Since(job.StartedAt),
		CompletedAt: time.Now(),
	}
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Success = true
		result.Fingerprint = info.Fingerprint
		result.Changed = info.Fingerprint != before
	}

	s.mu.Lock()
	job.Result = result
	if result.Success {
		job.Status = JobStatusCompleted
	} else {
		job.Status = JobStatusFailed
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("job_id", job.ID.String()).
		Str("trigger", trigger).
		Bool("success", result.Success).
		Bool("changed", result.Changed).
		Dur("duration", result.Duration).
		Msg("reload job completed")

	return job, err
}

func (s *Scheduler) record(job *ReloadJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	if len(s.jobs) > maxJobHistory {
		s.jobs = s.jobs[len(s.jobs)-maxJobHistory:]
	}
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := SchedulerStats{
		Running:   s.running,
		Interval:  s.interval,
		TotalJobs: len(s.jobs),
	}

	for _, job := range s.jobs {
		switch job.Status {
		case JobStatusRunning:
			stats.RunningJobs++
		case JobStatusCompleted:
			stats.CompletedJobs++
		case JobStatusFailed:
			stats.FailedJobs++
		}
	}
	if n := len(s.jobs); n > 0 {
		last := *s.jobs[n-1]
		stats.LastJob = &last
	}

	return stats
}

// SchedulerStats holds scheduler statistics
type SchedulerStats struct {
	Running       bool          `json:"running"`
	Interval      time.Duration `json:"interval"`
	TotalJobs     int           `json:"total_jobs"`
	RunningJobs   int           `json:"running_jobs"`
	CompletedJobs int           `json:"completed_jobs"`
	FailedJobs    int           `json:"failed_jobs"`
	LastJob       *ReloadJob    `json:"last_job,omitempty"`
}
