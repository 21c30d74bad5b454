package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guarzo/sellsync/internal/model"
)

// JobState is the lifecycle of one background sync job.
type JobState string

const (
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Job is the queryable record of one triggered sync run. The HTTP surface
// hands the id back immediately and the run continues in the background.
type Job struct {
	ID         string            `json:"id"`
	State      JobState          `json:"state"`
	DaysBack   int               `json:"daysBack"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	Result     *model.SyncResult `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Runner launches sync runs as background jobs and keeps their records
// for status queries. Records live in memory; a restart forgets finished
// jobs, which is fine because the sync itself is idempotent.
type Runner struct {
	svc *Service
	log zerolog.Logger

	mu   stdsync.Mutex
	jobs map[string]*Job
}

// NewRunner creates a runner around the orchestrator.
func NewRunner(svc *Service, log zerolog.Logger) *Runner {
	return &Runner{
		svc:  svc,
		log:  log.With().Str("component", "sync.runner").Logger(),
		jobs: make(map[string]*Job),
	}
}

// Trigger starts a sync in the background and returns its job record.
// Fails fast with ErrSyncInProgress when a run is active and opts.Force
// is unset.
func (r *Runner) Trigger(accessToken string, opts Options) (*Job, error) {
	if r.svc.IsActive() && !opts.Force {
		return nil, ErrSyncInProgress
	}

	opts = opts.withDefaults()
	job := &Job{
		ID:        uuid.NewString(),
		State:     JobRunning,
		DaysBack:  opts.DaysBack,
		StartedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	snapshot := *job

	go func() {
		// The triggering request is long gone by the time the run ends;
		// the job owns its own lifetime.
		result, err := r.svc.Run(context.Background(), accessToken, opts)

		r.mu.Lock()
		defer r.mu.Unlock()

		now := time.Now()
		job.FinishedAt = &now
		if err != nil {
			job.State = JobFailed
			job.Error = err.Error()
			r.log.Error().Err(err).Str("jobID", job.ID).Msg("sync job failed")
			return
		}
		job.Result = result
		if result.Success {
			job.State = JobCompleted
		} else {
			job.State = JobFailed
		}
		r.log.Info().
			Str("jobID", job.ID).
			Bool("success", result.Success).
			Int("new", result.NewTransactions).
			Int("updated", result.UpdatedTransactions).
			Msg("sync job finished")
	}()

	return &snapshot, nil
}

// Get returns the job record for an id.
func (r *Runner) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}
