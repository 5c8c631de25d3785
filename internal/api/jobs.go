package api

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/google/uuid"
	"github.com/phrazzld/handset/internal/importer"
	"github.com/phrazzld/handset/internal/redact"
)

// JobState is the lifecycle position of an import job.
type JobState string

const (
	JobRunning   JobState = "running"
	JobDone      JobState = "done"
	JobCancelled JobState = "cancelled"
	JobFailed    JobState = "failed"
)

// maxFinishedJobs bounds how many finished jobs are remembered.
const maxFinishedJobs = 100

// Importer is the part of importer.Controller the API drives.
type Importer interface {
	ImportFromSIM(ctx context.Context, iccID string) (importer.Summary, error)
	ImportFromSDCard(ctx context.Context) (importer.Summary, error)
	ImportVCard(ctx context.Context, text string) (importer.Summary, error)
	Cancel() bool
}

// ProgressTracker exposes the overlay state of the running import.
type ProgressTracker interface {
	Snapshot() importer.Progress
	Reset()
}

// Job is one import started through the API.
type Job struct {
	ID     uuid.UUID
	Source string

	mu         sync.Mutex
	state      JobState
	summary    importer.Summary
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

func (j *Job) finish(summary importer.Summary, err error, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.summary = summary
	j.err = err
	j.finishedAt = at
	switch {
	case err != nil:
		j.state = JobFailed
	case summary.Cancelled:
		j.state = JobCancelled
	default:
		j.state = JobDone
	}
}

// State returns the job's current state.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Response renders the job. progress is attached only while running.
func (j *Job) Response(progress *importer.Progress) JobResponse {
	j.mu.Lock()
	defer j.mu.Unlock()

	resp := JobResponse{
		ID:        j.ID.String(),
		Source:    j.Source,
		State:     j.state,
		StartedAt: j.startedAt,
	}
	if j.state == JobRunning {
		resp.Progress = progress
		return resp
	}
	summary := j.summary
	resp.Summary = &summary
	finished := j.finishedAt
	resp.FinishedAt = &finished
	if j.err != nil {
		resp.Error = GetSafeErrorMessage(j.err)
	}
	return resp
}

// JobRegistry runs imports in the background, one at a time, and keeps
// their outcome for polling.
type JobRegistry struct {
	importer Importer
	tracker  ProgressTracker
	logger   *slog.Logger
	ctx      context.Context
	now      func() time.Time

	jobs *haxmap.Map[string, *Job]

	mu      sync.Mutex
	running *Job
	wg      sync.WaitGroup
}

// NewJobRegistry creates a registry. Jobs run under ctx; cancelling it
// abandons the running import. tracker may be nil.
func NewJobRegistry(ctx context.Context, imp Importer, tracker ProgressTracker, logger *slog.Logger) *JobRegistry {
	return &JobRegistry{
		importer: imp,
		tracker:  tracker,
		logger:   logger.With("component", "import_jobs"),
		ctx:      ctx,
		now:      time.Now,
		jobs:     haxmap.New[string, *Job](),
	}
}

// StartSIM imports the phonebook of the SIM card iccID.
func (r *JobRegistry) StartSIM(iccID string) (*Job, error) {
	return r.start("sim-"+iccID, func(ctx context.Context) (importer.Summary, error) {
		return r.importer.ImportFromSIM(ctx, iccID)
	})
}

// StartSDCard imports the vCard files on the memory card.
func (r *JobRegistry) StartSDCard() (*Job, error) {
	return r.start("sd", r.importer.ImportFromSDCard)
}

// StartVCard imports vCard text.
func (r *JobRegistry) StartVCard(text string) (*Job, error) {
	return r.start("vcard", func(ctx context.Context) (importer.Summary, error) {
		return r.importer.ImportVCard(ctx, text)
	})
}

func (r *JobRegistry) start(source string, run func(context.Context) (importer.Summary, error)) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running != nil {
		return nil, importer.ErrImportInProgress
	}

	job := &Job{
		ID:        uuid.New(),
		Source:    source,
		state:     JobRunning,
		startedAt: r.now().UTC(),
	}
	r.prune()
	r.jobs.Set(job.ID.String(), job)
	r.running = job
	if r.tracker != nil {
		r.tracker.Reset()
	}

	log := r.logger.With("job_id", job.ID, "source", source)
	log.Info("import job started")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		summary, err := run(r.ctx)
		job.finish(summary, err, r.now().UTC())

		r.mu.Lock()
		r.running = nil
		r.mu.Unlock()

		if err != nil {
			log.Warn("import job failed", "error", redact.Error(err))
			return
		}
		log.Info("import job finished",
			"imported", summary.Imported,
			"duplicates_merged", summary.DuplicatesMerged,
			"cancelled", summary.Cancelled)
	}()
	return job, nil
}

// Get returns the job with the given ID.
func (r *JobRegistry) Get(id uuid.UUID) (*Job, error) {
	job, ok := r.jobs.Get(id.String())
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Cancel asks the job to stop if it is still running.
func (r *JobRegistry) Cancel(id uuid.UUID) (*Job, error) {
	job, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	running := r.running == job
	r.mu.Unlock()
	if running && r.importer.Cancel() {
		r.logger.Info("import job cancel requested", "job_id", id)
	}
	return job, nil
}

// Progress returns the overlay state of the running import.
func (r *JobRegistry) Progress() *importer.Progress {
	if r.tracker == nil {
		return nil
	}
	p := r.tracker.Snapshot()
	return &p
}

// List returns all remembered jobs, newest first.
func (r *JobRegistry) List() []*Job {
	jobs := make([]*Job, 0, r.jobs.Len())
	r.jobs.ForEach(func(_ string, j *Job) bool {
		jobs = append(jobs, j)
		return true
	})
	slices.SortFunc(jobs, func(a, b *Job) int {
		return b.startedAt.Compare(a.startedAt)
	})
	return jobs
}

// Wait blocks until every started job has finished.
func (r *JobRegistry) Wait() {
	r.wg.Wait()
}

// prune drops the oldest finished jobs beyond maxFinishedJobs. Callers hold
// r.mu.
func (r *JobRegistry) prune() {
	var finished []*Job
	r.jobs.ForEach(func(_ string, j *Job) bool {
		if j.State() != JobRunning {
			finished = append(finished, j)
		}
		return true
	})
	if len(finished) < maxFinishedJobs {
		return
	}
	slices.SortFunc(finished, func(a, b *Job) int {
		return a.startedAt.Compare(b.startedAt)
	})
	for _, j := range finished[:len(finished)-maxFinishedJobs+1] {
		r.jobs.Del(j.ID.String())
	}
}
