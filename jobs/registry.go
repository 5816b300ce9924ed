// Package jobs tracks the lifecycle of in-flight ingestion jobs.
//
// The registry is the single piece of shared mutable state between the
// background ingestion tasks and external status/cancel queries, so every
// operation is serialized behind one mutex. It is an explicit service
// object: construct it once and pass it by handle, never a package global.
package jobs

import (
	"sync"
	"time"
)

// Status is the lifecycle state of an ingestion job.
type Status string

const (
	// StatusProcessing means the job is running.
	StatusProcessing Status = "processing"
	// StatusCancelling means cancellation was requested; the job stops at
	// its next page or window boundary and stays in this state.
	StatusCancelling Status = "cancelling"
	// StatusCompleted means every page was ingested.
	StatusCompleted Status = "completed"
	// StatusFailed means the job stopped on an error.
	StatusFailed Status = "failed"
)

// Terminal reports whether s is an end state for a job.
// A cancelled job terminates in StatusCancelling with Cancelled set.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelling
}

// Record is the lifecycle record of one ingestion job, keyed by book name.
type Record struct {
	BookName    string
	Status      Status
	CurrentPage int
	TotalPages  int
	Cancelled   bool
	Error       string
	LastUpdated time.Time
}

// Registry is a keyed job state machine safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Record
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Record)}
}

// Start registers a new job, or re-initializes the record if the key is
// already present. Restarting a job with the same key is the intended
// idempotent-retry behavior when a book is uploaded again.
func (r *Registry) Start(bookName string, totalPages int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[bookName] = &Record{
		BookName:    bookName,
		Status:      StatusProcessing,
		CurrentPage: 0,
		TotalPages:  totalPages,
		LastUpdated: time.Now().UTC(),
	}
}

// UpdateProgress records the current page for a job. Unknown keys are a
// no-op. The page is clamped to the job's total.
func (r *Registry) UpdateProgress(bookName string, currentPage int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[bookName]
	if !ok {
		return
	}
	if job.TotalPages > 0 && currentPage > job.TotalPages {
		currentPage = job.TotalPages
	}
	job.CurrentPage = currentPage
	job.LastUpdated = time.Now().UTC()
}

// Complete marks a job as completed. Unknown keys are a no-op. A job whose
// cancellation was requested stays in StatusCancelling: a cancel that races
// the final window must never surface as a completed job.
func (r *Registry) Complete(bookName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[bookName]
	if !ok || job.Cancelled {
		return
	}
	job.Status = StatusCompleted
	job.LastUpdated = time.Now().UTC()
}

// Fail marks a job as failed and records the error. Unknown keys are a no-op.
func (r *Registry) Fail(bookName string, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[bookName]; ok {
		job.Status = StatusFailed
		job.Error = errMsg
		job.LastUpdated = time.Now().UTC()
	}
}

// RequestCancel flags a job for cooperative cancellation and reports whether
// the key existed. The flag is monotonic: once set it is never cleared for
// the lifetime of the record.
func (r *Registry) RequestCancel(bookName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[bookName]
	if !ok {
		return false
	}
	job.Cancelled = true
	job.Status = StatusCancelling
	job.LastUpdated = time.Now().UTC()
	return true
}

// IsCancelled reports whether cancellation was requested for a job.
// Unknown keys report false.
func (r *Registry) IsCancelled(bookName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[bookName]
	return ok && job.Cancelled
}

// Status returns a copy of a job's record and whether the key exists.
func (r *Registry) Status(bookName string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[bookName]
	if !ok {
		return Record{}, false
	}
	return *job, true
}

// List returns copies of every job record, in no particular order.
func (r *Registry) List() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	return out
}

// Evict removes terminal records whose LastUpdated is older than the cutoff
// and returns how many were removed. Records are otherwise retained for the
// process lifetime; callers own the retention policy.
func (r *Registry) Evict(olderThan time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, job := range r.jobs {
		if job.Status.Terminal() && job.LastUpdated.Before(olderThan) {
			delete(r.jobs, key)
			removed++
		}
	}
	return removed
}
