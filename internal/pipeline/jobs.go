package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of a graph-construction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusAnalyzing  JobStatus = "analyzing"
	StatusExtracting JobStatus = "extracting"
	StatusConnecting JobStatus = "connecting"
	StatusFusing     JobStatus = "fusing"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single document's graph construction.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks per-stage counts.
type Progress struct {
	TotalSections     int      `json:"total_sections"`
	SectionsExtracted int      `json:"sections_extracted"`
	FailedSections    []string `json:"failed_sections"`
	TotalPairs        int      `json:"total_pairs"`
	ConnectionsFound  int      `json:"connections_found"`
	FailedPairs       int      `json:"failed_pairs"`
	TotalNodes        int      `json:"total_nodes"`
	TotalEdges        int      `json:"total_edges"`
	Errors            []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetSections records section totals after splitting.
func (j *Job) SetSections(total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalSections = total
	j.UpdatedAt = time.Now()
}

// SetExtraction records per-section extraction results.
func (j *Job) SetExtraction(extracted int, failed []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsExtracted = extracted
	j.Progress.FailedSections = failed
	j.UpdatedAt = time.Now()
}

// SetConnections records pair-analysis results.
func (j *Job) SetConnections(totalPairs, found, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalPairs = totalPairs
	j.Progress.ConnectionsFound = found
	j.Progress.FailedPairs = failed
	j.UpdatedAt = time.Now()
}

// SetGraphSize records the fused graph totals.
func (j *Job) SetGraphSize(nodes, edges int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalNodes = nodes
	j.Progress.TotalEdges = edges
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	DocID    string    `json:"doc_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	failedSections := j.Progress.FailedSections
	if failedSections == nil {
		failedSections = []string{}
	}
	progress := j.Progress
	progress.Errors = errs
	progress.FailedSections = failedSections
	return JobSnapshot{
		ID:       j.ID,
		DocID:    j.DocID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: progress,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
