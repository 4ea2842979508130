package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/reportgen/internal/report"
)

// JobStatus represents the state of a report generation job.
type JobStatus string

const (
	StatusQueued          JobStatus = "queued"
	StatusLoadingResearch JobStatus = "loading_research"
	StatusAssembling      JobStatus = "assembling"
	StatusCompleted       JobStatus = "completed"
	StatusPartial         JobStatus = "partial"
	StatusFailed          JobStatus = "failed"
)

// Job tracks the state of a single report generation run.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Title  string    `json:"title"`

	Progress Progress `json:"progress"`

	OutputPath    string `json:"output_path,omitempty"`
	StructurePath string `json:"structure_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Request payload, not part of status responses.
	structure     *report.Structure
	researchDir   string
	includeImages bool
	errors        []string
}

// Progress tracks generation progress.
type Progress struct {
	TotalSections    int      `json:"total_sections"`
	SectionsRendered int      `json:"sections_rendered"`
	FailedSections   []string `json:"failed_sections"`
	ResearchItems    int      `json:"research_items"`
	Errors           []string `json:"errors"`
}

// NewJob creates a queued job for the given request.
func NewJob(id string, structure *report.Structure, researchDir string, includeImages bool) *Job {
	now := time.Now()
	return &Job{
		ID:            id,
		Status:        StatusQueued,
		Phase:         "queued",
		Title:         structure.Title,
		CreatedAt:     now,
		UpdatedAt:     now,
		structure:     structure,
		researchDir:   researchDir,
		includeImages: includeImages,
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

// SectionDone atomically records one committed section.
func (j *Job) SectionDone(id string, failed bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsRendered++
	if failed {
		j.Progress.FailedSections = append(j.Progress.FailedSections, id)
	}
	j.UpdatedAt = time.Now()
}

// SetTotalSections records the section count before generation starts.
func (j *Job) SetTotalSections(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalSections = n
	j.UpdatedAt = time.Now()
}

// SetResearchItems records the size of the loaded corpus.
func (j *Job) SetResearchItems(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ResearchItems = n
	j.UpdatedAt = time.Now()
}

// SetArtifacts records the output locations once the run finishes. The
// scheduler reports failures unordered, so the final sorted list replaces
// what SectionDone accumulated.
func (j *Job) SetArtifacts(outputPath, structurePath string, failed []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputPath = outputPath
	j.StructurePath = structurePath
	j.Progress.FailedSections = failed
	j.UpdatedAt = time.Now()
}

// Artifact returns the output path, or "" while the run is unfinished.
func (j *Job) Artifact() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.OutputPath
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID            string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	Phase         string    `json:"phase"`
	Title         string    `json:"title"`
	Progress      Progress  `json:"progress"`
	OutputPath    string    `json:"output_path,omitempty"`
	StructurePath string    `json:"structure_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	failed := j.Progress.FailedSections
	if failed == nil {
		failed = []string{}
	}
	return JobSnapshot{
		ID:            j.ID,
		Status:        j.Status,
		Phase:         j.Phase,
		Title:         j.Title,
		OutputPath:    j.OutputPath,
		StructurePath: j.StructurePath,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
		Progress: Progress{
			TotalSections:    j.Progress.TotalSections,
			SectionsRendered: j.Progress.SectionsRendered,
			FailedSections:   failed,
			ResearchItems:    j.Progress.ResearchItems,
			Errors:           errs,
		},
	}
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
