package jobstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/assetforge/render-be/internal/domain"
)

// MemoryStore keeps job records in process memory. It is the baseline
// store for single-process deployments and tests; records do not
// survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*domain.Job)}
}

func (s *MemoryStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		cp := *job
		jobs = append(jobs, &cp)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *MemoryStore) MarkProcessing(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status != domain.JobStatusQueued {
		return nil
	}
	job.Status = domain.JobStatusProcessing
	return nil
}

func (s *MemoryStore) Complete(ctx context.Context, jobID string, outputs map[string]domain.ArtifactRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Terminal() {
		return nil
	}

	now := time.Now().UTC()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	job.OutputRefs = make(map[string]domain.ArtifactRef, len(outputs))
	for name, ref := range outputs {
		job.OutputRefs[name] = ref
	}
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, jobID string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Terminal() {
		return nil
	}

	now := time.Now().UTC()
	job.Status = domain.JobStatusFailed
	job.CompletedAt = &now
	job.Error = errMsg
	return nil
}
