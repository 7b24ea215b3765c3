package storage

import (
	"sort"
	"sync"

	"therapy-notes/pkg/models"
)

// MemoryStore tracks live job state. Stored and returned jobs are copies, so
// callers never share a job with the pipeline worker that owns it.
type MemoryStore interface {
	StoreJob(job *models.NoteJob) error
	GetJob(id string) (*models.NoteJob, error)
	GetClientJobs(clientID string) ([]*models.NoteJob, error)
	DeleteJob(id string) error
}

type memoryStore struct {
	jobs map[string]*models.NoteJob
	mu   sync.RWMutex
}

func NewMemoryStore() MemoryStore {
	return &memoryStore{
		jobs: make(map[string]*models.NoteJob),
	}
}

func (s *memoryStore) StoreJob(job *models.NoteJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *memoryStore) GetJob(id string) (*models.NoteJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, ErrJobNotFound
	}

	return job.Clone(), nil
}

// GetClientJobs returns the client's jobs, newest first.
func (s *memoryStore) GetClientJobs(clientID string) ([]*models.NoteJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []*models.NoteJob
	for _, job := range s.jobs {
		if job.ClientID == clientID {
			jobs = append(jobs, job.Clone())
		}
	}
	sortNewestFirst(jobs)

	return jobs, nil
}

func (s *memoryStore) DeleteJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; !exists {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

func sortNewestFirst(jobs []*models.NoteJob) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].SubmittedAt.Equal(jobs[j].SubmittedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].SubmittedAt.After(jobs[j].SubmittedAt)
	})
}
