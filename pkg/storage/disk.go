package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"therapy-notes/pkg/models"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrNoteNotFound = errors.New("note not found")
)

const (
	jobPrefix  = "job:"
	notePrefix = "note:"
)

// DiskStore persists finished jobs and their rendered notes.
type DiskStore interface {
	StoreJob(job *models.NoteJob) error
	GetJob(id string) (*models.NoteJob, error)
	ListClientJobs(clientID string) ([]*models.NoteJob, error)
	StoreNote(jobID, html string) error
	GetNote(jobID string) (string, error)
	Close() error
}

type diskStore struct {
	db *badger.DB
}

func NewDiskStore(path string) (DiskStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(path, "badger"))
	opts.Logger = badgerLogger{}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &diskStore{db: db}, nil
}

func (s *diskStore) StoreJob(job *models.NoteJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(jobPrefix+job.ID), data)
	})
}

func (s *diskStore) GetJob(id string) (*models.NoteJob, error) {
	var job models.NoteJob

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(jobPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &job)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ListClientJobs scans every stored job and keeps the client's, newest first.
func (s *diskStore) ListClientJobs(clientID string) ([]*models.NoteJob, error) {
	var jobs []*models.NoteJob

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var job models.NoteJob
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &job)
			}); err != nil {
				return fmt.Errorf("failed to decode %s: %w", it.Item().Key(), err)
			}
			if job.ClientID == clientID {
				jobs = append(jobs, &job)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(jobs)
	return jobs, nil
}

func (s *diskStore) StoreNote(jobID, html string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(notePrefix+jobID), []byte(html))
	})
}

func (s *diskStore) GetNote(jobID string) (string, error) {
	var html []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(notePrefix + jobID))
		if err != nil {
			return err
		}
		html, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNoteNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get note: %w", err)
	}

	return string(html), nil
}

func (s *diskStore) Close() error {
	return s.db.Close()
}
