package checkpoint

import (
	"context"
	"fmt"
	"time"

	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/store"
)

// ContainerName is the store container holding jobs
const ContainerName = "state"

// Store maps job ids to jobs on top of a durable container
type Store struct {
	container store.Container
	logger    logger.Logger
}

// NewStore wraps container; log may be nil
func NewStore(container store.Container, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{
		container: container,
		logger:    log.WithField("component", "checkpoint"),
	}
}

// Get returns the job for jobID, or nil when none exists
func (s *Store) Get(jobID string) (*Job, error) {
	data, ok := s.container.Get(jobID)
	if !ok {
		return nil, nil
	}

	job, err := decodeJob(data)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	return job, nil
}

// Set stages job under jobID, replacing any previous record as a whole
func (s *Store) Set(jobID string, job *Job) error {
	if job == nil {
		return fmt.Errorf("job %s: nil job", jobID)
	}
	if err := job.validate(); err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}

	job.UpdatedAt = time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}

	data, err := encodeJob(job)
	if err != nil {
		return fmt.Errorf("job %s: failed to encode: %w", jobID, err)
	}
	job.Version = SchemaVersion

	s.container.Set(jobID, data)
	return nil
}

// Remove stages the deletion of jobID
func (s *Store) Remove(jobID string) {
	s.container.Remove(jobID)
}

// List returns every job id in ascending order
func (s *Store) List() []string {
	return s.container.List()
}

// Commit makes all staged Set and Remove calls durable
func (s *Store) Commit(ctx context.Context) error {
	if err := s.container.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	s.logger.Debug("Checkpoint committed")
	return nil
}
