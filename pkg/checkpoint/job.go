package checkpoint

import (
	"errors"
	"fmt"
	"time"

	"tgbulkdl/pkg/media"
	"tgbulkdl/pkg/models"
)

// SchemaVersion is the version written by Set
const SchemaVersion = 1

var (
	// ErrCursorNotFound is returned when a job has no cursor for a media type
	ErrCursorNotFound = errors.New("cursor not found")
	// ErrOffsetDecrease is returned when a cursor would move backwards
	ErrOffsetDecrease = errors.New("cursor offset cannot decrease")
	// ErrJobNotFound is returned when no job exists for an id
	ErrJobNotFound = errors.New("job not found")
)

// Cursor is the resume position for one media type.
// Offset is the id of the last processed message, 0 when not started.
type Cursor struct {
	Type   media.Type `json:"type"`
	Offset int        `json:"offset"`
}

// Job is the persisted state for one chat and optional topic
type Job struct {
	Version     int           `json:"version"`
	DisplayName string        `json:"display_name"`
	Entity      models.Entity `json:"entity"`
	OutputDir   string        `json:"output_dir"`
	Metadata    bool          `json:"metadata"`
	OriginalID  string        `json:"original_id"`
	ThreadID    *int          `json:"thread_id,omitempty"`
	MediaTypes  []Cursor      `json:"media_types"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewJob creates a job with one cursor at offset 0 per type, in the given order
func NewJob(entity models.Entity, originalID, outputDir string, metadata bool, threadID *int, types []media.Type) *Job {
	cursors := make([]Cursor, 0, len(types))
	for _, t := range types {
		cursors = append(cursors, Cursor{Type: t})
	}

	now := time.Now().UTC()
	return &Job{
		Version:     SchemaVersion,
		DisplayName: entity.DisplayName(),
		Entity:      entity,
		OutputDir:   outputDir,
		Metadata:    metadata,
		OriginalID:  originalID,
		ThreadID:    threadID,
		MediaTypes:  cursors,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Cursor returns the cursor for t
func (j *Job) Cursor(t media.Type) (Cursor, bool) {
	for _, c := range j.MediaTypes {
		if c.Type == t {
			return c, true
		}
	}
	return Cursor{}, false
}

// AdvanceCursor moves the cursor for t forward to offset
func (j *Job) AdvanceCursor(t media.Type, offset int) error {
	for i := range j.MediaTypes {
		if j.MediaTypes[i].Type != t {
			continue
		}
		if offset < j.MediaTypes[i].Offset {
			return fmt.Errorf("%w: %s from %d to %d", ErrOffsetDecrease, t, j.MediaTypes[i].Offset, offset)
		}
		j.MediaTypes[i].Offset = offset
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCursorNotFound, t)
}

// RemoveCursor drops the cursor for t and reports whether it existed
func (j *Job) RemoveCursor(t media.Type) bool {
	for i, c := range j.MediaTypes {
		if c.Type == t {
			j.MediaTypes = append(j.MediaTypes[:i], j.MediaTypes[i+1:]...)
			return true
		}
	}
	return false
}

// Pending lists the media types that still have a cursor, in order
func (j *Job) Pending() []media.Type {
	out := make([]media.Type, 0, len(j.MediaTypes))
	for _, c := range j.MediaTypes {
		out = append(out, c.Type)
	}
	return out
}

// Label is the job's name in the resume menu
func (j *Job) Label(jobID string) string {
	name := j.DisplayName
	if name == "" {
		name = jobID
	}
	if j.ThreadID != nil {
		return fmt.Sprintf("%s (Topic ID: %d)", name, *j.ThreadID)
	}
	return name
}

// Handle is the identifier to re-resolve the entity with. The canonical
// username survives renames, so it wins over what the user typed.
func (j *Job) Handle() string {
	if j.Entity.Username != "" {
		return j.Entity.Username
	}
	return j.OriginalID
}

func (j *Job) validate() error {
	seen := make(map[media.Type]bool, len(j.MediaTypes))
	for _, c := range j.MediaTypes {
		if !c.Type.Valid() {
			return fmt.Errorf("%w: %q", media.ErrUnsupportedMediaType, c.Type)
		}
		if seen[c.Type] {
			return fmt.Errorf("duplicate cursor for %s", c.Type)
		}
		if c.Offset < 0 {
			return fmt.Errorf("negative offset %d for %s", c.Offset, c.Type)
		}
		seen[c.Type] = true
	}
	if j.ThreadID != nil && *j.ThreadID <= 0 {
		return fmt.Errorf("invalid topic id %d", *j.ThreadID)
	}
	return nil
}
