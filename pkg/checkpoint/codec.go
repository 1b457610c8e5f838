package checkpoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tgbulkdl/pkg/media"
	"tgbulkdl/pkg/models"
)

// ErrUnsupportedSchema is returned for records this build cannot read
var ErrUnsupportedSchema = errors.New("unsupported job schema")

// encodeJob serializes a job in the current schema
func encodeJob(job *Job) ([]byte, error) {
	out := *job
	out.Version = SchemaVersion
	return json.Marshal(&out)
}

// decodeJob reads a stored record, migrating legacy records in memory
func decodeJob(data []byte) (*Job, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}

	rawVersion, versioned := probe["version"]
	if !versioned {
		return decodeLegacy(data)
	}

	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil {
		return nil, fmt.Errorf("%w: bad version field", ErrUnsupportedSchema)
	}
	if version != SchemaVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedSchema, version)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var job Job
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	if err := job.validate(); err != nil {
		return nil, fmt.Errorf("invalid job record: %w", err)
	}
	return &job, nil
}

// legacyJob is the unversioned camelCase record layout
type legacyJob struct {
	DisplayName string                     `json:"displayName"`
	EntityJSON  map[string]json.RawMessage `json:"entityJson"`
	OutPath     string                     `json:"outPath"`
	Metadata    bool                       `json:"metadata"`
	MediaTypes  []struct {
		Type   string `json:"type"`
		Offset int    `json:"offset"`
	} `json:"mediaTypes"`
	OriginalID json.RawMessage `json:"originalId"`
	ThreadID   json.RawMessage `json:"threadId"`
}

func decodeLegacy(data []byte) (*Job, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var legacy legacyJob
	if err := dec.Decode(&legacy); err != nil {
		return nil, fmt.Errorf("%w: unrecognised record: %v", ErrUnsupportedSchema, err)
	}
	if legacy.MediaTypes == nil || legacy.OutPath == "" {
		return nil, fmt.Errorf("%w: unrecognised record", ErrUnsupportedSchema)
	}

	job := &Job{
		Version:     SchemaVersion,
		DisplayName: legacy.DisplayName,
		Entity:      legacyEntity(legacy.EntityJSON),
		OutputDir:   legacy.OutPath,
		Metadata:    legacy.Metadata,
		OriginalID:  rawString(legacy.OriginalID),
		MediaTypes:  make([]Cursor, 0, len(legacy.MediaTypes)),
	}

	for _, c := range legacy.MediaTypes {
		t, err := media.Parse(c.Type)
		if err != nil {
			return nil, fmt.Errorf("legacy job: %w", err)
		}
		job.MediaTypes = append(job.MediaTypes, Cursor{Type: t, Offset: c.Offset})
	}

	if id, ok := rawInt(legacy.ThreadID); ok && id > 0 {
		topic := int(id)
		job.ThreadID = &topic
	}

	if job.DisplayName == "" {
		job.DisplayName = job.Entity.DisplayName()
	}
	job.UpdatedAt = time.Now().UTC()
	job.CreatedAt = job.UpdatedAt

	if err := job.validate(); err != nil {
		return nil, fmt.Errorf("invalid legacy job: %w", err)
	}
	return job, nil
}

// legacyEntity extracts what it can from a serialized client entity.
// Numeric ids were written as strings or numbers depending on their size.
func legacyEntity(raw map[string]json.RawMessage) models.Entity {
	var e models.Entity
	if raw == nil {
		return e
	}
	if id, ok := rawInt(raw["id"]); ok {
		e.ID = id
	}
	if hash, ok := rawInt(raw["accessHash"]); ok {
		e.AccessHash = hash
	}
	e.Title = rawString(raw["title"])
	e.Username = rawString(raw["username"])
	e.FirstName = rawString(raw["firstName"])
	e.LastName = rawString(raw["lastName"])

	switch rawString(raw["className"]) {
	case "User":
		e.Kind = models.KindUser
	case "Chat", "ChatForbidden":
		e.Kind = models.KindChat
	case "Channel", "ChannelForbidden":
		e.Kind = models.KindChannel
	}
	if forum, err := strconv.ParseBool(string(raw["forum"])); err == nil {
		e.Forum = forum
	}
	return e
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func rawInt(raw json.RawMessage) (int64, bool) {
	s := rawString(raw)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
