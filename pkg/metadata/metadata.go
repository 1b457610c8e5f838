package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"tgbulkdl/pkg/media"
	"tgbulkdl/pkg/models"
)

// FileName is the append-log kept in every output directory
const FileName = "metadata.json"

// Record describes one downloaded message
type Record struct {
	ID           int        `json:"id"`
	Date         time.Time  `json:"date"`
	Text         string     `json:"text,omitempty"`
	MediaType    media.Type `json:"media_type"`
	File         string     `json:"file"`
	Media        *Media     `json:"media,omitempty"`
	DownloadedAt time.Time  `json:"downloaded_at"`
}

// Media is the attachment part of a Record
type Media struct {
	Kind     media.Kind `json:"kind"`
	MimeType string     `json:"mime_type,omitempty"`
	FileName string     `json:"file_name,omitempty"`
	Size     int64      `json:"size,omitempty"`
}

// FromMessage builds the record for msg saved as file
func FromMessage(msg models.Message, mediaType media.Type, file string) *Record {
	rec := &Record{
		ID:           msg.ID,
		Date:         time.Unix(msg.Date, 0).UTC(),
		Text:         msg.Text,
		MediaType:    mediaType,
		File:         file,
		DownloadedAt: time.Now().UTC(),
	}
	if a := msg.Attachment; a != nil {
		rec.Media = &Media{
			Kind:     a.Kind,
			MimeType: a.MimeType,
			FileName: a.FileName,
			Size:     a.Size,
		}
	}
	return rec
}

// Log appends records to {dir}/metadata.json while keeping the file a
// valid JSON array. Each append rewrites only the closing bracket.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog returns the log for dir; nothing is created until Append
func NewLog(dir string) *Log {
	return &Log{path: filepath.Join(dir, FileName)}
}

// Path returns the log file path
func (l *Log) Path() string {
	return l.path
}

// Append adds rec as the last element of the array
func (l *Log) Append(rec *Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(rec, "  ", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	pos, empty, err := closingBracket(f)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if pos < 0 {
		buf.WriteString("[\n  ")
		pos = 0
	} else if empty {
		buf.WriteString("\n  ")
	} else {
		buf.WriteString(",\n  ")
	}
	buf.Write(data)
	buf.WriteString("\n]\n")

	if err := f.Truncate(pos); err != nil {
		return fmt.Errorf("failed to truncate metadata file: %w", err)
	}
	if _, err := f.WriteAt(buf.Bytes(), pos); err != nil {
		return fmt.Errorf("failed to append metadata: %w", err)
	}
	return nil
}

// tailSize bounds how much of the file end closingBracket inspects
const tailSize = 4096

// closingBracket returns the offset of the array's closing bracket and
// whether the array is empty. A missing or blank file yields -1.
func closingBracket(f *os.File) (int64, bool, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, false, fmt.Errorf("failed to stat metadata file: %w", err)
	}
	size := info.Size()

	start := size - tailSize
	if start < 0 {
		start = 0
	}
	tail := make([]byte, size-start)
	if _, err := f.ReadAt(tail, start); err != nil && !errors.Is(err, io.EOF) {
		return 0, false, fmt.Errorf("failed to read metadata file: %w", err)
	}

	trimmed := bytes.TrimRight(tail, " \t\r\n")
	if len(trimmed) == 0 && start == 0 {
		return -1, false, nil
	}
	if len(trimmed) == 0 || trimmed[len(trimmed)-1] != ']' {
		return 0, false, fmt.Errorf("%s is not a JSON array", f.Name())
	}

	idx := len(trimmed) - 1
	before := bytes.TrimRight(trimmed[:idx], " \t\r\n")
	empty := len(before) > 0 && before[len(before)-1] == '['
	return start + int64(idx), empty, nil
}

// Load reads every record of the log in dir
func Load(dir string) ([]Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return records, nil
}

// legacyItem is a message serialized by the original downloader
type legacyItem struct {
	Media struct {
		Document struct {
			Attributes []struct {
				ClassName string `json:"className"`
				FileName  string `json:"fileName"`
			} `json:"attributes"`
		} `json:"document"`
	} `json:"media"`
}

// FilenameMap maps message ids to the attachment's original file name
// without extension. Both this tool's records and the original
// downloader's serialized messages are understood.
func FilenameMap(dir string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	names := make(map[string]string)
	for _, raw := range items {
		var head struct {
			ID    json.Number `json:"id"`
			Media *Media      `json:"media"`
		}
		if err := json.Unmarshal(raw, &head); err != nil || head.ID == "" {
			continue
		}
		id := head.ID.String()

		if head.Media != nil && head.Media.FileName != "" {
			names[id] = stripExt(head.Media.FileName)
			continue
		}

		var legacy legacyItem
		if err := json.Unmarshal(raw, &legacy); err != nil {
			continue
		}
		for _, attr := range legacy.Media.Document.Attributes {
			if attr.ClassName == "DocumentAttributeFilename" && attr.FileName != "" {
				names[id] = stripExt(attr.FileName)
				break
			}
		}
	}
	return names, nil
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// MessageID parses a downloaded file's base name back into a message id
func MessageID(file string) (int, bool) {
	id, err := strconv.Atoi(stripExt(filepath.Base(file)))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
