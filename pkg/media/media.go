// Package media maps the supported media-type selectors to the search
// filters understood by the gateway and derives file extensions for
// downloaded attachments.
package media

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnsupportedMediaType is returned for selectors outside the fixed set
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// Type is one of the fixed media-type selectors
type Type string

const (
	Pictures  Type = "pictures"
	Videos    Type = "videos"
	Documents Type = "documents"
	Music     Type = "music"
	Voice     Type = "voice"
	GIFs      Type = "gifs"
)

// Filter is the remote search filter descriptor for a Type
type Filter string

const (
	FilterPhotos   Filter = "InputMessagesFilterPhotos"
	FilterVideo    Filter = "InputMessagesFilterVideo"
	FilterDocument Filter = "InputMessagesFilterDocument"
	FilterMusic    Filter = "InputMessagesFilterMusic"
	FilterVoice    Filter = "InputMessagesFilterVoice"
	FilterGif      Filter = "InputMessagesFilterGif"
)

type entry struct {
	typ    Type
	filter Filter
	label  string
}

// catalog is ordered the way the selection prompt lists choices
var catalog = []entry{
	{Pictures, FilterPhotos, "Pictures"},
	{Videos, FilterVideo, "Videos"},
	{Documents, FilterDocument, "Documents"},
	{Music, FilterMusic, "Music"},
	{Voice, FilterVoice, "Voice messages"},
	{GIFs, FilterGif, "GIFs"},
}

// All returns every supported type in prompt order
func All() []Type {
	out := make([]Type, len(catalog))
	for i, e := range catalog {
		out[i] = e.typ
	}
	return out
}

func lookup(t Type) (entry, bool) {
	for _, e := range catalog {
		if e.typ == t {
			return e, true
		}
	}
	return entry{}, false
}

// FilterFor returns the remote filter for t
func FilterFor(t Type) (Filter, error) {
	e, ok := lookup(t)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, t)
	}
	return e.filter, nil
}

// Parse accepts a selector name or a remote filter name
func Parse(s string) (Type, error) {
	v := strings.TrimSpace(s)
	for _, e := range catalog {
		if strings.EqualFold(v, string(e.typ)) || v == string(e.filter) {
			return e.typ, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, s)
}

// ParseAll parses every value, failing on the first unsupported one
func ParseAll(values []string) ([]Type, error) {
	out := make([]Type, 0, len(values))
	for _, v := range values {
		t, err := Parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Label is the human readable name shown in prompts
func (t Type) Label() string {
	if e, ok := lookup(t); ok {
		return e.label
	}
	return string(t)
}

// Valid reports whether t is in the supported set
func (t Type) Valid() bool {
	_, ok := lookup(t)
	return ok
}

// Kind describes what a message attachment is
type Kind string

const (
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
)

// Attachment describes the media carried by a message
type Attachment struct {
	Kind     Kind   `json:"kind"`
	MimeType string `json:"mime_type,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// preferred extensions for MIME types where mime.ExtensionsByType is
// ambiguous or platform dependent
var preferredExt = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/webm":      "webm",
	"audio/mpeg":      "mp3",
	"audio/mp4":       "m4a",
	"audio/ogg":       "ogg",
	"audio/x-wav":     "wav",
	"audio/wav":       "wav",
	"application/pdf": "pdf",
	"application/zip": "zip",
}

// Extension derives the output file extension, without the dot
func Extension(att *Attachment) string {
	if att == nil {
		return "bin"
	}
	if att.Kind == KindPhoto {
		return "jpg"
	}

	if ext := strings.TrimPrefix(filepath.Ext(att.FileName), "."); ext != "" {
		return strings.ToLower(ext)
	}

	mt := strings.ToLower(strings.TrimSpace(att.MimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if ext, ok := preferredExt[mt]; ok {
		return ext
	}
	if mt != "" {
		if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
			return strings.TrimPrefix(exts[0], ".")
		}
		// Fall back to the subtype, e.g. audio/x-flac -> flac
		if i := strings.IndexByte(mt, '/'); i >= 0 && i < len(mt)-1 {
			sub := strings.TrimPrefix(mt[i+1:], "x-")
			if !strings.ContainsAny(sub, "+.") {
				return sub
			}
		}
	}

	return "bin"
}
