package remote

import (
	"context"

	"tgbulkdl/pkg/media"
	"tgbulkdl/pkg/models"
)

// TopicSupport is the result of a forum capability query
type TopicSupport int

const (
	// TopicSupportUnknown means the capability could not be determined
	TopicSupportUnknown TopicSupport = iota
	NoTopics
	SupportsTopics
)

func (t TopicSupport) String() string {
	switch t {
	case NoTopics:
		return "no_topics"
	case SupportsTopics:
		return "supports_topics"
	default:
		return "unknown"
	}
}

// SearchRequest asks for one page of messages with id > OffsetID in
// ascending id order
type SearchRequest struct {
	Peer     models.Entity
	Filter   media.Filter
	OffsetID int
	Limit    int
	// TopicID scopes the search to one forum topic; nil searches the whole chat
	TopicID *int
}

// ProgressFunc observes download progress. Returning an error aborts the
// download and DownloadMedia returns that error.
type ProgressFunc func(downloaded, total int64) error

// Client is everything the downloader needs from Telegram
type Client interface {
	ResolveEntity(ctx context.Context, identifier string) (*models.Entity, error)
	TopicSupport(ctx context.Context, peer models.Entity) (TopicSupport, error)
	TopicExists(ctx context.Context, peer models.Entity, topicID int) (bool, error)
	Search(ctx context.Context, req SearchRequest) ([]models.Message, error)
	DownloadMedia(ctx context.Context, peer models.Entity, msg models.Message, progress ProgressFunc) ([]byte, error)
	Close(ctx context.Context) error
}
