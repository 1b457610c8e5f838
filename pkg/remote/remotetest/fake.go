// Package remotetest provides an in-memory remote.Client for tests.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	errs "tgbulkdl/pkg/errors"
	"tgbulkdl/pkg/media"
	"tgbulkdl/pkg/models"
	"tgbulkdl/pkg/remote"
)

// Client serves entities and messages from maps and records every call.
// Zero values behave like an empty account.
type Client struct {
	mu sync.Mutex

	// Entities maps identifiers as typed by the user to entities
	Entities map[string]*models.Entity
	// Topics holds the capability reported per entity id
	Topics map[int64]remote.TopicSupport
	// TopicErr is returned with TopicSupportUnknown per entity id
	TopicErr map[int64]error
	// ExistingTopics lists valid topic ids per entity id
	ExistingTopics map[int64][]int
	// Messages holds every message per filter
	Messages map[media.Filter][]models.Message
	// FailDownload makes the download of a message id fail
	FailDownload map[int]error
	// SearchErr, when set, is returned by every Search
	SearchErr error
	// IgnoreOffset answers every search from the first message
	IgnoreOffset bool

	// OnSearch runs before a search is answered
	OnSearch func(req remote.SearchRequest)
	// OnDownload runs mid-transfer; a non-nil error aborts the download
	OnDownload func(msg models.Message, progress remote.ProgressFunc) error

	Resolved  []string
	Searches  []remote.SearchRequest
	Downloads []int
	Closes    int
}

var _ remote.Client = (*Client)(nil)

// New returns an empty fake
func New() *Client {
	return &Client{
		Entities:       make(map[string]*models.Entity),
		Topics:         make(map[int64]remote.TopicSupport),
		TopicErr:       make(map[int64]error),
		ExistingTopics: make(map[int64][]int),
		Messages:       make(map[media.Filter][]models.Message),
		FailDownload:   make(map[int]error),
	}
}

// AddMessages appends messages with the given ids under t's filter.
// Photos get a photo attachment, every other type a document named
// after the id.
func (c *Client) AddMessages(t media.Type, ids ...int) {
	filter, err := media.FilterFor(t)
	if err != nil {
		panic(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		att := &media.Attachment{Kind: media.KindPhoto, Size: int64(len(Content(id)))}
		if t != media.Pictures {
			att = &media.Attachment{
				Kind:     media.KindDocument,
				FileName: fmt.Sprintf("file-%d.bin", id),
				Size:     int64(len(Content(id))),
			}
		}
		c.Messages[filter] = append(c.Messages[filter], models.Message{ID: id, Date: int64(1700000000 + id), Attachment: att})
	}
}

// Range returns the ids from..to inclusive
func Range(from, to int) []int {
	ids := make([]int, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Content is the payload served for a message id
func Content(id int) []byte {
	return []byte(fmt.Sprintf("content-%d", id))
}

func (c *Client) ResolveEntity(ctx context.Context, identifier string) (*models.Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Resolved = append(c.Resolved, identifier)
	key := strings.TrimPrefix(strings.TrimSpace(identifier), "@")
	if e, ok := c.Entities[key]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, errs.New(errs.ErrorTypeNotFound, 404, "no entity for %q", identifier)
}

func (c *Client) TopicSupport(ctx context.Context, peer models.Entity) (remote.TopicSupport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err, ok := c.TopicErr[peer.ID]; ok {
		return remote.TopicSupportUnknown, err
	}
	if s, ok := c.Topics[peer.ID]; ok {
		return s, nil
	}
	return remote.NoTopics, nil
}

func (c *Client) TopicExists(ctx context.Context, peer models.Entity, topicID int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.ExistingTopics[peer.ID] {
		if id == topicID {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) Search(ctx context.Context, req remote.SearchRequest) ([]models.Message, error) {
	if c.OnSearch != nil {
		c.OnSearch(req)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Searches = append(c.Searches, req)
	if c.SearchErr != nil {
		return nil, c.SearchErr
	}

	all := append([]models.Message(nil), c.Messages[req.Filter]...)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	var page []models.Message
	for _, msg := range all {
		if !c.IgnoreOffset && msg.ID <= req.OffsetID {
			continue
		}
		page = append(page, msg)
		if len(page) == req.Limit {
			break
		}
	}
	return page, nil
}

func (c *Client) DownloadMedia(ctx context.Context, peer models.Entity, msg models.Message, progress remote.ProgressFunc) ([]byte, error) {
	c.mu.Lock()
	c.Downloads = append(c.Downloads, msg.ID)
	failErr := c.FailDownload[msg.ID]
	hook := c.OnDownload
	c.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}

	data := Content(msg.ID)
	total := int64(len(data))
	if progress == nil {
		progress = func(int64, int64) error { return nil }
	}

	if err := progress(0, total); err != nil {
		return nil, err
	}
	if hook != nil {
		if err := hook(msg, progress); err != nil {
			return nil, err
		}
	}
	if err := progress(total, total); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closes++
	return nil
}

// DownloadCount returns how many downloads were attempted
func (c *Client) DownloadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Downloads)
}
