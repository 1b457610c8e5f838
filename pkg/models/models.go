// Package models holds the domain types shared by the gateway client, the
// checkpoint store and the download engine.
package models

import (
	"strconv"
	"strings"

	"tgbulkdl/pkg/media"
)

// EntityKind is the kind of peer a chat identifier resolved to
type EntityKind string

const (
	KindUser    EntityKind = "user"
	KindChat    EntityKind = "chat"
	KindChannel EntityKind = "channel"
)

// Entity is a serializable snapshot of a resolved peer
type Entity struct {
	ID         int64      `json:"id"`
	Kind       EntityKind `json:"kind"`
	Title      string     `json:"title,omitempty"`
	Username   string     `json:"username,omitempty"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	AccessHash int64      `json:"access_hash,omitempty"`
	Forum      bool       `json:"forum,omitempty"`
}

// Key is the job identifier for this entity: its numeric id in decimal
func (e Entity) Key() string {
	return strconv.FormatInt(e.ID, 10)
}

// DisplayName picks the most readable name available
func (e Entity) DisplayName() string {
	if e.Title != "" {
		return e.Title
	}
	if name := strings.TrimSpace(e.FirstName + " " + e.LastName); name != "" {
		return name
	}
	if e.Username != "" {
		return "@" + e.Username
	}
	return e.Key()
}

// Message is one search result
type Message struct {
	ID         int               `json:"id"`
	Date       int64             `json:"date"`
	Text       string            `json:"text,omitempty"`
	Attachment *media.Attachment `json:"attachment,omitempty"`
}
