// Package store provides the durable post store: a BoltDB file holding one
// msgpack record per post, written with fsync before every mutation returns.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/csantero/MetaWeblogPortable/builder/models"
)

// CategoryDelimiter joins categories in the persisted record.
// Names containing it are rejected.
const CategoryDelimiter = ";"

// PostRecord is the persisted form of a post
type PostRecord struct {
	PostID       string    `msgpack:"post_id"`
	Title        string    `msgpack:"title"`
	Link         string    `msgpack:"link"`
	Permalink    string    `msgpack:"permalink"`
	Description  string    `msgpack:"description"`
	DateCreated  time.Time `msgpack:"date_created"`
	PostStatus   string    `msgpack:"post_status"`
	CommentCount int       `msgpack:"comment_count"`
	UserID       string    `msgpack:"user_id"`
	Categories   string    `msgpack:"categories"` // CategoryDelimiter-joined
}

// StoreStats holds runtime statistics
type StoreStats struct {
	TotalPosts    int
	WriteCount    int64
	LastWrite     time.Time
	SchemaVersion int
	Path          string
}

func newRecord(p *models.Post) *PostRecord {
	return &PostRecord{
		PostID:       p.PostID,
		Title:        p.Title,
		Link:         p.Link,
		Permalink:    p.Permalink,
		Description:  p.Description,
		DateCreated:  p.DateCreated,
		PostStatus:   p.PostStatus,
		CommentCount: p.CommentCount,
		UserID:       p.UserID,
		Categories:   joinCategories(p.Categories),
	}
}

func (r *PostRecord) toPost() *models.Post {
	return &models.Post{
		PostID:       r.PostID,
		Title:        r.Title,
		Link:         r.Link,
		Permalink:    r.Permalink,
		Description:  r.Description,
		DateCreated:  r.DateCreated,
		PostStatus:   r.PostStatus,
		CommentCount: r.CommentCount,
		UserID:       r.UserID,
		Categories:   splitCategories(r.Categories),
	}
}

// normalizeCategories trims names and drops empty ones
func normalizeCategories(cats []string) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func validateCategories(cats []string) error {
	for _, c := range cats {
		if strings.Contains(c, CategoryDelimiter) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidCategory, c, CategoryDelimiter)
		}
	}
	return nil
}

func joinCategories(cats []string) string {
	return strings.Join(normalizeCategories(cats), CategoryDelimiter)
}

func splitCategories(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return normalizeCategories(strings.Split(s, CategoryDelimiter))
}

// Encode serializes a value to msgpack bytes
func Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes msgpack bytes to a value
func Decode(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}
