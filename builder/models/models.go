// defines the data structures shared by the store, dispatcher and feeds
package models

import (
	"encoding/xml"
	"time"
)

// Post statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is a single blog entry.
// Link and Permalink are derived from the title once, at creation.
type Post struct {
	PostID       string
	Title        string
	Link         string
	Permalink    string
	Description  string // rich text / HTML
	DateCreated  time.Time
	PostStatus   string
	CommentCount int
	UserID       string
	Categories   []string
}

// IsPublished reports whether the post is visible in feeds
func (p *Post) IsPublished() bool {
	return p.PostStatus == StatusPublished
}

// StatusFor maps the publish flag sent by clients to a post status
func StatusFor(publish bool) string {
	if publish {
		return StatusPublished
	}
	return StatusDraft
}

// BlogInfo describes a blog returned by blogger.getUsersBlogs
type BlogInfo struct {
	BlogID   string `yaml:"id"`
	BlogName string `yaml:"name"`
	URL      string `yaml:"url"`
	IsAdmin  bool   `yaml:"isAdmin"`
}

// UserInfo describes an author. Password is only used by the
// directory authenticator and never leaves the process.
type UserInfo struct {
	UserID    string `yaml:"userid"`
	Nickname  string `yaml:"nickname"`
	FirstName string `yaml:"firstname"`
	LastName  string `yaml:"lastname"`
	Email     string `yaml:"email"`
	URL       string `yaml:"url"`
	Password  string `yaml:"password"`
}

// CategoryInfo is a category descriptor returned by metaWeblog.getCategories
type CategoryInfo struct {
	CategoryID  string
	Title       string
	Description string
	HTMLURL     string
	RSSURL      string
}

// MediaObjectInfo is the result of metaWeblog.newMediaObject
type MediaObjectInfo struct {
	Hash string
	Name string
	Type string
	URL  string // server-relative, e.g. /media/<hash>/<name>
}

// --- RSS Structures ---

type Rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel Channel  `xml:"channel"`
}

type Channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Items       []Item `xml:"item"`
}

type Item struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Guid        string   `xml:"guid"`
	Categories  []string `xml:"category,omitempty"`
}
