// Package feed renders published posts as RSS 2.0.
package feed

import (
	"bytes"
	"encoding/xml"
	"net/url"
	"sort"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/csantero/MetaWeblogPortable/builder/models"
)

// Options describe the channel
type Options struct {
	Title       string
	Description string
	BaseURL     string
	MaxItems    int
}

// Generator is safe for concurrent use
type Generator struct {
	opts   Options
	policy *bluemonday.Policy
}

func NewGenerator(opts Options) *Generator {
	if opts.MaxItems <= 0 {
		opts.MaxItems = 20
	}
	return &Generator{
		opts:   opts,
		policy: bluemonday.UGCPolicy(),
	}
}

// PostURL is where a post's link resolves on the public site
func (g *Generator) PostURL(p *models.Post) string {
	return g.opts.BaseURL + "/" + url.PathEscape(p.Link)
}

// CategoryURL is the HTML listing of a category
func (g *Generator) CategoryURL(name string) string {
	return g.opts.BaseURL + "/category/" + url.PathEscape(name)
}

// CategoryFeedURL is the RSS feed of a category
func (g *Generator) CategoryFeedURL(name string) string {
	return g.CategoryURL(name) + "/rss.xml"
}

// Render writes the feed for all published posts, newest first
func (g *Generator) Render(posts []*models.Post) ([]byte, error) {
	return g.render(g.opts.Title, g.opts.BaseURL+"/", g.opts.Description, posts)
}

// RenderCategory writes the feed for one category
func (g *Generator) RenderCategory(name string, posts []*models.Post) ([]byte, error) {
	return g.render(g.opts.Title+": "+name, g.CategoryURL(name), g.opts.Description, posts)
}

func (g *Generator) render(title, link, description string, posts []*models.Post) ([]byte, error) {
	published := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsPublished() {
			published = append(published, p)
		}
	}
	sort.SliceStable(published, func(i, j int) bool {
		if published[i].DateCreated.Equal(published[j].DateCreated) {
			return published[i].PostID > published[j].PostID
		}
		return published[i].DateCreated.After(published[j].DateCreated)
	})
	if len(published) > g.opts.MaxItems {
		published = published[:g.opts.MaxItems]
	}

	items := make([]models.Item, 0, len(published))
	for _, p := range published {
		link := g.PostURL(p)
		items = append(items, models.Item{
			Title:       p.Title,
			Link:        link,
			Description: g.policy.Sanitize(p.Description),
			PubDate:     p.DateCreated.UTC().Format(time.RFC1123Z),
			Guid:        link,
			Categories:  p.Categories,
		})
	}

	rss := models.Rss{
		Version: "2.0",
		Channel: models.Channel{
			Title:       title,
			Link:        link,
			Description: description,
			Items:       items,
		},
	}
	output, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(xml.Header) + len(output))
	buf.WriteString(xml.Header)
	buf.Write(output)
	return buf.Bytes(), nil
}
