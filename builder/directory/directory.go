// Package directory holds the blogs, users and seed categories served by
// blogger.getUsersBlogs, blogger.getUserInfo and metaWeblog.getCategories.
// The data lives in a YAML file and can be reloaded while the server runs.
package directory

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/csantero/MetaWeblogPortable/builder/models"
)

// Category is a configured category that is listed even before any post uses it
type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// File is the on-disk layout of directory.yaml
type File struct {
	Blogs      []models.BlogInfo `yaml:"blogs"`
	Users      []models.UserInfo `yaml:"users"`
	Categories []Category        `yaml:"categories"`
}

// Default is served when no directory file exists
func Default() *File {
	return &File{
		Blogs: []models.BlogInfo{
			{BlogID: "1", BlogName: "MetaWeblog", URL: "/", IsAdmin: true},
		},
	}
}

// Directory is safe for concurrent use; Reload swaps the whole snapshot.
type Directory struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	data *File
}

// New returns a directory serving data without a backing file.
func New(data *File, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if data == nil {
		data = Default()
	}
	return &Directory{data: data, logger: logger}
}

// Load reads path. A missing file yields Default().
func Load(path string, logger *slog.Logger) (*Directory, error) {
	d := New(nil, logger)
	d.path = path
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the backing file, empty for in-memory directories
func (d *Directory) Path() string {
	return d.path
}

// Reload re-reads the backing file. On error the previous data is kept.
func (d *Directory) Reload() error {
	if d.path == "" {
		return nil
	}

	data, err := readFile(d.path)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.data = data
	d.mu.Unlock()

	d.logger.Info("directory loaded",
		"path", d.path,
		"blogs", len(data.Blogs),
		"users", len(data.Users),
		"categories", len(data.Categories))
	return nil
}

func readFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse directory %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid directory %s: %w", path, err)
	}
	if len(f.Blogs) == 0 {
		f.Blogs = Default().Blogs
	}
	return &f, nil
}

func (f *File) validate() error {
	seen := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.UserID == "" {
			return fmt.Errorf("user %d has no userid", i)
		}
		if seen[u.UserID] {
			return fmt.Errorf("duplicate userid %q", u.UserID)
		}
		seen[u.UserID] = true
	}
	for i, b := range f.Blogs {
		if b.BlogID == "" {
			return fmt.Errorf("blog %d has no id", i)
		}
	}
	return nil
}

// Blogs returns a copy of the configured blogs
func (d *Directory) Blogs() []models.BlogInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.BlogInfo(nil), d.data.Blogs...)
}

// SeedCategories returns a copy of the configured categories
func (d *Directory) SeedCategories() []Category {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Category(nil), d.data.Categories...)
}

// User finds a user by userid or nickname
func (d *Directory) User(name string) (models.UserInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.data.Users {
		if u.UserID == name || (u.Nickname != "" && u.Nickname == name) {
			return u, true
		}
	}
	return models.UserInfo{}, false
}
