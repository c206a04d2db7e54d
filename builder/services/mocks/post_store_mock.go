// Package mocks provides mock implementations for testing
package mocks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/csantero/MetaWeblogPortable/builder/models"
	"github.com/csantero/MetaWeblogPortable/builder/store"
)

// MockPostStore is an in-memory implementation of services.PostStore
type MockPostStore struct {
	mu        sync.Mutex
	Posts     map[string]*models.Post
	Err       error
	CallCount map[string]int
	nextID    int
}

// NewMockPostStore creates a new mock post store
func NewMockPostStore() *MockPostStore {
	return &MockPostStore{
		Posts:     make(map[string]*models.Post),
		CallCount: make(map[string]int),
	}
}

func (m *MockPostStore) recordCall(method string) {
	if m.CallCount == nil {
		m.CallCount = make(map[string]int)
	}
	m.CallCount[method]++
}

// Calls returns how often method was invoked
func (m *MockPostStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount[method]
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Categories = append([]string{}, p.Categories...)
	return &c
}

// Create stores a post with a sequential id
func (m *MockPostStore) Create(in store.CreateInput) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Create")
	if m.Err != nil {
		return nil, m.Err
	}

	m.nextID++
	link := store.Slugify(in.Title)
	post := &models.Post{
		PostID:      fmt.Sprintf("%d", m.nextID),
		Title:       in.Title,
		Link:        link,
		Permalink:   link,
		Description: in.Description,
		PostStatus:  models.StatusFor(in.Published),
		UserID:      in.UserID,
		Categories:  append([]string{}, in.Categories...),
	}
	if in.CreatedAt != nil {
		post.DateCreated = *in.CreatedAt
	}
	m.Posts[post.PostID] = post
	return clonePost(post), nil
}

// Get returns a post by ID, nil when absent
func (m *MockPostStore) Get(id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Get")
	if m.Err != nil {
		return nil, m.Err
	}
	if p, ok := m.Posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, nil
}

// Edit updates the supplied fields
func (m *MockPostStore) Edit(id string, in store.EditInput) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Edit")
	if m.Err != nil {
		return false, m.Err
	}
	p, ok := m.Posts[id]
	if !ok {
		return false, nil
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Categories != nil {
		p.Categories = append([]string{}, in.Categories...)
	}
	p.PostStatus = models.StatusFor(in.Published)
	return true, nil
}

// Delete removes a post
func (m *MockPostStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Delete")
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.Posts, id)
	return nil
}

// All returns every post ordered by id
func (m *MockPostStore) All() ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("All")
	if m.Err != nil {
		return nil, m.Err
	}
	posts := make([]*models.Post, 0, len(m.Posts))
	for _, p := range m.Posts {
		posts = append(posts, clonePost(p))
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].PostID < posts[j].PostID })
	return posts, nil
}

// CategoriesUsed returns the sorted set of categories
func (m *MockPostStore) CategoriesUsed() ([]string, error) {
	byCat, err := m.PostsByCategory()
	if err != nil {
		return nil, err
	}
	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats, nil
}

// PostsByCategory groups posts by category
func (m *MockPostStore) PostsByCategory() (map[string][]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("PostsByCategory")
	if m.Err != nil {
		return nil, m.Err
	}
	result := make(map[string][]*models.Post)
	for _, p := range m.Posts {
		for _, c := range p.Categories {
			result[c] = append(result[c], clonePost(p))
		}
	}
	return result, nil
}
