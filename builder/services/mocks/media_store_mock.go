package mocks

import (
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/models"
)

// MockMediaStore is an in-memory implementation of services.MediaStore
type MockMediaStore struct {
	Objects map[string]*media.Object
	Err     error
}

// NewMockMediaStore creates a new mock media store
func NewMockMediaStore() *MockMediaStore {
	return &MockMediaStore{Objects: make(map[string]*media.Object)}
}

// Save keeps the upload under its content hash
func (m *MockMediaStore) Save(up media.Upload) (*models.MediaObjectInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	hash := media.HashContent(up.Data)
	m.Objects[hash] = &media.Object{
		Meta: media.Meta{Hash: hash, Name: up.Name, Type: up.Type, Size: int64(len(up.Data))},
		Data: up.Data,
	}
	return &models.MediaObjectInfo{
		Hash: hash,
		Name: up.Name,
		Type: up.Type,
		URL:  media.URLPrefix + hash + "/" + up.Name,
	}, nil
}

// Open returns a saved object
func (m *MockMediaStore) Open(hash string) (*media.Object, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	obj, ok := m.Objects[hash]
	if !ok {
		return nil, media.ErrNotFound
	}
	return obj, nil
}
