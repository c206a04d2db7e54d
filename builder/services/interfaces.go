package services

import (
	"context"

	"github.com/csantero/MetaWeblogPortable/builder/directory"
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/models"
	"github.com/csantero/MetaWeblogPortable/builder/store"
)

// PostStore is the durable post collection used by the dispatcher
type PostStore interface {
	Create(in store.CreateInput) (*models.Post, error)
	Get(id string) (*models.Post, error)
	Edit(id string, in store.EditInput) (bool, error)
	Delete(id string) error
	All() ([]*models.Post, error)
	CategoriesUsed() ([]string, error)
	PostsByCategory() (map[string][]*models.Post, error)
}

// MediaStore keeps uploaded attachments
type MediaStore interface {
	Save(up media.Upload) (*models.MediaObjectInfo, error)
	Open(hash string) (*media.Object, error)
}

// Directory lists blogs, users and configured categories
type Directory interface {
	Blogs() []models.BlogInfo
	User(name string) (models.UserInfo, bool)
	SeedCategories() []directory.Category
}

// Authenticator verifies the credentials carried by a call
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// Links builds public URLs for feeds and listings
type Links interface {
	CategoryURL(name string) string
	CategoryFeedURL(name string) string
}
