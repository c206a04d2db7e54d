// Package testutil provides testing utilities and fixtures
package testutil

import (
	"time"

	"github.com/csantero/MetaWeblogPortable/builder/directory"
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/models"
	"github.com/csantero/MetaWeblogPortable/builder/store"
	"github.com/csantero/MetaWeblogPortable/builder/xmlrpc"
)

// SampleDate is the creation date used by fixtures
var SampleDate = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

// CreateSampleInput creates a valid CreateInput for testing
func CreateSampleInput() store.CreateInput {
	created := SampleDate
	return store.CreateInput{
		CreatedAt:   &created,
		Title:       "Test Post",
		Description: "<p>A test post for testing purposes</p>",
		Categories:  []string{"test", "go"},
		Published:   true,
		UserID:      "alice",
	}
}

// CreateSamplePost creates a fully populated Post for testing
func CreateSamplePost() *models.Post {
	return &models.Post{
		PostID:      "1000",
		Title:       "Test Post",
		Link:        "Test-Post",
		Permalink:   "Test-Post",
		Description: "<p>A test post for testing purposes</p>",
		DateCreated: SampleDate,
		PostStatus:  models.StatusPublished,
		UserID:      "alice",
		Categories:  []string{"test", "go"},
	}
}

// SampleDirectory has one blog, one user with a password and one seed category
func SampleDirectory() *directory.File {
	return &directory.File{
		Blogs: []models.BlogInfo{
			{BlogID: "main", BlogName: "Test Blog", URL: "https://example.com/", IsAdmin: true},
		},
		Users: []models.UserInfo{
			{UserID: "alice", Nickname: "al", FirstName: "Alice", Email: "alice@example.com", Password: "secret"},
		},
		Categories: []directory.Category{
			{Name: "news", Description: "Announcements"},
		},
	}
}

// CreatePostStruct builds the struct parameter of newPost/editPost
func CreatePostStruct(title, description string, categories ...string) *xmlrpc.Struct {
	return xmlrpc.NewStruct().
		Set("title", xmlrpc.String(title)).
		Set("description", xmlrpc.String(description)).
		Set("categories", xmlrpc.Strings(categories))
}

// CreateTestMediaHash returns the content address media uploads are stored under
func CreateTestMediaHash(data []byte) string {
	return media.HashContent(data)
}
