package store

import (
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/csantero/MetaWeblogPortable/builder/models"
)

// CreateInput carries the fields a client supplies for a new post
type CreateInput struct {
	CreatedAt   *time.Time // nil means now
	Title       string
	Description string
	Categories  []string
	Published   bool
	UserID      string
}

// EditInput carries the mutable fields of a post. Nil pointers and a nil
// Categories slice leave the stored value unchanged.
type EditInput struct {
	Title       *string
	Description *string
	Categories  []string
	Published   bool
}

// Create assigns an id, derives the link from the title and persists the post
func (s *Store) Create(in CreateInput) (*models.Post, error) {
	if err := validateCategories(in.Categories); err != nil {
		return nil, err
	}

	created := s.now()
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		created = *in.CreatedAt
	}

	link := Slugify(in.Title)
	post := &models.Post{
		Title:        in.Title,
		Link:         link,
		Permalink:    link,
		Description:  in.Description,
		DateCreated:  created,
		PostStatus:   models.StatusFor(in.Published),
		CommentCount: 0,
		UserID:       in.UserID,
		Categories:   normalizeCategories(in.Categories),
	}

	err := s.update("create", func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketPosts))

		id := s.ids.Next()
		for bucket.Get([]byte(id)) != nil {
			id = s.ids.Next()
		}
		post.PostID = id

		data, err := Encode(newRecord(post))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), data)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("post created", "post_id", post.PostID, "link", post.Link)
	return post, nil
}

// Edit overwrites the supplied mutable fields. It reports false when the id
// does not exist. Id, link, permalink and creation date never change.
func (s *Store) Edit(id string, in EditInput) (bool, error) {
	if err := validateCategories(in.Categories); err != nil {
		return false, err
	}

	err := s.update("edit", func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketPosts))
		data := bucket.Get([]byte(id))
		if data == nil {
			// rolls back, so a miss leaves the write counters alone
			return ErrNotFound
		}

		var rec PostRecord
		if err := Decode(data, &rec); err != nil {
			return err
		}

		if in.Title != nil {
			rec.Title = *in.Title
		}
		if in.Description != nil {
			rec.Description = *in.Description
		}
		if in.Categories != nil {
			rec.Categories = joinCategories(in.Categories)
		}
		rec.PostStatus = models.StatusFor(in.Published)

		updated, err := Encode(&rec)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), updated)
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("post edited", "post_id", id)
	return true, nil
}

// Delete removes a post. Deleting an absent id returns ErrNotFound and
// leaves the store untouched.
func (s *Store) Delete(id string) error {
	err := s.update("delete", func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketPosts))
		if bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		return err
	}

	s.logger.Info("post deleted", "post_id", id)
	return nil
}

// Put stores a complete post as-is, replacing any record with the same id.
// Used by backup restores; clients go through Create and Edit.
func (s *Store) Put(post *models.Post) error {
	if post == nil || post.PostID == "" {
		return errors.New("store: post id is required")
	}
	if err := validateCategories(post.Categories); err != nil {
		return err
	}

	data, err := Encode(newRecord(post))
	if err != nil {
		return asStorageError("put", err)
	}

	return s.update("put", func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketPosts)).Put([]byte(post.PostID), data)
	})
}
