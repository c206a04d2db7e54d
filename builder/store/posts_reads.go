package store

import (
	"encoding/binary"
	"errors"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/csantero/MetaWeblogPortable/builder/models"
)

// errStopScan ends a ForEach early
var errStopScan = errors.New("stop scan")

// getItem retrieves a generic item from a bucket
func getItem[T any](tx *bolt.Tx, bucketName string, key []byte) (*T, error) {
	bucket := tx.Bucket([]byte(bucketName))
	if bucket == nil {
		return nil, nil
	}
	data := bucket.Get(key)
	if data == nil {
		return nil, nil
	}

	var item T
	if err := Decode(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Get returns the post with the given id, or nil if there is none
func (s *Store) Get(id string) (*models.Post, error) {
	var result *models.Post
	err := s.view("get", func(tx *bolt.Tx) error {
		rec, err := getItem[PostRecord](tx, BucketPosts, []byte(id))
		if err != nil || rec == nil {
			return err
		}
		result = rec.toPost()
		return nil
	})
	return result, err
}

// GetByLink scans for the first post whose derived link matches.
// Posts are not indexed by link and scan order is unspecified.
func (s *Store) GetByLink(link string) (*models.Post, error) {
	var result *models.Post
	err := s.view("get by link", func(tx *bolt.Tx) error {
		err := tx.Bucket([]byte(BucketPosts)).ForEach(func(_, v []byte) error {
			var rec PostRecord
			if err := Decode(v, &rec); err != nil {
				return err
			}
			if rec.Link == link {
				result = rec.toPost()
				return errStopScan
			}
			return nil
		})
		if errors.Is(err, errStopScan) {
			return nil
		}
		return err
	})
	return result, err
}

// Count returns the number of stored posts
func (s *Store) Count() (int, error) {
	var n int
	err := s.view("count", func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(BucketPosts)).Stats().KeyN
		return nil
	})
	return n, err
}

// All returns every post. Order is unspecified.
func (s *Store) All() ([]*models.Post, error) {
	var posts []*models.Post
	err := s.view("list", func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketPosts)).ForEach(func(_, v []byte) error {
			var rec PostRecord
			if err := Decode(v, &rec); err != nil {
				return err
			}
			posts = append(posts, rec.toPost())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// CategoriesUsed returns the sorted set of categories carried by any post
func (s *Store) CategoriesUsed() ([]string, error) {
	byCat, err := s.PostsByCategory()
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

// PostsByCategory groups posts by category with a full scan. The result
// is built fresh on every call.
func (s *Store) PostsByCategory() (map[string][]*models.Post, error) {
	posts, err := s.All()
	if err != nil {
		return nil, err
	}
	byCat := make(map[string][]*models.Post)
	for _, p := range posts {
		for _, c := range p.Categories {
			byCat[c] = append(byCat[c], p)
		}
	}
	return byCat, nil
}

// Stats returns current store statistics
func (s *Store) Stats() (*StoreStats, error) {
	stats := &StoreStats{
		SchemaVersion: SchemaVersion,
		Path:          s.basePath,
	}

	err := s.view("stats", func(tx *bolt.Tx) error {
		stats.TotalPosts = tx.Bucket([]byte(BucketPosts)).Stats().KeyN

		meta := tx.Bucket([]byte(BucketMeta))
		if data := meta.Get([]byte(KeySchemaVersion)); len(data) == 4 {
			stats.SchemaVersion = int(binary.BigEndian.Uint32(data))
		}

		statsBucket := tx.Bucket([]byte(BucketStats))
		if data := statsBucket.Get([]byte(KeyWriteCount)); len(data) == 8 {
			stats.WriteCount = int64(binary.BigEndian.Uint64(data))
		}
		if data := statsBucket.Get([]byte(KeyLastWrite)); len(data) == 8 {
			stats.LastWrite = time.Unix(0, int64(binary.BigEndian.Uint64(data)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
