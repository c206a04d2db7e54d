package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/csantero/MetaWeblogPortable/builder/utils"
)

// Options tunes how the store is opened
type Options struct {
	// Timeout bounds how long Open waits for the BoltDB file lock
	Timeout time.Duration
	// Dev skips fsync when the file grows; commits are still synced
	Dev    bool
	Logger *slog.Logger
	// Clock is used for post ids and default creation dates
	Clock func() time.Time
}

// Store is the durable post store. It is safe for concurrent use; BoltDB
// serialises writers and gives every reader a consistent snapshot.
type Store struct {
	db       *bolt.DB
	lock     *utils.FileLock
	basePath string
	logger   *slog.Logger
	now      func() time.Time
	ids      *idSource
}

// Open opens or creates a store in basePath. The caller owns the returned
// store and must Close it.
func Open(basePath string, opts Options) (*Store, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = utils.DefaultDBTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock, err := utils.AcquireDataLock(basePath)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(basePath, DBFileName)
	db, err := bolt.Open(dbPath, 0644, &bolt.Options{
		Timeout:      opts.Timeout,
		FreelistType: bolt.FreelistArrayType,
		NoGrowSync:   opts.Dev,
	})
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	s := &Store{
		db:       db,
		lock:     lock,
		basePath: basePath,
		logger:   opts.Logger,
		now:      opts.Clock,
		ids:      newIDSource(opts.Clock),
	}

	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Debug("post store opened", "path", dbPath)
	return s, nil
}

// Close flushes and releases the database and the data directory lock
func (s *Store) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		_ = s.lock.Release()
		s.lock = nil
	}
	return err
}

// Path returns the data directory
func (s *Store) Path() string {
	return s.basePath
}

// initSchema creates all buckets if they don't exist
func (s *Store) initSchema() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets() {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket([]byte(BucketMeta))
		if meta.Get([]byte(KeySchemaVersion)) == nil {
			v := make([]byte, 4)
			binary.BigEndian.PutUint32(v, SchemaVersion)
			if err := meta.Put([]byte(KeySchemaVersion), v); err != nil {
				return err
			}
		}

		return nil
	})
}

// update runs fn in a write transaction and bumps the write counter in the
// same commit. BoltDB fsyncs before Update returns.
func (s *Store) update(op string, fn func(tx *bolt.Tx) error) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}

		stats := tx.Bucket([]byte(BucketStats))
		count := uint64(1)
		if data := stats.Get([]byte(KeyWriteCount)); data != nil {
			count = binary.BigEndian.Uint64(data) + 1
		}
		countData := make([]byte, 8)
		binary.BigEndian.PutUint64(countData, count)
		if err := stats.Put([]byte(KeyWriteCount), countData); err != nil {
			return err
		}

		lastData := make([]byte, 8)
		binary.BigEndian.PutUint64(lastData, uint64(s.now().UnixNano()))
		return stats.Put([]byte(KeyLastWrite), lastData)
	})
	err = asStorageError(op, err)
	if errors.Is(err, ErrStorage) {
		s.logger.Error("post store write failed", "op", op, "error", err)
	}
	return err
}

func (s *Store) view(op string, fn func(tx *bolt.Tx) error) error {
	return asStorageError(op, s.db.View(fn))
}
