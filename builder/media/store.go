// Package media stores binary attachments uploaded through
// metaWeblog.newMediaObject. Objects are content addressed by BLAKE3 hash,
// compressed with zstd above a size threshold and written atomically.
package media

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"

	"github.com/csantero/MetaWeblogPortable/builder/models"
	"github.com/csantero/MetaWeblogPortable/builder/utils"
)

// ErrNotFound is returned when no object has the requested hash
var ErrNotFound = errors.New("media object not found")

// CompressionType indicates how an object is stored
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionZstdFast
	CompressionZstdDefault
)

// URLPrefix is the route media objects are served from
const URLPrefix = "/media/"

// Upload is a media object sent by a client
type Upload struct {
	BlogID string
	UserID string
	Name   string
	Type   string
	Data   []byte
}

// Meta is persisted next to each object
type Meta struct {
	Hash        string          `msgpack:"hash"`
	Name        string          `msgpack:"name"`
	Type        string          `msgpack:"type"`
	BlogID      string          `msgpack:"blog_id"`
	UserID      string          `msgpack:"user_id"`
	Size        int64           `msgpack:"size"`
	Compression CompressionType `msgpack:"compression"`
	CreatedAt   int64           `msgpack:"created_at"`
}

// Object is a stored media object with its content
type Object struct {
	Meta
	Data []byte
}

// Store provides content-addressed object storage with two-tier sharding
type Store struct {
	fs      afero.Fs
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStore creates a media store rooted at the top of fs. Use
// afero.NewBasePathFs to confine it to a directory.
func NewStore(fs afero.Fs) (*Store, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Store{
		fs:      fs,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close releases resources
func (s *Store) Close() error {
	_ = s.encoder.Close()
	s.decoder.Close()
	return nil
}

// HashContent computes the BLAKE3 hash of content as a hex string
func HashContent(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ValidHash reports whether s looks like a hash produced by HashContent
func ValidHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// shardPath computes the two-tier shard path: hash[0:2]/hash[2:4]/hash
func shardPath(hash string) string {
	return filepath.Join(hash[0:2], hash[2:4], hash)
}

// determineCompression decides compression strategy based on size
func determineCompression(size int) CompressionType {
	if size < utils.RawThreshold {
		return CompressionNone
	}
	if size < utils.FastZstdMax {
		return CompressionZstdFast
	}
	return CompressionZstdDefault
}

// cleanName reduces a client supplied file name to a safe final path element
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}

// Save stores an upload and returns where it can be fetched
func (s *Store) Save(up Upload) (*models.MediaObjectInfo, error) {
	hash := HashContent(up.Data)
	ct := determineCompression(len(up.Data))
	base := shardPath(hash)

	contentType := up.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := cleanName(up.Name)

	if exists, _ := afero.Exists(s.fs, base+".meta"); !exists {
		var data []byte
		switch ct {
		case CompressionNone:
			data = up.Data
		case CompressionZstdFast:
			data = s.encoder.EncodeAll(up.Data, nil)
		default:
			enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			if err != nil {
				return nil, err
			}
			data = enc.EncodeAll(up.Data, nil)
			_ = enc.Close()
		}

		meta := Meta{
			Hash:        hash,
			Name:        name,
			Type:        contentType,
			BlogID:      up.BlogID,
			UserID:      up.UserID,
			Size:        int64(len(up.Data)),
			Compression: ct,
			CreatedAt:   time.Now().Unix(),
		}
		metaData, err := msgpack.Marshal(&meta)
		if err != nil {
			return nil, err
		}

		// content first so a visible .meta always has its blob
		if err := s.writeAtomic(base+".bin", data); err != nil {
			return nil, err
		}
		if err := s.writeAtomic(base+".meta", metaData); err != nil {
			return nil, err
		}
	}

	return &models.MediaObjectInfo{
		Hash: hash,
		Name: name,
		Type: contentType,
		URL:  URLPrefix + hash + "/" + url.PathEscape(name),
	}, nil
}

// writeAtomic writes via a unique .tmp -> fsync -> rename. Concurrent saves
// of the same content each use their own temp file; content is addressed by
// hash, so whichever rename lands last leaves identical bytes behind.
func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := afero.TempFile(s.fs, dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := filepath.Join(dir, filepath.Base(f.Name()))

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write content: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		// a concurrent save of the same hash got there first
		if exists, _ := afero.Exists(s.fs, path); exists {
			return nil
		}
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Stat returns the metadata of an object
func (s *Store) Stat(hash string) (*Meta, error) {
	if !ValidHash(hash) {
		return nil, ErrNotFound
	}
	data, err := afero.ReadFile(s.fs, shardPath(hash)+".meta")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var meta Meta
	if err := msgpack.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("corrupt media metadata for %s: %w", hash, err)
	}
	return &meta, nil
}

// Open retrieves an object and its decompressed content
func (s *Store) Open(hash string) (*Object, error) {
	meta, err := s.Stat(hash)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, shardPath(hash)+".bin")
	if err != nil {
		return nil, fmt.Errorf("media content missing for %s: %w", hash, err)
	}

	if meta.Compression != CompressionNone {
		data, err = s.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", hash, err)
		}
	}
	return &Object{Meta: *meta, Data: data}, nil
}

// Delete removes an object. It returns ErrNotFound when no object has hash.
func (s *Store) Delete(hash string) error {
	if !ValidHash(hash) {
		return ErrNotFound
	}
	base := shardPath(hash)
	if exists, _ := afero.Exists(s.fs, base+".meta"); !exists {
		return ErrNotFound
	}
	// metadata first so a half-deleted object is never served
	if err := s.fs.Remove(base + ".meta"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove metadata: %w", err)
	}
	if err := s.fs.Remove(base + ".bin"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove content: %w", err)
	}
	return nil
}

// Size returns total bytes used on disk
func (s *Store) Size() (int64, error) {
	var total int64
	err := afero.Walk(s.fs, ".", func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
