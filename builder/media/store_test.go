package media

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
)

func createTestMediaStore(t *testing.T) (*Store, afero.Fs, func()) {
	t.Helper()

	fs := afero.NewMemMapFs()
	store, err := NewStore(fs)
	if err != nil {
		t.Fatalf("Failed to create media store: %v", err)
	}
	return store, fs, func() { _ = store.Close() }
}

func TestSaveOpen_SmallObjectStoredRaw(t *testing.T) {
	store, fs, cleanup := createTestMediaStore(t)
	defer cleanup()

	data := []byte("tiny png")
	info, err := store.Save(Upload{BlogID: "1", UserID: "u", Name: "pic.png", Type: "image/png", Data: data})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if info.Hash != HashContent(data) {
		t.Errorf("hash mismatch: %s", info.Hash)
	}
	if info.URL != "/media/"+info.Hash+"/pic.png" {
		t.Errorf("unexpected URL %q", info.URL)
	}

	raw, err := afero.ReadFile(fs, shardPath(info.Hash)+".bin")
	if err != nil {
		t.Fatalf("content file missing: %v", err)
	}
	if !bytes.Equal(raw, data) {
		t.Error("small object should be stored uncompressed")
	}

	obj, err := store.Open(info.Hash)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(obj.Data, data) || obj.Type != "image/png" || obj.BlogID != "1" {
		t.Errorf("unexpected object %+v", obj.Meta)
	}
}

func TestSaveOpen_LargeObjectCompressed(t *testing.T) {
	store, fs, cleanup := createTestMediaStore(t)
	defer cleanup()

	for _, size := range []int{4096, 200 * 1024} {
		data := bytes.Repeat([]byte("abcdefgh"), size/8)
		info, err := store.Save(Upload{Name: "big.txt", Type: "text/plain", Data: data})
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		raw, _ := afero.ReadFile(fs, shardPath(info.Hash)+".bin")
		if len(raw) >= len(data) {
			t.Errorf("size %d: expected compression, stored %d bytes", size, len(raw))
		}

		obj, err := store.Open(info.Hash)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if !bytes.Equal(obj.Data, data) {
			t.Errorf("size %d: content mismatch after decompression", size)
		}
	}
}

func TestSave_Deduplicates(t *testing.T) {
	store, _, cleanup := createTestMediaStore(t)
	defer cleanup()

	data := []byte("same bytes")
	first, err := store.Save(Upload{Name: "a.bin", Data: data})
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Save(Upload{Name: "b.bin", Data: data})
	if err != nil {
		t.Fatal(err)
	}
	if first.Hash != second.Hash {
		t.Error("identical content should share a hash")
	}

	meta, err := store.Stat(first.Hash)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Name != "a.bin" {
		t.Errorf("first upload metadata should be kept, got %q", meta.Name)
	}
}

func TestSave_CleansName(t *testing.T) {
	store, _, cleanup := createTestMediaStore(t)
	defer cleanup()

	tests := map[string]string{
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pic.jpg`: "pic.jpg",
		"":                    "upload",
		"..":                  "upload",
	}
	for in, want := range tests {
		info, err := store.Save(Upload{Name: in, Data: []byte(in + "x")})
		if err != nil {
			t.Fatal(err)
		}
		if info.Name != want {
			t.Errorf("cleanName(%q) = %q, want %q", in, info.Name, want)
		}
		if info.Type != "application/octet-stream" {
			t.Errorf("expected default type, got %q", info.Type)
		}
	}
}

func TestOpen_NotFound(t *testing.T) {
	store, _, cleanup := createTestMediaStore(t)
	defer cleanup()

	for _, hash := range []string{"", "../x", strings.Repeat("z", 64), HashContent([]byte("never saved"))} {
		if _, err := store.Open(hash); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q): expected ErrNotFound, got %v", hash, err)
		}
	}
}

func TestDeleteAndSize(t *testing.T) {
	store, _, cleanup := createTestMediaStore(t)
	defer cleanup()

	info, err := store.Save(Upload{Name: "f", Data: []byte("to be removed")})
	if err != nil {
		t.Fatal(err)
	}
	size, err := store.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size == 0 {
		t.Error("expected non-zero size after save")
	}

	if err := store.Delete(info.Hash); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Open(info.Hash); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(info.Hash); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
	if err := store.Delete("not-a-hash"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(invalid) = %v, want ErrNotFound", err)
	}
}

func TestDetermineCompression(t *testing.T) {
	if determineCompression(10) != CompressionNone {
		t.Error("small content should be raw")
	}
	if determineCompression(1024) != CompressionZstdFast {
		t.Error("medium content should use fast zstd")
	}
	if determineCompression(1<<20) != CompressionZstdDefault {
		t.Error("large content should use default zstd")
	}
}

func TestSave_EscapesNameInURL(t *testing.T) {
	store, _, cleanup := createTestMediaStore(t)
	defer cleanup()

	info, err := store.Save(Upload{Name: "my photo.png", Type: "image/png", Data: []byte("img")})
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "my photo.png" {
		t.Errorf("Name = %q, want the unescaped name", info.Name)
	}
	if want := "/media/" + info.Hash + "/my%20photo.png"; info.URL != want {
		t.Errorf("URL = %q, want %q", info.URL, want)
	}
}

func TestSave_ConcurrentSameContent(t *testing.T) {
	store, fs, cleanup := createTestMediaStore(t)
	defer cleanup()

	data := bytes.Repeat([]byte("concurrent upload "), 100_000)

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Save(Upload{Name: "big.bin", Data: data}); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("round %d: concurrent Save() failed: %v", round, err)
		}

		obj, err := store.Open(HashContent(data))
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		if !bytes.Equal(obj.Data, data) {
			t.Fatal("stored content differs from upload")
		}
		if err := store.Delete(obj.Hash); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
	}

	err := afero.Walk(fs, ".", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if strings.HasSuffix(p, ".tmp") {
			t.Errorf("temp file left behind: %s", p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() failed: %v", err)
	}
}
