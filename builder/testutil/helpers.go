package testutil

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/csantero/MetaWeblogPortable/builder/directory"
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/store"
	"github.com/csantero/MetaWeblogPortable/builder/xmlrpc"
)

// CreateTestStore opens a post store in a temporary directory
// Returns the store and a cleanup function
func CreateTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	s, err := store.Open(tmpDir, store.Options{Dev: true})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return s, func() {
		_ = s.Close()
	}
}

// CreateTestMediaStore creates a media store on an in-memory filesystem
func CreateTestMediaStore(t *testing.T) (*media.Store, afero.Fs, func()) {
	t.Helper()
	fs := afero.NewMemMapFs()
	m, err := media.NewStore(fs)
	if err != nil {
		t.Fatalf("Failed to create media store: %v", err)
	}
	return m, fs, func() {
		_ = m.Close()
	}
}

// CreateTestDirectory returns an in-memory directory with SampleDirectory data
func CreateTestDirectory() *directory.Directory {
	return directory.New(SampleDirectory(), nil)
}

// EncodeTestCall renders a methodCall body, failing the test on error
func EncodeTestCall(t *testing.T, method string, params ...xmlrpc.Value) []byte {
	t.Helper()
	body, err := xmlrpc.EncodeCall(method, params...)
	if err != nil {
		t.Fatalf("Failed to encode call %s: %v", method, err)
	}
	return body
}

// DecodeTestResponse parses a methodResponse body, failing the test on error
func DecodeTestResponse(t *testing.T, body []byte) *xmlrpc.Response {
	t.Helper()
	resp, err := xmlrpc.ParseResponse(body)
	if err != nil {
		t.Fatalf("Failed to parse response: %v\n%s", err, body)
	}
	return resp
}

// AssertFileExists checks if a file exists in the filesystem
func AssertFileExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Error checking file existence: %v", err)
	}
	if !exists {
		t.Errorf("Expected file to exist: %s", path)
	}
}
