package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleDirectory = `
blogs:
  - id: "main"
    name: "Main Blog"
    url: "https://example.com/"
    isAdmin: true
users:
  - userid: "alice"
    nickname: "al"
    firstname: "Alice"
    email: "alice@example.com"
    password: "s3cret"
categories:
  - name: "Go"
    description: "Posts about Go"
`

func writeDirectory(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "directory.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write directory file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeDirectory(t, t.TempDir(), sampleDirectory)

	d, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	blogs := d.Blogs()
	if len(blogs) != 1 || blogs[0].BlogID != "main" || !blogs[0].IsAdmin {
		t.Errorf("unexpected blogs %+v", blogs)
	}

	u, ok := d.User("alice")
	if !ok || u.Email != "alice@example.com" || u.Password != "s3cret" {
		t.Errorf("User(alice) = %+v, %v", u, ok)
	}
	if _, ok := d.User("al"); !ok {
		t.Error("lookup by nickname failed")
	}
	if _, ok := d.User("bob"); ok {
		t.Error("unknown user found")
	}

	cats := d.SeedCategories()
	if len(cats) != 1 || cats[0].Name != "Go" {
		t.Errorf("unexpected categories %+v", cats)
	}
}

func TestLoad_MissingFileUsesDefault(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(d.Blogs()) != 1 {
		t.Errorf("expected default blog, got %+v", d.Blogs())
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"not yaml":        "blogs: [",
		"missing id":      "users:\n  - nickname: x\n",
		"duplicate id":    "users:\n  - userid: a\n  - userid: a\n",
		"blog without id": "blogs:\n  - name: x\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeDirectory(t, dir, content)
			if _, err := Load(path, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeDirectory(t, dir, sampleDirectory)

	d, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	writeDirectory(t, dir, "users: [")
	if err := d.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if _, ok := d.User("alice"); !ok {
		t.Error("previous data lost after failed reload")
	}
}

func TestBlogsReturnsCopy(t *testing.T) {
	d := New(nil, nil)
	blogs := d.Blogs()
	blogs[0].BlogName = "changed"
	if d.Blogs()[0].BlogName == "changed" {
		t.Error("Blogs() exposed internal slice")
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeDirectory(t, dir, sampleDirectory)

	d, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx, 20*time.Millisecond) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	writeDirectory(t, dir, "users:\n  - userid: bob\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := d.User("bob"); ok {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if _, ok := d.User("bob"); !ok {
		t.Error("directory was not reloaded after the file changed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not stop after cancel")
	}
}
