package services

import (
	"context"
	"errors"
	"testing"

	"github.com/csantero/MetaWeblogPortable/builder/directory"
	"github.com/csantero/MetaWeblogPortable/builder/models"
)

func createTestDirectory() *directory.Directory {
	return directory.New(&directory.File{
		Users: []models.UserInfo{
			{UserID: "alice", Nickname: "al", Password: "pw"},
			{UserID: "nopass"},
		},
	}, nil)
}

func TestAllowAll(t *testing.T) {
	var a Authenticator = AllowAll{}
	if err := a.Authenticate(context.Background(), "", ""); err != nil {
		t.Errorf("AllowAll rejected empty credentials: %v", err)
	}
}

func TestStaticAuthenticator(t *testing.T) {
	a := NewStaticAuthenticator(createTestDirectory())
	ctx := context.Background()

	tests := []struct {
		name     string
		user     string
		password string
		ok       bool
	}{
		{"valid", "alice", "pw", true},
		{"by nickname", "al", "pw", true},
		{"wrong password", "alice", "nope", false},
		{"unknown user", "mallory", "pw", false},
		{"user without password", "nopass", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authenticate(ctx, tt.user, tt.password)
			if tt.ok && err != nil {
				t.Errorf("expected success, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestStaticAuthenticator_CancelledContext(t *testing.T) {
	a := NewStaticAuthenticator(createTestDirectory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Authenticate(ctx, "alice", "pw"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
