package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalPhotoStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalPhotoStorage(filepath.Join(dir, "uploads"), "http://localhost:8080/uploads/")
	if err != nil {
		t.Fatalf("NewLocalPhotoStorage() error = %v", err)
	}

	url, err := store.SavePhoto(context.Background(), 7, strings.NewReader("jpeg-bytes"), "me.JPG", "image/jpeg")
	if err != nil {
		t.Fatalf("SavePhoto() error = %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/uploads/7_") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("SavePhoto() url = %q", url)
	}

	name := strings.TrimPrefix(url, "http://localhost:8080/uploads/")
	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("stored content = %q", data)
	}

	if err := store.DeletePhoto(context.Background(), url); err != nil {
		t.Fatalf("DeletePhoto() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), name)); !os.IsNotExist(err) {
		t.Errorf("file still present after delete, stat err = %v", err)
	}
}

func TestLocalPhotoStorage_DeleteIgnoresForeignURLs(t *testing.T) {
	store, err := NewLocalPhotoStorage(t.TempDir(), "http://localhost/uploads")
	if err != nil {
		t.Fatal(err)
	}

	for _, u := range []string{
		"https://images.unsplash.com/photo.jpg",
		"http://localhost/uploads/../secret",
		"http://localhost/uploads/",
	} {
		if err := store.DeletePhoto(context.Background(), u); err != nil {
			t.Errorf("DeletePhoto(%q) error = %v", u, err)
		}
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		filename, contentType, want string
	}{
		{"a.png", "image/jpeg", ".png"},
		{"blob", "image/jpeg", ".jpg"},
		{"blob", "image/webp", ".webp"},
		{"blob", "application/octet-stream", ".img"},
	}
	for _, tt := range tests {
		if got := extension(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("extension(%q, %q) = %q, want %q", tt.filename, tt.contentType, got, tt.want)
		}
	}
}

func TestS3PhotoStorage_KeyRoundTrip(t *testing.T) {
	s := &S3PhotoStorage{publicURL: "https://cdn.example.com"}

	url := s.url("profile-photos/3/abc.jpg")
	if url != "https://cdn.example.com/profile-photos/3/abc.jpg" {
		t.Fatalf("url() = %q", url)
	}
	key, ok := s.key(url)
	if !ok || key != "profile-photos/3/abc.jpg" {
		t.Errorf("key(%q) = %q, %v", url, key, ok)
	}
	if _, ok := s.key("https://elsewhere.com/profile-photos/3/abc.jpg"); ok {
		t.Error("key() accepted a foreign URL")
	}
}
