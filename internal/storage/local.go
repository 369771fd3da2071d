package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalPhotoStorage keeps photos on disk and serves them under baseURL
type LocalPhotoStorage struct {
	basePath string
	baseURL  string
}

// NewLocalPhotoStorage creates the upload directory if needed
func NewLocalPhotoStorage(basePath, baseURL string) (*LocalPhotoStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalPhotoStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the directory photos are written to
func (s *LocalPhotoStorage) Dir() string {
	return s.basePath
}

// SavePhoto writes the photo as <userID>_<uuid><ext>
func (s *LocalPhotoStorage) SavePhoto(ctx context.Context, userID int64, photo io.Reader, filename string, contentType string) (string, error) {
	name := fmt.Sprintf("%d_%s%s", userID, uuid.NewString(), extension(filename, contentType))
	fullPath := filepath.Join(s.basePath, name)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}

	if _, err := io.Copy(dst, photo); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to write photo: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// DeletePhoto removes a photo stored under baseURL
func (s *LocalPhotoStorage) DeletePhoto(ctx context.Context, photoURL string) error {
	if !strings.HasPrefix(photoURL, s.baseURL+"/") {
		return nil
	}
	name := strings.TrimPrefix(photoURL, s.baseURL+"/")
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil
	}

	err := os.Remove(filepath.Join(s.basePath, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}
