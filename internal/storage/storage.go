package storage

import (
	"context"
	"io"
	"path"
	"strings"
)

// PhotoStorage stores profile photos and returns their public URL
type PhotoStorage interface {
	// SavePhoto stores the photo of a member and returns its public URL
	SavePhoto(ctx context.Context, userID int64, photo io.Reader, filename string, contentType string) (string, error)
	// DeletePhoto removes a photo previously returned by SavePhoto.
	// Unknown URLs are ignored.
	DeletePhoto(ctx context.Context, photoURL string) error
}

// extension picks the stored file extension from the upload name or content type
func extension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		return ext
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".img"
}
