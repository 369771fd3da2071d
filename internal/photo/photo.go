// Package photo prepares profile pictures for upload.
package photo

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/skillswap/client/internal/client"
)

const (
	// MaxUploadBytes is the largest photo the backend accepts
	MaxUploadBytes = 5 << 20
	// MaxInputBytes bounds what is read from disk before decoding
	MaxInputBytes = 32 << 20

	MaxDimension = 1024
	JPEGQuality  = 85
)

var (
	ErrEmpty      = client.Validation("Please select a photo")
	ErrNotAnImage = client.Validation("Please upload an image file")
	ErrTooLarge   = client.Validation("Photo must be smaller than 5MB")
)

// Prepared is an encoded photo ready for a multipart upload
type Prepared struct {
	Filename    string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Prepare decodes the image in r, fits it into MaxDimension squared and
// re-encodes it as JPEG.
func Prepare(r io.Reader, filename string) (*Prepared, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxInputBytes {
		return nil, ErrTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrNotAnImage
	}

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	if buf.Len() > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	out := img.Bounds()
	return &Prepared{
		Filename:    jpegName(filename),
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
		Width:       out.Dx(),
		Height:      out.Dy(),
	}, nil
}

func jpegName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "photo"
	}
	return base + ".jpg"
}
