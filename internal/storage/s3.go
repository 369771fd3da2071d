package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/skillswap/client/internal/config"
)

const photoPrefix = "profile-photos"

// S3PhotoStorage stores photos in an S3-compatible bucket (AWS, R2, MinIO)
type S3PhotoStorage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3PhotoStorage creates a new S3/R2 storage provider
func NewS3PhotoStorage(ctx context.Context, cfg config.StorageConfig) (*S3PhotoStorage, error) {
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("missing S3 storage configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3PhotoStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// SavePhoto uploads the photo under profile-photos/<userID>/
func (s *S3PhotoStorage) SavePhoto(ctx context.Context, userID int64, photo io.Reader, filename string, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%d/%s%s", photoPrefix, userID, uuid.NewString(), extension(filename, contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         photo,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo to S3: %w", err)
	}

	return s.url(key), nil
}

// DeletePhoto deletes a photo by its public URL
func (s *S3PhotoStorage) DeletePhoto(ctx context.Context, photoURL string) error {
	key, ok := s.key(photoURL)
	if !ok {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from S3: %w", err)
	}
	return nil
}

func (s *S3PhotoStorage) url(key string) string {
	if s.publicURL == "" {
		return key
	}
	return s.publicURL + "/" + key
}

// key recovers the object key from a URL produced by url
func (s *S3PhotoStorage) key(photoURL string) (string, bool) {
	key := photoURL
	if s.publicURL != "" {
		if !strings.HasPrefix(photoURL, s.publicURL+"/") {
			return "", false
		}
		key = strings.TrimPrefix(photoURL, s.publicURL+"/")
	}
	return key, strings.HasPrefix(key, photoPrefix+"/")
}
