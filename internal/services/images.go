package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/config"
)

// MaxImageSize caps uploaded product images.
const MaxImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageStore keeps product images in a MinIO bucket. Products store object
// keys; readers get short-lived presigned URLs.
type ImageStore struct {
	client *minio.Client
	bucket string
}

// NewImageStore connects and creates the bucket when missing.
func NewImageStore(ctx context.Context, cfg config.MinIOConfig) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Println("🪣 Bucket created:", cfg.Bucket)
	}
	log.Println("✅ Connected to MinIO:", cfg.Endpoint)
	return &ImageStore{client: client, bucket: cfg.Bucket}, nil
}

// ImageKey validates an upload and returns the object key it is stored under.
func ImageKey(productID uuid.UUID, contentType string, size int64) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", apperr.Field("image", "only JPEG, PNG or WebP images are accepted")
	}
	if size <= 0 || size > MaxImageSize {
		return "", apperr.Field("image", fmt.Sprintf("image must be between 1 byte and %d MB", MaxImageSize>>20))
	}
	return path.Join("products", productID.String(), uuid.NewString()+ext), nil
}

// Upload stores an image and returns its object key.
func (s *ImageStore) Upload(ctx context.Context, productID uuid.UUID, r io.Reader, size int64, contentType string) (string, error) {
	key, err := ImageKey(productID, contentType, size)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// SignedURL returns a presigned GET URL for key.
func (s *ImageStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *ImageStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
