package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidstream/accounts-api/internal/core/ports"
)

// MediaStore stores uploaded images in an S3-compatible bucket and serves
// them back through a public base URL. It implements ports.MediaUploader.
type MediaStore struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

// Config captures the object-storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	PublicURL string
	UseSSL    bool
}

func NewMediaStore(cfg Config) (*MediaStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init media store: %w", err)
	}

	return &MediaStore{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// EnsureBucket creates the media bucket when it does not yet exist.
func (s *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Upload stores the file under a generated key and returns its public URL.
// The upload is awaited synchronously; callers treat a failure as fatal for
// their own operation.
func (s *MediaStore) Upload(ctx context.Context, file ports.FileUpload) (string, error) {
	if file.Reader == nil {
		return "", fmt.Errorf("empty file payload")
	}

	key := s.buildObjectKey(file.Filename)

	opts := minio.PutObjectOptions{ContentType: file.ContentType}
	if opts.ContentType == "" {
		opts.ContentType = "application/octet-stream"
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, file.Reader, file.Size, opts); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}

// buildObjectKey namespaces objects by upload date and gives each a unique
// id, keeping the original extension for content-type inference downstream.
func (s *MediaStore) buildObjectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	id := primitive.NewObjectID().Hex()
	return fmt.Sprintf("%s/%s%s", time.Now().UTC().Format("2006/01/02"), id, ext)
}
