package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const UploadURLExpiry = 15 * time.Minute

var ErrContentType = errors.New("only image and video uploads are allowed")

// Storage hands out presigned upload URLs for story media.
type Storage struct {
	client     *minio.Client
	bucketName string
}

func NewStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{client: client, bucketName: bucketName}, nil
}

// PresignUpload returns a PUT URL for a new media object owned by userID and
// the object key the client later publishes.
func (s *Storage) PresignUpload(ctx context.Context, userID, fileName, contentType string) (string, string, error) {
	if !AllowedContentType(contentType) {
		return "", "", ErrContentType
	}
	key := ObjectKey(userID, uuid.NewString(), fileName)

	u, err := s.client.PresignedPutObject(ctx, s.bucketName, key, UploadURLExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), key, nil
}

// ObjectURL is the public URL of a stored object.
func (s *Storage) ObjectURL(key string) string {
	u := url.URL{Scheme: "http", Host: s.client.EndpointURL().Host, Path: "/" + s.bucketName + "/" + key}
	if s.client.EndpointURL().Scheme == "https" {
		u.Scheme = "https"
	}
	return u.String()
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func AllowedContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// ObjectKey lays media out as stories/<user>/<id><ext>, keeping only the
// extension of the client's file name.
func ObjectKey(userID, id, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return "stories/" + userID + "/" + id + ext
}
