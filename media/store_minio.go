package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectAPI is the slice of the minio client the store uses; tests swap in
// a mock here.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// MinioStore implements Store on an S3-compatible bucket. Objects use the
// same tier-prefixed keys the filesystem tree uses as subdirectories, so a
// DerivativeSet looks identical regardless of backend.
type MinioStore struct {
	client        objectAPI
	bucket        string
	publicBaseURL string
}

// MinioOptions carries the connection settings for NewMinioStore.
type MinioOptions struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string // optional; defaults to the endpoint/bucket URL
}

func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client for '%s': %w", opts.Endpoint, err)
	}

	publicBase := opts.PublicBaseURL
	if publicBase == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}

	log.Printf("media.store: Initialized MinioStore for bucket %s at %s", opts.Bucket, opts.Endpoint)
	return &MinioStore{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: strings.TrimRight(publicBase, "/"),
	}, nil
}

func (ms *MinioStore) Put(ctx context.Context, path string, data []byte, contentType string, upsert bool) (string, error) {
	key := objectKey(path)

	if !upsert {
		exists, err := ms.Exists(ctx, path)
		if err != nil {
			return "", err
		}
		if exists {
			return "", fmt.Errorf("object already exists at '%s'", key)
		}
	}

	_, err := ms.client.PutObject(ctx, ms.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object '%s': %w", key, err)
	}

	return ms.URL(path), nil
}

func (ms *MinioStore) Get(ctx context.Context, path string) ([]byte, error) {
	key := objectKey(path)

	obj, err := ms.client.GetObject(ctx, ms.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open object '%s': %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, err)
	}
	return data, nil
}

func (ms *MinioStore) Delete(ctx context.Context, path string) error {
	key := objectKey(path)
	err := ms.client.RemoveObject(ctx, ms.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to delete object '%s': %w", key, err)
	}
	return nil
}

func (ms *MinioStore) Exists(ctx context.Context, path string) (bool, error) {
	key := objectKey(path)
	_, err := ms.client.StatObject(ctx, ms.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object '%s': %w", key, err)
	}
	return true, nil
}

func (ms *MinioStore) URL(path string) string {
	return ms.publicBaseURL + "/" + objectKey(path)
}

func objectKey(path string) string {
	return strings.TrimLeft(strings.ReplaceAll(path, "\\", "/"), "/")
}
