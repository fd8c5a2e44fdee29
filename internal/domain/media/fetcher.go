package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"interview-eval-go/internal/platform/config"
	apperrors "interview-eval-go/internal/platform/errors"
	"interview-eval-go/internal/platform/logging"
)

// Fetcher resolves an audio reference to a local file in the run temp dir.
type Fetcher interface {
	Fetch(ctx context.Context, reference string) (string, error)
}

// ObjectFetcher downloads audio objects from an S3-compatible store.
type ObjectFetcher struct {
	client  *minio.Client
	bucket  string
	tempDir string
	logger  *logging.Logger
}

func NewObjectFetcher(cfg config.ObjectStoreConfig, tempDir string, logger *logging.Logger) (*ObjectFetcher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindBootstrap, "media.fetcher", "init object store client", err)
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.KindBootstrap, "media.fetcher", "create temp dir", err)
	}

	return &ObjectFetcher{
		client:  client,
		bucket:  cfg.Bucket,
		tempDir: tempDir,
		logger:  logger,
	}, nil
}

// splitReference accepts "bucket/key" or a bare key for the default bucket.
func (f *ObjectFetcher) splitReference(reference string) (bucket, key string) {
	reference = strings.TrimPrefix(reference, "/")
	if idx := strings.IndexByte(reference, '/'); idx > 0 {
		head := reference[:idx]
		if head == f.bucket {
			return head, reference[idx+1:]
		}
	}
	return f.bucket, reference
}

// Fetch downloads the object into the temp dir and returns the local path.
// Store failures are transient; the retry policy above decides.
func (f *ObjectFetcher) Fetch(ctx context.Context, reference string) (string, error) {
	bucket, key := f.splitReference(reference)
	if key == "" {
		return "", apperrors.New(apperrors.KindValidation, "media.fetch", "empty audio reference")
	}

	object, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindTransient, "media.fetch",
			fmt.Sprintf("get object %s/%s", bucket, key), err)
	}
	defer object.Close()

	localPath := filepath.Join(f.tempDir,
		fmt.Sprintf("run-%s%s", uuid.New().String(), filepath.Ext(key)))

	out, err := os.Create(localPath)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindPlatform, "media.fetch", "create temp file", err)
	}

	written, err := io.Copy(out, object)
	closeErr := out.Close()
	if err != nil {
		os.Remove(localPath)
		return "", apperrors.Wrap(apperrors.KindTransient, "media.fetch",
			fmt.Sprintf("download object %s/%s", bucket, key), err)
	}
	if closeErr != nil {
		os.Remove(localPath)
		return "", apperrors.Wrap(apperrors.KindPlatform, "media.fetch", "flush temp file", closeErr)
	}

	f.logger.InfoTag("MEDIA", "fetched %s/%s (%d bytes)", bucket, key, written)
	return localPath, nil
}
