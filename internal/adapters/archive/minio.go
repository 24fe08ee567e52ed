package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
)

const storageTimeout = 30 * time.Second

// ObjectStore is the subset of *minio.Client the archive uses.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioArchive stores each run's raw attendances payload as
// <bucket>/<prefix>/<run-id>.json. Archived payloads are never read back by
// the pipeline.
type MinioArchive struct {
	store  ObjectStore
	bucket string
	prefix string
}

// NewMinioArchive returns an archive writing under bucket/attendances/.
func NewMinioArchive(store ObjectStore, bucket string) *MinioArchive {
	return &MinioArchive{store: store, bucket: bucket, prefix: "attendances"}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *MinioArchive) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// ObjectKey is the key the payload of runID is stored under.
func (a *MinioArchive) ObjectKey(runID string) string {
	return path.Join(a.prefix, runID+".json")
}

// Archive uploads payload and returns its location as bucket/key.
func (a *MinioArchive) Archive(ctx context.Context, runID string, payload []byte) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("archive: run id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	key := a.ObjectKey(runID)
	reader := bytes.NewReader(payload)
	_, err := a.store.PutObject(
		ctx,
		a.bucket,
		key,
		reader,
		int64(reader.Len()),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", a.bucket, key, err)
	}
	return a.bucket + "/" + key, nil
}
