// Package archive pushes generated settlement sheets to the archive
// object store. Uploads are fire-and-forget side tasks, independent of
// email chain success.
package archive

import (
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"bidrelay_backend/platform/config"
)

const sheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Uploader stores files under the configured archive folder.
type Uploader struct {
	client *minio.Client
	bucket string
	folder string
}

// NewUploader creates a MinIO-backed uploader from the archive configuration.
func NewUploader(cfg config.ArchiveConfig) (*Uploader, error) {
	if !cfg.IsArchiveEnabled() {
		return nil, fmt.Errorf("archive store is not configured")
	}

	client, err := minio.New(cfg.GetArchiveEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetArchiveAccessKey(), cfg.GetArchiveSecretKey(), ""),
		Secure: cfg.GetArchiveUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create archive client: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: cfg.GetArchiveBucket(),
		folder: cfg.GetArchiveFolder(),
	}, nil
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check archive bucket: %w", err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create archive bucket %s: %w", u.bucket, err)
		}
	}
	return nil
}

// Upload stores the local file under the archive folder as remoteName.
func (u *Uploader) Upload(ctx context.Context, localPath, remoteName string) error {
	key := path.Join(u.folder, remoteName)

	_, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: sheetContentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
