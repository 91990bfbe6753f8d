package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"construyo-opshub/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("objectstore", fx.Provide(ProvideArchiver))

// Archiver mirrors rendered assets into the configured bucket, best effort.
type Archiver interface {
	ArchiveURL(ctx context.Context, sourceURL, objectName string) (string, error)
}

type archiver struct {
	client *minio.Client
	bucket string
}

type noopArchiver struct{}

func (noopArchiver) ArchiveURL(ctx context.Context, sourceURL, objectName string) (string, error) {
	return "", nil
}

func ProvideArchiver(c *config.Config) Archiver {
	if c.Minio.Endpoint == "" {
		return noopArchiver{}
	}

	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		zap.L().Error("failed to create MinIO client", zap.Error(err))
		return noopArchiver{}
	}

	zap.L().Info("MinIO client initialized", zap.String("endpoint", c.Minio.Endpoint), zap.String("bucket", c.Minio.BucketName))
	return &archiver{client: client, bucket: c.Minio.BucketName}
}

// ArchiveURL downloads the asset at sourceURL and stores it under objectName.
func (a *archiver) ArchiveURL(ctx context.Context, sourceURL, objectName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download asset: unexpected status %d", resp.StatusCode)
	}

	size := resp.ContentLength
	var reader io.Reader = resp.Body

	info, err := a.client.PutObject(ctx, a.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: resp.Header.Get("Content-Type"),
	})
	if err != nil {
		return "", fmt.Errorf("store asset: %w", err)
	}

	return fmt.Sprintf("%s/%s", info.Bucket, info.Key), nil
}
