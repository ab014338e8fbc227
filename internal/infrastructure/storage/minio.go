package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"label-analyzer/internal/core/image"
	"label-analyzer/internal/pkg/common"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config MinIO / S3 連線設定
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Store 將掃描的標籤圖片存到物件儲存
type Store struct {
	client *minio.Client
	bucket string
	clock  common.Clock
}

// New 建立 MinIO 連線，bucket 不存在時自動建立
func New(ctx context.Context, cfg Config) (*Store, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return newStore(cli, cfg.Bucket, common.SystemClock{}), nil
}

func newStore(cli *minio.Client, bucket string, clock common.Clock) *Store {
	return &Store{client: cli, bucket: bucket, clock: clock}
}

// ObjectKey labels/<yyyy>/<mm>/<hash>.<ext>
func ObjectKey(hash, ext string, t time.Time) string {
	return fmt.Sprintf("labels/%04d/%02d/%s.%s", t.Year(), int(t.Month()), hash, ext)
}

// Archive 上傳圖片並回傳物件 URL
func (s *Store) Archive(ctx context.Context, hash string, img *image.Image) (string, error) {
	key := ObjectKey(hash, img.Extension(), s.clock.Now().UTC())

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)),
		minio.PutObjectOptions{ContentType: img.MediaType})
	if err != nil {
		return "", fmt.Errorf("failed to upload label image: %w", err)
	}

	// bucket 為私有時需改用 presigned URL
	endpoint := s.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", endpoint.Scheme, endpoint.Host, s.bucket, key), nil
}
