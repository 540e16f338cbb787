package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/jeovahfialho/relatorio-vendas/internal/config"
	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/pkg/logger"
	"github.com/jeovahfialho/relatorio-vendas/pkg/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStore implements Store on a MinIO, AWS S3 or any S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates the client and makes sure the bucket exists.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
		Region: cfg.StorageRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao criar cliente minio: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.StorageBucket)
	if err != nil {
		return nil, fmt.Errorf("erro ao verificar bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.StorageBucket, minio.MakeBucketOptions{Region: cfg.StorageRegion}); err != nil {
			return nil, fmt.Errorf("erro ao criar bucket %q: %w", cfg.StorageBucket, err)
		}
		logger.Info("bucket criado", zap.String("bucket", cfg.StorageBucket))
	}

	return &MinioStore{
		client: client,
		bucket: cfg.StorageBucket,
	}, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StorageOperationDuration.WithLabelValues("get"))

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap("get", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap("get", key, err)
	}

	metrics.RecordStorageOperation("get", "success")
	return data, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StorageOperationDuration.WithLabelValues("put"))

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return s.wrap("put", key, err)
	}

	metrics.RecordStorageOperation("put", "success")
	return nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StorageOperationDuration.WithLabelValues("list"))

	keys := make([]string, 0)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, s.wrap("list", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)

	metrics.RecordStorageOperation("list", "success")
	return keys, nil
}

// Delete stats the object first: S3 deletes of missing keys succeed silently.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StorageOperationDuration.WithLabelValues("delete"))

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return s.wrap("delete", key, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.wrap("delete", key, err)
	}

	metrics.RecordStorageOperation("delete", "success")
	return nil
}

func (s *MinioStore) HealthCheck(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return nil
}

func (s *MinioStore) wrap(op, key string, err error) error {
	if isNotFound(err) {
		metrics.RecordStorageOperation(op, "not_found")
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	metrics.RecordStorageOperation(op, "error")
	return fmt.Errorf("%w: %s %q: %v", domain.ErrStore, op, key, err)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket")
}
