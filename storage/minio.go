package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"JNChoral/config"
	"JNChoral/core/apperr"
	"JNChoral/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// MinioStore keeps gallery media in one MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// InitMinio 初始化 MinIO 客户端，存储桶不存在时创建
func InitMinio(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("MinIO bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	logger.Info("MinIO client initialized",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return &MinioStore{client: client, bucket: cfg.MinioBucket}, nil
}

func (m *MinioStore) Bucket() string { return m.bucket }

// Put uploads r under key.
func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Get opens key for reading. A missing object is apperr.ErrNotFound.
func (m *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil, fmt.Errorf("object %s: %w", key, apperr.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return obj, toObjectInfo(stat), nil
}

// Remove deletes key. Removing a missing object succeeds.
func (m *MinioStore) Remove(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// List returns the objects under prefix sorted by key, with totals.
func (m *MinioStore) List(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	var objects []ObjectInfo
	stats := &BucketStats{}
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list %s: %w", prefix, object.Err)
		}
		objects = append(objects, *toObjectInfo(object))
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, stats, nil
}

func toObjectInfo(o minio.ObjectInfo) *ObjectInfo {
	return &ObjectInfo{
		Key:          o.Key,
		Size:         o.Size,
		LastModified: o.LastModified,
		ContentType:  o.ContentType,
		ETag:         o.ETag,
	}
}

// FormatSize renders a byte count for humans.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
