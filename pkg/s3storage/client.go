// "Тупой" клиент объектного хранилища для инструмента count_bucket_objects.

package s3storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/poncho-chat/pkg/config"
)

// ClientInterface определяет интерфейс для S3 клиента.
// Используется для мокания в тестах.
type ClientInterface interface {
	CountObjects(ctx context.Context, prefix string) (int, error)
}

type Client struct {
	api    *minio.Client
	bucket string
}

// Проверка что Client реализует ClientInterface
var _ ClientInterface = (*Client)(nil)

// New создает клиент, используя наш конфиг.
// Сетевых запросов не выполняет.
func New(cfg config.S3Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("tools.object_store.endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("tools.object_store.bucket is required")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
	}, nil
}

// Bucket возвращает имя бакета.
func (c *Client) Bucket() string {
	return c.bucket
}

// CountObjects считает объекты под префиксом (рекурсивно).
// "Папки" (ключи на /) не учитываются.
func (c *Client) CountObjects(ctx context.Context, prefix string) (int, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	count := 0
	for obj := range c.api.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return 0, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		count++
	}
	return count, nil
}
