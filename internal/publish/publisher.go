package publish

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/services"
)

// Config describes the storage target.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
}

// FromConfig converts the [storage] section.
func FromConfig(s config.Storage) Config {
	return Config{
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		Bucket:    s.Bucket,
		Prefix:    s.Prefix,
		Region:    s.Region,
		UseSSL:    s.UseSSL,
	}
}

// Publisher uploads files to a single bucket.
type Publisher struct {
	client *minio.Client
	bucket string
	prefix string
	region string
	logger *slog.Logger
}

// New builds a publisher. It does not contact the server.
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" || strings.TrimSpace(cfg.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publishing", "storage client", "endpoint and bucket are required", nil)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publishing", "storage client", cfg.Endpoint, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		region: cfg.Region,
		logger: logger.With(logging.String(logging.FieldComponent, "publisher")),
	}, nil
}

// ObjectKey places name under prefix.
func ObjectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Publish uploads localPath as <prefix>/<basename> and returns its s3:// URI.
// The bucket is created when missing.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "publishing", "stat output", localPath, err)
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", err
	}
	key := ObjectKey(p.prefix, filepath.Base(localPath))
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upload, err := p.client.FPutObject(ctx, p.bucket, key, localPath, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "publishing", "upload", key, err)
	}
	uri := fmt.Sprintf("s3://%s/%s", p.bucket, key)
	logging.WithContext(ctx, p.logger).Info("dub published",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.String("uri", uri),
		logging.Int64("bytes", info.Size()),
		logging.String("etag", upload.ETag),
	)
	return uri, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return services.Wrap(services.ErrTransient, "publishing", "check bucket", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
		return services.Wrap(services.ErrTransient, "publishing", "create bucket", p.bucket, err)
	}
	return nil
}

// Check reports whether the storage endpoint answers and whether the bucket
// already exists. A missing bucket is not an error since Publish creates it.
func (p *Publisher) Check(ctx context.Context) (bool, error) {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "publishing", "check bucket", p.bucket, err)
	}
	return exists, nil
}
