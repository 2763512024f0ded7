package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/chatloom/chat-service/internal/config"
)

// FileUpload carries a raw file and its descriptor through the submission path.
type FileUpload struct {
	Name string
	Size int64
	Type string
	Data []byte
}

// ImageUploader accepts a raw file and returns a durable URL.
type ImageUploader interface {
	Upload(ctx context.Context, upload FileUpload, namespace, threadID string) (string, error)
}

// MinioUploader stores uploads in an S3-compatible bucket.
type MinioUploader struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewMinioUploader connects to the configured object store.
func NewMinioUploader(cfg config.MediaConfig, logger *zap.Logger) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}
	return &MinioUploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:  logger,
	}, nil
}

// Upload writes the file under <namespace>/<threadID>/ and returns its URL.
func (u *MinioUploader) Upload(ctx context.Context, upload FileUpload, namespace, threadID string) (string, error) {
	objectName := fmt.Sprintf("%s/%s/%s-%s", namespace, threadID, uuid.NewString(), sanitizeName(upload.Name))

	_, err := u.client.PutObject(ctx, u.bucket, objectName,
		bytes.NewReader(upload.Data), upload.Size,
		minio.PutObjectOptions{ContentType: upload.Type})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	u.logger.Debug("image uploaded",
		zap.String("bucket", u.bucket),
		zap.String("object", objectName),
		zap.Int64("size", upload.Size))

	return fmt.Sprintf("%s/%s/%s", u.baseURL, u.bucket, objectName), nil
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		return "upload"
	}
	return name
}
