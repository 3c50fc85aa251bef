package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrDisabled = errors.New("image uploads are not configured")
	ErrNotImage = errors.New("only image uploads are allowed")
	ErrEmpty    = errors.New("empty upload")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Uploader stores post images in a bucket and returns their public URL.
type Uploader struct {
	cfg     S3Config
	baseURL string
	client  s3Client
	logger  *slog.Logger
}

// NewUploader returns an Uploader. It is disabled unless cfg names a bucket
// and credentials.
func NewUploader(cfg S3Config, publicBaseURL string, logger *slog.Logger) *Uploader {
	u := &Uploader{
		cfg:     cfg,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
	}
	if cfg.complete() {
		u.client = newS3Client(cfg)
	}
	return u
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (u *Uploader) Enabled() bool {
	return u.client != nil
}

// Upload writes body under posts/<uuid><ext> and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	client := u.client
	bucket := u.cfg.Bucket

	if client == nil {
		return "", ErrDisabled
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", ErrNotImage
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}

	key := "posts/" + uuid.NewString() + extension(filename, mediaType)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mediaType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	u.logger.Info("image uploaded", "key", key, "bytes", len(data))
	return u.publicURL(bucket, key), nil
}

func (u *Uploader) publicURL(bucket, key string) string {
	if u.baseURL != "" {
		return u.baseURL + "/" + key
	}
	return "/" + bucket + "/" + key
}

// extension prefers the client's filename extension and falls back to one
// registered for mediaType.
func extension(filename, mediaType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
