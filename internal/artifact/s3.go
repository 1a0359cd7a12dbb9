package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/assetforge/render-be/internal/config"
	"github.com/assetforge/render-be/internal/domain"
)

// S3Store is the artifact store backed by S3 or any S3-compatible
// endpoint (MinIO, R2).
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// NewS3Store creates an S3-backed artifact store from configuration.
func NewS3Store(ctx context.Context, bucket string, cfg appconfig.S3Config, logger *slog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info("S3 artifact store initialized",
		slog.String("bucket", bucket),
		slog.String("region", cfg.Region),
	)

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		publicURL: cfg.PublicURL,
		logger:    logger,
	}, nil
}

func (s *S3Store) Fetch(ctx context.Context, ref domain.ArtifactRef, localPath string) error {
	bucket := ref.Bucket
	if bucket == "" {
		bucket = s.bucket
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, ref.Key)
		}
		return fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("failed to create local directory: %w", err)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("failed to write local file: %w", err)
	}

	return nil
}

func (s *S3Store) PublishFile(ctx context.Context, key, localPath string) (domain.ArtifactRef, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	return s.put(ctx, key, f)
}

func (s *S3Store) PublishBytes(ctx context.Context, key string, data []byte) (domain.ArtifactRef, error) {
	return s.put(ctx, key, bytes.NewReader(data))
}

func (s *S3Store) put(ctx context.Context, key string, body io.Reader) (domain.ArtifactRef, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(ContentTypeFor(key)),
	})
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}

	s.logger.Debug("Object published",
		slog.String("bucket", s.bucket),
		slog.String("key", key),
	)

	return domain.ArtifactRef{
		Bucket: s.bucket,
		Key:    key,
		URL:    s.URL(key),
	}, nil
}

func (s *S3Store) URL(key string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

func (s *S3Store) Bucket() string {
	return s.bucket
}

// PresignUpload returns a time-limited PUT URL for direct client uploads.
func (s *S3Store) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}

	return req.URL, nil
}
