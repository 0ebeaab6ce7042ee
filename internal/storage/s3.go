// Package storage uploads organisation and establishment logos to
// S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// S3Config holds object storage connection settings. Endpoint is optional and
// enables S3-compatible providers (MinIO, Scaleway, OVH).
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UseSSL          bool
	PublicBaseURL   string
	Prefix          string
}

// S3Store uploads files to a single bucket.
type S3Store struct {
	cfg      S3Config
	client   *s3.Client
	uploader *manager.Uploader
	logger   zerolog.Logger
}

// NewS3Store builds the AWS client and verifies bucket access.
func NewS3Store(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 storage: load config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		endpoint := cfg.Endpoint
		if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
			endpoint = u.Host
		}
		endpointURL := fmt.Sprintf("%s://%s", scheme, endpoint)
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	headCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = client.HeadBucket(headCtx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 storage: access bucket: %w", err)
	}

	return &S3Store{
		cfg:      cfg,
		client:   client,
		uploader: manager.NewUploader(client),
		logger:   logger.With().Str("component", "storage").Logger(),
	}, nil
}

// allowed logo content types mapped to file extensions.
var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// UploadLogo streams a logo to the bucket under a random key and returns its
// public URL. The content type must be one of the accepted image types.
func (s *S3Store) UploadLogo(ctx context.Context, body io.Reader, contentType string) (string, error) {
	ext, ok := logoExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("s3 storage: unsupported logo content type %q", contentType)
	}

	key := path.Join(s.cfg.Prefix, "logos", uuid.NewString()+ext)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 storage: upload logo: %w", err)
	}

	s.logger.Info().Str("key", key).Msg("logo uploaded")
	return s.publicURL(key), nil
}

// DeleteObject removes a stored object by its public URL. Unknown URLs are
// ignored.
func (s *S3Store) DeleteObject(ctx context.Context, publicURL string) error {
	base := strings.TrimSuffix(s.publicURL(""), "/")
	if !strings.HasPrefix(publicURL, base+"/") {
		return nil
	}
	key := strings.TrimPrefix(publicURL, base+"/")

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 storage: delete object: %w", err)
	}
	return nil
}

func (s *S3Store) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
