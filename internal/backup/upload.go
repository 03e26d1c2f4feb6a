package backup

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const zipContentType = "application/zip"

// Uploader stores a finished backup somewhere outside the process and
// returns a location describing where it went.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// S3Uploader is the subset of manager.Uploader used to send backups.
// This allows for easy mocking in tests.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Config contains the settings for uploading backups to S3-compatible storage.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3Target uploads backups to a bucket.
type S3Target struct {
	bucket   string
	prefix   string
	uploader S3Uploader
}

// NewS3Target builds an S3 client from cfg and the default AWS credential chain.
func NewS3Target(ctx context.Context, cfg S3Config) (*S3Target, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	// R2, MinIO and other S3-compatible services
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return NewS3TargetWithUploader(cfg.Bucket, cfg.Prefix, manager.NewUploader(client)), nil
}

// NewS3TargetWithUploader creates a target around an existing uploader.
func NewS3TargetWithUploader(bucket, prefix string, uploader S3Uploader) *S3Target {
	return &S3Target{
		bucket:   bucket,
		prefix:   prefix,
		uploader: uploader,
	}
}

// Upload stores data under prefix/filename and returns its s3:// URL.
func (t *S3Target) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	key := filename
	if t.prefix != "" {
		key = path.Join(t.prefix, filename)
	}

	_, err := t.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(zipContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	location := fmt.Sprintf("s3://%s/%s", t.bucket, key)
	if err != nil {
		return "", fmt.Errorf("uploading to %s: %w", location, err)
	}

	return location, nil
}
