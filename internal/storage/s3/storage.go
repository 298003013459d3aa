// Package s3 implements the storage Backend for AWS S3 and S3-compatible storage.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/univerify/univerify/internal/storage"
)

// maxReceiptSize bounds how much of an object Get reads.
const maxReceiptSize = 4 * 1024 * 1024

// S3Config holds configuration for S3 storage.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Custom endpoint for MinIO or other S3-compatible services
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool   // Use path-style addressing (required for MinIO)
	Prefix          string // Optional key prefix inside the bucket
}

// objectAPI is the subset of the S3 client used besides uploads.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Storage implements storage.Backend for AWS S3 and S3-compatible storage.
type S3Storage struct {
	client   objectAPI
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Storage creates a new S3Storage with the given configuration and
// checks that the bucket is reachable.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}

	var optFuncs []func(*config.LoadOptions) error

	if cfg.Region != "" {
		optFuncs = append(optFuncs, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFuncs = append(optFuncs, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, optFuncs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.PathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access S3 bucket %q: %w", cfg.Bucket, err)
	}

	slog.Debug("S3 receipt storage initialized",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"path_style", cfg.PathStyle,
	)

	return newS3Storage(client, client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Storage(client objectAPI, uploadClient manager.UploadAPIClient, bucket, prefix string) *S3Storage {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Storage{
		client:   client,
		uploader: manager.NewUploader(uploadClient),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// validateKey ensures the S3 key doesn't contain path traversal or dangerous characters.
func (s *S3Storage) validateKey(key string) error {
	// Reject keys that look URL-encoded to prevent double-encoding attacks
	if strings.Contains(key, "%") {
		return fmt.Errorf("encoded characters not allowed in key")
	}
	return storage.ValidateKey(key)
}

func (s *S3Storage) objectKey(key string) string {
	return path.Join(s.prefix, key)
}

// Put uploads data under key.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte) error {
	if err := s.validateKey(key); err != nil {
		return storage.NewStorageErrorWithMessage("Put", key, err, "key validation failed")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return storage.NewStorageError("Put", key, err)
	}

	slog.Debug("receipt stored in S3", "key", key, "size", len(data))
	return nil
}

// Get downloads the object stored under key.
func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.validateKey(key); err != nil {
		return nil, storage.NewStorageErrorWithMessage("Get", key, err, "key validation failed")
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.NewStorageError("Get", key, storage.ErrNotFound)
		}
		return nil, storage.NewStorageError("Get", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, maxReceiptSize))
	if err != nil {
		return nil, storage.NewStorageError("Get", key, err)
	}
	return data, nil
}

// List returns the keys under prefix in lexical order.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storage.NewStorageError("List", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return keys, nil
}

// Delete removes key from the bucket.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if err := s.validateKey(key); err != nil {
		return storage.NewStorageErrorWithMessage("Delete", key, err, "key validation failed")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		// S3 doesn't error on delete of non-existent objects by default
		return storage.NewStorageError("Delete", key, err)
	}

	slog.Debug("receipt deleted from S3", "key", key)
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}

var _ storage.Backend = (*S3Storage)(nil)
