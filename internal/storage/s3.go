package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// s3ObjectAPI is the part of the S3 client the store needs
type s3ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store uploads receipts to an S3 (or S3 compatible) bucket
type S3Store struct {
	client  s3ObjectAPI
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Store loads AWS configuration. Static keys are used when set,
// otherwise the default credential chain applies.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	if cfg.Endpoint != "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return newS3Store(client, cfg.Bucket, cfg.Prefix, baseURL), nil
}

func newS3Store(client s3ObjectAPI, bucket, prefix, baseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, baseURL: baseURL}
}

// Save uploads data and returns the object URL
func (s *S3Store) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := validKey(key); err != nil {
		return "", errors.StorageError("Failed to store receipt", err)
	}
	name := objectName(s.prefix, key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", errors.StorageError("Failed to upload receipt", err)
	}
	return s.baseURL + "/" + name, nil
}

// Delete removes the object stored under key
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return errors.StorageError("Failed to delete receipt", err)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectName(s.prefix, key)),
	})
	if err != nil {
		return errors.StorageError("Failed to delete receipt", err)
	}
	return nil
}
