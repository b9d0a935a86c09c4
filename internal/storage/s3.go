package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveConfig holds configuration for the article archive.
type ArchiveConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// Archive stores raw article text in S3-compatible storage, keyed by
// content hash. The database stays the source of truth; the archive is a
// replayable copy of the original text.
type Archive struct {
	client *s3.Client
	bucket string
}

// NewArchive creates an Archive backed by S3 or an S3-compatible endpoint.
func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Archive{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func articleKey(contentHash string) string {
	return "articles/" + contentHash + ".txt"
}

// PutArticle writes the raw article text under its content hash. Writing
// the same hash twice overwrites with identical bytes, so the call is
// idempotent.
func (a *Archive) PutArticle(ctx context.Context, contentHash, text string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(articleKey(contentHash)),
		Body:        strings.NewReader(text),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive article %s: %w", contentHash, err)
	}
	return nil
}

// GetArticle reads the archived text for a content hash.
func (a *Archive) GetArticle(ctx context.Context, contentHash string) (string, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(articleKey(contentHash)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read archived article %s: %w", contentHash, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read archived article %s: %w", contentHash, err)
	}
	return string(body), nil
}

// DeleteArticle removes an archived article.
func (a *Archive) DeleteArticle(ctx context.Context, contentHash string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(articleKey(contentHash)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete archived article %s: %w", contentHash, err)
	}
	return nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}
