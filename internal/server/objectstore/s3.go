// Package objectstore issues presigned S3 URLs for resource attachments and
// removes attachments that are no longer referenced.
// Any S3-compatible server works; local development uses MinIO.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/onboardkit/internal/common"
	sc "github.com/dmitrijs2005/onboardkit/internal/server/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}
)

// PresignedUpload is a one-shot upload target.
type PresignedUpload struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// Store hands out upload URLs for attachments and removes attachments that
// are no longer referenced.
type Store interface {
	PresignUpload(ctx context.Context, resourceID string) (*PresignedUpload, error)
	DeleteObject(ctx context.Context, key string) error
}

type S3Presigner struct {
	region   string
	user     string
	password string
	endpoint string
	bucket   string
	ttl      time.Duration
	now      func() time.Time
}

func NewS3Presigner(cfg *sc.Config) *S3Presigner {
	return &S3Presigner{
		region:   cfg.S3Region,
		user:     cfg.S3RootUser,
		password: cfg.S3RootPassword,
		endpoint: cfg.S3BaseEndpoint,
		bucket:   cfg.S3Bucket,
		ttl:      cfg.UploadURLTTL,
		now:      time.Now,
	}
}

// ObjectKey builds the storage key of a new attachment of resourceID.
func ObjectKey(resourceID string, at time.Time) string {
	return fmt.Sprintf("resources/%s/%d/%02d/%02d/%v", resourceID, at.Year(), at.Month(), at.Day(), uuid.New())
}

func (p *S3Presigner) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(p.user, p.password, "")))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.endpoint)
		o.UsePathStyle = true
	}), nil
}

func (p *S3Presigner) PresignUpload(ctx context.Context, resourceID string) (*PresignedUpload, error) {
	if p.bucket == "" {
		return nil, common.Configuration("Object storage is not configured", nil)
	}

	c, err := p.client(ctx)
	if err != nil {
		return nil, common.Configuration("Object storage is not configured", err)
	}
	pc := newS3PresignClient(c)

	now := p.now()
	key := ObjectKey(resourceID, now)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return nil, common.Internal("Error creating upload URL", err)
	}

	return &PresignedUpload{Key: key, URL: req.URL, ExpiresAt: now.Add(p.ttl)}, nil
}

// DeleteObject removes an attachment. Deleting a missing key succeeds.
func (p *S3Presigner) DeleteObject(ctx context.Context, key string) error {
	if p.bucket == "" {
		return common.Configuration("Object storage is not configured", nil)
	}

	c, err := p.client(ctx)
	if err != nil {
		return common.Configuration("Object storage is not configured", err)
	}

	if err := deleteObject(c, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return common.Internal("Error deleting attachment", err)
	}
	return nil
}
