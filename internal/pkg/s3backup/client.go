package s3backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// Client copies rendered invoices into the archive bucket. It satisfies the
// job queue's InvoiceArchiver.
type Client struct {
	api    *s3.Client
	bucket string
}

// NewClient connects to the bucket of cfg and makes sure it exists.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("invoice archive is disabled")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	c := &Client{
		api: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.EndpointURL == "" {
				return
			}
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}),
		bucket: cfg.BucketName,
	}
	if err := c.ensureBucket(ctx, cfg); err != nil {
		return nil, err
	}
	log.Infof("[InvoiceArchive] Archiving invoices to bucket %s", c.bucket)
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, cfg *Config) error {
	_, headErr := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if headErr == nil {
		return nil
	}
	if !cfg.CreateBucket {
		return fmt.Errorf("bucket %s not accessible: %w", c.bucket, headErr)
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(c.bucket)}
	// AWS rejects an explicit us-east-1 constraint, other services ignore it.
	if cfg.EndpointURL == "" && cfg.Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(cfg.Region),
		}
	}
	if _, err := c.api.CreateBucket(ctx, in); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	log.Warnf("[InvoiceArchive] Created missing bucket %s", c.bucket)
	return nil
}

// ArchiveInvoice uploads a rendered invoice under its dated object key and
// returns that key.
func (c *Client) ArchiveInvoice(ctx context.Context, kind, localPath string, at time.Time) (string, error) {
	key := InvoiceObjectKey(kind, filepath.Base(localPath), at)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open invoice: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat invoice: %w", err)
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(getContentType(filepath.Ext(localPath))),
		Metadata:      map[string]string{"invoice-kind": kind},
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", c.bucket, key, err)
	}
	return key, nil
}

func getContentType(ext string) string {
	switch ext {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
