package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultPresignTTL = 30 * time.Minute

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
	URLTTL          time.Duration
}

// S3Archive uploads generated reports to a bucket under
// <prefix>/<yyyy>/<mm>/<dd>/<file> and hands out presigned download links.
type S3Archive struct {
	mc     *minio.Client
	bucket string
	prefix string
	urlTTL time.Duration
	now    func() time.Time
}

func NewS3Archive(cfg S3Config) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &S3Archive{
		mc:     mc,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		urlTTL: ttl,
		now:    time.Now,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *S3Archive) EnsureBucket(ctx context.Context, region string) error {
	exists, err := a.mc.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.mc.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", a.bucket, err)
	}
	return nil
}

func (a *S3Archive) objectKey(fileName string, at time.Time) string {
	return path.Join(a.prefix, at.UTC().Format("2006/01/02"), path.Base(fileName))
}

// Archive uploads a generated report and returns a presigned download URL
// valid for the configured TTL.
func (a *S3Archive) Archive(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	key := a.objectKey(fileName, a.now())

	_, err := a.mc.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", path.Base(fileName)),
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(fileName)))
	u, err := a.mc.PresignedGetObject(ctx, a.bucket, key, a.urlTTL, params)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return u.String(), nil
}
