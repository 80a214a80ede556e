package internal

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ParseS3URI parses S3 URIs in format s3://bucket/key or s3://bucket.
//
// The only validation that exists right now is that text must start with s3:// and have a non-empty bucket.
func ParseS3URI(text string) (bucket, key string, err error) {
	// parse S3 URI with optional key prefix. don't bother validating valid bucket names.
	if !strings.HasPrefix(text, "s3://") {
		return "", "", fmt.Errorf(`"%s" does not start with s3://`, text)
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(text, "s3://"), "/")
	if bucket == "" {
		return "", "", fmt.Errorf(`"%s" has no bucket`, text)
	}

	return
}

// GetObjectAPIClient abstracts the single S3 API used by OpenObject.
type GetObjectAPIClient interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// OpenObject starts streaming the S3 object s3://bucket/key.
//
// The returned size is -1 if S3 did not report a content length. Caller must close the returned io.ReadCloser.
func OpenObject(ctx context.Context, client GetObjectAPIClient, bucket, key string) (io.ReadCloser, int64, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf(`get "s3://%s/%s" error: %w`, bucket, key, err)
	}

	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// LogUploadedParts wraps the uploader's client so that every successfully uploaded part is logged with a running
// tally.
func LogUploadedParts(logger *log.Logger) func(*manager.Uploader) {
	return func(uploader *manager.Uploader) {
		uploader.S3 = &partLoggingClient{UploadAPIClient: uploader.S3, logger: logger}
	}
}

type partLoggingClient struct {
	manager.UploadAPIClient
	logger *log.Logger
	n      atomic.Int32
}

func (c *partLoggingClient) UploadPart(ctx context.Context, input *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	out, err := c.UploadAPIClient.UploadPart(ctx, input, optFns...)
	if err == nil {
		c.logger.Printf("uploaded %d parts so far", c.n.Add(1))
	}

	return out, err
}

var _ manager.UploadAPIClient = &partLoggingClient{}
