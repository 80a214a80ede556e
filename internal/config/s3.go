package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client returns the S3 client for the profile given by ForS3.
//
// The client is created once and cached.
func (l *Loader) NewS3Client(ctx context.Context, optFns ...func(*s3.Options)) (*s3.Client, error) {
	if c, ok := l.s3clientCache.Load("s3"); ok {
		return c.(*s3.Client), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithSharedConfigProfile(l.ForS3().Profile))
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(cfg, optFns...)
	l.s3clientCache.Store("s3", c)
	return c, nil
}

// NewS3Client calls Loader.NewS3Client on the DefaultLoader instance.
func NewS3Client(ctx context.Context, optFns ...func(*s3.Options)) (*s3.Client, error) {
	return DefaultLoader.NewS3Client(ctx, optFns...)
}
