package packager

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nguyengg/pvzip/archive"
	"github.com/nguyengg/pvzip/internal"
)

// Upload uploads the zip file described by res to "<dest>/<Target>/<Version>.zip".
//
// dest is an S3 URI in format s3://bucket or s3://bucket/prefix. The S3 URI of the uploaded object is returned.
func Upload(ctx context.Context, client manager.UploadAPIClient, res *Result, dest string, logger *log.Logger) (string, error) {
	bucket, prefix, err := internal.ParseS3URI(dest)
	if err != nil {
		return "", err
	}

	key := path.Join(strings.Trim(prefix, "/"), res.Target, res.Version+".zip")

	f, err := os.Open(res.Path)
	if err != nil {
		return "", fmt.Errorf(`open file "%s" error: %w`, res.Path, err)
	}
	defer f.Close()

	if logger == nil {
		logger = log.Default()
	}

	uri := fmt.Sprintf("s3://%s/%s", bucket, key)
	logger.Printf(`uploading "%s" to "%s"`, res.Path, uri)

	if _, err = manager.NewUploader(client, internal.LogUploadedParts(logger)).Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(archive.Zip{}.ContentType()),
	}); err != nil {
		return "", fmt.Errorf(`upload to "%s" error: %w`, uri, err)
	}

	logger.Printf(`uploaded "%s"`, uri)
	return uri, nil
}
