package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	sc "github.com/clipstream/backend/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// S3Uploader stores media files in an S3-compatible bucket (e.g. MinIO) and
// returns their public object URLs.
type S3Uploader struct {
	client       *s3.Client
	bucket       string
	baseEndpoint string
}

// NewS3Uploader builds an uploader from the server configuration.
func NewS3Uploader(cfg *sc.Config) (*S3Uploader, error) {
	awsCfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,     // MINIO_ROOT_USER
			cfg.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Uploader{
		client:       client,
		bucket:       cfg.S3Bucket,
		baseEndpoint: strings.TrimRight(cfg.S3BaseEndpoint, "/"),
	}, nil
}

func randomStorageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// Upload puts the file at localPath into the bucket under a date-partitioned
// random key and returns its public URL. An empty localPath is a no-op.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("error opening upload: %w", err)
	}
	defer f.Close()

	ext := filepath.Ext(localPath)
	key := randomStorageKey(ext)

	in := &s3.PutObjectInput{
		Bucket: &u.bucket,
		Key:    &key,
		Body:   f,
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		in.ContentType = &ct
	}

	if _, err := putObject(u.client, ctx, in); err != nil {
		return "", fmt.Errorf("error uploading to s3: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", u.baseEndpoint, u.bucket, key), nil
}
