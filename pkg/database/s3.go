package database

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client definition aws s3 client
type S3Client struct {
	Client *s3.Client
	Bucket string
}

var _ ObjectStore = (*S3Client)(nil)

// NewS3Client create a s3 client, path style so s3 compatible endpoints work too
func NewS3Client(ctx context.Context, d S3Connection) (*S3Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(d.Region),
	}
	if d.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(d.Endpoint))
	}
	if d.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     d.AccessKey,
				SecretAccessKey: d.SecretKey,
			},
		}))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	return &S3Client{
		Client: s3.NewFromConfig(cfg, func(o *s3.Options) { o.UsePathStyle = true }),
		Bucket: d.Bucket,
	}, nil
}

// UploadFile s3 upload file func
func (c *S3Client) UploadFile(ctx context.Context, objectName, filePath, contentType string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	_, err = c.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.Bucket),
		Key:           aws.String(objectName),
		Body:          file,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(info.Size()),
	})
	return err
}

// DownloadFile s3 download file func
func (c *S3Client) DownloadFile(ctx context.Context, objectName, destPath string) error {
	out, err := c.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, out.Body); err != nil {
		return fmt.Errorf("copy object: %w", err)
	}
	return nil
}
