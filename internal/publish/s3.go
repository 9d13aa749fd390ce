package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// cacheControl keeps CDN and browser copies fresh on the one-minute
// publishing cadence.
const cacheControl = "max-age=60"

// S3Publisher uploads artifacts to an S3 bucket with content-type and
// cache-control metadata, suitable for serving the status page straight
// from the bucket's static website endpoint.
type S3Publisher struct {
	client *s3.Client
	bucket string
	names  Names
}

// NewS3Publisher builds the AWS client and returns a publisher for the
// bucket. Credential resolution follows the default AWS chain; an empty
// region defers to the environment.
func NewS3Publisher(ctx context.Context, region, bucket string, names Names) (*S3Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("publish: load AWS config: %w", err)
	}
	return &S3Publisher{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		names:  names,
	}, nil
}

func (p *S3Publisher) PublishJSON(ctx context.Context, content string) error {
	return p.put(ctx, p.names.JSON, strings.NewReader(content), "application/json")
}

func (p *S3Publisher) PublishHTML(ctx context.Context, content string) error {
	return p.put(ctx, p.names.HTML, strings.NewReader(content), "text/html")
}

func (p *S3Publisher) PublishPNG(ctx context.Context, content []byte) error {
	return p.put(ctx, p.names.PNG, bytes.NewReader(content), "image/png")
}

func (p *S3Publisher) PublishLastError(ctx context.Context, content string) error {
	return p.put(ctx, p.names.LastError, strings.NewReader(content), "application/json")
}

func (p *S3Publisher) put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("publish: upload %s: %w", key, err)
	}
	return nil
}
