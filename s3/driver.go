// Package s3 provides a remote-object-store transport driver for
// S3-compatible services.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/courier"
)

// Config holds S3-compatible object store settings.
type Config struct {
	Bucket    string
	ClientID  string // access key ID
	Secret    string
	Endpoint  string // custom endpoint for MinIO or other S3-compatible services
	Region    string // default: us-east-1
	PublicURL string // CDN or public URL prefix used in result references
	PathStyle bool   // path-style URLs, required for MinIO
}

const defaultRegion = "us-east-1"

// Driver uploads payload bodies directly to an S3-compatible bucket.
// The body goes straight to the remote store; there is no local
// staging step.
type Driver struct {
	client *awss3.Client
	config Config
}

// New creates an S3 driver.
func New(cfg Config) *Driver {
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	opts := []func(*awss3.Options){
		func(o *awss3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.ClientID,
				cfg.Secret,
				"",
			)
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return &Driver{
		client: awss3.New(awss3.Options{}, opts...),
		config: cfg,
	}
}

// Factory builds the driver from configuration.
// Required: client_id, secret, bucket. Optional: endpoint, region,
// public_url, path_style.
func Factory(cfg courier.DriverConfig) (courier.Driver, error) {
	if err := cfg.Require("client_id", "secret", "bucket"); err != nil {
		return nil, err
	}

	clientID, _ := cfg.String("client_id")
	secret, _ := cfg.String("secret")
	bucket, _ := cfg.String("bucket")
	endpoint, _ := cfg.String("endpoint")
	region, _ := cfg.String("region")
	publicURL, _ := cfg.String("public_url")
	pathStyle, _ := cfg.Bool("path_style")

	return New(Config{
		Bucket:    bucket,
		ClientID:  clientID,
		Secret:    secret,
		Endpoint:  endpoint,
		Region:    region,
		PublicURL: publicURL,
		PathStyle: pathStyle,
	}), nil
}

// Execute uploads the payload body under its identity key.
func (d *Driver) Execute(ctx context.Context, p *courier.Payload) (*courier.Result, error) {
	key := buildKey(p.Destination, p.ID)

	input := &awss3.PutObjectInput{
		Bucket:        aws.String(d.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(p.Body),
		ContentLength: aws.Int64(int64(len(p.Body))),
	}
	if p.ContentType != "" {
		input.ContentType = aws.String(p.ContentType)
	}

	if _, err := d.client.PutObject(ctx, input); err != nil {
		return nil, wrapErr(err)
	}

	return &courier.Result{
		Status:    courier.StatusSuccess,
		Reference: d.objectURL(key),
	}, nil
}

// buildKey constructs the object key from destination and identity.
// Format: {destination}/{id}, each segment sanitized.
func buildKey(destination, id string) string {
	parts := make([]string, 0, 2)
	if destination != "" {
		parts = append(parts, sanitizeSegment(destination))
	}
	parts = append(parts, sanitizeSegment(id))
	return strings.Join(parts, "/")
}

// objectURL generates the public URL for an uploaded object.
func (d *Driver) objectURL(key string) string {
	if d.config.PublicURL != "" {
		return strings.TrimSuffix(d.config.PublicURL, "/") + "/" + key
	}

	if d.config.Endpoint != "" {
		endpoint := strings.TrimSuffix(d.config.Endpoint, "/")
		if d.config.PathStyle {
			return fmt.Sprintf("%s/%s/%s", endpoint, d.config.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", endpoint, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", d.config.Bucket, d.config.Region, key)
}

// segmentRegex matches characters that are not safe in object keys.
var segmentRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeSegment removes traversal attempts and unsafe characters
// from a key segment.
func sanitizeSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	return segmentRegex.ReplaceAllString(segment, "_")
}

// wrapErr surfaces the S3 API error code when one is available.
func wrapErr(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("s3: upload failed (%s): %w", apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("s3: upload failed: %w", err)
}

var _ courier.Driver = (*Driver)(nil)
