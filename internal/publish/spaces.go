// Package publish uploads converted tables to DigitalOcean Spaces or any
// other S3 compatible object store.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"github.com/tsawler/ttcsv/internal/config"
)

// SpacesClient uploads objects to a single bucket.
type SpacesClient struct {
	s3Client s3iface.S3API
	bucket   string
	endpoint string
	cdnURL   string
}

// NewSpacesClient creates a client from the Spaces configuration.
func NewSpacesClient(cfg config.Spaces) (*SpacesClient, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("no bucket configured")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = cfg.Region + ".digitaloceanspaces.com"
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return newClient(s3.New(sess), cfg.Bucket, endpoint, cfg.CDNURL), nil
}

func newClient(api s3iface.S3API, bucket, endpoint, cdnURL string) *SpacesClient {
	return &SpacesClient{
		s3Client: api,
		bucket:   bucket,
		endpoint: strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"),
		cdnURL:   strings.TrimSuffix(cdnURL, "/"),
	}
}

// Upload stores data under key and returns its public URL.
func (s *SpacesClient) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// URL returns the public URL of key, preferring the CDN when configured.
func (s *SpacesClient) URL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

// ObjectKey builds the key a run's output is stored under:
// <variant>/<source base name>-<run id><ext>.
func ObjectKey(variant, source string, runID uuid.UUID, ext string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	return fmt.Sprintf("%s/%s-%s%s", variant, sanitizeKey(base), runID, ext)
}

// sanitizeKey keeps key segments to letters, digits, dot, dash and underscore.
func sanitizeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
