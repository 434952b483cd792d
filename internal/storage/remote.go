package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
)

// RemoteConfig carries the settings for s3:// log destinations. The zero
// value uses the default AWS credential chain.
type RemoteConfig struct {
	Region    string
	Endpoint  string // S3-compatible endpoint, path-style addressing
	AccessKey string
	SecretKey string
}

type urlScheme string

const (
	schemeLocal urlScheme = "local"
	schemeFile  urlScheme = "file"
	schemeS3    urlScheme = "s3"
	schemeHTTP  urlScheme = "http"
)

func detectScheme(path string) urlScheme {
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return schemeS3
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lower, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

// SaveLog writes every entry of log to path, one per line. Local parent
// directories are created as needed.
func SaveLog(ctx context.Context, log *CommandLog, path string, cfg RemoteConfig) error {
	var buf bytes.Buffer
	if _, err := log.WriteTo(&buf); err != nil {
		return dberr.IO(err)
	}
	switch detectScheme(path) {
	case schemeLocal, schemeFile:
		return dberr.IO(writeLocal(strings.TrimPrefix(path, "file://"), buf.Bytes()))
	case schemeS3:
		return dberr.IO(putS3(ctx, path, buf.Bytes(), cfg))
	default:
		return dberr.IO(fmt.Errorf("%s: HTTP destinations are read-only", path))
	}
}

// OpenLog opens a saved log for reading.
func OpenLog(ctx context.Context, path string, cfg RemoteConfig) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch detectScheme(path) {
	case schemeLocal, schemeFile:
		rc, err = os.Open(strings.TrimPrefix(path, "file://"))
	case schemeS3:
		rc, err = getS3(ctx, path, cfg)
	case schemeHTTP:
		rc, err = getHTTP(ctx, path)
	}
	if err != nil {
		return nil, dberr.IO(err)
	}
	return rc, nil
}

func writeLocal(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func getHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// parseS3URL splits s3://bucket/key.
func parseS3URL(url string) (bucket, key string, err error) {
	rest := url[len("s3://"):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

func s3Client(ctx context.Context, cfg RemoteConfig) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func putS3(ctx context.Context, url string, data []byte, cfg RemoteConfig) error {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return err
	}
	client, err := s3Client(ctx, cfg)
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func getS3(ctx context.Context, url string, cfg RemoteConfig) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := s3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	return resp.Body, nil
}
