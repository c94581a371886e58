package fileio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v6"
	"github.com/nickyhof/FrameBridge/config"
)

// urlScheme represents the scheme of a URL
type urlScheme string

const (
	schemeFile  urlScheme = "file"
	schemeS3    urlScheme = "s3"
	schemeHTTP  urlScheme = "http"
	schemeHTTPS urlScheme = "https"
	schemeLocal urlScheme = "local" // no scheme, local path
)

// detectScheme detects the URL scheme from a path string
func detectScheme(path string) urlScheme {
	lowerPath := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lowerPath, "s3://"):
		return schemeS3
	case strings.HasPrefix(lowerPath, "https://"):
		return schemeHTTPS
	case strings.HasPrefix(lowerPath, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lowerPath, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

func localPath(path string) (string, error) {
	p := strings.TrimPrefix(path, "file://")
	if filepath.IsAbs(p) {
		return p, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// openReader opens a reader for the given URL/path
func (s *Store) openReader(ctx context.Context, path string) (io.ReadCloser, error) {
	switch detectScheme(path) {
	case schemeLocal, schemeFile:
		p, err := localPath(path)
		if err != nil {
			return nil, err
		}
		f, err := s.fs.Open(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return f, nil

	case schemeHTTP, schemeHTTPS:
		return s.openHTTPReader(ctx, path)

	case schemeS3:
		return s.openS3Reader(ctx, path)
	}
	return nil, fmt.Errorf("unsupported URL scheme: %s", path)
}

// openWriter opens a writer for the given URL/path
// writer is an output target. Close commits what was written; Abort
// discards it instead.
type writer interface {
	io.WriteCloser
	Abort() error
}

// localWriter removes its file when aborted.
type localWriter struct {
	billy.File
	fs   billy.Filesystem
	path string
}

func (w *localWriter) Abort() error {
	_ = w.File.Close()
	return w.fs.Remove(w.path)
}

func (s *Store) openWriter(ctx context.Context, path string) (writer, error) {
	switch detectScheme(path) {
	case schemeLocal, schemeFile:
		p, err := localPath(path)
		if err != nil {
			return nil, err
		}
		if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		f, err := s.fs.Create(p)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
		return &localWriter{File: f, fs: s.fs, path: p}, nil

	case schemeHTTP, schemeHTTPS:
		return nil, fmt.Errorf("HTTP/HTTPS does not support writing")

	case schemeS3:
		w, err := s.openS3Writer(ctx, path)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, fmt.Errorf("unsupported URL scheme: %s", path)
}

func (s *Store) openHTTPReader(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// parseS3URL parses s3://bucket/key into bucket and key parts
func parseS3URL(url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

// s3Options builds the client options for cfg.
func s3Options(cfg config.S3Config) ([]func(*awsconfig.LoadOptions) error, []func(*s3.Options)) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // For S3-compatible services
		})
	}
	return opts, clientOpts
}

func (s *Store) s3Client(ctx context.Context) (*s3.Client, error) {
	opts, clientOpts := s3Options(s.s3)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func (s *Store) openS3Reader(ctx context.Context, url string) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := s.s3Client(ctx)
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

// s3Writer buffers the object and uploads it on Close. An aborted writer
// uploads nothing.
type s3Writer struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buffer bytes.Buffer
	closed bool
}

func (w *s3Writer) Write(p []byte) (n int, err error) {
	if w.closed {
		return 0, fmt.Errorf("writer is closed")
	}
	return w.buffer.Write(p)
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buffer.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (w *s3Writer) Abort() error {
	w.closed = true
	w.buffer.Reset()
	return nil
}

func (s *Store) openS3Writer(ctx context.Context, url string) (*s3Writer, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	return &s3Writer{ctx: ctx, client: client, bucket: bucket, key: key}, nil
}
