package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source reads control files and seeds out of an S3-compatible bucket,
// adapted from the teacher's S3Backend down to its read path: Put/Delete
// dropped along with Backend, the custom-endpoint/path-style plumbing for
// MinIO-alikes and the throttled-reader bandwidth cap kept as-is.
type S3Source struct {
	client       *s3.Client
	bucket       string
	prefix       string
	maxBandwidth int64
}

// S3Config mirrors the teacher's S3Config, minus the write-path fields it
// no longer needs.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Prefix       string
	MaxBandwidth int64 // Bytes/sec, 0 = unlimited
}

// NewS3Source builds an S3Source from cfg.
func NewS3Source(cfg S3Config) (*S3Source, error) {
	ctx := context.Background()

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Source{
		client:       client,
		bucket:       cfg.Bucket,
		prefix:       cfg.Prefix,
		maxBandwidth: cfg.MaxBandwidth,
	}, nil
}

func (s *S3Source) Open(key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefixKey(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("S3 download failed: %w", err)
	}

	if s.maxBandwidth <= 0 {
		return resp.Body, nil
	}
	return throttle(resp.Body, s.maxBandwidth), nil
}

func (s *S3Source) Size(key string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefixKey(key)),
	})
	if err != nil {
		return 0, err
	}
	return *resp.ContentLength, nil
}

func (s *S3Source) Exists(key string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefixKey(key)),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *S3Source) Close() error { return nil }

func (s *S3Source) prefixKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// throttledReader paces reads to a fixed bytes/sec budget, unchanged from
// the teacher's upload-side implementation except for the constructor name.
type throttledReader struct {
	reader      io.ReadCloser
	bytesPerSec int64
	lastRead    time.Time
	bytesRead   int64
}

func throttle(r io.ReadCloser, bytesPerSec int64) *throttledReader {
	return &throttledReader{reader: r, bytesPerSec: bytesPerSec, lastRead: time.Now()}
}

func (t *throttledReader) Read(p []byte) (int, error) {
	elapsed := time.Since(t.lastRead)
	expectedTime := time.Duration(float64(t.bytesRead) / float64(t.bytesPerSec) * float64(time.Second))
	if expectedTime > elapsed {
		time.Sleep(expectedTime - elapsed)
	}

	n, err := t.reader.Read(p)
	t.bytesRead += int64(n)
	t.lastRead = time.Now()
	return n, err
}

func (t *throttledReader) Close() error { return t.reader.Close() }
