// Package exportsink stores exported report artifacts on disk or in S3.
package exportsink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/goliatone/go-reports/components/reports"
)

// DefaultRegion is used when the AWS profile does not set one.
const DefaultRegion = "us-east-1"

// FileSink writes artifacts into Dir.
type FileSink struct {
	Dir string
}

var _ reports.ArtifactSink = (*FileSink)(nil)

// Put writes the artifact and returns its file:// location.
func (s *FileSink) Put(_ context.Context, artifact reports.Artifact) (string, error) {
	if artifact.Name == "" {
		return "", errors.New("exportsink: artifact name is required")
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("exportsink: create %s: %w", dir, err)
	}
	target := filepath.Join(dir, filepath.Base(artifact.Name))
	if err := os.WriteFile(target, artifact.Data, 0o644); err != nil {
		return "", fmt.Errorf("exportsink: write %s: %w", target, err)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// PutObjectAPI is the part of the S3 client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads artifacts to Bucket under Prefix.
type S3Sink struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
}

var _ reports.ArtifactSink = (*S3Sink)(nil)

// NewS3Sink builds a sink from the default AWS configuration chain.
func NewS3Sink(ctx context.Context, bucket, prefix, profile string) (*S3Sink, error) {
	opts := []func(*config.LoadOptions) error{config.WithDefaultRegion(DefaultRegion)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("exportsink: load aws config: %w", err)
	}
	return &S3Sink{Client: s3.NewFromConfig(cfg), Bucket: bucket, Prefix: prefix}, nil
}

// Put uploads the artifact and returns its s3:// location.
func (s *S3Sink) Put(ctx context.Context, artifact reports.Artifact) (string, error) {
	if s.Client == nil {
		return "", errors.New("exportsink: s3 client is required")
	}
	if s.Bucket == "" {
		return "", errors.New("exportsink: bucket is required")
	}
	if artifact.Name == "" {
		return "", errors.New("exportsink: artifact name is required")
	}
	key := path.Join(strings.Trim(s.Prefix, "/"), artifact.Name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(artifact.Data),
	}
	if artifact.ContentType != "" {
		input.ContentType = aws.String(artifact.ContentType)
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("exportsink: put s3://%s/%s: %w", s.Bucket, key, err)
	}
	return "s3://" + s.Bucket + "/" + key, nil
}
