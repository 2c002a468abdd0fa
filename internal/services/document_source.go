package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DocumentSource enumerates CVs for batch screening.
type DocumentSource interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, key string) (Document, error)
}

type localSource struct {
	root string
}

// NewLocalSource walks root recursively and yields every file with a
// supported extension.
func NewLocalSource(root string) DocumentSource {
	return &localSource{root: root}
}

func (s *localSource) List(ctx context.Context) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsAllowedUpload(path) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.root, err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *localSource) Fetch(_ context.Context, key string) (Document, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return Document{Filename: filepath.Base(key), Data: data}, nil
}

type S3SourceOptions struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type s3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Source reads CVs from an S3-compatible bucket. Static credentials are
// used when given, otherwise the default AWS credential chain applies.
func NewS3Source(ctx context.Context, opts S3SourceOptions) (DocumentSource, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Source{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (s *s3Source) List(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") || !IsAllowedUpload(key) {
				continue
			}
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *s3Source) Fetch(ctx context.Context, key string) (Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Document{}, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return Document{}, fmt.Errorf("failed to read object body: %w", err)
	}

	return Document{
		Filename: filepath.Base(key),
		MIMEType: aws.ToString(out.ContentType),
		Data:     buf.Bytes(),
	}, nil
}
