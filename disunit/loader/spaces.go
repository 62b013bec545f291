package loader

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the subset of the S3 client used by SpacesSource.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type SpacesConfig struct {
	Key    string `toml:"key"`
	Secret string `toml:"secret" env:"DISUNIT_SPACES_SECRET"`
	Region string `toml:"region"`
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
}

// SpacesSource reads artifacts from a DigitalOcean Spaces (S3 compatible) bucket.
// Object keys are used as artifact paths.
type SpacesSource struct {
	client ObjectAPI
	bucket string
	prefix string
}

func NewSpacesSource(ctx context.Context, cfg SpacesConfig) (*SpacesSource, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load spaces config: %w", err)
	}

	return NewSpacesSourceWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

func NewSpacesSourceWithClient(client ObjectAPI, bucket string, prefix string) *SpacesSource {
	return &SpacesSource{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *SpacesSource) key(root string) string {
	root = strings.Trim(root, "/")
	switch {
	case s.prefix == "":
		return root
	case root == "":
		return s.prefix
	default:
		return s.prefix + "/" + root
	}
}

func (s *SpacesSource) List(ctx context.Context, root string) ([]string, error) {
	prefix := s.key(root)
	if prefix != "" {
		prefix += "/"
	}

	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if key := aws.ToString(obj.Key); IsArtifact(key) {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *SpacesSource) Read(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", s.bucket, path, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
