package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// DefaultDataset is the dataset id used when none is configured.
const DefaultDataset = "wearlink_autosync"

// Partition keys, outermost first.
var partitionKeys = []string{"device", "day", "status"}

// S3Config configures the S3 backend.
type S3Config struct {
	// Bucket is required.
	Bucket string
	Prefix string
	// Region is optional. Empty uses the default AWS chain.
	Region string
	// Endpoint overrides the AWS endpoint for S3-compatible providers such
	// as MinIO or R2.
	Endpoint string
	// UsePathStyle puts the bucket in the path. Most S3-compatible
	// providers need it.
	UsePathStyle bool
}

// Validate checks required fields.
func (c S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path splits "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(path, "/")
	return bucket, prefix
}

// NewDataset opens the run dataset on factory with the archive layout.
// Readers and writers must share it.
func NewDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return ds, nil
}

// NewFSDataset opens the dataset under root on the local filesystem.
func NewFSDataset(dataset, root string) (lode.Dataset, error) {
	return NewDataset(dataset, lode.NewFSFactory(root))
}

// NewMemoryDataset opens the dataset on a fresh in-memory store.
func NewMemoryDataset(dataset string) (lode.Dataset, error) {
	return NewDataset(dataset, lode.NewMemoryFactory())
}

// NewS3Dataset opens the dataset in an S3 bucket. Credentials come from the
// AWS default chain (env vars, shared config, IAM role).
func NewS3Dataset(ctx context.Context, dataset string, cfg S3Config) (lode.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapInitError(fmt.Errorf("failed to load AWS config: %w", err), dataset)
	}

	client := s3.NewFromConfig(awsConfig, s3Options(cfg)...)
	factory := func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{
			Bucket: cfg.Bucket,
			Prefix: cfg.Prefix,
		})
	}
	return NewDataset(dataset, factory)
}

func s3Options(cfg S3Config) []func(*s3.Options) {
	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return opts
}

// snapshotMatches reports whether any file in snap sits under key=value.
// An empty value matches everything.
func snapshotMatches(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	if snap.Manifest == nil {
		return false
	}
	for _, f := range snap.Manifest.Files {
		if hasPartition(f.Path, key, value) {
			return true
		}
	}
	return false
}

// hasPartition matches whole key=value path segments, so device=a does not
// match device=ab.
func hasPartition(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
