package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/blobstore/minio"
	"github.com/hupe1980/vemos/blobstore/s3"
)

// openStore resolves a store URI.
func openStore(ctx context.Context, uri string, g *globalOptions) (blobstore.BlobStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("empty store URI")
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return blobstore.NewLocalStore(uri), nil
	}

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("%s: missing bucket", uri)
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		store := s3.NewStore(awss3.NewFromConfig(cfg), u.Host, u.Path)
		if g.ddbTable == "" {
			return store, nil
		}
		return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), g.ddbTable, uri), nil
	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("%s: want minio://host:port/bucket/prefix", uri)
		}
		client, err := miniogo.New(u.Host, &miniogo.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: u.Query().Get("secure") != "false",
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minio.NewStore(client, bucket, prefix), nil
	default:
		return nil, fmt.Errorf("%s: unsupported store scheme %q", uri, u.Scheme)
	}
}
