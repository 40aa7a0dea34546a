// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"context"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCS is an FS that writes objects to a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// NewGCS returns an FS writing to bucket, with every object name
// prefixed by prefix. If no client options are given, application
// default credentials are used.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	if len(opts) == 0 {
		ts, err := google.DefaultTokenSource(ctx, storage.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithTokenSource(ts))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCS{client: client, bucket: client.Bucket(bucket), prefix: prefix}, nil
}

func (fs *GCS) NewWriter(ctx context.Context, name, contentType string) (io.WriteCloser, error) {
	w := fs.bucket.Object(path.Join(fs.prefix, name)).NewWriter(ctx)
	w.ContentType = contentType
	return w, nil
}

// Close closes the underlying client.
func (fs *GCS) Close() error {
	return fs.client.Close()
}
