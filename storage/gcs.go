// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	gcs "cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSClient is Client for accessing Google Cloud Storage.
type GCSClient struct {
	*gcs.Client
}

// NewObjectHandle returns a handle to a specified object in the
// storage engine.
func (c GCSClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return gcsObjectHandle{c.Bucket(bucket).Object(object)}
}

type gcsObjectHandle struct {
	*gcs.ObjectHandle
}

func (h gcsObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	r, err := h.ObjectHandle.NewRangeReader(ctx, offset, length)
	if err != nil {
		return nil, translateError(err)
	}
	return r, nil
}

func (h gcsObjectHandle) NewWriter(ctx context.Context) (io.WriteCloser, error) {
	return &gcsWriter{h.ObjectHandle.NewWriter(ctx)}, nil
}

func (h gcsObjectHandle) Size(ctx context.Context) (int64, error) {
	attrs, err := h.ObjectHandle.Attrs(ctx)
	if err != nil {
		return 0, translateError(err)
	}
	return attrs.Size, nil
}

type gcsWriter struct {
	*gcs.Writer
}

func (w *gcsWriter) Close() error {
	return translateError(w.Writer.Close())
}

// cachedClient lazily creates one storage client and shares it between
// requests.
type cachedClient struct {
	once   sync.Once
	client *gcs.Client
	err    error
}

func (c *cachedClient) get(opts ...option.ClientOption) (Client, http.Header, error) {
	c.once.Do(func() {
		c.client, c.err = gcs.NewClient(context.Background(), opts...)
		if c.err != nil {
			log.Errorf("Creating storage client: %v", c.err)
		}
	})
	if c.err != nil {
		return nil, nil, fmt.Errorf("creating storage client: %w", c.err)
	}
	return GCSClient{c.client}, nil, nil
}

var defaultStorageClient, publicStorageClient cachedClient

// NewDefaultClient returns a storage client that uses the application default
// credentials.  It caches the storage client for efficiency.
func NewDefaultClient(_ *http.Request) (Client, http.Header, error) {
	return defaultStorageClient.get()
}

// NewPublicClient returns a storage client that does not use any form of
// client authorization.  It can only be used to read publicly-readable
// objects. It caches the storage client for efficiency.
func NewPublicClient(_ *http.Request) (Client, http.Header, error) {
	return publicStorageClient.get(option.WithHTTPClient(http.DefaultClient))
}

// NewClientFromBearerToken constructs a storage client that uses the OAuth2
// bearer token found in req to make storage requests.  It returns the
// authorization header containing the bearer token as well.
func NewClientFromBearerToken(req *http.Request) (Client, http.Header, error) {
	authorization := req.Header.Get("Authorization")

	fields := strings.Split(authorization, " ")
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, nil, fmt.Errorf("%w: %v", ErrPermissionDenied, errMissingOrInvalidToken)
	}

	token := oauth2.Token{
		TokenType:   fields[0],
		AccessToken: fields[1],
	}
	// The client may be cached beyond the lifetime of req.
	client, err := gcs.NewClient(context.Background(), option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, nil, fmt.Errorf("creating client with token source: %w", err)
	}

	return GCSClient{client}, map[string][]string{
		"Authorization": []string{authorization},
	}, nil
}

// translateError maps GCS errors onto ErrNotExist and ErrPermissionDenied.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if err == gcs.ErrObjectNotExist || err == gcs.ErrBucketNotExist {
		return fmt.Errorf("%w: %v", ErrNotExist, err)
	}
	if apiErr, ok := err.(*googleapi.Error); ok {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotExist, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	return err
}
