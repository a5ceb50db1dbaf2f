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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalClient is a Client backed by a directory.  Buckets are
// sub-directories of Root; the empty bucket is Root itself.
type LocalClient struct {
	Root string
}

// NewObjectHandle returns a handle to the file bucket/object under Root.
func (c LocalClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return localObjectHandle{filepath.Join(c.Root, bucket, filepath.FromSlash(object))}
}

type localObjectHandle struct {
	path string
}

type readCloser struct {
	io.Reader
	io.Closer
}

func (h localObjectHandle) NewRangeReader(_ context.Context, offset, length int64) (io.ReadCloser, error) {
	f, err := os.Open(h.path)
	if err != nil {
		return nil, translateFileError(err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seeking to %d: %w", offset, err)
	}
	if length < 0 {
		return f, nil
	}
	return &readCloser{io.LimitReader(f, length), f}, nil
}

func (h localObjectHandle) NewWriter(_ context.Context) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return nil, translateFileError(err)
	}
	f, err := os.Create(h.path)
	if err != nil {
		return nil, translateFileError(err)
	}
	return f, nil
}

func (h localObjectHandle) Size(_ context.Context) (int64, error) {
	info, err := os.Stat(h.path)
	if err != nil {
		return 0, translateFileError(err)
	}
	return info.Size(), nil
}

func translateFileError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrNotExist, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}
