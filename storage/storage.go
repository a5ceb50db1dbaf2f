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

// Package storage provides access to the objects that hold reference data,
// either in Google Cloud Storage or in a local directory.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotExist is returned when an object does not exist.
	ErrNotExist = errors.New("object does not exist")
	// ErrPermissionDenied is returned when the caller may not access an
	// object.
	ErrPermissionDenied = errors.New("permission denied")

	errMissingOrInvalidToken = errors.New("missing or invalid token")
)

// Client gives access to objects in a storage engine.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in
	// the storage engine.
	NewObjectHandle(bucket, object string) ObjectHandle
}

// ObjectHandle refers to a single object.
type ObjectHandle interface {
	// NewRangeReader returns a reader that reads from a specified
	// range. Length of -1 means to capture everything until the
	// end.
	NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error)
	// NewWriter returns a writer that replaces the object's content.  The
	// content is committed when the writer is closed.
	NewWriter(ctx context.Context) (io.WriteCloser, error)
	// Size returns the length of the object in bytes.
	Size(ctx context.Context) (int64, error)
}

// Exists reports whether the object behind handle exists.
func Exists(ctx context.Context, handle ObjectHandle) (bool, error) {
	if _, err := handle.Size(ctx); err != nil {
		if errors.Is(err, ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type readerAt struct {
	ctx    context.Context
	handle ObjectHandle
}

// NewReaderAt returns an io.ReaderAt that issues one ranged read per call.
func NewReaderAt(ctx context.Context, handle ObjectHandle) io.ReaderAt {
	return &readerAt{ctx, handle}
}

func (r *readerAt) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	rc, err := r.handle.NewRangeReader(r.ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := io.ReadFull(rc, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}
