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
	"io"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestLocalClient_ReadWrite(t *testing.T) {
	ctx := context.Background()
	client := LocalClient{Root: t.TempDir()}
	handle := client.NewObjectHandle("refs", "genome/ref.fa")

	exists, err := Exists(ctx, handle)
	require.NoError(t, err)
	assert.False(t, exists)

	w, err := handle.NewWriter(ctx)
	require.NoError(t, err)
	_, err = io.WriteString(w, "0123456789")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	size, err := handle.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	testCases := []struct {
		offset, length int64
		want           string
	}{
		{0, -1, "0123456789"},
		{3, 4, "3456"},
		{8, 10, "89"},
	}
	for _, tc := range testCases {
		r, err := handle.NewRangeReader(ctx, tc.offset, tc.length)
		require.NoError(t, err)
		got, err := ioutil.ReadAll(r)
		r.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(got))
	}
}

func TestLocalClient_Missing(t *testing.T) {
	handle := LocalClient{Root: t.TempDir()}.NewObjectHandle("", "missing.fa")
	_, err := handle.NewRangeReader(context.Background(), 0, -1)
	assert.True(t, errors.Is(err, ErrNotExist), "got %v", err)
}

func TestReaderAt(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(root, "seq"), []byte("ACGTACGTAA"), 0644))
	r := NewReaderAt(context.Background(), LocalClient{Root: root}.NewObjectHandle("", "seq"))

	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "GTAC", string(buf[:n]))

	n, err = r.ReadAt(buf, 8)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "AA", string(buf[:n]))
}

// This test ensures that GCS error statuses keep mapping onto the storage
// errors callers check for.
func TestGCSClient_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		status fixedStatus
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrPermissionDenied},
		{"forbidden", http.StatusForbidden, ErrPermissionDenied},
		{"not found", http.StatusNotFound, ErrNotExist},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			client, err := gcs.NewClient(ctx, option.WithHTTPClient(&http.Client{Transport: tc.status}))
			require.NoError(t, err)

			handle := GCSClient{client}.NewObjectHandle("bucket", "ref.fa.fai")
			_, err = handle.NewRangeReader(ctx, 0, -1)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestNewClientFromBearerToken_MissingToken(t *testing.T) {
	req, err := http.NewRequest("GET", "/sequences", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic abc")

	_, _, err = NewClientFromBearerToken(req)
	assert.True(t, errors.Is(err, ErrPermissionDenied))
}

type fixedStatus int

func (code fixedStatus) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		Status:     http.StatusText(int(code)),
		StatusCode: int(code),
		Body:       http.NoBody,
		Header:     make(http.Header),
	}, nil
}
