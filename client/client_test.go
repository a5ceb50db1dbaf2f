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

package client

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/fastadb/faidx"
	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/server"
	"github.com/googlegenomics/fastadb/storage"
)

const testFasta = ">chr1\nACGTACGTAC\nGGGGCCCCAA\nTT\n>chr2\nNNNNAAAA\n"

func newTestClient(t *testing.T) *Client {
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(root, "ref.fa"), []byte(testFasta), 0644))
	objects := storage.LocalClient{Root: root}

	ts := httptest.NewServer(server.New(faidx.NewStore(objects, "ref.fa", faidx.Native{Objects: objects})))
	t.Cleanup(ts.Close)

	client, err := New(ts.URL+"/", ts.Client())
	require.NoError(t, err)
	return client
}

func TestNew_InvalidURL(t *testing.T) {
	for _, input := range []string{"", "localhost", "/sequences", "http://%zz"} {
		if _, err := New(input, nil); err == nil {
			t.Errorf("New(%q) succeeded", input)
		}
	}
}

func TestClient_Entries(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	listing, err := client.Entries(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, &Listing{Total: 2, Entries: []genomics.Entry{{ID: "chr1", Length: 22}, {ID: "chr2", Length: 8}}}, listing)

	listing, err = client.Entries(ctx, -1, 1)
	require.NoError(t, err)
	assert.Equal(t, []genomics.Entry{{ID: "chr2", Length: 8}}, listing.Entries)

	entry, err := client.Entry(ctx, "chr1")
	require.NoError(t, err)
	assert.Equal(t, genomics.Entry{ID: "chr1", Length: 22}, entry)
}

func TestClient_Fetch(t *testing.T) {
	client := newTestClient(t)

	seq, err := client.Fetch(context.Background(), genomics.Region{Entry: "chr1", Start: 9, End: 12})
	require.NoError(t, err)
	assert.Equal(t, "CGG", string(seq))

	seq, err = client.Fetch(context.Background(), genomics.Region{Entry: "chr1", Start: 12, End: 9, Orientation: genomics.Reverse})
	require.NoError(t, err)
	assert.Equal(t, "CCG", string(seq))
}

func TestClient_Stats(t *testing.T) {
	client := newTestClient(t)
	pileup := "chr1\t1\tA\t3\t..,\tIII\nchr1\t2\tC\t2\t,T\tII\n"

	region := genomics.Region{Entry: "chr1", Start: 0, End: 4}
	stats, err := client.Stats(context.Background(), region, strings.NewReader(pileup), StatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, region, stats.Region)
	assert.Equal(t, "AYgt", stats.Consensus)
	assert.Equal(t, 5, stats.TotalCoverage)
	assert.Equal(t, 0.5, stats.BaseRatios[1].T)
	assert.Equal(t, 3.0, stats.Summary.Max)

	threshold := 0.6
	stats, err = client.Stats(context.Background(), region, strings.NewReader(pileup), StatsQuery{Threshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, "ACgt", stats.Consensus)

	reverse := genomics.Region{Entry: "chr1", Start: 4, End: 0, Orientation: genomics.Reverse}
	stats, err = client.Stats(context.Background(), reverse, strings.NewReader(pileup), StatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, genomics.Reverse, stats.Region.Orientation)
	assert.Equal(t, "acRT", stats.Consensus)
}

func TestClient_Errors(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Entry(ctx, "chrX")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NotFound", apiErr.Name)

	_, err = client.Fetch(ctx, genomics.Region{Entry: "chr2", Start: 0, End: 9})
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, "InvalidRange", apiErr.Name)

	assert.EqualError(t, &Error{Status: http.StatusBadGateway}, "unexpected response status: 502")
}
