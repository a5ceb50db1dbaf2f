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

package server

import (
	"encoding/json"
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
	"github.com/googlegenomics/fastadb/internal/analytics"
	"github.com/googlegenomics/fastadb/storage"
)

const (
	testFasta = ">chr1\nACGTACGTAC\nGGGGCCCCAA\nTT\n>chr2\nNNNNAAAA\n"
	testIndex = "chr1\t22\t6\t10\t11\nchr2\t8\t37\t8\t9\n"
)

func setupRouter(t *testing.T, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(root, "ref.fa"), []byte(testFasta), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(root, "ref.fa.fai"), []byte(testIndex), 0644))

	objects := storage.LocalClient{Root: root}
	return New(faidx.NewStore(objects, "ref.fa", faidx.Native{Objects: objects}), opts...)
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	router.ServeHTTP(w, req)
	return w
}

func TestListSequences(t *testing.T) {
	router := setupRouter(t)

	testCases := []struct {
		query string
		want  []string
	}{
		{"", []string{"chr1", "chr2"}},
		{"?offset=1", []string{"chr2"}},
		{"?offset=0&limit=1", []string{"chr1"}},
		{"?offset=-1&limit=1", []string{"chr2"}},
		{"?offset=5", []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			w := serve(router, "GET", "/sequences"+tc.query, "")
			require.Equal(t, http.StatusOK, w.Code)

			var got listing
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, 2, got.Total)
			ids := []string{}
			for _, entry := range got.Entries {
				ids = append(ids, entry.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestGetSequence(t *testing.T) {
	router := setupRouter(t)

	w := serve(router, "GET", "/sequences/chr2", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": "chr2", "length": 8}`, w.Body.String())
}

func TestFetchRegion(t *testing.T) {
	router := setupRouter(t)

	testCases := []struct {
		region string
		want   string
	}{
		{"chr1:0-4", "ACGT"},
		{"chr1:8-14", "ACGGGG"},
		{"chr1:7-10", "TAC"},
		{"chr1:10-7", "GTA"},
		{"chr2:0-8", "NNNNAAAA"},
	}
	for _, tc := range testCases {
		t.Run(tc.region, func(t *testing.T) {
			w := serve(router, "GET", "/regions/"+tc.region+"/sequence", "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tc.want, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		})
	}
}

func TestRegionStats(t *testing.T) {
	router := setupRouter(t)
	pileup := "chr1\t1\tA\t3\t..,\tIII\n" +
		"chr1\t2\tC\t2\t,T\tII\n" +
		"chr2\t1\tN\t9\tAAAAAAAAA\tIIIIIIIII\n"

	w := serve(router, "POST", "/regions/chr1:0-4/stats", pileup)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		Consensus       string  `json:"consensus"`
		Coverages       []int   `json:"coverages"`
		TotalCoverage   int     `json:"total_coverage"`
		AverageCoverage float64 `json:"average_coverage"`
		Summary         struct {
			Max float64 `json:"max"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "AYgt", got.Consensus)
	assert.Equal(t, []int{3, 2, 0, 0}, got.Coverages)
	assert.Equal(t, 5, got.TotalCoverage)
	assert.Equal(t, 1.25, got.AverageCoverage)
	assert.Equal(t, 3.0, got.Summary.Max)

	w = serve(router, "POST", "/regions/chr1:0-4/stats?min_coverage=2", pileup)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Acgt", got.Consensus)
	assert.Equal(t, 5, got.TotalCoverage)
}

func TestRegionPlot(t *testing.T) {
	router := setupRouter(t)
	pileup := "chr1\t1\tA\t3\t..,\tIII\n" +
		"chr1\t2\tC\t2\t,T\tII\n"

	testCases := []struct {
		target      string
		contentType string
		magic       string
	}{
		{"/regions/chr1:0-4/plot", "image/png", "\x89PNG"},
		{"/regions/chr1:0-4/plot?format=svg", "image/svg+xml", "<svg"},
	}
	for _, tc := range testCases {
		t.Run(tc.target, func(t *testing.T) {
			w := serve(router, "POST", tc.target, pileup)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tc.contentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tc.magic)
		})
	}
}

func TestErrors(t *testing.T) {
	router := setupRouter(t)

	testCases := []struct {
		name, method, target, body string
		code                       int
		error                      string
	}{
		{"unknown entry", "GET", "/sequences/chrX", "", http.StatusNotFound, "NotFound"},
		{"unknown region entry", "GET", "/regions/chrX:0-4/sequence", "", http.StatusNotFound, "NotFound"},
		{"malformed region", "GET", "/regions/chr1-0-4/sequence", "", http.StatusBadRequest, "InvalidInput"},
		{"region past end", "GET", "/regions/chr1:0-99/sequence", "", http.StatusBadRequest, "InvalidRange"},
		{"bad limit", "GET", "/sequences?limit=ten", "", http.StatusBadRequest, "InvalidInput"},
		{"bad threshold", "POST", "/regions/chr1:0-4/stats?threshold=high", "", http.StatusBadRequest, "InvalidInput"},
		{"malformed pileup", "POST", "/regions/chr1:0-4/stats", "chr1\tone\tA\n", http.StatusBadRequest, "InvalidInput"},
		{"observation outside region", "POST", "/regions/chr1:0-4/stats", "chr1\t9\tA\t1\t.\tI\n", http.StatusBadRequest, "InvalidInput"},
		{"unsupported plot format", "POST", "/regions/chr1:0-4/plot?format=bmp", "", http.StatusBadRequest, "InvalidInput"},
		{"plot of unknown entry", "POST", "/regions/chrX:0-4/plot", "", http.StatusNotFound, "NotFound"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(router, tc.method, tc.target, tc.body)
			if got, want := w.Code, tc.code; got != want {
				t.Fatalf("wrong status code: got %d, want %d (%s)", got, want, w.Body.String())
			}
			var got map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tc.error, got["error"])
			assert.NotEmpty(t, got["message"])
		})
	}
}

func TestRequestID(t *testing.T) {
	router := setupRouter(t)

	w := serve(router, "GET", "/sequences", "")
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/sequences", nil)
	req.Header.Set(requestIDHeader, "abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}

func TestTracking(t *testing.T) {
	var hits []analytics.Hit
	router := setupRouter(t, WithTracking(func(h []analytics.Hit) { hits = append(hits, h...) }))

	serve(router, "GET", "/regions/chr1:4-0/sequence", "")
	serve(router, "GET", "/sequences/chrX", "")

	require.Len(t, hits, 3)
	assert.Equal(t, "Sequence Fetched", hits[0]["ea"])
	assert.Equal(t, "reverse", hits[0]["el"])
	assert.Equal(t, "4", hits[0]["ev"])
	assert.Equal(t, "Entry Request Received", hits[1]["ea"])
	assert.Equal(t, "Errors", hits[2]["ec"])
	assert.Equal(t, "NotFound", hits[2]["ea"])
}

func TestNewPerRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(root, "ref.fa"), []byte(testFasta), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(root, "ref.fa.fai"), []byte(testIndex), 0644))

	router := NewPerRequest(func(req *http.Request) (*faidx.Store, error) {
		if req.Header.Get("Authorization") == "" {
			return nil, storage.ErrPermissionDenied
		}
		objects := storage.LocalClient{Root: root}
		return faidx.NewStore(objects, "ref.fa", faidx.Native{Objects: objects}), nil
	})

	w := serve(router, "GET", "/sequences/chr1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PermissionDenied")

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/sequences/chr1", nil)
	req.Header.Set("Authorization", "Bearer token")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got genomics.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, genomics.Entry{ID: "chr1", Length: 22}, got)
}
