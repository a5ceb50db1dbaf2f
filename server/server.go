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

// Package server exposes a reference sequence store over HTTP.
//
// Endpoints:
//
//	GET  /sequences?offset=&limit=          index listing
//	GET  /sequences/:id                     one entry
//	GET  /regions/:region/sequence          sequence text
//	POST /regions/:region/stats             statistics for an mpileup body
//	POST /regions/:region/plot?format=png   coverage plot for an mpileup body
//
// Regions use the id:start-end form with 0-based half-open coordinates.
// Errors are reported as {"error": name, "message": text}.
package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/googlegenomics/fastadb/faidx"
	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/internal/analytics"
	"github.com/googlegenomics/fastadb/internal/coverageplot"
	"github.com/googlegenomics/fastadb/pileup"
	"github.com/googlegenomics/fastadb/regionstats"
)

// StoreFunc returns the Store that serves req.  Errors wrapping
// storage.ErrPermissionDenied are reported as PermissionDenied.
type StoreFunc func(req *http.Request) (*faidx.Store, error)

type server struct {
	newStore   StoreFunc
	statsOpts  []regionstats.Option
	readerOpts []pileup.ReaderOption
	track      func([]analytics.Hit)
}

// Option configures the handlers returned by New.
type Option func(*server)

// WithStatsOptions sets the default engine options of the stats endpoint.
// The min_coverage and threshold query parameters override them.
func WithStatsOptions(opts ...regionstats.Option) Option {
	return func(s *server) { s.statsOpts = append(s.statsOpts, opts...) }
}

// WithReaderOptions sets the options used to decode mpileup request bodies.
func WithReaderOptions(opts ...pileup.ReaderOption) Option {
	return func(s *server) { s.readerOpts = append(s.readerOpts, opts...) }
}

// WithTracking reports anonymous usage events for each request to track.
func WithTracking(track func([]analytics.Hit)) Option {
	return func(s *server) { s.track = track }
}

// New returns a gin engine serving store.
func New(store *faidx.Store, opts ...Option) *gin.Engine {
	return NewPerRequest(func(*http.Request) (*faidx.Store, error) { return store, nil }, opts...)
}

// NewPerRequest returns a gin engine that calls newStore on each request to
// find the Store to serve it from.
func NewPerRequest(newStore StoreFunc, opts ...Option) *gin.Engine {
	s := &server{newStore: newStore}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog())
	if s.track != nil {
		router.Use(analytics.Middleware(s.track))
	}
	router.GET("/sequences", s.listSequences)
	router.GET("/sequences/:id", s.getSequence)
	router.GET("/regions/:region/sequence", s.fetchRegion)
	router.POST("/regions/:region/stats", s.regionStats)
	router.POST("/regions/:region/plot", s.regionPlot)
	return router
}

type listing struct {
	Total   int              `json:"total"`
	Entries []genomics.Entry `json:"entries"`
}

func (s *server) store(c *gin.Context) (*faidx.Store, bool) {
	store, err := s.newStore(c.Request)
	if err != nil {
		writeError(c, "opening reference", err)
		return nil, false
	}
	return store, true
}

func (s *server) listSequences(c *gin.Context) {
	analytics.Track(c, analytics.Event("Sequences", "List Request Received", "", nil))
	store, ok := s.store(c)
	if !ok {
		return
	}
	index, err := store.Index(c.Request.Context())
	if err != nil {
		writeError(c, "loading index", err)
		return
	}

	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		writeError(c, "parsing offset", newInvalidInputError("offset", err))
		return
	}
	limit, err := intQuery(c, "limit", index.Len())
	if err != nil {
		writeError(c, "parsing limit", newInvalidInputError("limit", err))
		return
	}

	c.JSON(http.StatusOK, listing{
		Total:   index.Len(),
		Entries: index.Slice(offset, limit).Entries(),
	})
}

func (s *server) getSequence(c *gin.Context) {
	analytics.Track(c, analytics.Event("Sequences", "Entry Request Received", "", nil))
	store, ok := s.store(c)
	if !ok {
		return
	}
	index, err := store.Index(c.Request.Context())
	if err != nil {
		writeError(c, "loading index", err)
		return
	}
	entry, err := index.Get(c.Param("id"))
	if err != nil {
		writeError(c, "looking up entry", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *server) fetchRegion(c *gin.Context) {
	region, err := genomics.ParseRegion(c.Param("region"))
	if err != nil {
		writeError(c, "parsing region", err)
		return
	}
	store, ok := s.store(c)
	if !ok {
		return
	}
	seq, err := store.Fetch(c.Request.Context(), region)
	if err != nil {
		writeError(c, "fetching "+region.String(), err)
		return
	}
	size := int64(len(seq))
	analytics.Track(c, analytics.Event("Regions", "Sequence Fetched", region.Orientation.String(), &size))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", seq)
}

type statsResponse struct {
	*regionstats.Stats
	Summary regionstats.CoverageSummary `json:"summary"`
}

func (s *server) regionStats(c *gin.Context) {
	stats, ok := s.computeStats(c)
	if !ok {
		return
	}
	observed := int64(stats.Observed)
	analytics.Track(c, analytics.Event("Regions", "Statistics Computed", "", &observed))
	c.JSON(http.StatusOK, statsResponse{stats, stats.CoverageSummary()})
}

func (s *server) regionPlot(c *gin.Context) {
	format := c.DefaultQuery("format", "png")
	contentType, ok := coverageplot.ContentType(format)
	if !ok {
		writeError(c, "parsing format", newInvalidInputError("format", fmt.Errorf("unsupported plot format %q", format)))
		return
	}
	stats, ok := s.computeStats(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := coverageplot.Write(&buf, stats, format); err != nil {
		writeError(c, "plotting "+stats.Region.String(), err)
		return
	}
	size := int64(buf.Len())
	analytics.Track(c, analytics.Event("Regions", "Coverage Plotted", format, &size))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// computeStats runs the engine over the mpileup request body.  It writes the
// error response and returns false on failure.
func (s *server) computeStats(c *gin.Context) (*regionstats.Stats, bool) {
	region, err := genomics.ParseRegion(c.Param("region"))
	if err != nil {
		writeError(c, "parsing region", err)
		return nil, false
	}

	opts := append([]regionstats.Option(nil), s.statsOpts...)
	if v := c.Query("min_coverage"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(c, "parsing min_coverage", newInvalidInputError("min_coverage", err))
			return nil, false
		}
		opts = append(opts, regionstats.WithMinCoverage(n))
	}
	if v := c.Query("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(c, "parsing threshold", newInvalidInputError("threshold", err))
			return nil, false
		}
		opts = append(opts, regionstats.WithConsensusThreshold(f))
	}

	store, ok := s.store(c)
	if !ok {
		return nil, false
	}
	readerOpts := append([]pileup.ReaderOption{pileup.WithReference(region.Entry)}, s.readerOpts...)
	src := pileup.NewReader(c.Request.Body, readerOpts...)
	stats, err := store.Stats(c.Request.Context(), region, src, opts...)
	if err != nil {
		writeError(c, "computing statistics for "+region.String(), err)
		return nil, false
	}
	return stats, true
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
