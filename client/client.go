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

// Package client talks to a fastadb server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2/google"

	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/regionstats"
)

const scope = "https://www.googleapis.com/auth/devstorage.read_only"

// Error is a failed API request.
type Error struct {
	Status  int
	Name    string
	Message string
}

func (err *Error) Error() string {
	if err.Name == "" {
		return fmt.Sprintf("unexpected response status: %d", err.Status)
	}
	return fmt.Sprintf("%s (%d): %s", err.Name, err.Status, err.Message)
}

// Client sends requests to one server.  Create it with New or NewGoogle.
type Client struct {
	base string
	http *http.Client
}

// New returns a Client for the server at baseURL that sends requests with
// httpClient, or http.DefaultClient when httpClient is nil.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server URL %q is not absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{strings.TrimSuffix(u.String(), "/"), httpClient}, nil
}

// NewGoogle returns a Client that authenticates with the application default
// credentials, so a secure server can read the reference on the caller's
// behalf.
func NewGoogle(ctx context.Context, baseURL string) (*Client, error) {
	httpClient, err := google.DefaultClient(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return New(baseURL, httpClient)
}

// Listing is one page of the server's index.
type Listing struct {
	Total   int              `json:"total"`
	Entries []genomics.Entry `json:"entries"`
}

// Entries lists up to limit entries starting at offset.  A limit of zero or
// less lists every entry from offset.
func (c *Client) Entries(ctx context.Context, offset, limit int) (*Listing, error) {
	query := url.Values{"offset": []string{strconv.Itoa(offset)}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var listing Listing
	if err := c.getJSON(ctx, "/sequences?"+query.Encode(), &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Entry returns the entry named id.
func (c *Client) Entry(ctx context.Context, id string) (genomics.Entry, error) {
	var entry genomics.Entry
	err := c.getJSON(ctx, "/sequences/"+url.PathEscape(id), &entry)
	return entry, err
}

// Fetch returns the sequence text of region.
func (c *Client) Fetch(ctx context.Context, region genomics.Region) ([]byte, error) {
	resp, err := c.do(ctx, "GET", regionPath(region, "sequence"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	seq, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading sequence: %w", err)
	}
	return seq, nil
}

// StatsQuery overrides the server's engine settings.  Nil fields keep the
// server defaults.
type StatsQuery struct {
	MinCoverage *int
	Threshold   *float64
}

// Stats is the server's answer to a statistics request.
type Stats struct {
	regionstats.Stats
	Summary regionstats.CoverageSummary `json:"summary"`
}

// Stats uploads the mpileup text in pileup and returns the statistics of
// region.
func (c *Client) Stats(ctx context.Context, region genomics.Region, pileup io.Reader, q StatsQuery) (*Stats, error) {
	query := url.Values{}
	if q.MinCoverage != nil {
		query.Set("min_coverage", strconv.Itoa(*q.MinCoverage))
	}
	if q.Threshold != nil {
		query.Set("threshold", strconv.FormatFloat(*q.Threshold, 'g', -1, 64))
	}
	path := regionPath(region, "stats")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := c.do(ctx, "POST", path, pileup)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decoding statistics: %w", err)
	}
	return &stats, nil
}

func regionPath(region genomics.Region, op string) string {
	return "/regions/" + url.PathEscape(region.String()) + "/" + op
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := c.do(ctx, "GET", path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// do sends a request and turns responses other than 200 into *Error.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	}
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}
	return resp, nil
}

func errorFromResponse(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var v struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err == nil {
		apiErr.Name, apiErr.Message = v.Error, v.Message
	}
	return apiErr
}
