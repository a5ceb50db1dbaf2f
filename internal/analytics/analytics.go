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

// Package analytics reports anonymous usage events to Google Analytics.
package analytics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultEndpoint  = "https://www.google-analytics.com"
	defaultBatchSize = 20 // The maximum number supported by batch endpoint.

	hitsKey = "analytics.hits"
)

// Hit is a single analytics event, keyed by measurement protocol parameter.
type Hit map[string]string

// Event returns an event hit.  label may be empty and value may be nil.
func Event(category, action, label string, value *int64) Hit {
	hit := Hit{
		"t":  "event",
		"ec": category,
		"ea": action,
	}
	if label != "" {
		hit["el"] = label
	}
	if value != nil {
		hit["ev"] = strconv.FormatInt(*value, 10)
	}
	return hit
}

// Client uploads hits for one property.  Create it with NewClient.
type Client struct {
	propertyID string
	clientID   string
	endpoint   string
	batchSize  int
	http       *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint sends hits to endpoint instead of Google Analytics.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for uploads.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.http = client }
}

// NewClient returns a Client that reports hits for propertyID as clientID.
func NewClient(propertyID, clientID string, opts ...ClientOption) *Client {
	client := &Client{propertyID, clientID, defaultEndpoint, defaultBatchSize, http.DefaultClient}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Send uploads hits in batches.
func (c *Client) Send(ctx context.Context, hits []Hit) error {
	for start := 0; start < len(hits); start += c.batchSize {
		end := start + c.batchSize
		if end > len(hits) {
			end = len(hits)
		}
		if err := c.upload(ctx, hits[start:end]); err != nil {
			return fmt.Errorf("uploading hits: %w", err)
		}
	}
	return nil
}

func (c *Client) upload(ctx context.Context, hits []Hit) error {
	var body bytes.Buffer
	for _, hit := range hits {
		payload := url.Values{
			"v":   []string{"1"},
			"tid": []string{c.propertyID},
			"cid": []string{c.clientID},
		}
		for key, value := range hit {
			payload.Add(key, value)
		}
		body.WriteString(payload.Encode())
		body.WriteByte('\n')
	}

	req, err := http.NewRequest("POST", c.endpoint+"/batch", &body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %v", resp.Status)
	}
	return nil
}

// Middleware collects the hits recorded with Track while a request is
// handled and passes them to send once the handlers return.  send is not
// called for requests that recorded nothing.
func Middleware(send func([]Hit)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var hits []Hit
		c.Set(hitsKey, &hits)
		c.Next()
		if len(hits) > 0 {
			send(hits)
		}
	}
}

// Track records hit for the current request.  It does nothing unless
// Middleware is installed.
func Track(c *gin.Context, hit Hit) {
	if v, ok := c.Get(hitsKey); ok {
		hits := v.(*[]Hit)
		*hits = append(*hits, hit)
	}
}
