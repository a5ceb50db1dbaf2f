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

// This binary fetches regions and region statistics from a fastadb server,
// authenticating with Google application default credentials.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/googlegenomics/fastadb/client"
	"github.com/googlegenomics/fastadb/genomics"
)

var (
	output      = flag.String("o", "", "output filename")
	pileupFile  = flag.String("pileup", "", "if set, upload this mpileup file and print region statistics")
	threshold   = flag.Float64("threshold", -1, "consensus threshold, overrides the server default")
	minCoverage = flag.Int("min_coverage", -1, "minimum coverage, overrides the server default")
	anonymous   = flag.Bool("anonymous", false, "send requests without credentials")
)

func main() {
	flag.Parse()
	if flag.NArg() < 2 {
		log.Fatalf("Usage: %s [flags] SERVER_URL REGION...", os.Args[0])
	}

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to open output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	ctx, err := withCABundle(context.Background(), os.Getenv("CURL_CA_BUNDLE"))
	if err != nil {
		log.Fatalf("Failed to load CA override: %v", err)
	}

	var c *client.Client
	if *anonymous {
		httpClient, _ := ctx.Value(oauth2.HTTPClient).(*http.Client)
		c, err = client.New(flag.Arg(0), httpClient)
	} else {
		c, err = client.NewGoogle(ctx, flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	for _, text := range flag.Args()[1:] {
		region, err := genomics.ParseRegion(text)
		if err != nil {
			log.Fatalf("Invalid region: %v", err)
		}
		log.WithField("region", region.String()).Info("Fetching")
		if *pileupFile == "" {
			err = fetch(ctx, w, c, region)
		} else {
			err = stats(ctx, w, c, region)
		}
		if err != nil {
			log.Fatalf("%s: %v", region, err)
		}
	}
}

// withCABundle reads the standard cURL certificate authority override so the
// client works behind the same proxies as other tools.
func withCABundle(ctx context.Context, bundle string) (context.Context, error) {
	if bundle == "" {
		return ctx, nil
	}
	pem, err := ioutil.ReadFile(bundle)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", bundle, err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("initializing system certificate pool: %w", err)
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates in bundle %q", bundle)
	}
	log.WithField("bundle", bundle).Info("Using CA override bundle")
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}},
	}), nil
}

func fetch(ctx context.Context, w io.Writer, c *client.Client, region genomics.Region) error {
	seq, err := c.Fetch(ctx, region)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, ">%s\n%s\n", region, seq)
	return err
}

func stats(ctx context.Context, w io.Writer, c *client.Client, region genomics.Region) error {
	f, err := os.Open(*pileupFile)
	if err != nil {
		return err
	}
	defer f.Close()

	var q client.StatsQuery
	if *threshold >= 0 {
		q.Threshold = threshold
	}
	if *minCoverage >= 0 {
		q.MinCoverage = minCoverage
	}
	result, err := c.Stats(ctx, region, f, q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
