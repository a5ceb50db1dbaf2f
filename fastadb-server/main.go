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

// This binary serves a FASTA reference and region statistics over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/fastadb/faidx"
	"github.com/googlegenomics/fastadb/internal/analytics"
	"github.com/googlegenomics/fastadb/internal/config"
	"github.com/googlegenomics/fastadb/pileup"
	"github.com/googlegenomics/fastadb/server"
	"github.com/googlegenomics/fastadb/storage"
)

var (
	configFile = flag.String("config", "", "configuration file (default fastadb.yaml)")
	port       = flag.Int("port", 0, "HTTP service port, overrides the configured port")

	secure     = flag.Bool("secure", false, "serve in HTTPS-only mode and forward client bearer tokens to GCS")
	httpsCert  = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey   = flag.String("https_key", "", "HTTPS key file")
	storeCache = flag.Int("store_cache", 64, "number of bearer tokens whose index is kept in memory in secure mode")

	// Enable anonymous usage tracking by naming the Google Analytics
	// property that receives the events.  No user identifying information
	// is sent.
	trackUsage = flag.String("track_usage", "", "if set, reports anonymous usage to this analytics property")
)

func main() {
	flag.Parse()

	if *secure && (*httpsCert == "" || *httpsKey == "") {
		log.Fatalf("You must specify both -https_cert and -https_key in secure mode.")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.Fatalf("Configuring logging: %v", err)
	}

	opts := []server.Option{
		server.WithStatsOptions(cfg.StatsOptions()...),
		server.WithReaderOptions(pileup.WithMinBaseQuality(cfg.MinBaseQuality)),
	}
	if *trackUsage != "" {
		log.Info("Enabling anonymous usage tracking")

		client := analytics.NewClient(*trackUsage, uuid.New().String())
		opts = append(opts, server.WithTracking(func(hits []analytics.Hit) {
			if err := client.Send(context.Background(), hits); err != nil {
				log.Warnf("Failed to send %d hits to analytics: %v", len(hits), err)
			}
		}))
	}

	var router *gin.Engine
	if *secure && cfg.Bucket != "" {
		log.WithFields(log.Fields{"bucket": cfg.Bucket, "fasta": cfg.Fasta}).Info("Serving reference with client credentials")
		router = server.NewPerRequest(server.CacheStores(func(req *http.Request) (*faidx.Store, error) {
			client, _, err := storage.NewClientFromBearerToken(req)
			if err != nil {
				return nil, err
			}
			return cfg.StoreFor(client)
		}, *storeCache), opts...)
	} else {
		store, err := cfg.Store()
		if err != nil {
			log.Fatalf("Opening reference: %v", err)
		}
		n, err := store.LoadIndex(context.Background())
		if err != nil {
			log.Fatalf("Loading index of %s: %v", store.Fasta(), err)
		}
		log.WithFields(log.Fields{"fasta": store.Fasta(), "entries": n, "tool": cfg.Tool}).Info("Serving reference")
		router = server.New(store, opts...)
	}

	address := fmt.Sprintf(":%d", cfg.Port)
	if *secure {
		if err := router.RunTLS(address, *httpsCert, *httpsKey); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := router.Run(address); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}
