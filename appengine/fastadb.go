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

// Package fastadb serves a FASTA reference stored in Google Cloud Storage from
// App Engine.  The reference is configured with the FASTADB_BUCKET and
// FASTADB_FASTA environment variables; objects are read with the caller's
// bearer token.
package fastadb

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"google.golang.org/appengine"

	"github.com/googlegenomics/fastadb/faidx"
	"github.com/googlegenomics/fastadb/internal/config"
	"github.com/googlegenomics/fastadb/pileup"
	"github.com/googlegenomics/fastadb/server"
	"github.com/googlegenomics/fastadb/storage"
)

// storeCacheSize is the number of callers whose index is kept in memory.
const storeCacheSize = 64

func init() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	cfg.Tool = "native"

	router := server.NewPerRequest(server.CacheStores(newStoreFunc(cfg), storeCacheSize),
		server.WithStatsOptions(cfg.StatsOptions()...),
		server.WithReaderOptions(pileup.WithMinBaseQuality(cfg.MinBaseQuality)))
	http.Handle("/", router)
}

func newStoreFunc(cfg *config.Config) server.StoreFunc {
	return func(req *http.Request) (*faidx.Store, error) {
		client, _, err := storage.NewClientFromBearerToken(req.WithContext(appengine.NewContext(req)))
		if err != nil {
			return nil, err
		}
		return cfg.StoreFor(client)
	}
}
