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

// Package config loads the settings shared by the fastadb binaries from a
// configuration file and FASTADB_* environment variables.
package config

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/googlegenomics/fastadb/faidx"
	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/regionstats"
	"github.com/googlegenomics/fastadb/storage"
)

// Config holds the settings for one reference.
type Config struct {
	// Fasta is the FASTA object name, relative to Root or Bucket.
	Fasta string `mapstructure:"fasta"`
	// Bucket selects Google Cloud Storage when set.
	Bucket string `mapstructure:"bucket"`
	// Public reads Bucket without credentials.
	Public bool `mapstructure:"public"`
	// Root is the local directory holding Fasta when Bucket is empty.
	Root string `mapstructure:"root"`
	// Tool is "samtools" or "native".
	Tool     string `mapstructure:"tool"`
	Samtools string `mapstructure:"samtools"`

	MinCoverage    int     `mapstructure:"min_coverage"`
	Threshold      float64 `mapstructure:"threshold"`
	MinBaseQuality int     `mapstructure:"min_base_quality"`
	// Duplicates is "shadow" or "reject".
	Duplicates string `mapstructure:"duplicates"`

	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

var errNoFasta = errors.New("no FASTA file configured")

var defaults = map[string]interface{}{
	"fasta":            "",
	"bucket":           "",
	"public":           false,
	"root":             ".",
	"tool":             "samtools",
	"samtools":         "samtools",
	"min_coverage":     0,
	"threshold":        regionstats.DefaultConsensusThreshold,
	"min_base_quality": 0,
	"duplicates":       "shadow",
	"port":             8080,
	"log_level":        "info",
}

// Load reads the configuration file at path.  When path is empty, fastadb.yaml
// (or any extension viper supports) is looked up in the working directory
// and in $HOME/.fastadb, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("FASTADB")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fastadb")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fastadb")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		log.WithField("file", v.ConfigFileUsed()).Debug("Loaded configuration")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// ConfigureLogging applies LogLevel to the standard logrus logger.
func (cfg *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	log.SetLevel(level)
	return nil
}

// IndexOptions returns the genomics.Index options selected by Duplicates.
func (cfg *Config) IndexOptions() ([]genomics.IndexOption, error) {
	switch cfg.Duplicates {
	case "", "shadow":
		return []genomics.IndexOption{genomics.WithDuplicatePolicy(genomics.ShadowDuplicates)}, nil
	case "reject":
		return []genomics.IndexOption{genomics.WithDuplicatePolicy(genomics.RejectDuplicates)}, nil
	}
	return nil, fmt.Errorf("unknown duplicates policy %q", cfg.Duplicates)
}

// StatsOptions returns the regionstats options for MinCoverage and Threshold.
func (cfg *Config) StatsOptions() []regionstats.Option {
	return []regionstats.Option{
		regionstats.WithMinCoverage(cfg.MinCoverage),
		regionstats.WithConsensusThreshold(cfg.Threshold),
	}
}

// Objects returns the storage client for Bucket or Root.  Public buckets are
// read anonymously, others with the application default credentials.
func (cfg *Config) Objects() (storage.Client, error) {
	if cfg.Bucket == "" {
		return storage.LocalClient{Root: cfg.Root}, nil
	}
	newClient := storage.NewDefaultClient
	if cfg.Public {
		newClient = storage.NewPublicClient
	}
	client, _, err := newClient(nil)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return client, nil
}

// Store returns a faidx.Store for the configured reference.
func (cfg *Config) Store() (*faidx.Store, error) {
	if cfg.Fasta == "" {
		return nil, errNoFasta
	}
	objects, err := cfg.Objects()
	if err != nil {
		return nil, err
	}
	return cfg.StoreFor(objects)
}

// StoreFor is like Store but reads objects through the given client.
func (cfg *Config) StoreFor(objects storage.Client) (*faidx.Store, error) {
	if cfg.Fasta == "" {
		return nil, errNoFasta
	}
	indexOpts, err := cfg.IndexOptions()
	if err != nil {
		return nil, err
	}

	var tool faidx.Tool
	switch cfg.Tool {
	case "samtools":
		if cfg.Bucket != "" {
			return nil, errors.New("samtools can only read local files; use the native tool with a bucket")
		}
		tool = faidx.Samtools{Binary: cfg.Samtools, Dir: cfg.Root}
	case "native":
		tool = faidx.Native{Objects: objects, Bucket: cfg.Bucket}
	default:
		return nil, fmt.Errorf("unknown tool %q", cfg.Tool)
	}

	return faidx.NewStore(objects, cfg.Fasta, tool,
		faidx.WithBucket(cfg.Bucket),
		faidx.WithIndexOptions(indexOpts...)), nil
}
