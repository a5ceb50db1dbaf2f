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

// This binary gives command line access to an indexed FASTA reference and
// computes region statistics from samtools mpileup output.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/googlegenomics/fastadb/internal/config"
	"github.com/googlegenomics/fastadb/pileup"
	"github.com/googlegenomics/fastadb/regionstats"
)

var (
	app = kingpin.New("fastadb", "Indexed access to FASTA reference sequences")

	configFile = app.Flag("config", "configuration file").String()
	profileDir = app.Flag("profile", "write a CPU profile to this directory").String()
	fasta      = app.Flag("fasta", "FASTA file").String()
	root       = app.Flag("root", "directory holding the FASTA file").String()
	bucket     = app.Flag("bucket", "GCS bucket holding the FASTA file").String()
	tool       = app.Flag("tool", "extraction tool: samtools or native").String()
	logLevel   = app.Flag("log-level", "logging level").String()

	indexCmd = app.Command("index", "Build the coordinate index if it is missing")

	entriesCmd    = app.Command("entries", "List the sequences in the index")
	entriesOffset = entriesCmd.Flag("offset", "first entry, negative values count from the end").Default("0").Int()
	entriesLimit  = entriesCmd.Flag("limit", "maximum number of entries, 0 for all").Default("0").Int()

	fetchCmd     = app.Command("fetch", "Print the sequence of regions")
	fetchRegions = fetchCmd.Arg("region", "region as id:start-end, end < start for the reverse strand").Required().Strings()

	statsCmd    = app.Command("stats", "Compute statistics for a region from mpileup output")
	statsRegion = statsCmd.Arg("region", "region as id:start-end").Required().String()
	statsPileup = statsCmd.Arg("pileup", "samtools mpileup output, - for stdin").Required().String()
	statsPlot   = statsCmd.Flag("plot", "save a coverage plot to this file").String()
	statsJSON   = statsCmd.Flag("json", "print the statistics as JSON").Bool()

	batchCmd      = app.Command("batch", "Compute statistics for every region listed in a file")
	batchRegions  = batchCmd.Arg("regions", "file with one region per line").Required().ExistingFile()
	batchPileup   = batchCmd.Arg("pileup", "samtools mpileup output covering the regions").Required().ExistingFile()
	batchProgress = batchCmd.Flag("progress", "show progress").Bool()

	minCoverage    = app.Flag("min-coverage", "positions need more than this coverage").Default("-1").Int()
	threshold      = app.Flag("threshold", "minimum base fraction for the consensus").Default("-1").Float64()
	minBaseQuality = app.Flag("min-base-quality", "ignore read bases below this quality").Default("-1").Int()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	if err := run(command); err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func run(command string) error {
	if *profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profileDir), profile.NoShutdownHook).Stop()
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.ConfigureLogging(); err != nil {
		return err
	}
	store, err := cfg.Store()
	if err != nil {
		return err
	}

	opts := statsOptions{
		engine: cfg.StatsOptions(),
		reader: []pileup.ReaderOption{pileup.WithMinBaseQuality(cfg.MinBaseQuality)},
	}

	ctx := context.Background()
	switch command {
	case indexCmd.FullCommand():
		return runIndex(ctx, os.Stdout, store)
	case entriesCmd.FullCommand():
		return runEntries(ctx, os.Stdout, store, *entriesOffset, *entriesLimit)
	case fetchCmd.FullCommand():
		return runFetch(ctx, os.Stdout, store, *fetchRegions)
	case statsCmd.FullCommand():
		opts.plot, opts.json = *statsPlot, *statsJSON
		return runStats(ctx, os.Stdout, store, *statsRegion, *statsPileup, opts)
	case batchCmd.FullCommand():
		return runBatch(ctx, os.Stdout, store, *batchRegions, *batchPileup, opts, *batchProgress)
	}
	return fmt.Errorf("unknown command %q", command)
}

// applyFlags overrides configuration values with the flags that were set.
func applyFlags(cfg *config.Config) {
	for _, s := range []struct {
		flag  string
		value *string
	}{
		{*fasta, &cfg.Fasta},
		{*root, &cfg.Root},
		{*bucket, &cfg.Bucket},
		{*tool, &cfg.Tool},
		{*logLevel, &cfg.LogLevel},
	} {
		if s.flag != "" {
			*s.value = s.flag
		}
	}
	if *minCoverage >= 0 {
		cfg.MinCoverage = *minCoverage
	}
	if *threshold >= 0 {
		cfg.Threshold = *threshold
	}
	if *minBaseQuality >= 0 {
		cfg.MinBaseQuality = *minBaseQuality
	}
}

// statsOptions carries the settings shared by the stats and batch commands.
type statsOptions struct {
	engine []regionstats.Option
	reader []pileup.ReaderOption
	plot   string
	json   bool
}
