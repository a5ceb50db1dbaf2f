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

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/googlegenomics/fastadb/faidx"
	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/internal/coverageplot"
	"github.com/googlegenomics/fastadb/pileup"
	"github.com/googlegenomics/fastadb/regionstats"
)

const lineWidth = 60

func runIndex(ctx context.Context, w io.Writer, store *faidx.Store) error {
	n, err := store.LoadIndex(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: %d sequences\n", store.Fasta(), n)
	return err
}

func runEntries(ctx context.Context, w io.Writer, store *faidx.Store, offset, limit int) error {
	index, err := store.Index(ctx)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = index.Len()
	}

	page := index.Slice(offset, limit)
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	for i := 0; i < page.Len(); i++ {
		entry := page.At(i)
		fmt.Fprintf(tw, "%s\t%d\n", entry.ID, entry.Length)
	}
	return tw.Flush()
}

// runFetch prints each region as a FASTA record.
func runFetch(ctx context.Context, w io.Writer, store *faidx.Store, regions []string) error {
	bw := bufio.NewWriter(w)
	for _, text := range regions {
		region, err := genomics.ParseRegion(text)
		if err != nil {
			return err
		}
		seq, err := store.Fetch(ctx, region)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", region, err)
		}
		if err := writeRecord(bw, region.String(), seq); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeRecord writes one FASTA record with lineWidth sequence lines.
func writeRecord(bw *bufio.Writer, name string, seq []byte) error {
	if _, err := fmt.Fprintf(bw, ">%s\n", name); err != nil {
		return err
	}
	for len(seq) > lineWidth {
		if _, err := bw.Write(seq[:lineWidth]); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		seq = seq[lineWidth:]
	}
	if _, err := bw.Write(seq); err != nil {
		return err
	}
	return bw.WriteByte('\n')
}

func openPileup(name string) (io.ReadCloser, error) {
	if name == "-" {
		return ioutil.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func runStats(ctx context.Context, w io.Writer, store *faidx.Store, text, pileupFile string, opts statsOptions) error {
	region, err := genomics.ParseRegion(text)
	if err != nil {
		return err
	}
	f, err := openPileup(pileupFile)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := pileup.NewReader(f, append([]pileup.ReaderOption{pileup.WithReference(region.Entry)}, opts.reader...)...)
	stats, err := store.Stats(ctx, region, reader, opts.engine...)
	if err != nil {
		return err
	}

	if opts.plot != "" {
		if err := coverageplot.Save(stats, opts.plot); err != nil {
			return err
		}
		log.WithField("file", opts.plot).Info("Saved coverage plot")
	}
	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*regionstats.Stats
			Summary regionstats.CoverageSummary `json:"summary"`
		}{stats, stats.CoverageSummary()})
	}
	return printStats(w, stats)
}

func printStats(w io.Writer, stats *regionstats.Stats) error {
	summary := stats.CoverageSummary()
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "region\t%s\t(%s)\n", stats.Region, stats.Region.Orientation)
	fmt.Fprintf(tw, "consensus\t%s\n", stats.Consensus)
	fmt.Fprintf(tw, "observed\t%d/%d\n", stats.Observed, stats.Region.Size())
	fmt.Fprintf(tw, "total coverage\t%d\n", stats.TotalCoverage)
	fmt.Fprintf(tw, "average coverage\t%.3f\n", stats.AverageCoverage)
	fmt.Fprintf(tw, "coverage\tmin %g, median %g, max %g, sd %.3f\n", summary.Min, summary.Median, summary.Max, summary.StdDev)
	return tw.Flush()
}

// readRegions parses one region per line, skipping blank lines and lines
// starting with #.
func readRegions(r io.Reader) ([]genomics.Region, error) {
	var regions []genomics.Region
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		region, err := genomics.ParseRegion(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		regions = append(regions, region)
	}
	return regions, scanner.Err()
}

// groupPileup reads all observations from r by reference name.
func groupPileup(r io.Reader, opts ...pileup.ReaderOption) (map[string][]pileup.Observation, error) {
	groups := make(map[string][]pileup.Observation)
	reader := pileup.NewReader(r, opts...)
	for {
		pile, err := reader.Read()
		if err == io.EOF {
			return groups, nil
		}
		if err != nil {
			return nil, err
		}
		groups[pile.Reference] = append(groups[pile.Reference], pile)
	}
}

// runBatch prints one tab separated line of statistics per region.
// Observations outside a region are ignored since the pileup covers all of
// them.
func runBatch(ctx context.Context, w io.Writer, store *faidx.Store, regionsFile, pileupFile string, opts statsOptions, progress bool) error {
	f, err := os.Open(regionsFile)
	if err != nil {
		return err
	}
	regions, err := readRegions(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading %s: %w", regionsFile, err)
	}

	f, err = os.Open(pileupFile)
	if err != nil {
		return err
	}
	groups, err := groupPileup(f, opts.reader...)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading %s: %w", pileupFile, err)
	}

	var bar *pb.ProgressBar
	if progress {
		bar = pb.New(len(regions))
		bar.Output = os.Stderr
		bar.Start()
		defer bar.Finish()
	}

	engine := append(append([]regionstats.Option(nil), opts.engine...), regionstats.WithOutOfRangePolicy(regionstats.DropOutOfRange))
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "region\tconsensus\ttotal_coverage\taverage_coverage\tobserved")
	for _, region := range regions {
		stats, err := store.Stats(ctx, region, pileup.FromSlice(groups[region.Entry]), engine...)
		if err != nil {
			return fmt.Errorf("%s: %w", region, err)
		}
		fmt.Fprintf(bw, "%s\t%s\t%d\t%.3f\t%d\n", region, stats.Consensus, stats.TotalCoverage, stats.AverageCoverage, stats.Observed)
		if bar != nil {
			bar.Increment()
		}
	}
	return bw.Flush()
}
