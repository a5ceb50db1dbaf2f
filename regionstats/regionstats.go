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

// Package regionstats folds a pileup stream over a genomic region into a
// consensus sequence, a coverage profile and per-position base tables.
package regionstats

import (
	"bytes"
	"fmt"
	"io"

	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/pileup"
)

// DefaultConsensusThreshold is the minimum fraction of the coverage a base
// needs to take part in the IUPAC consensus call.
const DefaultConsensusThreshold = 0.20

// OutOfRangePolicy selects what Compute does with an observation outside the
// region.
type OutOfRangePolicy int

const (
	// RejectOutOfRange makes Compute fail with an *OutOfRangeError.
	RejectOutOfRange OutOfRangePolicy = iota
	// DropOutOfRange ignores the observation, coverage included.
	DropOutOfRange
)

type options struct {
	minCoverage int
	threshold   float64
	outOfRange  OutOfRangePolicy
}

// Option configures Compute.
type Option func(*options)

// WithMinCoverage skips observations whose coverage is at most n.  Their
// coverage still counts toward the total.
func WithMinCoverage(n int) Option {
	return func(o *options) { o.minCoverage = n }
}

// WithConsensusThreshold replaces DefaultConsensusThreshold.
func WithConsensusThreshold(f float64) Option {
	return func(o *options) { o.threshold = f }
}

// WithOutOfRangePolicy sets the policy for observations outside the region.
func WithOutOfRangePolicy(p OutOfRangePolicy) Option {
	return func(o *options) { o.outOfRange = p }
}

// Stats holds the statistics computed for a region.  The slices are indexed
// by offset from Region.Start and must not be modified.
type Stats struct {
	Region genomics.Region `json:"region"`
	// Consensus is the reference text with every retained position replaced
	// by its upper case consensus call, reverse complemented for Reverse
	// regions.
	Consensus  string              `json:"consensus"`
	Coverages  []int               `json:"coverages"`
	BaseRatios []pileup.BaseRatios `json:"base_ratios"`
	Bases      []pileup.BaseCounts `json:"bases"`
	// TotalCoverage sums the coverage of every observation in the region,
	// including the ones under the minimum coverage.
	TotalCoverage   int     `json:"total_coverage"`
	AverageCoverage float64 `json:"average_coverage"`
	// Observed is the number of positions that passed the minimum coverage.
	Observed int `json:"observed"`
}

// Compute folds the observations from src into Stats for region.
//
// reference must hold the forward strand text of region, at least
// region.Size() bytes long; bytes past that are ignored and reference is not
// modified.  src must yield observations in position order.  The result only
// depends on the arguments, so calling Compute again with the same inputs
// gives the same Stats.
func Compute(region genomics.Region, reference []byte, src pileup.Source, opts ...Option) (*Stats, error) {
	o := options{threshold: DefaultConsensusThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	size := region.Size()
	if size <= 0 {
		return nil, &DegenerateRegionError{region}
	}
	if len(reference) < size {
		return nil, &ShortReferenceError{region, len(reference)}
	}

	consensus := bytes.ToLower(reference[:size])
	stats := &Stats{
		Region:     region,
		Coverages:  make([]int, size),
		BaseRatios: make([]pileup.BaseRatios, size),
		Bases:      make([]pileup.BaseCounts, size),
	}

	for {
		obs, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading pileup for %s: %w", region, err)
		}

		i := obs.Pos() - region.Start
		if i < 0 || i >= size {
			if o.outOfRange == DropOutOfRange {
				continue
			}
			return nil, &OutOfRangeError{region, obs.Pos()}
		}

		coverage := obs.Coverage()
		stats.TotalCoverage += coverage
		if coverage <= o.minCoverage {
			continue
		}
		stats.Observed++
		stats.BaseRatios[i] = obs.BaseRatios()
		stats.Bases[i] = obs.Bases()
		stats.Coverages[i] = coverage
		consensus[i] = upper(obs.ConsensusCall(o.threshold))
	}

	if region.Orientation == genomics.Reverse {
		genomics.ReverseComplement(consensus)
	}
	stats.Consensus = string(consensus)
	stats.AverageCoverage = float64(stats.TotalCoverage) / float64(size)
	return stats, nil
}

// RatiosForBase returns the ratio of base at every position of the region.
func (stats *Stats) RatiosForBase(base byte) []float64 {
	ratios := make([]float64, len(stats.BaseRatios))
	for i, r := range stats.BaseRatios {
		ratios[i] = r.Get(base)
	}
	return ratios
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
