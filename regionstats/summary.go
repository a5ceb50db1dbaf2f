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

package regionstats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CoverageSummary describes the distribution of per-position coverage.
type CoverageSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// CoverageSummary summarizes Coverages.  Positions skipped for low coverage
// count as zero.
func (stats *Stats) CoverageSummary() CoverageSummary {
	if len(stats.Coverages) == 0 {
		return CoverageSummary{}
	}
	x := make([]float64, len(stats.Coverages))
	for i, c := range stats.Coverages {
		x[i] = float64(c)
	}
	sort.Float64s(x)

	var summary CoverageSummary
	summary.Mean, summary.StdDev = stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		summary.StdDev = 0
	}
	summary.Min = floats.Min(x)
	summary.Max = floats.Max(x)
	summary.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	return summary
}
