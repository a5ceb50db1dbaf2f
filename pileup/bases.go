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

// Package pileup defines per-position pileup observations and the streams
// that deliver them, and decodes them from samtools mpileup text.
package pileup

// BaseCounts holds the number of reads supporting each base at a position.
// The zero value is the empty table {A:0, C:0, G:0, T:0}.
type BaseCounts struct {
	A int `json:"A"`
	C int `json:"C"`
	G int `json:"G"`
	T int `json:"T"`
}

// Get returns the count for base, which may be upper or lower case.  Bases
// other than A, C, G and T have no count.
func (c BaseCounts) Get(base byte) int {
	switch base {
	case 'A', 'a':
		return c.A
	case 'C', 'c':
		return c.C
	case 'G', 'g':
		return c.G
	case 'T', 't':
		return c.T
	}
	return 0
}

// Add counts one read supporting base.  It reports whether base was one of
// A, C, G or T.
func (c *BaseCounts) Add(base byte) bool {
	switch base {
	case 'A', 'a':
		c.A++
	case 'C', 'c':
		c.C++
	case 'G', 'g':
		c.G++
	case 'T', 't':
		c.T++
	default:
		return false
	}
	return true
}

// Total returns the sum of all counts.
func (c BaseCounts) Total() int {
	return c.A + c.C + c.G + c.T
}

// Ratios divides each count by depth.  A non-positive depth gives the zero
// table.
func (c BaseCounts) Ratios(depth int) BaseRatios {
	if depth <= 0 {
		return BaseRatios{}
	}
	d := float64(depth)
	return BaseRatios{
		A: float64(c.A) / d,
		C: float64(c.C) / d,
		G: float64(c.G) / d,
		T: float64(c.T) / d,
	}
}

// BaseRatios holds the fraction of the coverage supporting each base.
type BaseRatios struct {
	A float64 `json:"A"`
	C float64 `json:"C"`
	G float64 `json:"G"`
	T float64 `json:"T"`
}

// Get returns the ratio for base, which may be upper or lower case.
func (r BaseRatios) Get(base byte) float64 {
	switch base {
	case 'A', 'a':
		return r.A
	case 'C', 'c':
		return r.C
	case 'G', 'g':
		return r.G
	case 'T', 't':
		return r.T
	}
	return 0
}
