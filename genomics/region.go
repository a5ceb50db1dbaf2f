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

// Package genomics contains definitions related to genomic reference data:
// named sequence entries, the index that holds them and the regions that
// address them.
package genomics

import (
	"fmt"
	"strconv"
	"strings"
)

// Orientation is the strand a Region is read from.
type Orientation int

const (
	// Forward regions are read from Start towards End.
	Forward Orientation = iota
	// Reverse regions are reported as the reverse complement of the
	// underlying forward-strand text.
	Reverse
)

func (o Orientation) String() string {
	if o == Reverse {
		return "reverse"
	}
	return "forward"
}

// MarshalText encodes o as "forward" or "reverse".
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes "forward" or "reverse".
func (o *Orientation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "forward":
		*o = Forward
	case "reverse":
		*o = Reverse
	default:
		return fmt.Errorf("unknown orientation %q", text)
	}
	return nil
}

// Region defines a region of genomic interest.
//
// A Region refers to its Entry by identifier only.  It can be constructed and
// used without any Index containing a matching Entry; use Index.Resolve when
// the Entry itself is needed.
type Region struct {
	// Entry is the identifier of the sequence the region belongs to.
	Entry string `json:"entry"`
	// Start and End specify the half-open range [Start, End) in base pairs
	// relative to the start of the sequence.  Regions parsed from text keep
	// the values as written, so a Reverse region may have End < Start.
	Start int `json:"start"`
	End   int `json:"end"`

	Orientation Orientation `json:"orientation"`
}

// Size returns End - Start.  It is negative for a reverse region whose
// coordinates were not normalized.
func (region Region) Size() int {
	return region.End - region.Start
}

// Normalize returns a copy of region with Start <= End.  The orientation is
// kept.
func (region Region) Normalize() Region {
	if region.End < region.Start {
		region.Start, region.End = region.End, region.Start
	}
	return region
}

// String returns the canonical "id:start-end" form of region, which can be
// parsed with ParseRegion.
func (region Region) String() string {
	return fmt.Sprintf("%s:%d-%d", region.Entry, region.Start, region.End)
}

// FormatError is returned when a region descriptor is malformed.
type FormatError struct {
	Input string
	Err   error
}

func (err *FormatError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("invalid region %q: %v", err.Input, err.Err)
	}
	return fmt.Sprintf("invalid region %q", err.Input)
}

func (err *FormatError) Unwrap() error {
	return err.Err
}

// ParseRegion parses a descriptor of the form "id:start-end".  Single quotes
// anywhere in text are removed first so that shell-quoted input is accepted.
// If end is smaller than start the region is Reverse; the coordinates are
// returned unchanged in either case.
func ParseRegion(text string) (Region, error) {
	input := strings.Replace(text, "'", "", -1)

	fields := strings.Split(input, ":")
	if len(fields) != 2 {
		return Region{}, &FormatError{Input: input}
	}
	bounds := strings.Split(fields[1], "-")
	if len(bounds) != 2 {
		return Region{}, &FormatError{Input: input}
	}

	start, err := strconv.Atoi(bounds[0])
	if err != nil {
		return Region{}, &FormatError{Input: input, Err: fmt.Errorf("parsing start: %w", err)}
	}
	end, err := strconv.Atoi(bounds[1])
	if err != nil {
		return Region{}, &FormatError{Input: input, Err: fmt.Errorf("parsing end: %w", err)}
	}

	region := Region{Entry: fields[0], Start: start, End: end}
	if end < start {
		region.Orientation = Reverse
	}
	return region, nil
}
