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
	"fmt"

	"github.com/googlegenomics/fastadb/genomics"
)

// DegenerateRegionError is returned for a region whose size is not positive,
// since its average coverage is undefined.
type DegenerateRegionError struct {
	Region genomics.Region
}

func (err *DegenerateRegionError) Error() string {
	return fmt.Sprintf("degenerate region %s: size %d", err.Region, err.Region.Size())
}

// OutOfRangeError is returned for an observation outside the region.
type OutOfRangeError struct {
	Region   genomics.Region
	Position int
}

func (err *OutOfRangeError) Error() string {
	return fmt.Sprintf("observation at %d is outside region %s", err.Position, err.Region)
}

// ShortReferenceError is returned when the reference text is shorter than
// the region.
type ShortReferenceError struct {
	Region genomics.Region
	Length int
}

func (err *ShortReferenceError) Error() string {
	return fmt.Sprintf("reference for %s has %d bases, want %d", err.Region, err.Length, err.Region.Size())
}
