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

package genomics

import (
	"errors"
	"fmt"
)

// Entry describes one named sequence in a reference.
type Entry struct {
	ID     string `json:"id"`
	Length int    `json:"length"`
}

var (
	errEmptyID        = errors.New("empty sequence identifier")
	errNegativeLength = errors.New("negative sequence length")
)

// NewEntry returns an Entry after checking that id is not empty and length is
// not negative.
func NewEntry(id string, length int) (Entry, error) {
	if id == "" {
		return Entry{}, errEmptyID
	}
	if length < 0 {
		return Entry{}, fmt.Errorf("%s: %w", id, errNegativeLength)
	}
	return Entry{ID: id, Length: length}, nil
}

// FullRegion returns the forward Region spanning the whole entry.
func (entry Entry) FullRegion() Region {
	return Region{Entry: entry.ID, Start: 0, End: entry.Length, Orientation: Forward}
}

// Region is a synonym for FullRegion.
func (entry Entry) Region() Region {
	return entry.FullRegion()
}
