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
	"iter"
)

// ErrNotFound is returned by Index.Get when no entry has the requested
// identifier.
var ErrNotFound = errors.New("entry not found")

// DuplicatePolicy selects what Index.Append does with an identifier that is
// already present.
type DuplicatePolicy int

const (
	// ShadowDuplicates appends the entry and points lookups at it.  The older
	// entry stays in the ordered sequence.
	ShadowDuplicates DuplicatePolicy = iota
	// RejectDuplicates makes Append fail with a *DuplicateEntryError.
	RejectDuplicates
)

// DuplicateEntryError is returned by Append under RejectDuplicates.
type DuplicateEntryError struct {
	ID string
}

func (err *DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicate entry %q", err.ID)
}

// Index is an ordered collection of entries with lookup by identifier.  Use
// NewIndex to create one.
//
// An Index is not safe for concurrent use while it is being appended to.
type Index struct {
	entries []Entry
	byID    map[string]int
	policy  DuplicatePolicy
}

// IndexOption configures an Index created by NewIndex.
type IndexOption func(*Index)

// WithDuplicatePolicy sets the policy used by Append.
func WithDuplicatePolicy(policy DuplicatePolicy) IndexOption {
	return func(index *Index) { index.policy = policy }
}

// NewIndex returns an empty Index.  Duplicates are shadowed unless another
// policy is given.
func NewIndex(opts ...IndexOption) *Index {
	index := &Index{byID: make(map[string]int)}
	for _, opt := range opts {
		opt(index)
	}
	return index
}

// Append adds entry to the end of the index.
func (index *Index) Append(entry Entry) error {
	if _, ok := index.byID[entry.ID]; ok && index.policy == RejectDuplicates {
		return &DuplicateEntryError{entry.ID}
	}
	index.byID[entry.ID] = len(index.entries)
	index.entries = append(index.entries, entry)
	return nil
}

// Len returns the number of entries, shadowed duplicates included.
func (index *Index) Len() int {
	return len(index.entries)
}

// At returns the entry at position i.  It panics if i is out of range.
func (index *Index) At(i int) Entry {
	return index.entries[i]
}

// Lookup returns the most recently appended entry with the given identifier.
// The boolean is false when there is none.
func (index *Index) Lookup(id string) (Entry, bool) {
	i, ok := index.byID[id]
	if !ok {
		return Entry{}, false
	}
	return index.entries[i], true
}

// Get is like Lookup but reports a miss as an error wrapping ErrNotFound.
func (index *Index) Get(id string) (Entry, error) {
	entry, ok := index.Lookup(id)
	if !ok {
		return Entry{}, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return entry, nil
}

// Resolve looks up the entry a region refers to.
func (index *Index) Resolve(region Region) (Entry, bool) {
	return index.Lookup(region.Entry)
}

// All returns an iterator over the entries in insertion order.  The iterator
// can be used any number of times.
func (index *Index) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, entry := range index.entries {
			if !yield(i, entry) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries in insertion order.
func (index *Index) Entries() []Entry {
	return append([]Entry(nil), index.entries...)
}

// Slice returns a new Index holding length entries starting at position
// start.  A negative start counts back from the end, and length is clamped to
// the entries available.  Out of range arguments give an empty Index.  The
// receiver is not modified.
func (index *Index) Slice(start, length int) *Index {
	n := len(index.entries)
	if start < 0 {
		start += n
	}
	if start < 0 || start > n || length < 0 {
		return index.derive(0, 0)
	}
	end := start + length
	if end > n || end < start {
		end = n
	}
	return index.derive(start, end)
}

// Range returns a new Index holding the entries at positions [lo, hi).
// Negative bounds count back from the end and hi is clamped to Len.  Out of
// range arguments give an empty Index.
func (index *Index) Range(lo, hi int) *Index {
	n := len(index.entries)
	if lo < 0 {
		lo += n
	}
	if hi < 0 {
		hi += n
	}
	if lo < 0 || lo > n || hi < lo {
		return index.derive(0, 0)
	}
	if hi > n {
		hi = n
	}
	return index.derive(lo, hi)
}

func (index *Index) derive(lo, hi int) *Index {
	derived := NewIndex(WithDuplicatePolicy(index.policy))
	for _, entry := range index.entries[lo:hi] {
		// Already checked against the policy when first appended.
		derived.byID[entry.ID] = len(derived.entries)
		derived.entries = append(derived.entries, entry)
	}
	return derived
}
