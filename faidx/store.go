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

// Package faidx provides indexed access to a FASTA reference: it keeps the
// ".fai" coordinate index loaded as a genomics.Index and extracts region
// text through a Tool.
package faidx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/pileup"
	"github.com/googlegenomics/fastadb/regionstats"
	"github.com/googlegenomics/fastadb/storage"
)

const indexSuffix = ".fai"

// ErrOutOfBounds is returned by Fetch for a region that extends past the end
// of its sequence.
var ErrOutOfBounds = errors.New("region out of bounds")

// ToolError reports a failure of the Tool or of the I/O around it.
type ToolError struct {
	Op    string
	Fasta string
	Err   error
}

func (err *ToolError) Error() string {
	return fmt.Sprintf("%s %s: %v", err.Op, err.Fasta, err.Err)
}

func (err *ToolError) Unwrap() error {
	return err.Err
}

// ReadIndex parses a coordinate index: one tab separated record per line
// whose first two fields are the sequence name and length.
func ReadIndex(r io.Reader, opts ...genomics.IndexOption) (*genomics.Index, error) {
	index := genomics.NewIndex(opts...)

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: got %d fields, want at least 2", line, len(fields))
		}
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing length: %w", line, err)
		}
		entry, err := genomics.NewEntry(fields[0], length)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := index.Append(entry); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return index, nil
}

// Store gives indexed access to one FASTA object.  Create it with NewStore.
// A Store is safe for concurrent use.
type Store struct {
	objects   storage.Client
	bucket    string
	fasta     string
	tool      Tool
	indexOpts []genomics.IndexOption

	mu    sync.Mutex
	index *genomics.Index
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBucket sets the bucket holding the FASTA object.
func WithBucket(bucket string) StoreOption {
	return func(s *Store) { s.bucket = bucket }
}

// WithIndexOptions sets the options used to create the loaded Index.
func WithIndexOptions(opts ...genomics.IndexOption) StoreOption {
	return func(s *Store) { s.indexOpts = opts }
}

// NewStore returns a Store for the FASTA object fasta.  The index object is
// fasta+".fai" in the same bucket.
func NewStore(objects storage.Client, fasta string, tool Tool, opts ...StoreOption) *Store {
	store := &Store{objects: objects, fasta: fasta, tool: tool}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Fasta returns the name of the FASTA object.
func (s *Store) Fasta() string {
	return s.fasta
}

// EnsureIndex builds the index object with the Tool if it does not exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	exists, err := storage.Exists(ctx, s.objects.NewObjectHandle(s.bucket, s.fasta+indexSuffix))
	if err != nil {
		return fmt.Errorf("checking index: %w", err)
	}
	if exists {
		return nil
	}

	log.WithField("fasta", s.fasta).Info("Building missing coordinate index")
	if err := s.tool.Index(ctx, s.fasta); err != nil {
		return &ToolError{"index", s.fasta, err}
	}
	return nil
}

// LoadIndex builds the index object if needed and loads it.  It only reads
// the index once and returns the number of entries.
func (s *Store) LoadIndex(ctx context.Context) (int, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return 0, err
	}
	return index.Len(), nil
}

// Index returns the loaded index, loading it on first use.  The returned
// Index is shared and must not be appended to.
func (s *Store) Index(ctx context.Context) (*genomics.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index, nil
	}

	if err := s.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	r, err := s.objects.NewObjectHandle(s.bucket, s.fasta+indexSuffix).NewRangeReader(ctx, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer r.Close()

	index, err := ReadIndex(r, s.indexOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading %s%s: %w", s.fasta, indexSuffix, err)
	}
	log.WithFields(log.Fields{"fasta": s.fasta, "entries": index.Len()}).Debug("Loaded coordinate index")
	s.index = index
	return index, nil
}

// Fetch returns the sequence text of region.  Reverse regions give the
// reverse complement of the forward strand text.  A region whose End is
// smaller than its Start is normalized first.
func (s *Store) Fetch(ctx context.Context, region genomics.Region) ([]byte, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	query := region.Normalize()
	entry, err := index.Get(query.Entry)
	if err != nil {
		return nil, err
	}
	if query.Start < 0 || query.End > entry.Length {
		return nil, fmt.Errorf("%s (length %d): %w", query, entry.Length, ErrOutOfBounds)
	}

	log.WithFields(log.Fields{"fasta": s.fasta, "region": query.String()}).Debug("Extracting sequence")
	out, err := s.tool.Extract(ctx, s.fasta, query)
	if err != nil {
		return nil, &ToolError{"extract", s.fasta, err}
	}
	seq, err := readSequence(out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, &ToolError{"extract", s.fasta, err}
	}

	if region.Orientation == genomics.Reverse {
		genomics.ReverseComplement(seq)
	}
	return seq, nil
}

// readSequence concatenates the sequence lines of FASTA text, skipping
// header lines.
func readSequence(r io.Reader) ([]byte, error) {
	var seq []byte
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > 0 && line[0] == '>' {
			continue
		}
		seq = append(seq, strings.TrimSpace(string(line))...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sequence: %w", err)
	}
	return seq, nil
}

// Stats fetches the forward strand text of region and computes its
// statistics from src.
func (s *Store) Stats(ctx context.Context, region genomics.Region, src pileup.Source, opts ...regionstats.Option) (*regionstats.Stats, error) {
	region = region.Normalize()
	forward := region
	forward.Orientation = genomics.Forward

	reference, err := s.Fetch(ctx, forward)
	if err != nil {
		return nil, err
	}
	return regionstats.Compute(region, reference, src, opts...)
}
