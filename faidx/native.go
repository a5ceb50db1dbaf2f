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

package faidx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/hts/fai"

	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/storage"
)

// Native is a Tool that indexes and reads FASTA objects in process, so it
// works on any storage.Client, Google Cloud Storage included.
type Native struct {
	Objects storage.Client
	Bucket  string
}

// Index reads the whole FASTA object and writes its index next to it.
func (n Native) Index(ctx context.Context, fasta string) error {
	r, err := n.Objects.NewObjectHandle(n.Bucket, fasta).NewRangeReader(ctx, 0, -1)
	if err != nil {
		return fmt.Errorf("opening %s: %w", fasta, err)
	}
	defer r.Close()

	idx, err := fai.NewIndex(r)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", fasta, err)
	}

	w, err := n.Objects.NewObjectHandle(n.Bucket, fasta+indexSuffix).NewWriter(ctx)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	if err := fai.WriteTo(w, idx); err != nil {
		w.Close()
		return fmt.Errorf("writing index: %w", err)
	}
	return w.Close()
}

// Extract reads the region with ranged reads guided by the index object.
func (n Native) Extract(ctx context.Context, fasta string, region genomics.Region) (io.ReadCloser, error) {
	r, err := n.Objects.NewObjectHandle(n.Bucket, fasta+indexSuffix).NewRangeReader(ctx, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	idx, err := fai.ReadFrom(r)
	r.Close()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	file := fai.NewFile(storage.NewReaderAt(ctx, n.Objects.NewObjectHandle(n.Bucket, fasta)), idx)
	seq, err := file.SeqRange(region.Entry, region.Start, region.End)
	if err != nil {
		return nil, fmt.Errorf("locating %s: %w", region, err)
	}
	return io.NopCloser(io.MultiReader(
		strings.NewReader(">"+region.String()+"\n"),
		seq,
		strings.NewReader("\n"),
	)), nil
}
