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
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/fastadb/genomics"
)

// Tool builds coordinate indices and extracts sequence text.
type Tool interface {
	// Index creates the index object fasta+".fai" for the FASTA object fasta.
	Index(ctx context.Context, fasta string) error
	// Extract returns FASTA formatted text holding the forward strand
	// sequence of region, which has Start <= End.
	Extract(ctx context.Context, fasta string, region genomics.Region) (io.ReadCloser, error)
}

// RunFunc starts the command name with args and returns its standard output.
// Closing the returned reader waits for the command and reports its failure.
type RunFunc func(ctx context.Context, name string, args ...string) (io.ReadCloser, error)

// Samtools is a Tool that runs "samtools faidx" on files under Dir.
type Samtools struct {
	// Binary is the samtools executable; "samtools" is used when empty.
	Binary string
	// Dir holds the FASTA files.
	Dir string
	// Run starts processes; exec is used when nil.
	Run RunFunc
}

func (s Samtools) binary() string {
	if s.Binary == "" {
		return "samtools"
	}
	return s.Binary
}

func (s Samtools) run(ctx context.Context, args ...string) (io.ReadCloser, error) {
	log.WithField("args", args).Debugf("Running %s", s.binary())
	if s.Run != nil {
		return s.Run(ctx, s.binary(), args...)
	}
	return execRun(ctx, s.binary(), args...)
}

// Index runs "samtools faidx <fasta>".
func (s Samtools) Index(ctx context.Context, fasta string) error {
	out, err := s.run(ctx, "faidx", filepath.Join(s.Dir, fasta))
	if err != nil {
		return err
	}
	if _, err := io.Copy(io.Discard, out); err != nil {
		out.Close()
		return fmt.Errorf("reading output: %w", err)
	}
	return out.Close()
}

// Extract runs "samtools faidx <fasta> <region>".  samtools addresses
// sequences with 1-based inclusive coordinates, so region is translated.
func (s Samtools) Extract(ctx context.Context, fasta string, region genomics.Region) (io.ReadCloser, error) {
	return s.run(ctx, "faidx", filepath.Join(s.Dir, fasta), samtoolsRegion(region))
}

func samtoolsRegion(region genomics.Region) string {
	return fmt.Sprintf("%s:%d-%d", region.Entry, region.Start+1, region.End)
}

type process struct {
	io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
}

func (p *process) Close() error {
	// Drain so that the process never blocks writing to a full pipe.
	io.Copy(io.Discard, p.ReadCloser)
	if err := p.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(p.stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", p.cmd.Path, err, msg)
		}
		return fmt.Errorf("%s: %w", p.cmd.Path, err)
	}
	return nil
}

func execRun(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}
	return &process{stdout, cmd, stderr}, nil
}
