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

package pileup

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SyntaxError reports a malformed pileup line.
type SyntaxError struct {
	Line int
	Err  error
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("pileup line %d: %v", err.Line, err.Err)
}

func (err *SyntaxError) Unwrap() error {
	return err.Err
}

// Reader decodes samtools mpileup text.  Each line holds the reference name,
// the 1-based position, the reference base, the depth, the read bases and
// the base qualities, separated by tabs.  Positions are converted to 0-based
// coordinates.
type Reader struct {
	scanner    *bufio.Scanner
	line       int
	minQuality int
	reference  string
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMinBaseQuality drops read bases whose phred quality is below q.  The
// depth column is not changed.
func WithMinBaseQuality(q int) ReaderOption {
	return func(r *Reader) { r.minQuality = q }
}

// WithReference skips lines for any reference other than name.
func WithReference(name string) ReaderOption {
	return func(r *Reader) { r.reference = name }
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	reader := &Reader{scanner: scanner}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next implements Source.
func (r *Reader) Next() (Observation, error) {
	pile, err := r.Read()
	if err != nil {
		return nil, err
	}
	return pile, nil
}

// Read returns the next pile, or io.EOF at the end of the input.
func (r *Reader) Read() (*Pile, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pile, err := r.decode(line)
		if err != nil {
			return nil, &SyntaxError{r.line, err}
		}
		if pile == nil {
			continue
		}
		return pile, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pileup: %w", err)
	}
	return nil, io.EOF
}

func (r *Reader) decode(line string) (*Pile, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 4 {
		return nil, fmt.Errorf("got %d fields, want at least 4", len(fields))
	}
	if r.reference != "" && fields[0] != r.reference {
		return nil, nil
	}

	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("parsing position: %w", err)
	}
	if pos < 1 {
		return nil, fmt.Errorf("position %d is not 1-based", pos)
	}
	depth, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("parsing depth: %w", err)
	}
	if depth < 0 {
		return nil, fmt.Errorf("negative depth %d", depth)
	}

	pile := &Pile{
		Reference: fields[0],
		Position:  pos - 1,
		Depth:     depth,
	}
	if len(fields[2]) > 0 {
		pile.RefBase = fields[2][0]
	}
	if depth == 0 || len(fields) < 5 {
		return pile, nil
	}

	var quals string
	if len(fields) > 5 {
		quals = fields[5]
	}
	counts, err := decodeReadBases(fields[4], quals, pile.RefBase, r.minQuality)
	if err != nil {
		return nil, err
	}
	pile.Counts = counts
	return pile, nil
}

// decodeReadBases counts the bases in an mpileup read base column.  Read
// start markers (^ and the mapping quality after it), read end markers ($)
// and inserted or deleted sequence (+N or -N followed by N bases) carry no
// base for this position.  '.' and ',' stand for the reference base.
func decodeReadBases(bases, quals string, ref byte, minQuality int) (BaseCounts, error) {
	var counts BaseCounts
	read := 0
	for i := 0; i < len(bases); i++ {
		c := bases[i]
		switch c {
		case '^':
			i++
			continue
		case '$':
			continue
		case '+', '-':
			j := i + 1
			for j < len(bases) && bases[j] >= '0' && bases[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(bases[i+1 : j])
			if err != nil {
				return BaseCounts{}, fmt.Errorf("parsing indel length at column %d: %w", i, err)
			}
			if n < 0 || n > len(bases)-j {
				return BaseCounts{}, fmt.Errorf("indel length %d at column %d exceeds the read bases", n, i)
			}
			i = j + n - 1
			continue
		}

		q := read
		read++
		if minQuality > 0 && q < len(quals) && int(quals[q])-33 < minQuality {
			continue
		}
		if c == '.' || c == ',' {
			c = ref
		}
		counts.Add(c)
	}
	return counts, nil
}
