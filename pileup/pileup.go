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

import "io"

// Observation is the evidence from aligned reads at one reference position.
type Observation interface {
	// Pos returns the absolute coordinate of the observation.
	Pos() int
	// Coverage returns the number of reads covering the position.
	Coverage() int
	// BaseRatios returns the fraction of the coverage supporting each base.
	BaseRatios() BaseRatios
	// Bases returns the number of reads supporting each base.
	Bases() BaseCounts
	// ConsensusCall returns the lower case IUPAC code for the bases with at
	// least minFraction of the coverage.
	ConsensusCall(minFraction float64) byte
}

// Pile is an Observation decoded from one pileup line.
type Pile struct {
	// Reference is the name of the sequence the pile is on.
	Reference string `json:"reference"`
	// Position is the 0-based coordinate of the pile.
	Position int `json:"position"`
	// RefBase is the reference base at Position, if known.
	RefBase byte `json:"-"`
	// Depth is the number of reads covering Position.
	Depth int `json:"depth"`
	// Counts holds the number of reads supporting each base.
	Counts BaseCounts `json:"counts"`
}

// Pos returns Position.
func (p *Pile) Pos() int { return p.Position }

// Coverage returns Depth.
func (p *Pile) Coverage() int { return p.Depth }

// Bases returns Counts.
func (p *Pile) Bases() BaseCounts { return p.Counts }

// BaseRatios returns Counts as fractions of Depth.
func (p *Pile) BaseRatios() BaseRatios { return p.Counts.Ratios(p.Depth) }

// ConsensusCall returns the IUPAC code for the bases with at least
// minFraction of Depth, falling back to RefBase as described by Consensus.
func (p *Pile) ConsensusCall(minFraction float64) byte {
	return Consensus(p.BaseRatios(), p.RefBase, minFraction)
}

// Source is a position ordered stream of observations.  Next returns io.EOF
// once the stream is exhausted.
type Source interface {
	Next() (Observation, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (Observation, error)

func (f SourceFunc) Next() (Observation, error) { return f() }

// FromSlice returns a Source that yields observations in order.
func FromSlice(observations []Observation) Source {
	i := 0
	return SourceFunc(func() (Observation, error) {
		if i >= len(observations) {
			return nil, io.EOF
		}
		i++
		return observations[i-1], nil
	})
}

// Drain reads src until io.EOF and returns everything it yielded.
func Drain(src Source) ([]Observation, error) {
	var out []Observation
	for {
		obs, err := src.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, obs)
	}
}
