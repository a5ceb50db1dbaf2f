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
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsensus(t *testing.T) {
	testCases := []struct {
		name   string
		ratios BaseRatios
		ref    byte
		want   byte
	}{
		{"pure A", BaseRatios{A: 1}, 'C', 'a'},
		{"majority with minor below threshold", BaseRatios{A: 0.85, C: 0.15}, 'A', 'a'},
		{"A and G", BaseRatios{A: 0.5, G: 0.5}, 'A', 'r'},
		{"C and T", BaseRatios{C: 0.7, T: 0.3}, 'C', 'y'},
		{"A and T", BaseRatios{A: 0.4, T: 0.6}, 'A', 'w'},
		{"G and T at threshold", BaseRatios{G: 0.8, T: 0.2}, 'G', 'k'},
		{"three bases", BaseRatios{A: 0.3, C: 0.3, G: 0.4}, 'A', 'v'},
		{"all bases", BaseRatios{A: 0.25, C: 0.25, G: 0.25, T: 0.25}, 'A', 'n'},
		{"nothing observed", BaseRatios{}, 'G', 'g'},
		{"nothing observed lower ref", BaseRatios{}, 't', 't'},
		{"nothing observed unknown ref", BaseRatios{}, '*', 'n'},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Consensus(tc.ratios, tc.ref, 0.20); got != tc.want {
				t.Errorf("Wrong consensus: got %c, want %c", got, tc.want)
			}
		})
	}
}

func TestBaseCounts(t *testing.T) {
	var counts BaseCounts
	for _, b := range []byte("AAcgTtN*") {
		counts.Add(b)
	}
	assert.Equal(t, BaseCounts{A: 2, C: 1, G: 1, T: 2}, counts)
	assert.Equal(t, 6, counts.Total())
	assert.Equal(t, 2, counts.Get('t'))
	assert.Equal(t, 0, counts.Get('N'))

	ratios := counts.Ratios(8)
	assert.InDelta(t, 0.25, ratios.Get('A'), 1e-9)
	assert.Equal(t, BaseRatios{}, counts.Ratios(0))
}

func TestPile_Observation(t *testing.T) {
	var obs Observation = &Pile{Position: 7, RefBase: 'C', Depth: 10, Counts: BaseCounts{C: 6, T: 4}}
	assert.Equal(t, 7, obs.Pos())
	assert.Equal(t, 10, obs.Coverage())
	assert.InDelta(t, 0.6, obs.BaseRatios().C, 1e-9)
	assert.Equal(t, byte('y'), obs.ConsensusCall(0.2))
	assert.Equal(t, byte('c'), obs.ConsensusCall(0.5))
}

func TestReader(t *testing.T) {
	input := strings.Join([]string{
		"chr1\t1\tA\t3\t.,^].\tIII",
		"chr1\t2\tc\t4\t.$,Gg\tIIII",
		"chr1\t3\tG\t3\t.+2AC,-1tT\tIII",
		"chr1\t4\tT\t0\t*\t*",
		"chr1\t5\tA\t2\t*.\tII",
		"",
	}, "\n")

	piles, err := Drain(NewReader(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, piles, 5)

	want := []Pile{
		{Reference: "chr1", Position: 0, RefBase: 'A', Depth: 3, Counts: BaseCounts{A: 3}},
		{Reference: "chr1", Position: 1, RefBase: 'c', Depth: 4, Counts: BaseCounts{C: 2, G: 2}},
		{Reference: "chr1", Position: 2, RefBase: 'G', Depth: 3, Counts: BaseCounts{G: 2, T: 1}},
		{Reference: "chr1", Position: 3, RefBase: 'T', Depth: 0},
		{Reference: "chr1", Position: 4, RefBase: 'A', Depth: 2, Counts: BaseCounts{A: 1}},
	}
	for i, obs := range piles {
		assert.Equal(t, want[i], *obs.(*Pile), "pile %d", i)
	}
}

func TestReader_MinBaseQuality(t *testing.T) {
	// '#' is phred 2 and 'I' is phred 40.
	input := "chr1\t10\tA\t4\t.,TT\tI#I#\n"
	pile, err := NewReader(strings.NewReader(input), WithMinBaseQuality(20)).Read()
	require.NoError(t, err)
	assert.Equal(t, BaseCounts{A: 1, T: 1}, pile.Counts)
	assert.Equal(t, 4, pile.Depth)
}

func TestReader_ReferenceFilter(t *testing.T) {
	input := "chr1\t1\tA\t1\t.\tI\nchr2\t1\tC\t1\t.\tI\nchr1\t2\tG\t1\t.\tI\n"
	piles, err := Drain(NewReader(strings.NewReader(input), WithReference("chr1")))
	require.NoError(t, err)
	require.Len(t, piles, 2)
	assert.Equal(t, 1, piles[1].Pos())
}

func TestReader_Errors(t *testing.T) {
	testCases := []struct{ name, input string }{
		{"too few fields", "chr1\t1\tA\n"},
		{"bad position", "chr1\tx\tA\t1\t.\tI\n"},
		{"zero position", "chr1\t0\tA\t1\t.\tI\n"},
		{"bad depth", "chr1\t1\tA\tx\t.\tI\n"},
		{"bad indel", "chr1\t1\tA\t1\t.+A\tI\n"},
		{"indel longer than bases", "chr1\t1\tA\t2\t.+3AC\tII\n"},
		{"huge indel length", "chr1\t1\tA\t2\t.+9223372036854775807A.\tII\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tc.input)).Read()
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("Read(): got error %v, want *SyntaxError", err)
			}
			if got, want := syntaxErr.Line, 1; got != want {
				t.Errorf("Wrong line: got %d, want %d", got, want)
			}
		})
	}
}

func TestFromSlice(t *testing.T) {
	src := FromSlice([]Observation{&Pile{Position: 1}, &Pile{Position: 2}})
	all, err := Drain(src)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}
