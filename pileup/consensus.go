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

const (
	maskA = 1 << iota
	maskC
	maskG
	maskT
)

// iupac maps a set of bases, encoded as a bit mask, to its ambiguity code.
var iupac = [16]byte{
	maskA:                         'a',
	maskC:                         'c',
	maskG:                         'g',
	maskT:                         't',
	maskA | maskC:                 'm',
	maskA | maskG:                 'r',
	maskA | maskT:                 'w',
	maskC | maskG:                 's',
	maskC | maskT:                 'y',
	maskG | maskT:                 'k',
	maskA | maskC | maskG:         'v',
	maskA | maskC | maskT:         'h',
	maskA | maskG | maskT:         'd',
	maskC | maskG | maskT:         'b',
	maskA | maskC | maskG | maskT: 'n',
}

// Consensus returns the lower case IUPAC code for the bases whose ratio is
// positive and at least minFraction.  When no base qualifies the lower cased
// reference base is returned, or 'n' if ref is not a letter.
func Consensus(ratios BaseRatios, ref byte, minFraction float64) byte {
	var mask int
	for i, r := range [4]float64{ratios.A, ratios.C, ratios.G, ratios.T} {
		if r > 0 && r >= minFraction {
			mask |= 1 << uint(i)
		}
	}
	if mask != 0 {
		return iupac[mask]
	}
	switch {
	case ref >= 'a' && ref <= 'z':
		return ref
	case ref >= 'A' && ref <= 'Z':
		return ref + ('a' - 'A')
	}
	return 'n'
}
