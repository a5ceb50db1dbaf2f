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

import "github.com/biogo/biogo/alphabet"

// Complement returns the IUPAC complement of base, keeping its case.  Bytes
// that are not nucleotide codes are returned unchanged.
func Complement(base byte) byte {
	if c, ok := alphabet.DNAredundant.Complement(alphabet.Letter(base)); ok {
		return byte(c)
	}
	return base
}

// ReverseComplement reverse complements seq in place.
func ReverseComplement(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		seq[i], seq[j] = Complement(seq[j]), Complement(seq[i])
	}
}
