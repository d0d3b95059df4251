// Package bitset implements a fixed-size bit set over terminal symbol
// indices, used for FIRST and FOLLOW set computation. It is small and
// specialized rather than a generic Set[E], because FIRST/FOLLOW sets are
// computed in the hot loop of the analysis pipeline (λ/FIRST fixed point,
// and LALR follow-set propagation) and are always indexed by a
// terminal's stable integer id.
package bitset

import (
	"fmt"
	"strings"
)

const wordBits = 64

// Set is a fixed-capacity bit set over terminal indices 0..n-1.
type Set struct {
	words []uint64
	n     int
}

// New returns an empty Set with capacity for n distinct indices.
func New(n int) *Set {
	return &Set{words: make([]uint64, (n+wordBits-1)/wordBits), n: n}
}

// Len returns the set's index capacity (not the number of set bits).
func (s *Set) Len() int {
	return s.n
}

// Add sets bit i. i is not checked against the capacity, since every caller
// derives it from a symbol table that has already validated the index; an
// i past the last storage word panics.
func (s *Set) Add(i int) {
	s.words[i/wordBits] |= 1 << uint(i%wordBits)
}

// Has reports whether bit i is set.
func (s *Set) Has(i int) bool {
	return s.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// Count returns the number of set bits.
func (s *Set) Count() int {
	c := 0
	for _, w := range s.words {
		for w != 0 {
			w &= w - 1
			c++
		}
	}
	return c
}

// Elements returns the set bits as a sorted slice of indices.
func (s *Set) Elements() []int {
	var out []int
	for i := 0; i < s.n; i++ {
		if s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// Copy returns a duplicate of s.
func (s *Set) Copy() *Set {
	cp := &Set{words: make([]uint64, len(s.words)), n: s.n}
	copy(cp.words, s.words)
	return cp
}

// UnionChanged unions o into s in place and reports whether s changed as a
// result. This is the primitive both the λ/FIRST fixed point and the LALR
// follow-set propagation fixed point iterate on, stopping once no set
// changes in a full pass.
func (s *Set) UnionChanged(o *Set) bool {
	changed := false
	for i := range s.words {
		merged := s.words[i] | o.words[i]
		if merged != s.words[i] {
			changed = true
			s.words[i] = merged
		}
	}
	return changed
}

// Equal reports whether s and o have exactly the same set bits.
func (s *Set) Equal(o *Set) bool {
	if len(s.words) != len(o.words) {
		return false
	}
	for i := range s.words {
		if s.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// String renders the set as the indices it contains, for debugging and
// test failure messages.
func (s *Set) String() string {
	elems := s.Elements()
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = fmt.Sprintf("%d", e)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
