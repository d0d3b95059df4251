// Package symbols implements the interned string table and the symbol
// table: canonicalizing symbol names so that equality is a single map
// lookup, and tracking the per-symbol attributes (kind, precedence,
// associativity, FIRST set, destructor, data type) a grammar needs.
package symbols

import (
	"sort"

	"github.com/dekarrin/lalrgen/internal/bitset"
)

// Kind classifies a Symbol as a terminal or nonterminal, determined by the
// case of a name's first character: uppercase-leading names are
// terminals, lowercase-leading names are nonterminals.
type Kind int

const (
	NonTerminal Kind = iota
	Terminal
)

// Assoc is a symbol's declared associativity, used to resolve shift/reduce
// conflicts.
type Assoc int

const (
	AssocUnknown Assoc = iota
	AssocNone
	AssocLeft
	AssocRight
)

// NoPrecedence is the sentinel value of Symbol.Precedence meaning "no
// precedence has been assigned."
const NoPrecedence = -1

// Symbol is a terminal or nonterminal, interned so that two Symbols with
// the same Name are always the same *Symbol pointer.
type Symbol struct {
	// ID is the stable index assigned after the whole grammar is loaded:
	// terminals first in alphabetical order, then nonterminals, with the
	// pseudo-symbol {default} last. It is -1 until FinalizeIndexes runs.
	ID int

	Name string
	Kind Kind

	Precedence int // NoPrecedence if unset
	Assoc      Assoc

	// FIRST is populated only for nonterminals; nil for terminals (a
	// terminal's FIRST set is just itself).
	FIRST *bitset.Set

	// Lambda is set if this nonterminal can derive the empty string.
	Lambda bool

	Destructor     string
	DestructorLine int

	DataType string
	DTNum    int // assigned by the emitter; 0 = no typed value

	// RuleHead is the index of this nonterminal's first rule in the
	// grammar's rule chain, or -1 if it has none yet. Rules for the same
	// LHS are chained via Rule.NextForLHS so a caller can walk every
	// production for a nonterminal starting here.
	RuleHead int
}

// classify returns Terminal if name starts with an uppercase ASCII letter,
// NonTerminal otherwise. The pseudo-symbol "$" (end-of-input) is always a
// terminal even though it fails the uppercase test, since the whole
// FOLLOW-set design depends on it being counted among the terminals.
func classify(name string) Kind {
	if name == "$" {
		return Terminal
	}
	if name == "" {
		return NonTerminal
	}
	c := name[0]
	if c >= 'A' && c <= 'Z' {
		return Terminal
	}
	return NonTerminal
}

// Table is the grammar's symbol table: it maps names to Symbol records
// and can enumerate them in the sorted, indexed order the rest of the
// pipeline relies on.
type Table struct {
	byName map[string]*Symbol
	order  []*Symbol // insertion order, pre-sort
}

// NewTable returns an empty symbol table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Symbol)}
}

// Intern returns the canonical *Symbol for name, creating it (classified by
// case) if this is the first time it has been seen. Repeated
// calls with the same name always return the same pointer.
func (t *Table) Intern(name string) *Symbol {
	if sym, ok := t.byName[name]; ok {
		return sym
	}
	sym := &Symbol{
		Name:       name,
		Kind:       classify(name),
		Precedence: NoPrecedence,
		RuleHead:   -1,
	}
	t.byName[name] = sym
	t.order = append(t.order, sym)
	return sym
}

// Lookup returns the Symbol for name without creating it.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// All returns every interned symbol in insertion order.
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, len(t.order))
	copy(out, t.order)
	return out
}

// FinalizeIndexes sorts the table's symbols: terminals before
// nonterminals, each class alphabetical, with the pseudo-symbol {default}
// forced last; it then assigns each Symbol.ID its position in that order
// and returns the count of terminals (nterminal).
//
// Callers must have already interned "$" and "error" (the pseudo-terminal
// and pseudo-nonterminal requires) and "{default}" before calling
// this.
func (t *Table) FinalizeIndexes() (nterminal int) {
	syms := t.All()

	sort.SliceStable(syms, func(i, j int) bool {
		a, b := syms[i], syms[j]
		if a.Name == "{default}" {
			return false
		}
		if b.Name == "{default}" {
			return true
		}
		if a.Kind != b.Kind {
			// terminals (Kind == Terminal) sort before nonterminals
			return a.Kind == Terminal
		}
		return a.Name < b.Name
	})

	for i, sym := range syms {
		sym.ID = i
		if sym.Kind == Terminal && sym.Name != "{default}" {
			nterminal++
		}
	}
	t.order = syms
	return nterminal
}

// Sorted returns the symbols in the order established by FinalizeIndexes
// (or insertion order if it hasn't run yet).
func (t *Table) Sorted() []*Symbol {
	return t.All()
}

// ByID returns the symbol with the given stable index, valid after
// FinalizeIndexes has run.
func (t *Table) ByID(id int) *Symbol {
	return t.order[id]
}
