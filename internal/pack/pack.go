// Package pack implements default-action compression and the packed,
// open-addressed per-state action table.
package pack

import (
	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/lrtable"
)

// Entry is one slot of the global packed action table.
type Entry struct {
	Symbol   int // symbol index occupying this slot, for collision reporting
	Code     int // packed integer action code (see codeFor)
	Kind     automaton.ActionKind
	Rule     int // rule index, meaningful when Kind is a reduce variant
	Collide  int // index, within the whole Table, of the next colliding slot; -1 if none
	Relocated bool
}

// Table is the global concatenation of every state's packed sub-table.
type Table struct {
	Entries []Entry

	NState int
	NRule  int

	// YYCodeWidthBits/ActionWidthBits record the numeric type width
	// chosen for the generated YYCODETYPE / action-type typedefs, sized
	// to the smallest C integer type that fits the symbol/state count.
	YYCodeWidthBits  int
	ActionWidthBits int
}

// ActionKindFromInt recovers an automaton.ActionKind from its int
// encoding, for package cache's round-trip through REZI.
func ActionKindFromInt(n int) automaton.ActionKind {
	return automaton.ActionKind(n)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	if p == 0 {
		p = 1
	}
	return p
}

// codeFor computes the packed integer action code for a of :
// SHIFT -> target state index; REDUCE -> nstate+rule.index; ERROR ->
// nstate+nrule; ACCEPT -> nstate+nrule+1. SH_RESOLVED/RD_RESOLVED carry
// the same code as their unresolved counterpart would. NOT_USED/CONFLICT
// have no code and are skipped by the caller.
func codeFor(a *automaton.Action, nstate, nrule int) (code int, ok bool) {
	switch a.Kind {
	case automaton.ActionShift, automaton.ActionShiftResolved:
		return a.Target, true
	case automaton.ActionReduce, automaton.ActionReduceResolved:
		return nstate + a.Rule, true
	case automaton.ActionError:
		return nstate + nrule, true
	case automaton.ActionAccept:
		return nstate + nrule + 1, true
	default: // NOT_USED, CONFLICT
		return 0, false
	}
}

// CompressDefaults implements default-action compression: for
// each state, the rule with the most active REDUCE entries (if it has two
// or more) is rewritten as a single default action on the pseudo-symbol
// {default}, and the originals are marked NOT_USED.
func CompressDefaults(g *grammar.Grammar, b *automaton.Builder) {
	defaultSym, _ := g.Symbols.Lookup("{default}")

	for _, st := range b.States() {
		counts := map[int]int{}
		for _, a := range st.Actions {
			if a.Kind == automaton.ActionReduce || a.Kind == automaton.ActionReduceResolved {
				counts[a.Rule]++
			}
		}

		bestRule, bestCount := -1, 1
		for r, c := range counts {
			if c > bestCount {
				bestRule, bestCount = r, c
			}
		}
		if bestRule < 0 {
			continue
		}

		for _, a := range st.Actions {
			if (a.Kind == automaton.ActionReduce || a.Kind == automaton.ActionReduceResolved) && a.Rule == bestRule {
				a.Kind = automaton.ActionNotUsed
			}
		}
		st.Default = &automaton.Action{Symbol: defaultSym.ID, Kind: automaton.ActionReduce, Rule: bestRule}
		lrtable.SortActions(st.Actions, g)
	}
}

// Build packs every state's active actions into the global open-addressed
// table. CompressDefaults should run first if compression
// is enabled (the `-c` flag disables it).
func Build(g *grammar.Grammar, b *automaton.Builder) *Table {
	nstate := len(b.States())
	nrule := len(g.Rules)

	t := &Table{NState: nstate, NRule: nrule}

	nsymbol := len(g.Symbols.Sorted())
	if nsymbol <= 250 {
		t.YYCodeWidthBits = 8
	} else {
		t.YYCodeWidthBits = 32
	}
	if nstate+nrule <= 250 {
		t.ActionWidthBits = 8
	} else {
		t.ActionWidthBits = 32
	}

	for _, st := range b.States() {
		packState(g, st, nstate, nrule, t)
	}
	return t
}

// packState builds one state's open-addressed sub-table and appends it to
// t.Entries, recording TabStart/Mask on the state.
func packState(g *grammar.Grammar, st *automaton.State, nstate, nrule int, t *Table) {
	type slot struct {
		symbol int
		code   int
		kind   automaton.ActionKind
		rule   int
	}

	var active []slot
	for _, a := range st.Actions {
		code, ok := codeFor(a, nstate, nrule)
		if !ok {
			continue
		}
		active = append(active, slot{symbol: a.Symbol, code: code, kind: a.Kind, rule: a.Rule})
	}

	naction := len(active)
	tablesize := nextPow2(naction)
	if tablesize == 0 {
		tablesize = 1
	}

	bucket := make([]int, tablesize) // -1 = empty, else index into `active`
	for i := range bucket {
		bucket[i] = -1
	}

	mask := tablesize - 1
	var overflow []int // indices into active that collided on first placement

	for ai, s := range active {
		b := s.symbol & mask
		if bucket[b] == -1 {
			bucket[b] = ai
		} else {
			overflow = append(overflow, ai)
		}
	}

	// Sweep and relocate collision victims into the nearest free slot
	// ("sweep and relocate collision victims into free
	// slots"), recording the final slot's chain pointer for reporting.
	var relocated []int // slots that received a collision victim, in relocation order
	for _, ai := range overflow {
		home := active[ai].symbol & mask
		for probe := 0; probe < tablesize; probe++ {
			cand := (home + probe) & mask
			if bucket[cand] == -1 {
				bucket[cand] = ai
				relocated = append(relocated, cand)
				break
			}
		}
	}

	base := len(t.Entries)
	entries := make([]Entry, tablesize)
	for i := range entries {
		// an empty slot falls through to the state's default action, so
		// it is tagged NOT_USED rather than left as the zero value
		// (which would otherwise misread as an ActionShift).
		entries[i] = Entry{Collide: -1, Kind: automaton.ActionNotUsed}
	}
	for slotIdx, ai := range bucket {
		if ai < 0 {
			continue
		}
		s := active[ai]
		home := s.symbol & mask
		entries[slotIdx] = Entry{Symbol: s.symbol, Code: s.code, Kind: s.kind, Rule: s.rule, Collide: -1, Relocated: slotIdx != home}
	}
	// link each relocated slot onto the end of its home slot's chain
	for _, slotIdx := range relocated {
		p := active[bucket[slotIdx]].symbol & mask
		for entries[p].Collide != -1 {
			p = entries[p].Collide - base
		}
		entries[p].Collide = base + slotIdx
	}

	t.Entries = append(t.Entries, entries...)
	st.TabStart = base
	st.Mask = mask
}
