// Package automaton builds the canonical LR(0) state machine and its
// LALR(1) follow sets: a configuration pool scoped to the state currently
// under construction, the recursive getstate/closure/build-shifts
// algorithm, and the follow-set propagation fixed point.
//
// The configuration/state/propagation-link graph is cyclic, so it is
// built as an arena with stable integer indices rather than as a graph of
// owning pointers: Configuration and State values never move once
// allocated, and every relationship between them is recorded as an index
// into the arena, not a pointer.
package automaton

import (
	"fmt"
	"sort"

	"github.com/dekarrin/lalrgen/internal/bitset"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/symbols"
)

// Configuration is a dotted item (rule, dot) plus its LALR FOLLOW set.
// Two configurations are equal iff (Rule, Dot) match; that equality only
// holds *within* the state currently under construction (the per-closure
// interning pool) or within one state's finished basis.
type Configuration struct {
	ID     int
	Rule   int // index into the grammar's rule list
	Dot    int
	Follow *bitset.Set

	// Forward links propagate this configuration's FOLLOW set outward,
	// once the backward links built during construction are inverted.
	Forward []int
	// Backward links record, during construction, "FOLLOW(this) must
	// include FOLLOW(source)"; propagation inverts every one of these into
	// a Forward link on the source and then clears this list.
	Backward []int

	State    int
	Complete bool // follow-set propagation status; true once no outgoing link can still change a target.

	shiftMark bool // scratch flag used only during one state's build-shifts pass; unrelated to Complete.
}

func (c *Configuration) atEnd(g *grammar.Grammar) bool {
	return c.Dot >= len(g.Rules[c.Rule].RHS)
}

// State is one node of the LR(0) automaton: a basis (kernel)
// configuration list, the full closure, and (after action generation and
// compression run) its action list and packed-table placement.
type State struct {
	ID      int
	Basis   []int // sorted configuration IDs, the kernel
	Closure []int // sorted configuration IDs, basis plus closure additions

	Actions []*Action
	Default *Action // populated by default-action compression; nil if none

	TabStart int // offset into the global packed action table
	Mask     int // tablesize-1
}

// ActionKind enumerates the kinds of entries in a state's action list.
type ActionKind int

const (
	ActionShift ActionKind = iota
	ActionAccept
	ActionReduce
	ActionError
	ActionConflict
	ActionShiftResolved
	ActionReduceResolved
	ActionNotUsed
)

func (k ActionKind) String() string {
	switch k {
	case ActionShift:
		return "shift"
	case ActionAccept:
		return "accept"
	case ActionReduce:
		return "reduce"
	case ActionError:
		return "error"
	case ActionConflict:
		return "CONFLICT"
	case ActionShiftResolved:
		return "shift (resolved)"
	case ActionReduceResolved:
		return "reduce (resolved)"
	case ActionNotUsed:
		return "not used"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is one entry of a state's action list.
type Action struct {
	Symbol int // symbol index this action fires on
	Kind   ActionKind
	Target int // successor state index, for ActionShift
	Rule   int // rule index, for ActionReduce/ActionReduceResolved

	// Reason records, for CONFLICT/*_RESOLVED actions, the human-readable
	// explanation of how the conflict was (or wasn't) resolved. This
	// enriches the .out report beyond spec's bare "report unreducible
	// rules as errors" into reporting *why* a conflict happened.
	Reason string
}

// Builder owns the configuration and state arenas for one grammar's
// automaton construction.
type Builder struct {
	g          *grammar.Grammar
	configs    []*Configuration
	states     []*State
	stateByKey map[string]int // basis key -> state ID, the getstate intern table
}

// Build constructs the canonical LR(0) automaton for g . The
// returned Builder's States() are not yet follow-propagated; call
// PropagateFollow before reading any Configuration's Follow set.
func Build(g *grammar.Grammar) *Builder {
	b := &Builder{g: g, stateByKey: map[string]int{}}

	start := g.StartSymbol()
	dollar, _ := g.Symbols.Lookup("$")

	var basis []int
	for _, r := range g.RulesFor(start) {
		c := b.addConfig(r.Index, 0)
		c.Follow.Add(dollar.ID)
		basis = append(basis, c.ID)
	}
	b.getstate(basis)
	return b
}

// States returns every state built, in creation order (state 0 first).
func (b *Builder) States() []*State { return b.states }

// Config returns the configuration with the given ID.
func (b *Builder) Config(id int) *Configuration { return b.configs[id] }

// Configs returns the full configuration arena.
func (b *Builder) Configs() []*Configuration { return b.configs }

func (b *Builder) addConfig(rule, dot int) *Configuration {
	c := &Configuration{
		ID:     len(b.configs),
		Rule:   rule,
		Dot:    dot,
		Follow: bitset.New(b.g.NTerminal()),
	}
	b.configs = append(b.configs, c)
	return c
}

func configKey(rule, dot int) int64 {
	return int64(rule)<<32 | int64(dot)
}

func (b *Builder) sortByRuleDot(ids []int) {
	sort.Slice(ids, func(i, j int) bool {
		ci, cj := b.configs[ids[i]], b.configs[ids[j]]
		if ci.Rule != cj.Rule {
			return ci.Rule < cj.Rule
		}
		return ci.Dot < cj.Dot
	})
}

func (b *Builder) basisKey(ids []int) string {
	key := make([]byte, 0, len(ids)*12)
	for _, id := range ids {
		c := b.configs[id]
		key = append(key, []byte(fmt.Sprintf("%d:%d|", c.Rule, c.Dot))...)
	}
	return string(key)
}

// getstate implements recursive state interning: sort the
// pending basis, look it up by (rule,dot) identity, and either merge into
// an existing state or build a brand new one.
func (b *Builder) getstate(pending []int) int {
	b.sortByRuleDot(pending)
	key := b.basisKey(pending)

	if existing, ok := b.stateByKey[key]; ok {
		existingBasis := b.states[existing].Basis
		for i, pid := range pending {
			eid := existingBasis[i]
			ec := b.configs[eid]
			pc := b.configs[pid]
			ec.Backward = append(ec.Backward, pc.Backward...)
			// pending forward links (there should be none at basis level)
			// are discarded per spec step 2; the pending Configuration
			// itself is simply never referenced again.
		}
		return existing
	}

	newID := len(b.states)
	st := &State{ID: newID, Basis: pending}
	b.states = append(b.states, st)
	b.stateByKey[key] = newID
	for _, cid := range pending {
		b.configs[cid].State = newID
	}

	b.closure(newID)
	b.buildShifts(newID)
	return newID
}

// closure computes the full closure of a state's basis:
// for each configuration with the dot before a nonterminal N, add
// basis-less configurations for every rule of N, with their initial
// FOLLOW computed by scanning the remainder of the outer rule.
// Configurations are interned by (rule,dot) within this one closure build,
// so that shared closure items accumulate forward links rather than being
// duplicated.
func (b *Builder) closure(stateID int) {
	st := b.states[stateID]

	pool := map[int64]int{}
	closureIDs := append([]int(nil), st.Basis...)
	for _, cid := range closureIDs {
		c := b.configs[cid]
		pool[configKey(c.Rule, c.Dot)] = cid
	}

	for i := 0; i < len(closureIDs); i++ {
		cid := closureIDs[i]
		c := b.configs[cid]
		rule := b.g.Rules[c.Rule]
		if c.Dot >= len(rule.RHS) {
			continue
		}
		sym := rule.RHS[c.Dot].Sym
		if sym.Kind != symbols.NonTerminal {
			continue
		}

		remainder := rule.RHS[c.Dot+1:]
		for _, r2 := range b.g.RulesFor(sym) {
			k := configKey(r2.Index, 0)
			ncid, exists := pool[k]
			if !exists {
				nc := b.addConfig(r2.Index, 0)
				nc.State = stateID
				pool[k] = nc.ID
				ncid = nc.ID
				closureIDs = append(closureIDs, ncid)
			}
			nc := b.configs[ncid]
			if scanFollowInto(nc.Follow, remainder) {
				c.Forward = append(c.Forward, ncid)
			}
		}
	}

	b.sortByRuleDot(closureIDs)
	st.Closure = closureIDs
}

// scanFollowInto scans remainder left to right, unioning FIRST
// contributions into set: a terminal is added directly
// and stops the scan; a nonterminal unions its FIRST set in and the scan
// continues only if that nonterminal is λ. Returns true if the scan ran
// off the end of remainder (every symbol, if any, was λ), meaning the
// caller must also record a forward propagation link.
func scanFollowInto(set *bitset.Set, remainder []grammar.RHSSymbol) bool {
	for _, rhs := range remainder {
		if rhs.Sym.Kind == symbols.Terminal {
			set.Add(rhs.Sym.ID)
			return false
		}
		set.UnionChanged(rhs.Sym.FIRST)
		if !rhs.Sym.Lambda {
			return false
		}
	}
	return true
}

// buildShifts implements build-shifts step: group the
// state's not-yet-shifted configurations by the symbol before their dot,
// advance the dot for each group into a new pending basis, and recurse
// into getstate for the successor state.
func (b *Builder) buildShifts(stateID int) {
	st := b.states[stateID]
	for _, cid := range st.Closure {
		b.configs[cid].shiftMark = false
	}

	for _, cid := range st.Closure {
		c := b.configs[cid]
		if c.shiftMark {
			continue
		}
		rule := b.g.Rules[c.Rule]
		if c.Dot >= len(rule.RHS) {
			c.shiftMark = true
			continue
		}
		x := rule.RHS[c.Dot].Sym

		var newBasis []int
		for _, cid2 := range st.Closure {
			c2 := b.configs[cid2]
			if c2.shiftMark {
				continue
			}
			r2 := b.g.Rules[c2.Rule]
			if c2.Dot >= len(r2.RHS) {
				continue
			}
			if r2.RHS[c2.Dot].Sym != x {
				continue
			}
			c2.shiftMark = true
			nc := b.addConfig(c2.Rule, c2.Dot+1)
			nc.Backward = append(nc.Backward, cid2)
			newBasis = append(newBasis, nc.ID)
		}

		target := b.getstate(newBasis)
		st.Actions = append(st.Actions, &Action{Symbol: x.ID, Kind: ActionShift, Target: target})
	}
}

// PropagateFollow runs : invert every backward link into a
// forward link on its source, then iterate union-to-fixpoint over the
// forward links until no configuration's FOLLOW set changes.
func (b *Builder) PropagateFollow() {
	for _, c := range b.configs {
		for _, srcID := range c.Backward {
			src := b.configs[srcID]
			src.Forward = append(src.Forward, c.ID)
		}
		c.Backward = nil
		c.Complete = false
	}

	changed := true
	for changed {
		changed = false
		for _, c := range b.configs {
			if c.Complete {
				continue
			}
			localChange := false
			for _, tid := range c.Forward {
				t := b.configs[tid]
				if t.Follow.UnionChanged(c.Follow) {
					localChange = true
					t.Complete = false
				}
			}
			c.Complete = true
			if localChange {
				changed = true
			}
		}
	}
}
