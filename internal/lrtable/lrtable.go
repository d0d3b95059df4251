// Package lrtable implements reduce/accept action generation and
// shift/reduce and reduce/reduce conflict resolution.
package lrtable

import (
	"fmt"
	"sort"

	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/symbols"
)

// Result summarizes the outcome of reduce-action generation for one
// grammar's automaton.
type Result struct {
	Conflicts int
}

// Generate runs reduce and accept action generation. It must run after
// automaton.Build and automaton.Builder.PropagateFollow. For every
// completed configuration it
// adds a REDUCE action for each terminal in its FOLLOW set, adds the
// ACCEPT action to state 0, sorts every state's action list, and resolves
// shift/reduce and reduce/reduce conflicts via precedence and
// associativity. It marks Rule.CanReduce on every rule that survives in
// at least one active REDUCE.
func Generate(g *grammar.Grammar, b *automaton.Builder) Result {
	for _, st := range b.States() {
		for _, cid := range st.Closure {
			c := b.Config(cid)
			rule := g.Rules[c.Rule]
			if c.Dot < len(rule.RHS) {
				continue
			}
			for _, t := range c.Follow.Elements() {
				st.Actions = append(st.Actions, &automaton.Action{
					Symbol: t,
					Kind:   automaton.ActionReduce,
					Rule:   c.Rule,
				})
			}
		}
	}

	start := g.StartSymbol()
	st0 := b.States()[0]
	st0.Actions = append(st0.Actions, &automaton.Action{Symbol: start.ID, Kind: automaton.ActionAccept})

	var res Result
	for _, st := range b.States() {
		SortActions(st.Actions, g)
		res.Conflicts += resolveState(st, g)
	}

	markCanReduce(g, b)
	return res
}

// SortActions orders a state's action list by (symbol.index, kind,
// rule.index for REDUCE). Because ActionShift < ActionAccept
// < ActionReduce numerically, a shift for a given symbol always sorts
// ahead of any reduce on that same symbol. Also used by package pack after
// default-action compression to re-sort.
func SortActions(actions []*automaton.Action, g *grammar.Grammar) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Kind == automaton.ActionReduce {
			return a.Rule < b.Rule
		}
		return false
	})
}

// resolveState resolves every group of same-symbol actions in a state's
// (already sorted) action list, returning the number of new conflicts.
func resolveState(st *automaton.State, g *grammar.Grammar) int {
	conflicts := 0
	i := 0
	for i < len(st.Actions) {
		j := i + 1
		for j < len(st.Actions) && st.Actions[j].Symbol == st.Actions[i].Symbol {
			j++
		}
		conflicts += resolveGroup(st.Actions[i:j], g)
		i = j
	}
	return conflicts
}

// resolveGroup resolves one symbol's group of actions by folding them
// left to right: the surviving "champion" is compared against the next
// action in the group, and the loser is marked NOT_USED (or both are
// marked CONFLICT if undecidable).
func resolveGroup(actions []*automaton.Action, g *grammar.Grammar) int {
	if len(actions) < 2 {
		return 0
	}

	conflicts := 0
	championIdx := 0
	for k := 1; k < len(actions); k++ {
		champion := actions[championIdx]
		challenger := actions[k]

		if !isContestable(champion) || !isContestable(challenger) {
			// ACCEPT/ERROR/CONFLICT never contest. ACCEPT shares its
			// symbol only with a SHIFT on the start symbol, which exists
			// only when the start symbol appears on some right-hand side
			// (a grammar Validate rejects); both are then left as they are.
			continue
		}

		winner, loser, isConflict, reason := resolvePair(champion, challenger, g)
		if isConflict {
			champion.Kind = automaton.ActionConflict
			challenger.Kind = automaton.ActionConflict
			champion.Reason = reason
			challenger.Reason = reason
			conflicts++
			// Neither wins. The champion slot now holds a CONFLICT, which
			// is not contestable, so the group's remaining actions are
			// left as they are.
			continue
		}

		winner.Reason = reason
		loser.Kind = automaton.ActionNotUsed
		if winner == challenger {
			championIdx = k
		}
	}
	return conflicts
}

func isContestable(a *automaton.Action) bool {
	return a.Kind == automaton.ActionShift || a.Kind == automaton.ActionReduce
}

// resolvePair resolves one pair of same-symbol actions. The winner is
// relabeled to the *_RESOLVED variant of its own kind to record that a
// conflict existed and was resolved, so that no plain SHIFT/REDUCE/ACCEPT
// ever survives a resolved conflict; the loser is left for the caller to
// mark NOT_USED.
func resolvePair(a, b *automaton.Action, g *grammar.Grammar) (winner, loser *automaton.Action, isConflict bool, reason string) {
	switch {
	case a.Kind == automaton.ActionShift && b.Kind == automaton.ActionReduce:
		return resolveShiftReduce(a, b, g)
	case a.Kind == automaton.ActionReduce && b.Kind == automaton.ActionShift:
		return resolveShiftReduce(b, a, g)
	default: // both REDUCE
		return resolveReduceReduce(a, b, g)
	}
}

func resolveShiftReduce(shift, reduce *automaton.Action, g *grammar.Grammar) (winner, loser *automaton.Action, isConflict bool, reason string) {
	shiftSym := g.Symbols.ByID(shift.Symbol)
	rule := g.Rules[reduce.Rule]

	ps := shiftSym.Precedence
	pr := symbols.NoPrecedence
	var assoc symbols.Assoc
	if rule.PrecSym != nil {
		pr = rule.PrecSym.Precedence
		assoc = rule.PrecSym.Assoc
	}

	if ps == symbols.NoPrecedence || pr == symbols.NoPrecedence {
		return nil, nil, true, fmt.Sprintf("shift/reduce conflict on %q: no precedence declared for %s or rule %s", shiftSym.Name, shiftSym.Name, rule.String())
	}

	if ps > pr {
		shift.Kind = automaton.ActionShiftResolved
		return shift, reduce, false, fmt.Sprintf("shift/reduce on %q resolved in favor of shift (higher precedence)", shiftSym.Name)
	}
	if ps < pr {
		reduce.Kind = automaton.ActionReduceResolved
		return reduce, shift, false, fmt.Sprintf("shift/reduce on %q resolved in favor of reduce (rule %s has higher precedence)", shiftSym.Name, rule.String())
	}

	switch assoc {
	case symbols.AssocRight:
		shift.Kind = automaton.ActionShiftResolved
		return shift, reduce, false, fmt.Sprintf("shift/reduce on %q resolved in favor of shift (right associative)", shiftSym.Name)
	case symbols.AssocLeft:
		reduce.Kind = automaton.ActionReduceResolved
		return reduce, shift, false, fmt.Sprintf("shift/reduce on %q resolved in favor of reduce (left associative)", shiftSym.Name)
	default:
		return nil, nil, true, fmt.Sprintf("shift/reduce conflict on %q: equal precedence, no associativity", shiftSym.Name)
	}
}

func resolveReduceReduce(a, b *automaton.Action, g *grammar.Grammar) (winner, loser *automaton.Action, isConflict bool, reason string) {
	ra, rb := g.Rules[a.Rule], g.Rules[b.Rule]

	pa, pb := symbols.NoPrecedence, symbols.NoPrecedence
	if ra.PrecSym != nil {
		pa = ra.PrecSym.Precedence
	}
	if rb.PrecSym != nil {
		pb = rb.PrecSym.Precedence
	}

	if pa == symbols.NoPrecedence || pb == symbols.NoPrecedence || pa == pb {
		return nil, nil, true, fmt.Sprintf("reduce/reduce conflict between rule %s and rule %s", ra.String(), rb.String())
	}

	if pa > pb {
		a.Kind = automaton.ActionReduceResolved
		return a, b, false, fmt.Sprintf("reduce/reduce resolved in favor of rule %s (higher precedence)", ra.String())
	}
	b.Kind = automaton.ActionReduceResolved
	return b, a, false, fmt.Sprintf("reduce/reduce resolved in favor of rule %s (higher precedence)", rb.String())
}

// markCanReduce sets Rule.CanReduce on every rule that survives as an
// active REDUCE or RD_RESOLVED action in some state.
func markCanReduce(g *grammar.Grammar, b *automaton.Builder) {
	for _, st := range b.States() {
		for _, a := range st.Actions {
			if a.Kind == automaton.ActionReduce || a.Kind == automaton.ActionReduceResolved {
				g.Rules[a.Rule].CanReduce = true
			}
		}
	}
}
