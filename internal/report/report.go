// Package report renders the human-readable `.out` state machine report,
// the `-g` grammar reprint, and the `-s` summary line, using rosed to lay
// out the LALR state table dump.
package report

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/symbols"
	"github.com/dekarrin/lalrgen/internal/util"
)

// Options controls the level of detail the report includes.
type Options struct {
	BasisOnly bool // -b: report only basis configurations, not the full closure
}

// configString renders one configuration in textbook dotted form, e.g.
// "expr ::= expr PLUS . expr  [$ PLUS]", the bracketed list being the
// configuration's FOLLOW set.
func configString(g *grammar.Grammar, c *automaton.Configuration) string {
	rule := g.Rules[c.Rule]
	var sb strings.Builder
	sb.WriteString(rule.LHS.Name)
	sb.WriteString(" ::=")
	for i, rhs := range rule.RHS {
		if i == c.Dot {
			sb.WriteString(" .")
		}
		sb.WriteString(" ")
		sb.WriteString(rhs.Sym.Name)
	}
	if c.Dot == len(rule.RHS) {
		sb.WriteString(" .")
	}

	var follow []string
	for _, id := range c.Follow.Elements() {
		follow = append(follow, g.Symbols.ByID(id).Name)
	}
	sb.WriteString("  [")
	sb.WriteString(strings.Join(follow, " "))
	sb.WriteString("]")
	return sb.String()
}

// actionString renders one action, including the resolution reason when
// present, for the .out report's enriched conflict detail.
func actionString(g *grammar.Grammar, a *automaton.Action) string {
	sym := g.Symbols.ByID(a.Symbol)
	var base string
	switch a.Kind {
	case automaton.ActionShift, automaton.ActionShiftResolved:
		base = fmt.Sprintf("shift %s -> state %d", sym.Name, a.Target)
	case automaton.ActionAccept:
		base = fmt.Sprintf("accept %s", sym.Name)
	case automaton.ActionReduce, automaton.ActionReduceResolved:
		base = fmt.Sprintf("reduce %s on %s", g.Rules[a.Rule].String(), sym.Name)
	case automaton.ActionError:
		base = fmt.Sprintf("error on %s", sym.Name)
	case automaton.ActionConflict:
		base = fmt.Sprintf("CONFLICT on %s", sym.Name)
	case automaton.ActionNotUsed:
		base = fmt.Sprintf("(not used) %s", sym.Name)
	}
	if a.Kind == automaton.ActionShiftResolved || a.Kind == automaton.ActionReduceResolved || a.Kind == automaton.ActionConflict {
		base = fmt.Sprintf("%s [%s]", base, a.Reason)
	}
	return base
}

// State renders one state's configuration and action lists as a
// two-column table using rosed.InsertTableOpts.
func State(g *grammar.Grammar, b *automaton.Builder, st *automaton.State, opts Options) string {
	cfgIDs := st.Closure
	if opts.BasisOnly {
		cfgIDs = st.Basis
	}

	data := [][]string{{"Configurations", "Actions"}}
	n := len(cfgIDs)
	if len(st.Actions) > n {
		n = len(st.Actions)
	}
	for i := 0; i < n; i++ {
		row := []string{"", ""}
		if i < len(cfgIDs) {
			row[0] = configString(g, b.Config(cfgIDs[i]))
		}
		if i < len(st.Actions) {
			row[1] = actionString(g, st.Actions[i])
		}
		if st.Default != nil && i == n-1 {
			row[1] = row[1] + "\ndefault: " + actionString(g, st.Default)
		}
		data = append(data, row)
	}

	return rosed.
		Edit(fmt.Sprintf("State %d", st.ID)).
		InsertTableOpts(1, data, 100, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

// Out renders the full `.out` report: every state's configuration/action
// table in order, followed by the unreducible-rule diagnostics.
func Out(g *grammar.Grammar, b *automaton.Builder, opts Options) string {
	var sb strings.Builder
	for _, st := range b.States() {
		sb.WriteString(State(g, b, st, opts))
		sb.WriteString("\n\n")
	}
	unreducible := g.UnreducibleRuleDiagnostics()
	if len(unreducible) > 0 {
		var names []string
		for _, r := range g.Rules {
			if !r.CanReduce {
				names = append(names, r.LHS.Name)
			}
		}
		sb.WriteString(fmt.Sprintf("Unreducible rules: %s\n", util.MakeTextList(names)))
		for _, d := range unreducible {
			sb.WriteString(d.Error())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Grammar reprints the grammar's symbol cross-reference and rule list,
// per the `-g` flag.
func Grammar(g *grammar.Grammar) string {
	data := [][]string{{"Symbol", "Kind", "Precedence", "Assoc"}}
	for _, sym := range g.Symbols.Sorted() {
		kind := "nonterminal"
		if sym.Kind == symbols.Terminal {
			kind = "terminal"
		}
		prec := "-"
		if sym.Precedence != symbols.NoPrecedence {
			prec = fmt.Sprintf("%d", sym.Precedence)
		}
		data = append(data, []string{sym.Name, kind, prec, assocString(sym.Assoc)})
	}

	symTable := rosed.
		Edit("Symbols").
		InsertTableOpts(1, data, 100, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()

	var rules strings.Builder
	rules.WriteString("\nRules\n")
	for _, r := range g.Rules {
		rules.WriteString(fmt.Sprintf("%d: %s\n", r.Index, r.String()))
	}

	return symTable + rules.String()
}

func assocString(a symbols.Assoc) string {
	switch a {
	case symbols.AssocLeft:
		return "left"
	case symbols.AssocRight:
		return "right"
	case symbols.AssocNone:
		return "none"
	default:
		return "-"
	}
}

// Summary renders the one-line `-s` counts: terminal/nonterminal/rule/
// state/conflict counts.
func Summary(g *grammar.Grammar, b *automaton.Builder, conflicts int) string {
	return fmt.Sprintf(
		"%d terminals, %d nonterminals, %d rules, %d states, %d conflicts",
		len(g.Terminals()), len(g.NonTerminals()), len(g.Rules), len(b.States()), conflicts,
	)
}
