// Package grammar holds the core grammar data model (Symbol, Rule) not
// already covered by package symbols, plus precedence inference and
// FIRST/λ analysis.
package grammar

import (
	"fmt"

	"github.com/dekarrin/lalrgen/internal/bitset"
	"github.com/dekarrin/lalrgen/internal/gerr"
	"github.com/dekarrin/lalrgen/internal/symbols"
)

// RHSSymbol is one symbol on the right-hand side of a Rule, with its
// optional alias used for $N-style semantic-action rewriting.
type RHSSymbol struct {
	Sym   *symbols.Symbol
	Alias string
}

// Rule is a single grammar production. Rules are created by the
// scanner/parser and never mutated afterward except for CanReduce and
// PrecSym inference.
type Rule struct {
	LHS      *symbols.Symbol
	LHSAlias string
	RHS      []RHSSymbol

	// PrecSym is the symbol whose precedence/associativity governs
	// shift/reduce and reduce/reduce decisions for this rule: either
	// explicitly declared with a `[SYM]` override, or inferred as the
	// leftmost RHS symbol with a defined precedence.
	PrecSym *symbols.Symbol

	Action     string
	ActionLine int
	Line       int // source line of the rule head
	Index      int // stable index in the global rule list

	// CanReduce is set during reduce-action generation if this rule
	// ever survives as an active REDUCE action in some state.
	CanReduce bool

	// NextForLHS chains this rule to the next rule sharing the same LHS.
	NextForLHS *Rule
}

// String renders the rule in "LHS ::= sym sym" form, for
// diagnostics and the .out report.
func (r *Rule) String() string {
	s := r.LHS.Name + " ::="
	for _, rhs := range r.RHS {
		s += " " + rhs.Sym.Name
	}
	return s
}

// Grammar owns the rule list and symbol table, plus the declaration slots
// populated by the `%...` declarations the scanner/parser recognizes.
type Grammar struct {
	Symbols *symbols.Table
	Rules   []*Rule

	lhsHeads map[*symbols.Symbol]*Rule // head of each LHS's rule chain
	lhsTails map[*symbols.Symbol]*Rule

	// StartSymbolName is set by a %start_symbol declaration; if empty the
	// LHS of the first rule is used.
	StartSymbolName string

	Name              string
	Includes          []string
	CodeBlocks        []string
	TokenDestructor   string
	TokenPrefix       string
	SyntaxError       string
	ParseAccept       string
	ParseFailure      string
	StackOverflow     string
	ExtraArgument     string
	ExtraArgumentType string
	TokenType         string
	StackSize         int

	nterminal int // populated by FinalizeSymbols
	finalized bool
}

// New returns an empty Grammar ready to accept rules and declarations.
func New() *Grammar {
	return &Grammar{
		Symbols:   symbols.NewTable(),
		lhsHeads:  map[*symbols.Symbol]*Rule{},
		lhsTails:  map[*symbols.Symbol]*Rule{},
		StackSize: 100, // default stack depth when unspecified
	}
}

// AddRule interns lhsName and every RHS symbol name, appends a new Rule to
// the grammar, and chains it onto that nonterminal's per-LHS rule list.
func (g *Grammar) AddRule(lhsName, lhsAlias string, rhsNames []string, rhsAliases []string, line int) *Rule {
	lhs := g.Symbols.Intern(lhsName)

	rule := &Rule{
		LHS:      lhs,
		LHSAlias: lhsAlias,
		Line:     line,
		Index:    len(g.Rules),
	}
	for i, name := range rhsNames {
		sym := g.Symbols.Intern(name)
		alias := ""
		if i < len(rhsAliases) {
			alias = rhsAliases[i]
		}
		rule.RHS = append(rule.RHS, RHSSymbol{Sym: sym, Alias: alias})
	}

	g.Rules = append(g.Rules, rule)

	if tail, ok := g.lhsTails[lhs]; ok {
		tail.NextForLHS = rule
	} else {
		g.lhsHeads[lhs] = rule
	}
	g.lhsTails[lhs] = rule
	if lhs.RuleHead < 0 {
		lhs.RuleHead = rule.Index
	}

	return rule
}

// RulesFor returns every rule whose LHS is sym, in source order, by
// walking the per-LHS chain.
func (g *Grammar) RulesFor(sym *symbols.Symbol) []*Rule {
	var out []*Rule
	for r := g.lhsHeads[sym]; r != nil; r = r.NextForLHS {
		out = append(out, r)
	}
	return out
}

// StartSymbol returns the configured start symbol, or the LHS of the first
// rule if none was configured.
func (g *Grammar) StartSymbol() *symbols.Symbol {
	if g.StartSymbolName != "" {
		if sym, ok := g.Symbols.Lookup(g.StartSymbolName); ok {
			return sym
		}
	}
	if len(g.Rules) > 0 {
		return g.Rules[0].LHS
	}
	return nil
}

// FinalizeSymbols inserts the pseudo-symbols "$", "error", and "{default}",
// sorts and re-indexes the symbol table, and records the terminal count.
// It must run once, after the scanner/parser has finished and before any
// FIRST/λ or automaton work.
func (g *Grammar) FinalizeSymbols() {
	g.Symbols.Intern("$")
	g.Symbols.Intern("error")
	g.Symbols.Intern("{default}")
	g.nterminal = g.Symbols.FinalizeIndexes()
	g.finalized = true

	for _, sym := range g.Symbols.All() {
		if sym.Kind == symbols.NonTerminal && sym.FIRST == nil {
			sym.FIRST = bitset.New(g.nterminal)
		}
	}
}

// NTerminal returns the number of terminal symbols, valid after
// FinalizeSymbols.
func (g *Grammar) NTerminal() int {
	return g.nterminal
}

// Terminals returns every real terminal symbol in sorted (alphabetical)
// order, excluding the pseudo-terminals "$" and "{default}": neither is a
// token the lexer ever produces, so neither belongs in the emitted token
// #defines or the user-facing terminal count.
func (g *Grammar) Terminals() []*symbols.Symbol {
	var out []*symbols.Symbol
	for _, sym := range g.Symbols.Sorted() {
		if sym.Kind == symbols.Terminal && sym.Name != "{default}" && sym.Name != "$" {
			out = append(out, sym)
		}
	}
	return out
}

// NonTerminals returns every nonterminal symbol in sorted order.
func (g *Grammar) NonTerminals() []*symbols.Symbol {
	var out []*symbols.Symbol
	for _, sym := range g.Symbols.Sorted() {
		if sym.Kind == symbols.NonTerminal {
			out = append(out, sym)
		}
	}
	return out
}

// Validate checks the grammar-level semantic invariants that can only be
// checked once the whole grammar is loaded: there is at least
// one rule, at least one terminal, the start symbol never appears on the
// RHS of any rule, and every nonterminal that appears has at least one
// rule.
func (g *Grammar) Validate() error {
	if len(g.Rules) == 0 {
		return fmt.Errorf("grammar has no rules")
	}
	if len(g.Terminals()) == 0 {
		return fmt.Errorf("grammar has no terminals")
	}

	start := g.StartSymbol()
	for _, r := range g.Rules {
		for _, rhs := range r.RHS {
			if rhs.Sym == start {
				return fmt.Errorf("start symbol %q appears on the right-hand side of rule at line %d", start.Name, r.Line)
			}
			if rhs.Sym.Kind == symbols.NonTerminal && len(g.RulesFor(rhs.Sym)) == 0 {
				return fmt.Errorf("nonterminal %q used at line %d has no rules", rhs.Sym.Name, r.Line)
			}
		}
	}
	return nil
}

// AssignPrecedence performs rule precedence inference: for
// every rule with no explicit PrecSym, adopt the leftmost RHS symbol that
// has a defined precedence. Rules keep an explicitly-declared PrecSym
// (from a `[SYM]` override) untouched.
func (g *Grammar) AssignPrecedence() {
	for _, r := range g.Rules {
		if r.PrecSym != nil {
			continue
		}
		for _, rhs := range r.RHS {
			if rhs.Sym.Precedence != symbols.NoPrecedence {
				r.PrecSym = rhs.Sym
				break
			}
		}
	}
}

// ComputeLambdaAndFirst runs two independent fixed-point loops:
// λ-derivability of nonterminals, then FIRST sets. Both mutate the
// grammar's interned Symbol records in place and must run after
// FinalizeSymbols.
func (g *Grammar) ComputeLambdaAndFirst() {
	g.computeLambda()
	g.computeFirst()
}

func (g *Grammar) computeLambda() {
	changed := true
	for changed {
		changed = false
		for _, r := range g.Rules {
			if r.LHS.Lambda {
				continue
			}
			allLambda := true
			for _, rhs := range r.RHS {
				if rhs.Sym.Kind == symbols.Terminal {
					allLambda = false
					break
				}
				if !rhs.Sym.Lambda {
					allLambda = false
					break
				}
			}
			if allLambda {
				r.LHS.Lambda = true
				changed = true
			}
		}
	}
}

func (g *Grammar) computeFirst() {
	changed := true
	for changed {
		changed = false
		for _, r := range g.Rules {
			if g.addFirstOfProduction(r.LHS, r.RHS) {
				changed = true
			}
		}
	}
}

// addFirstOfProduction scans rhs left to right: add
// FIRST(rhs[i]) (or the terminal itself) to FIRST(lhs); stop at the first
// non-λ symbol. The self-recursive case (rhs[i] == lhs) only continues the
// scan if lhs is already known λ, otherwise the scan stops, which is what
// keeps this from looping on a rule like "A -> A B".
func (g *Grammar) addFirstOfProduction(lhs *symbols.Symbol, rhs []RHSSymbol) bool {
	changed := false
	for _, sym := range rhs {
		if sym.Sym == lhs && !lhs.Lambda {
			break
		}

		if sym.Sym.Kind == symbols.Terminal {
			if !lhs.FIRST.Has(sym.Sym.ID) {
				lhs.FIRST.Add(sym.Sym.ID)
				changed = true
			}
			break
		}

		if lhs.FIRST.UnionChanged(sym.Sym.FIRST) {
			changed = true
		}
		if !sym.Sym.Lambda {
			break
		}
	}
	return changed
}

// UnreducibleRuleDiagnostics returns a gerr.Diagnostic for every rule that
// never became CanReduce: a rule that can never fire is reported as an
// error rather than silently ignored.
func (g *Grammar) UnreducibleRuleDiagnostics() []*gerr.Diagnostic {
	var out []*gerr.Diagnostic
	for _, r := range g.Rules {
		if !r.CanReduce {
			out = append(out, gerr.At(r.Line, "This rule can not be reduced."))
		}
	}
	return out
}
