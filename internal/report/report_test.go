package report

import (
	"strings"
	"testing"

	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/lrtable"
)

func buildMinimal(t *testing.T) (*grammar.Grammar, *automaton.Builder, int) {
	t.Helper()
	g := grammar.New()
	g.StartSymbolName = "s"
	g.AddRule("s", "", []string{"a"}, nil, 1)
	g.AddRule("a", "", []string{"A"}, nil, 2)
	g.FinalizeSymbols()
	g.AssignPrecedence()
	g.ComputeLambdaAndFirst()
	b := automaton.Build(g)
	b.PropagateFollow()
	res := lrtable.Generate(g, b)
	return g, b, res.Conflicts
}

func TestSummaryCounts(t *testing.T) {
	g, b, conflicts := buildMinimal(t)
	s := Summary(g, b, conflicts)
	if !strings.Contains(s, "0 conflicts") {
		t.Fatalf("expected 0 conflicts in summary, got %q", s)
	}
	if !strings.Contains(s, "4 states") {
		t.Fatalf("expected 4 states in summary, got %q", s)
	}
}

func TestOutReportContainsAcceptAction(t *testing.T) {
	g, b, _ := buildMinimal(t)
	out := Out(g, b, Options{})
	if !strings.Contains(out, "accept") {
		t.Fatalf("expected an accept action in .out report, got:\n%s", out)
	}
}

func TestGrammarReprintListsRules(t *testing.T) {
	g, _, _ := buildMinimal(t)
	out := Grammar(g)
	if !strings.Contains(out, "s ::= a") {
		t.Fatalf("expected grammar reprint to list rule 's ::= a', got:\n%s", out)
	}
}
