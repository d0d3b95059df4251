package pack

import (
	"testing"

	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/lrtable"
)

func prep(t *testing.T, build func(g *grammar.Grammar)) (*grammar.Grammar, *automaton.Builder) {
	t.Helper()
	g := grammar.New()
	build(g)
	g.FinalizeSymbols()
	g.AssignPrecedence()
	g.ComputeLambdaAndFirst()
	b := automaton.Build(g)
	b.PropagateFollow()
	lrtable.Generate(g, b)
	return g, b
}

// TestDefaultCompressionSingleDefaultAction covers the scenario where a
// state where every REDUCE reduces the same rule collapses to one
// {default} action and zero per-lookahead REDUCE entries for that rule.
func TestDefaultCompressionSingleDefaultAction(t *testing.T) {
	// a ::= X is reduced on both Y and Z, so its state gets a default.
	g, b := prep(t, func(g *grammar.Grammar) {
		g.StartSymbolName = "s"
		g.AddRule("s", "", []string{"a", "Y"}, nil, 1)
		g.AddRule("s", "", []string{"a", "Z"}, nil, 2)
		g.AddRule("a", "", []string{"X"}, nil, 3)
	})

	CompressDefaults(g, b)

	defaults := 0
	for _, st := range b.States() {
		if st.Default == nil {
			continue
		}
		defaults++
		for _, a := range st.Actions {
			if a.Kind == automaton.ActionReduce && a.Rule == st.Default.Rule {
				t.Fatalf("state %d: rule %d still has a per-lookahead reduce entry after compression", st.ID, a.Rule)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one state with a {default} action, got %d", defaults)
	}
}

func TestCompressionIdempotent(t *testing.T) {
	g, b := prep(t, func(g *grammar.Grammar) {
		g.StartSymbolName = "s"
		g.AddRule("s", "", []string{"a"}, nil, 1)
		g.AddRule("a", "", []string{"X"}, nil, 2)
	})

	CompressDefaults(g, b)
	first := Build(g, b)

	CompressDefaults(g, b)
	second := Build(g, b)

	if len(first.Entries) != len(second.Entries) {
		t.Fatalf("table size changed across repeated compression: %d vs %d", len(first.Entries), len(second.Entries))
	}
	for i := range first.Entries {
		if first.Entries[i].Code != second.Entries[i].Code || first.Entries[i].Kind != second.Entries[i].Kind {
			t.Fatalf("entry %d changed across repeated compression", i)
		}
	}
}

func TestPackedTableNoActionCodeForUnusedOrConflict(t *testing.T) {
	g, b := prep(t, func(g *grammar.Grammar) {
		g.StartSymbolName = "e"
		g.AddRule("e", "", []string{"e", "PLUS", "e"}, nil, 1)
		g.AddRule("e", "", []string{"NUM"}, nil, 2)
	})

	table := Build(g, b)
	for _, e := range table.Entries {
		if e.Kind == automaton.ActionConflict {
			t.Fatalf("packed table should not contain a slot for a conflict action")
		}
	}
}
