package grammar

import (
	"testing"

	"github.com/dekarrin/lalrgen/internal/symbols"
)

func TestValidateEmptyGrammar(t *testing.T) {
	g := New()
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for empty grammar")
	}
}

func TestValidateNoTerminals(t *testing.T) {
	g := New()
	g.AddRule("s", "", []string{"s"}, nil, 1)
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for grammar with no terminals")
	}
}

func TestValidateSingleRuleGrammar(t *testing.T) {
	g := New()
	g.AddRule("s", "", []string{"NUM"}, nil, 1)
	g.FinalizeSymbols()

	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStartOnRHS(t *testing.T) {
	g := New()
	g.AddRule("s", "", []string{"s", "NUM"}, nil, 1)
	g.FinalizeSymbols()

	if err := g.Validate(); err == nil {
		t.Fatal("expected error when start symbol appears on a RHS")
	}
}

// TestEmptyRuleMakesLambda checks that an empty RHS (boundary case) makes
// its LHS lambda.
func TestEmptyRuleMakesLambda(t *testing.T) {
	g := New()
	g.AddRule("s", "", []string{"A"}, nil, 1)
	g.AddRule("a", "", nil, nil, 2) // a -> ε
	g.FinalizeSymbols()
	g.ComputeLambdaAndFirst()

	aSym, _ := g.Symbols.Lookup("a")
	if !aSym.Lambda {
		t.Fatal("expected 'a' to be lambda after an empty production")
	}
}

// TestSelfRecursiveFirstDoesNotLoop checks that FIRST computation terminates and is
// correct for a self-recursive rule "A -> A B", boundary
// case.
func TestSelfRecursiveFirstDoesNotLoop(t *testing.T) {
	g := New()
	g.AddRule("s", "", []string{"a"}, nil, 1)
	g.AddRule("a", "", []string{"a", "B"}, nil, 2)
	g.AddRule("a", "", []string{"B"}, nil, 3)
	g.FinalizeSymbols()
	g.ComputeLambdaAndFirst()

	aSym, _ := g.Symbols.Lookup("a")
	if aSym.Lambda {
		t.Fatal("'a' should not be lambda; it always requires a B")
	}
	bSym, _ := g.Symbols.Lookup("B")
	if !aSym.FIRST.Has(bSym.ID) {
		t.Fatal("FIRST(a) should contain B")
	}
	if aSym.FIRST.Count() != 1 {
		t.Fatalf("FIRST(a) should contain exactly B, got %s", aSym.FIRST.String())
	}
}

func TestAssignPrecedenceInference(t *testing.T) {
	g := New()
	r := g.AddRule("e", "", []string{"e", "PLUS", "e"}, nil, 1)
	g.AddRule("e", "", []string{"NUM"}, nil, 2)
	g.FinalizeSymbols()

	plus, _ := g.Symbols.Lookup("PLUS")
	plus.Precedence = 1
	plus.Assoc = symbols.AssocLeft

	g.AssignPrecedence()

	if r.PrecSym != plus {
		t.Fatalf("expected rule's PrecSym to be inferred as PLUS, got %v", r.PrecSym)
	}
}

func TestRulesForChainsInSourceOrder(t *testing.T) {
	g := New()
	r1 := g.AddRule("e", "", []string{"NUM"}, nil, 1)
	r2 := g.AddRule("e", "", []string{"e", "PLUS", "e"}, nil, 2)

	rules := g.RulesFor(g.Symbols.Intern("e"))
	if len(rules) != 2 || rules[0] != r1 || rules[1] != r2 {
		t.Fatalf("expected rules in source order, got %v", rules)
	}
}
