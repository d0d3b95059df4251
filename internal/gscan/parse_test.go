package gscan

import (
	"testing"

	"github.com/dekarrin/lalrgen/internal/symbols"
)

// minimal grammar: first end-to-end scenario.
func TestParseMinimalGrammar(t *testing.T) {
	src := `
%name MiniCalc
%token_type { int }

expr ::= expr PLUS expr.
expr ::= NUM.
`
	g, diags := Parse(src)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Errors())
	}
	if g.Name != "MiniCalc" {
		t.Fatalf("got name %q", g.Name)
	}
	if g.TokenType != " int " {
		t.Fatalf("got token type %q", g.TokenType)
	}
	if len(g.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(g.Rules))
	}
}

func TestParseRuleWithAliasesAndAction(t *testing.T) {
	src := `
expr(A) ::= expr(B) PLUS(op) expr(C). { A = B + C }
expr ::= NUM.
`
	g, diags := Parse(src)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Errors())
	}
	r := g.Rules[0]
	if r.LHSAlias != "A" {
		t.Fatalf("got LHS alias %q", r.LHSAlias)
	}
	if r.RHS[0].Alias != "B" || r.RHS[1].Alias != "op" || r.RHS[2].Alias != "C" {
		t.Fatalf("got RHS aliases %+v", r.RHS)
	}
	if r.Action != " A = B + C " {
		t.Fatalf("got action %q", r.Action)
	}
}

func TestParsePrecedenceOverride(t *testing.T) {
	src := `
%left PLUS.
%right TIMES.

expr ::= expr PLUS expr.
expr ::= MINUS expr. [TIMES]
expr ::= NUM.
`
	g, diags := Parse(src)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Errors())
	}
	plus, _ := g.Symbols.Lookup("PLUS")
	times, _ := g.Symbols.Lookup("TIMES")
	if plus.Assoc != symbols.AssocLeft || plus.Precedence != 1 {
		t.Fatalf("PLUS precedence/assoc wrong: %+v", plus)
	}
	if times.Assoc != symbols.AssocRight || times.Precedence != 2 {
		t.Fatalf("TIMES precedence/assoc wrong: %+v", times)
	}
	unary := g.Rules[1]
	if unary.PrecSym != times {
		t.Fatalf("expected explicit override to TIMES, got %v", unary.PrecSym)
	}
}

func TestParseDestructorAndType(t *testing.T) {
	src := `
%type expr { int }
%destructor expr { free($$); }

expr ::= NUM.
`
	g, diags := Parse(src)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Errors())
	}
	sym, _ := g.Symbols.Lookup("expr")
	if sym.DataType != " int " {
		t.Fatalf("got data type %q", sym.DataType)
	}
	if sym.Destructor != " free($$); " {
		t.Fatalf("got destructor %q", sym.Destructor)
	}
}

func TestParseUnknownDeclarationRecoversAtDot(t *testing.T) {
	src := `
%bogus foo.
expr ::= NUM.
`
	g, diags := Parse(src)
	if diags.Count() == 0 {
		t.Fatal("expected a diagnostic for unknown declaration keyword")
	}
	if len(g.Rules) != 1 {
		t.Fatalf("expected recovery to still pick up the following rule, got %d rules", len(g.Rules))
	}
}

func TestParseDuplicateDestructorIsDiagnosed(t *testing.T) {
	src := `
%destructor expr { free($$); }
%destructor expr { free($$); }

expr ::= NUM.
`
	_, diags := Parse(src)
	if diags.Count() == 0 {
		t.Fatal("expected a diagnostic for duplicate destructor")
	}
}

func TestParseStackSize(t *testing.T) {
	src := `
%stack_size 500
expr ::= NUM.
`
	g, diags := Parse(src)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Errors())
	}
	if g.StackSize != 500 {
		t.Fatalf("got stack size %d", g.StackSize)
	}
}

func TestParseCodeBlockAttachedToWrongPlaceIsDiagnosed(t *testing.T) {
	src := `{ leading action with no rule }`
	_, diags := Parse(src)
	if diags.Count() == 0 {
		t.Fatal("expected a diagnostic for a leading code block with no preceding rule")
	}
}

func TestParseTooManyRHSSymbols(t *testing.T) {
	src := "expr ::="
	for i := 0; i < MaxRHS+5; i++ {
		src += " NUM"
	}
	src += ".\n"
	_, diags := Parse(src)
	if diags.Count() == 0 {
		t.Fatal("expected a diagnostic for exceeding MAXRHS")
	}
}
