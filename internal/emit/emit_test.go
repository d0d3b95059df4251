package emit

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/lrtable"
	"github.com/dekarrin/lalrgen/internal/pack"
)

func buildSample(t *testing.T) (*grammar.Grammar, *automaton.Builder, *pack.Table) {
	t.Helper()
	g := grammar.New()
	g.AddRule("start", "s", []string{"expr"}, []string{"e"}, 1)
	g.AddRule("expr", "", []string{"NUM"}, nil, 2)
	g.FinalizeSymbols()
	g.AssignPrecedence()
	g.ComputeLambdaAndFirst()
	AssignDataTypeSlots(g)

	b := automaton.Build(g)
	b.PropagateFollow()
	lrtable.Generate(g, b)
	table := pack.Build(g, b)
	return g, b, table
}

func TestTemplateDriverSubstitutesParserName(t *testing.T) {
	tmpl := "void ParseTrace(void) {}\n%%\nint ParseInit(void) {}\n"
	d := NewTemplateDriver(tmpl, "MyGrammar")

	first, done := d.Next()
	require.False(t, done, "expected more template after the first cut point")
	assert.Contains(t, first, "MyGrammarTrace")

	second, _ := d.Next()
	assert.Contains(t, second, "MyGrammarInit")
}

func TestAssignDataTypeSlotsReservesZeroAndError(t *testing.T) {
	g, _, _ := buildSample(t)
	for _, sym := range g.Symbols.Sorted() {
		if sym.DataType == "" && sym.Name != "error" {
			assert.Zerof(t, sym.DTNum, "untyped symbol %q should be slot 0", sym.Name)
		}
	}
	errSym, ok := g.Symbols.Lookup("error")
	require.True(t, ok)
	assert.NotZero(t, errSym.DTNum, "error symbol should have a dedicated nonzero slot")
}

func TestEmitProducesBodyAndCasesForEveryRule(t *testing.T) {
	g, b, table := buildSample(t)
	template := strings.Repeat("%%\n", 12)

	res, err := Emit(g, b, table, template, "MyGrammar", Options{})
	require.NoError(t, err)

	for i := range g.Rules {
		marker := "case " + strconv.Itoa(i) + ":"
		assert.Containsf(t, res.Body, marker, "expected a case block for rule %d", i)
	}
	assert.Contains(t, res.Body, "yy_action")
}

func TestRewriteActionFlagsUnreferencedAlias(t *testing.T) {
	g := grammar.New()
	r := g.AddRule("start", "s", []string{"NUM"}, []string{"n"}, 1)
	r.Action = "s = 1;" // never references the RHS alias "n"
	g.FinalizeSymbols()

	_, diags := RewriteAction(r)
	assert.NotEmpty(t, diags, "expected a diagnostic for the unreferenced RHS alias")
}

func TestRewriteActionRewritesReferencedAliases(t *testing.T) {
	g := grammar.New()
	r := g.AddRule("start", "s", []string{"NUM"}, []string{"n"}, 1)
	r.Action = "s = n;"
	g.FinalizeSymbols()

	body, diags := RewriteAction(r)
	assert.Empty(t, diags)
	assert.Contains(t, body, "yygotominor.yy")
	assert.Contains(t, body, "yymsp[0].minor.yy")
}

func TestRewriteActionAutoDestructsUnaliasedSymbol(t *testing.T) {
	g := grammar.New()
	numSym := g.Symbols.Intern("NUM")
	numSym.Destructor = "free_num(yy0);"
	r := g.AddRule("start", "", []string{"NUM"}, nil, 1)
	r.Action = ""
	g.FinalizeSymbols()

	body, _ := RewriteAction(r)
	assert.Contains(t, body, fmt.Sprintf("yy_destructor(%d, &yymsp[0].minor)", numSym.ID+1))
}
