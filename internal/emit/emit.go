// Package emit implements the final stage of the pipeline: it drives a
// user-supplied template through TemplateDriver and fills each `%%` cut
// point with one generated fragment, in order.
package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/gerr"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/pack"
)

// Options controls optional emission behavior.
type Options struct {
	// HeaderPath, if non-empty, sends the token #define block to a
	// separate header (the -m flag) instead of inline; Emit then reports
	// the header's generated content via HeaderContent so the caller can
	// skip rewriting a file whose content hasn't changed.
	HeaderPath string
}

// Result carries emitted output alongside diagnostics raised while
// rewriting rule actions (unreferenced aliases, ).
type Result struct {
	Body          string
	HeaderContent string // populated only when Options.HeaderPath is set
	Diagnostics   []*gerr.Diagnostic
}

// AssignDataTypeSlots assigns the typed-union slot ids used by the emitted
// yyStackEntry union: each distinct %type datatype text gets a unique slot
// id >= 1, untyped symbols share slot 0, and the error symbol gets a
// dedicated slot. A plain first-seen map satisfies that contract (unique
// id per distinct type, slot 0 for "none", a reserved slot for error)
// without needing a scratch hash table.
func AssignDataTypeSlots(g *grammar.Grammar) {
	seen := map[string]int{}
	next := 1
	for _, sym := range g.Symbols.Sorted() {
		if sym.Name == "error" {
			continue
		}
		if sym.DataType == "" {
			sym.DTNum = 0
			continue
		}
		if id, ok := seen[sym.DataType]; ok {
			sym.DTNum = id
			continue
		}
		seen[sym.DataType] = next
		sym.DTNum = next
		next++
	}
	if errSym, ok := g.Symbols.Lookup("error"); ok {
		errSym.DTNum = next
	}
}

// Emit drives template through the fragments listed in , in
// order, and returns the generated text in a Result. parserName is substituted for every
// "Parse"-prefixed word in the template (TemplateDriver's job); g, b, and
// t must already be fully analyzed (FOLLOW-propagated, packed).
func Emit(g *grammar.Grammar, b *automaton.Builder, t *pack.Table, template, parserName string, opts Options) (*Result, error) {
	d := NewTemplateDriver(template, parserName)
	var body strings.Builder
	var diags []*gerr.Diagnostic

	fragments := []func() string{
		func() string { return includeBlock(g) },
		func() string { return tokenDefines(g) }, // folded in unless opts.HeaderPath splits it out below
		func() string { return frameworkDefines(g, t) },
		func() string { return dataTypeUnion(g) },
		func() string { return argDecls(g) },
		func() string { return numericConstants(g, t) },
		func() string { return packedActionTable(g, t) },
		func() string { return stateDescriptorTable(b) },
		func() string { return symbolNameTable(g) },
		func() string { return destructorDispatch(g) },
		func() string { return overflowFailureErrorAccept(g) },
		func() string {
			s, rd := ruleCaseBodies(g)
			diags = append(diags, rd...)
			return s
		},
	}

	var header string
	if opts.HeaderPath != "" {
		header = tokenDefines(g)
		fragments[1] = func() string { return "" } // emitted to the header instead
	}

	for _, frag := range fragments {
		next, done := d.Next()
		body.WriteString(next)
		if done {
			return nil, fmt.Errorf("template exhausted before all fragments were emitted")
		}
		body.WriteString(frag())
	}

	// copy out any trailing template text after the last cut point
	for {
		next, done := d.Next()
		body.WriteString(next)
		if done {
			break
		}
	}

	return &Result{Body: body.String(), HeaderContent: header, Diagnostics: diags}, nil
}

func includeBlock(g *grammar.Grammar) string {
	var sb strings.Builder
	for _, inc := range g.Includes {
		sb.WriteString(inc)
		sb.WriteString("\n")
	}
	for _, blk := range g.CodeBlocks {
		sb.WriteString(blk)
		sb.WriteString("\n")
	}
	return sb.String()
}

// tokenDefines emits one numeric #define per terminal, // token #define block; TokenPrefix (default "") is prepended to each name.
func tokenDefines(g *grammar.Grammar) string {
	var sb strings.Builder
	for _, sym := range g.Terminals() {
		sb.WriteString(fmt.Sprintf("#define %s%s %d\n", g.TokenPrefix, sym.Name, sym.ID+1))
	}
	return sb.String()
}

func frameworkDefines(g *grammar.Grammar, t *pack.Table) string {
	return fmt.Sprintf(
		"#define YYNSTATE %d\n#define YYNRULE %d\n#define YYNTOKEN %d\n#define YYSTACKDEPTH %d\n",
		t.NState, t.NRule, g.NTerminal(), g.StackSize,
	)
}

// dataTypeUnion emits the typed union of semantic values, one member per
// distinct DTNum, design note.
func dataTypeUnion(g *grammar.Grammar) string {
	byNum := map[int]string{}
	for _, sym := range g.Symbols.Sorted() {
		if sym.DataType != "" {
			byNum[sym.DTNum] = sym.DataType
		}
	}
	if errSym, ok := g.Symbols.Lookup("error"); ok {
		byNum[errSym.DTNum] = "int"
	}

	var sb strings.Builder
	sb.WriteString("typedef union {\n")
	sb.WriteString("\tint yy0; /* slot 0: no typed value */\n")
	for num, typ := range byNum {
		if num == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\t%s yy%d;\n", typ, num))
	}
	sb.WriteString("} YYMINORTYPE;\n")
	return sb.String()
}

func argDecls(g *grammar.Grammar) string {
	if g.ExtraArgumentType == "" {
		return ""
	}
	return fmt.Sprintf("#define YYEXTRAARGTYPE %s\n", g.ExtraArgumentType)
}

func numericConstants(g *grammar.Grammar, t *pack.Table) string {
	return fmt.Sprintf(
		"#define YYCODETYPE unsigned %s\n#define YYACTIONTYPE unsigned %s\n#define YY_ERROR_ACTION %d\n#define YY_ACCEPT_ACTION %d\n",
		bitWidthCType(t.YYCodeWidthBits), bitWidthCType(t.ActionWidthBits),
		t.NState+t.NRule, t.NState+t.NRule+1,
	)
}

func bitWidthCType(bits int) string {
	if bits <= 8 {
		return "char"
	}
	return "int"
}

// packedActionTable emits the global packed table with a human-readable
// comment per slot : the occupying symbol, the action it takes,
// whether the slot holds a relocated collision victim, and the next slot
// of its collision chain, if any.
func packedActionTable(g *grammar.Grammar, t *pack.Table) string {
	var sb strings.Builder
	sb.WriteString("static const YYACTIONTYPE yy_action[] = {\n")
	for i, e := range t.Entries {
		comment := "unused"
		if e.Kind != automaton.ActionNotUsed {
			sym := g.Symbols.ByID(e.Symbol)
			comment = fmt.Sprintf("%s on %s", e.Kind.String(), sym.Name)
			if e.Relocated {
				comment += " (relocated)"
			}
			if e.Collide >= 0 {
				comment += fmt.Sprintf(", chains to slot %d", e.Collide)
			}
		}
		sb.WriteString(fmt.Sprintf("\t/* %4d */ %d, /* %s */\n", i, e.Code, comment))
	}
	sb.WriteString("};\n")
	return sb.String()
}

func stateDescriptorTable(b *automaton.Builder) string {
	var sb strings.Builder
	sb.WriteString("static const struct { int stateno; int tabstart; int mask; } yy_state[] = {\n")
	for _, st := range b.States() {
		sb.WriteString(fmt.Sprintf("\t{ %d, %d, %d },\n", st.ID, st.TabStart, st.Mask))
	}
	sb.WriteString("};\n")
	return sb.String()
}

func symbolNameTable(g *grammar.Grammar) string {
	var sb strings.Builder
	sb.WriteString("static const char *const yyTokenName[] = {\n")
	for _, sym := range g.Symbols.Sorted() {
		sb.WriteString(fmt.Sprintf("\t%q,\n", sym.Name))
	}
	sb.WriteString("};\n")
	return sb.String()
}

func destructorDispatch(g *grammar.Grammar) string {
	var sb strings.Builder
	sb.WriteString("static void yy_destructor(int yymajor, YYMINORTYPE *yypminor) {\n\tswitch (yymajor) {\n")
	for _, sym := range g.Symbols.Sorted() {
		if sym.Destructor == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\tcase %d: /* %s */\n\t\t%s\n\t\tbreak;\n", sym.ID+1, sym.Name, sym.Destructor))
	}
	sb.WriteString("\tdefault: break;\n\t}\n}\n")
	return sb.String()
}

func overflowFailureErrorAccept(g *grammar.Grammar) string {
	var sb strings.Builder
	writeBlock := func(name, code string) {
		if code == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("static void %s(void) {\n%s\n}\n", name, code))
	}
	writeBlock("yyStackOverflow", g.StackOverflow)
	writeBlock("yySyntaxError", g.SyntaxError)
	writeBlock("yyParseFailure", g.ParseFailure)
	writeBlock("yyParseAccept", g.ParseAccept)
	return sb.String()
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// RewriteAction implements $/$N-style alias rewriting: the LHS
// alias becomes the reducer's output slot typed by its DTNum, an RHS
// alias becomes a stack-relative offset typed by its own symbol's DTNum,
// and an un-aliased RHS symbol with a destructor gets an auto-generated
// destructor call before the user's action runs (otherwise its value would
// be silently dropped on the floor). Every declared alias that the action
// never references comes back as a diagnostic.
func RewriteAction(r *grammar.Rule) (string, []*gerr.Diagnostic) {
	n := len(r.RHS)
	used := map[string]bool{}

	rewritten := identRe.ReplaceAllStringFunc(r.Action, func(word string) string {
		if r.LHSAlias != "" && word == r.LHSAlias {
			used[word] = true
			return fmt.Sprintf("yygotominor.yy%d", r.LHS.DTNum)
		}
		for i, rhs := range r.RHS {
			if rhs.Alias != "" && word == rhs.Alias {
				used[word] = true
				offset := i + 1 - n
				return fmt.Sprintf("yymsp[%d].minor.yy%d", offset, rhs.Sym.DTNum)
			}
		}
		return word
	})

	var diags []*gerr.Diagnostic
	if r.LHSAlias != "" && !used[r.LHSAlias] {
		diags = append(diags, gerr.At(r.ActionLine, "LHS alias %q is never referenced in this rule's action", r.LHSAlias))
	}
	for _, rhs := range r.RHS {
		if rhs.Alias != "" && !used[rhs.Alias] {
			diags = append(diags, gerr.At(r.ActionLine, "RHS alias %q is never referenced in this rule's action", rhs.Alias))
		}
	}

	var destructors strings.Builder
	for i, rhs := range r.RHS {
		if rhs.Alias == "" && rhs.Sym.Destructor != "" {
			offset := i + 1 - n
			fmt.Fprintf(&destructors, "yy_destructor(%d, &yymsp[%d].minor);\n", rhs.Sym.ID+1, offset)
		}
	}

	return destructors.String() + rewritten, diags
}

// ruleCaseBodies emits one `case N:` block per rule.
func ruleCaseBodies(g *grammar.Grammar) (string, []*gerr.Diagnostic) {
	var sb strings.Builder
	var diags []*gerr.Diagnostic
	for _, r := range g.Rules {
		body, rd := RewriteAction(r)
		diags = append(diags, rd...)
		sb.WriteString(fmt.Sprintf("\tcase %d: /* %s */\n", r.Index, r.String()))
		if strings.TrimSpace(body) != "" {
			sb.WriteString("\t{\n")
			sb.WriteString(body)
			sb.WriteString("\n\t}\n")
		}
		sb.WriteString("\t\tbreak;\n")
	}
	return sb.String(), diags
}

// HeaderChanged implements the -m flag's content-stability check: it
// reports whether newContent differs from what's already at path, so a
// re-run over an unchanged grammar doesn't touch the header's mtime. A
// missing or unreadable file always reports changed.
func HeaderChanged(path string, newContent string, readFile func(string) ([]byte, error)) bool {
	old, err := readFile(path)
	if err != nil {
		return true
	}
	return string(old) != newContent
}
