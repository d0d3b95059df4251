package gscan

import (
	"strconv"
	"strings"

	"github.com/dekarrin/lalrgen/internal/gerr"
	"github.com/dekarrin/lalrgen/internal/grammar"
	"github.com/dekarrin/lalrgen/internal/symbols"
)

// MaxRHS bounds the number of symbols allowed on a rule's right-hand side
// ("too many RHS (> MAXRHS)").
const MaxRHS = 500

// pstate is the parser's explicit state in its hand-rolled state machine.
type pstate int

const (
	stWaitDeclOrRule pstate = iota
	stWaitArrow
	stInRHS
	stLHSAlias
	stRHSAlias
	stWaitDeclKW
	stWaitPrecSym
	stPrecOverride
)

// Parser is the explicit state machine of , driving a Scanner and
// flushing completed rules into a grammar.Grammar.
type Parser struct {
	sc    *Scanner
	g     *grammar.Grammar
	diags *gerr.List

	state pstate

	// current rule buffer: LHS, optional alias, RHS vector (bounded),
	// alias vector -- flushed to a new rule record upon seeing '.'.
	curLHS      string
	curLHSAlias string
	curLine     int
	curRHS      []string
	curAliases  []string

	// lastRule is the most recently flushed rule, the target of a
	// trailing `{code}` action or `[SYM]` precedence override that
	// follows its closing '.'.
	lastRule        *grammar.Rule
	lastRuleHasCode bool
	lastRuleHasPrec bool

	precCounter  int
	curPrecAssoc symbols.Assoc // associativity of the %left/%right/%nonassoc group in progress
}

// Parse reads every token from src and returns the populated grammar,
// along with the accumulated diagnostics list. It never returns early on a
// grammar error ("the tool continues parsing to surface as many
// as possible"); it only stops on scanner exhaustion.
func Parse(src string) (*grammar.Grammar, *gerr.List) {
	p := &Parser{
		sc:    NewScanner(src),
		g:     grammar.New(),
		diags: &gerr.List{},
		state: stWaitDeclOrRule,
	}
	p.run()
	return p.g, p.diags
}

func (p *Parser) errf(line int, format string, a ...interface{}) {
	p.diags.Add(gerr.At(line, format, a...))
}

func (p *Parser) run() {
	for {
		tok, err := p.sc.Next()
		if err != nil {
			p.errf(p.sc.Line(), "%s", err.Error())
			p.resync()
			continue
		}
		if tok.Kind == KindEOF {
			return
		}
		p.step(tok)
	}
}

// resync implements the RESYNC_* states: skip tokens until '.' (rule
// boundary, ) or '%' (declaration boundary), discarding whatever
// rule buffer was in progress.
func (p *Parser) resync() {
	p.curLHS = ""
	p.curRHS = nil
	p.curAliases = nil
	for {
		tok, err := p.sc.Next()
		if err != nil {
			continue // keep eating bad lexical content until something recognizable
		}
		if tok.Kind == KindEOF {
			p.state = stWaitDeclOrRule
			return
		}
		if tok.Kind == KindDot {
			p.state = stWaitDeclOrRule
			return
		}
		if tok.Kind == KindPercent {
			p.state = stWaitDeclKW
			return
		}
	}
}

func (p *Parser) step(tok Token) {
	switch p.state {
	case stWaitDeclOrRule:
		p.stepWaitDeclOrRule(tok)
	case stWaitArrow:
		p.stepWaitArrow(tok)
	case stInRHS:
		p.stepInRHS(tok)
	case stLHSAlias:
		p.stepLHSAlias(tok)
	case stRHSAlias:
		p.stepRHSAlias(tok)
	case stWaitDeclKW:
		p.stepWaitDeclKW(tok)
	case stWaitPrecSym:
		p.stepWaitPrecSym(tok)
	case stPrecOverride:
		p.stepPrecOverride(tok)
	}
}

func (p *Parser) stepWaitDeclOrRule(tok Token) {
	switch tok.Kind {
	case KindPercent:
		p.state = stWaitDeclKW
	case KindIdent:
		if strings.ToUpper(tok.Text) == tok.Text {
			// uppercase identifier at rule-start position: not a valid
			// LHS (LHS must be a nonterminal, lowercase-leading).
			p.errf(tok.Line, "expected nonterminal name to start a rule, got terminal-like %q", tok.Text)
			p.resync()
			return
		}
		p.curLHS = tok.Text
		p.curLHSAlias = ""
		p.curLine = tok.Line
		p.curRHS = nil
		p.curAliases = nil
		p.state = stWaitArrow
	case KindCode:
		if p.lastRule == nil {
			p.errf(tok.Line, "code block with no preceding rule to attach it to")
		} else if p.lastRuleHasCode {
			p.errf(tok.Line, "rule at line %d already has an action code block", p.lastRule.Line)
		} else {
			p.lastRule.Action = tok.Text
			p.lastRule.ActionLine = tok.Line
			p.lastRuleHasCode = true
		}
	case KindLBracket:
		p.state = stPrecOverride
	default:
		p.errf(tok.Line, "unexpected %s; expected a declaration, a rule, or end of file", tok)
		p.resync()
	}
}

func (p *Parser) stepWaitArrow(tok Token) {
	switch tok.Kind {
	case KindArrow:
		p.state = stInRHS
	case KindLParen:
		p.state = stLHSAlias
	default:
		p.errf(tok.Line, "unexpected %s; expected '::=' or '(alias)'", tok)
		p.resync()
	}
}

func (p *Parser) stepLHSAlias(tok Token) {
	if tok.Kind != KindIdent {
		p.errf(tok.Line, "unexpected %s; expected alias identifier", tok)
		p.resync()
		return
	}
	p.curLHSAlias = tok.Text

	closeTok, err := p.sc.Next()
	if err != nil || closeTok.Kind != KindRParen {
		p.errf(p.sc.Line(), "expected ')' to close LHS alias")
		p.resync()
		return
	}
	p.state = stWaitArrow
}

func (p *Parser) stepInRHS(tok Token) {
	switch tok.Kind {
	case KindIdent:
		if len(p.curRHS) >= MaxRHS {
			p.errf(tok.Line, "too many symbols on right-hand side (max %d)", MaxRHS)
			p.resync()
			return
		}
		p.curRHS = append(p.curRHS, tok.Text)
		p.curAliases = append(p.curAliases, "")
	case KindLParen:
		if len(p.curRHS) == 0 {
			p.errf(tok.Line, "'(' alias with no preceding RHS symbol")
			p.resync()
			return
		}
		p.state = stRHSAlias
	case KindDot:
		p.flushRule()
		p.state = stWaitDeclOrRule
	default:
		p.errf(tok.Line, "unexpected %s in right-hand side", tok)
		p.resync()
	}
}

func (p *Parser) stepRHSAlias(tok Token) {
	if tok.Kind != KindIdent {
		p.errf(tok.Line, "unexpected %s; expected alias identifier", tok)
		p.resync()
		return
	}
	p.curAliases[len(p.curAliases)-1] = tok.Text

	closeTok, err := p.sc.Next()
	if err != nil || closeTok.Kind != KindRParen {
		p.errf(p.sc.Line(), "expected ')' to close RHS alias")
		p.resync()
		return
	}
	p.state = stInRHS
}

func (p *Parser) flushRule() {
	rule := p.g.AddRule(p.curLHS, p.curLHSAlias, p.curRHS, p.curAliases, p.curLine)
	p.lastRule = rule
	p.lastRuleHasCode = false
	p.lastRuleHasPrec = false
}

func (p *Parser) stepPrecOverride(tok Token) {
	if tok.Kind != KindIdent || strings.ToUpper(tok.Text) != tok.Text {
		p.errf(tok.Line, "expected terminal name in precedence override, got %s", tok)
		p.resync()
		return
	}
	if p.lastRule == nil {
		p.errf(tok.Line, "precedence override with no preceding rule")
	} else if p.lastRuleHasPrec {
		p.errf(tok.Line, "rule at line %d already has a precedence override", p.lastRule.Line)
	} else {
		p.lastRule.PrecSym = p.g.Symbols.Intern(tok.Text)
		p.lastRuleHasPrec = true
	}

	closeTok, err := p.sc.Next()
	if err != nil || closeTok.Kind != KindRBracket {
		p.errf(p.sc.Line(), "expected ']' to close precedence override")
		p.resync()
		return
	}
	p.state = stWaitDeclOrRule
}

// declKeywords enumerates the recognized `%...` declaration keywords.
var declKeywords = map[string]bool{
	"name": true, "include": true, "code": true, "token_destructor": true,
	"token_prefix": true, "syntax_error": true, "parse_accept": true,
	"parse_failure": true, "stack_overflow": true, "extra_argument": true,
	"token_type": true, "stack_size": true, "start_symbol": true,
	"left": true, "right": true, "nonassoc": true, "destructor": true,
	"type": true,
}

func (p *Parser) stepWaitDeclKW(tok Token) {
	if tok.Kind != KindIdent || !declKeywords[tok.Text] {
		p.errf(tok.Line, "unknown declaration keyword %q", tok.Text)
		p.resync()
		return
	}
	p.dispatchDecl(tok.Text, tok.Line)
}

// dispatchDecl consumes the argument(s) for keyword kw and assigns it to
// its slot in the grammar record, keyword table. Each case
// ends in state stWaitDeclOrRule except left/right/nonassoc, which enter
// stWaitPrecSym.
func (p *Parser) dispatchDecl(kw string, kwLine int) {
	switch kw {
	case "name":
		if id, ok := p.expectIdent("%name"); ok {
			p.g.Name = id
		}
		p.state = stWaitDeclOrRule
	case "include":
		if code, ok := p.expectCode("%include"); ok {
			p.g.Includes = append(p.g.Includes, code)
		}
		p.state = stWaitDeclOrRule
	case "code":
		if code, ok := p.expectCode("%code"); ok {
			p.g.CodeBlocks = append(p.g.CodeBlocks, code)
		}
		p.state = stWaitDeclOrRule
	case "token_destructor":
		if code, ok := p.expectCode("%token_destructor"); ok {
			p.g.TokenDestructor = code
		}
		p.state = stWaitDeclOrRule
	case "token_prefix":
		if id, ok := p.expectIdent("%token_prefix"); ok {
			p.g.TokenPrefix = id
		}
		p.state = stWaitDeclOrRule
	case "syntax_error":
		if code, ok := p.expectCode("%syntax_error"); ok {
			p.g.SyntaxError = code
		}
		p.state = stWaitDeclOrRule
	case "parse_accept":
		if code, ok := p.expectCode("%parse_accept"); ok {
			p.g.ParseAccept = code
		}
		p.state = stWaitDeclOrRule
	case "parse_failure":
		if code, ok := p.expectCode("%parse_failure"); ok {
			p.g.ParseFailure = code
		}
		p.state = stWaitDeclOrRule
	case "stack_overflow":
		if code, ok := p.expectCode("%stack_overflow"); ok {
			p.g.StackOverflow = code
		}
		p.state = stWaitDeclOrRule
	case "extra_argument":
		if code, ok := p.expectCode("%extra_argument"); ok {
			p.g.ExtraArgument = code
		}
		p.state = stWaitDeclOrRule
	case "token_type":
		if code, ok := p.expectCode("%token_type"); ok {
			p.g.TokenType = code
		}
		p.state = stWaitDeclOrRule
	case "stack_size":
		p.parseStackSize()
		p.state = stWaitDeclOrRule
	case "start_symbol":
		if id, ok := p.expectIdent("%start_symbol"); ok {
			p.g.StartSymbolName = id
		}
		p.state = stWaitDeclOrRule
	case "left", "right", "nonassoc":
		p.precCounter++
		p.curPrecAssoc = assocForKeyword(kw)
		p.state = stWaitPrecSym
	case "destructor":
		p.parseSymbolThenCode(kwLine, symDestructor)
		p.state = stWaitDeclOrRule
	case "type":
		p.parseSymbolThenCode(kwLine, symDataType)
		p.state = stWaitDeclOrRule
	}
}

func assocForKeyword(kw string) symbols.Assoc {
	switch kw {
	case "left":
		return symbols.AssocLeft
	case "right":
		return symbols.AssocRight
	default:
		return symbols.AssocNone
	}
}

// expectIdent reads the next token and requires it to be an identifier,
// for single-argument declarations like %name or %start_symbol.
func (p *Parser) expectIdent(context string) (string, bool) {
	tok, err := p.sc.Next()
	if err != nil || tok.Kind != KindIdent {
		p.errf(p.sc.Line(), "%s requires an identifier argument", context)
		p.resync()
		return "", false
	}
	return tok.Text, true
}

// expectCode reads the next token and requires it to be a braced code
// block, for declarations like %include or %token_type.
func (p *Parser) expectCode(context string) (string, bool) {
	tok, err := p.sc.Next()
	if err != nil || tok.Kind != KindCode {
		p.errf(p.sc.Line(), "%s requires a {code} argument", context)
		p.resync()
		return "", false
	}
	return tok.Text, true
}

func (p *Parser) parseStackSize() {
	tok, err := p.sc.Next()
	if err != nil || tok.Kind != KindIdent {
		p.errf(p.sc.Line(), "%%stack_size requires a numeric argument")
		p.resync()
		return
	}
	n, convErr := strconv.Atoi(tok.Text)
	if convErr != nil || n <= 0 {
		p.errf(tok.Line, "illegal stack size %q", tok.Text)
		p.resync()
		return
	}
	p.g.StackSize = n
}

// symAttrKind distinguishes the two forms of "symbol then code" keyword
// (spec's Open Question: %destructor and %type both bind an identifier
// then a code block, but to different Symbol fields; the error
// classification is kept distinct per keyword rather than reusing one
// message for both, even though the upstream tool's messages appear to
// have been copy-pasted between them).
type symAttrKind int

const (
	symDestructor symAttrKind = iota
	symDataType
)

func (p *Parser) parseSymbolThenCode(kwLine int, kind symAttrKind) {
	nameTok, err := p.sc.Next()
	if err != nil || nameTok.Kind != KindIdent {
		if kind == symDestructor {
			p.errf(kwLine, "%%destructor requires a symbol name")
		} else {
			p.errf(kwLine, "%%type requires a symbol name")
		}
		p.resync()
		return
	}
	sym := p.g.Symbols.Intern(nameTok.Text)

	codeTok, err := p.sc.Next()
	if err != nil || codeTok.Kind != KindCode {
		if kind == symDestructor {
			p.errf(nameTok.Line, "%%destructor for %q requires a {code} block", nameTok.Text)
		} else {
			p.errf(nameTok.Line, "%%type for %q requires a {code} block", nameTok.Text)
		}
		p.resync()
		return
	}

	switch kind {
	case symDestructor:
		if sym.Destructor != "" {
			p.errf(codeTok.Line, "duplicate %%destructor for %q", sym.Name)
			return
		}
		sym.Destructor = codeTok.Text
		sym.DestructorLine = codeTok.Line
	case symDataType:
		sym.DataType = codeTok.Text
	}
}

func (p *Parser) stepWaitPrecSym(tok Token) {
	switch tok.Kind {
	case KindIdent:
		if strings.ToUpper(tok.Text) != tok.Text {
			p.errf(tok.Line, "expected terminal name in precedence declaration, got %q", tok.Text)
			p.resync()
			return
		}
		sym := p.g.Symbols.Intern(tok.Text)
		if sym.Precedence != symbols.NoPrecedence {
			p.errf(tok.Line, "terminal %q already has a declared precedence", tok.Text)
			return
		}
		sym.Precedence = p.precCounter
		sym.Assoc = p.curPrecAssoc
	case KindDot:
		p.state = stWaitDeclOrRule
	default:
		p.errf(tok.Line, "unexpected %s in precedence declaration", tok)
		p.resync()
	}
}
