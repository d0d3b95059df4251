// Package emit implements the template-driven emitter: a template driver
// that copies template text up to `%%` cut points, substituting the
// grammar's configured parser name for the word prefix "Parse",
// interleaved with generated fragments (stack-union datatype, rule case
// bodies with $$/$N rewriting, the packed action table, and the rest of
// the generated pieces).
package emit

import (
	"regexp"
	"strings"
)

// parseWordRe matches a word beginning with "Parse" that is not itself
// preceded by an identifier character: prefix-replace only, never inside
// a longer identifier. The suffix after "Parse" is captured separately so
// substitute can keep it, turning e.g. "ParseTrace" into
// "<parserName>Trace" rather than discarding the "Trace" suffix.
var parseWordRe = regexp.MustCompile(`(^|[^A-Za-z0-9_])Parse([A-Za-z0-9_]*)`)

// TemplateDriver copies a template file's lines, returning control to the
// caller at each line that is exactly "%%".
type TemplateDriver struct {
	lines      []string
	pos        int
	parserName string
}

// NewTemplateDriver returns a driver over template, substituting
// parserName for every word-prefix match of "Parse".
func NewTemplateDriver(template, parserName string) *TemplateDriver {
	return &TemplateDriver{
		lines:      strings.Split(template, "\n"),
		parserName: parserName,
	}
}

// Next copies lines from the current position up to (but not including)
// the next "%%" line, substituting the parser name prefix, and advances
// past that marker. done is true once the template is exhausted.
func (d *TemplateDriver) Next() (text string, done bool) {
	if d.pos >= len(d.lines) {
		return "", true
	}

	var sb strings.Builder
	for d.pos < len(d.lines) {
		line := d.lines[d.pos]
		if strings.TrimSpace(line) == "%%" {
			d.pos++
			return sb.String(), false
		}
		sb.WriteString(d.substitute(line))
		sb.WriteString("\n")
		d.pos++
	}
	return sb.String(), false
}

// Done reports whether every template line has been copied out.
func (d *TemplateDriver) Done() bool {
	return d.pos >= len(d.lines)
}

func (d *TemplateDriver) substitute(line string) string {
	return parseWordRe.ReplaceAllString(line, "${1}"+d.parserName+"${2}")
}
