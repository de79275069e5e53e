// Package format renders statement trees back to SQL text.
//
// Implicit conversions inserted by the resolver are invisible: a resolved
// statement renders exactly like the statement that was parsed.
package format

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/token"
)

const indentSize = 2

// Printer handles SQL rendering. In multiline mode clauses start on their
// own line with indented bodies; otherwise everything is on one line.
type Printer struct {
	output      *bytes.Buffer
	multiline   bool
	depth       int
	atLineStart bool
}

func newPrinter(multiline bool) *Printer {
	return &Printer{
		output:      &bytes.Buffer{},
		multiline:   multiline,
		atLineStart: true,
	}
}

// String returns the rendered output.
func (p *Printer) String() string {
	if p.multiline {
		return strings.TrimRight(p.output.String(), "\n") + "\n"
	}
	return p.output.String()
}

func (p *Printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	if !p.multiline {
		return
	}
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() {
	p.output.WriteByte(' ')
}

// sep separates clauses: a line break in multiline mode, a space otherwise.
func (p *Printer) sep() {
	if p.multiline {
		p.writeln()
		return
	}
	p.space()
}

// newline breaks the line in multiline mode only.
func (p *Printer) newline() {
	if p.multiline {
		p.writeln()
	}
}

// kw prints keywords by token type, separated by spaces.
func (p *Printer) kw(tokens ...token.TokenType) {
	for i, t := range tokens {
		if i > 0 {
			p.space()
		}
		p.write(t.String())
	}
}

// keyword prints a contextual keyword.
func (p *Printer) keyword(s string) {
	p.write(strings.ToUpper(s))
}

// formatList prints a list of items with separators.
// count is the number of items, format is called for each index,
// sep is the separator string, broken adds line breaks after separators
// in multiline mode.
func (p *Printer) formatList(count int, format func(i int), sep string, broken bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
			if broken && p.multiline {
				p.writeln()
			} else if sep == "," {
				p.space()
			}
		}
	}
}

// ident renders an identifier, quoting it when it would not lex back as
// the same identifier.
func (p *Printer) ident(name string) {
	if needsQuote(name) {
		p.write(`"` + strings.ReplaceAll(name, `"`, `""`) + `"`)
		return
	}
	p.write(name)
}

func (p *Printer) dotted(parts []string) {
	for i, part := range parts {
		if i > 0 {
			p.write(".")
		}
		p.ident(part)
	}
}

func needsQuote(name string) bool {
	if name == "" {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '#' && i == 0:
		case c == '_', c >= 0x80:
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return true
		}
	}
	return token.IsKeyword(token.LookupIdent(strings.ToLower(name)))
}
