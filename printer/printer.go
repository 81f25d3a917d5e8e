// Package printer renders lispcore.Value forms back into source text.
// Its escaping discipline is grounded on the teacher's tree_printer.go
// (go/tree_printer.go): a single package-level strings.Replacer handles
// every escape sequence instead of a hand-rolled switch per character.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lispcore/lispcore"
)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
)

// Print renders v as valid, re-readable source text (spec §4.6's
// reader/printer round-trip requirement), unlike Interp.Print's
// diagnostic-only rendering used by backtraces.
func Print(it *lispcore.Interp, v lispcore.Value) string {
	var b strings.Builder
	write(it, &b, v)
	return b.String()
}

func write(it *lispcore.Interp, b *strings.Builder, v lispcore.Value) {
	switch v.Tag() {
	case lispcore.TagNil:
		b.WriteString("nil")
	case lispcore.TagInt:
		b.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case lispcore.TagDouble:
		s := strconv.FormatFloat(v.AsDouble(), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString(s)
	case lispcore.TagBool:
		if v.AsBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case lispcore.TagID:
		b.WriteString(v.IdentifierName())
	case lispcore.TagString:
		b.WriteByte('"')
		b.WriteString(literalEscaper.Replace(v.AsString()))
		b.WriteByte('"')
	case lispcore.TagList:
		b.WriteByte('(')
		first := true
		for cur := v; cur.Tag() == lispcore.TagList; cur = cur.Cdr() {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			write(it, b, cur.Car())
		}
		b.WriteByte(')')
	case lispcore.TagQuote:
		b.WriteByte('\'')
		write(it, b, v.Inner())
	case lispcore.TagBackquote:
		b.WriteByte('`')
		write(it, b, v.Inner())
	case lispcore.TagComma:
		b.WriteByte(',')
		write(it, b, v.Inner())
	case lispcore.TagSplice:
		b.WriteString(",@")
		write(it, b, v.Inner())
	default:
		// Functions, environments, and other opaque runtime values have
		// no re-readable syntax; fall back to the diagnostic renderer.
		fmt.Fprint(b, it.Print(v))
	}
}
