// Package format installs the `format` builtin: a minimal
// printf-style template substitution scanning the format string
// left-to-right and consuming one argument per directive, the way the
// teacher's code generator (go/gen_go_eval.go) walks a template
// string and substitutes each `%s` placeholder against its next emit
// argument in sequence.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lispcore/lispcore"
)

// Directives: %d (INT), %f (DOUBLE), %s (STRING, unquoted), %v (any
// value's diagnostic rendering), %% (literal percent).
func render(it *lispcore.Interp, tmpl string, args []lispcore.Value) (string, error) {
	var b strings.Builder
	ai := 0
	next := func() (lispcore.Value, bool) {
		if ai >= len(args) {
			return lispcore.NilValue, false
		}
		v := args[ai]
		ai++
		return v, true
	}

	i := 0
	for i < len(tmpl) {
		c := tmpl[i]
		if c != '%' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(tmpl) {
			return "", fmt.Errorf("format: trailing %%")
		}
		switch tmpl[i+1] {
		case '%':
			b.WriteByte('%')
		case 'd':
			v, ok := next()
			if !ok {
				return "", fmt.Errorf("format: missing argument for %%d")
			}
			b.WriteString(strconv.FormatInt(v.AsInt(), 10))
		case 'f':
			v, ok := next()
			if !ok {
				return "", fmt.Errorf("format: missing argument for %%f")
			}
			b.WriteString(strconv.FormatFloat(v.AsDouble(), 'f', -1, 64))
		case 's':
			v, ok := next()
			if !ok {
				return "", fmt.Errorf("format: missing argument for %%s")
			}
			b.WriteString(v.AsString())
		case 'v':
			v, ok := next()
			if !ok {
				return "", fmt.Errorf("format: missing argument for %%v")
			}
			b.WriteString(it.Print(v))
		default:
			return "", fmt.Errorf("format: unknown directive %%%c", tmpl[i+1])
		}
		i += 2
	}
	return b.String(), nil
}

// Install defines the `format` global: (format tmpl args...) -> STRING.
func Install(it *lispcore.Interp) error {
	return it.DefineFunction("format", "(format tmpl args...) -> STRING, %d/%f/%s/%v/%% template substitution",
		func(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
			if len(args) == 0 || args[0].Tag() != lispcore.TagString {
				return it.Throw(lispcore.ErrType, "format: expected a template string as the first argument")
			}
			out, err := render(it, args[0].AsString(), args[1:])
			if err != nil {
				return it.Throw(lispcore.ErrValue, err.Error())
			}
			return it.NewString(out)
		})
}
