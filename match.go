package lispcore

import "fmt"

// bindArgs builds the call frame for invoking fn: it walks fn's
// formals list over env, binding one argument per identifier, with
// the standard `:` identifier introducing a dotted tail that collects
// every remaining argument into a single list (spec §3's formals
// grammar). It is shared by ordinary application (eval.go), Apply,
// and macro expansion (preprocess.go).
func (it *Interp) bindArgs(fn *funcObj, args []Value) (*Env, error) {
	newEnv := it.pushEnvOver(fn.lexenv)
	formals := ListToSlice(fn.formals)
	colon := it.intern.Standard(":")

	argIdx := 0
	for i := 0; i < len(formals); i++ {
		f := formals[i]
		if f.Tag() == TagID && f.SameIdentifier(colon) {
			if i+1 >= len(formals) {
				return nil, fmt.Errorf("%s: `:` must be followed by a rest-binding identifier", fn.name)
			}
			restName := formals[i+1].IdentifierName()
			rest := it.SliceToList(args[min(argIdx, len(args)):])
			if err := it.Define(newEnv, restName, rest, SymNone); err != nil {
				return nil, err
			}
			argIdx = len(args)
			i++
			continue
		}
		if f.Tag() != TagID {
			return nil, fmt.Errorf("%s: formals must be identifiers", fn.name)
		}
		if argIdx >= len(args) {
			return nil, fmt.Errorf("%s: too few arguments (got %d)", fn.name, len(args))
		}
		if err := it.Define(newEnv, f.IdentifierName(), args[argIdx], SymNone); err != nil {
			return nil, err
		}
		argIdx++
	}
	if argIdx < len(args) {
		return nil, fmt.Errorf("%s: too many arguments (got %d)", fn.name, len(args))
	}
	return newEnv, nil
}

// matchPattern implements the `match` special form's per-clause
// pattern language: an identifier binds unconditionally, a literal
// (anything not an identifier or list) must equal the scrutinee, a
// list recurses element-wise, and the standard `:` identifier
// introduces a dotted rest-binding exactly like bindArgs' formals.
// It defines directly into env rather than building a fresh frame,
// since match's bindings are scoped to its own clause body, not a
// function call.
func (it *Interp) matchPattern(env *Env, pattern, value Value) bool {
	colon := it.intern.Standard(":")

	switch pattern.Tag() {
	case TagID:
		name := pattern.IdentifierName()
		if name == "_" {
			return true
		}
		it.Define(env, name, value, SymNone)
		return true

	case TagList:
		items := ListToSlice(pattern)
		vals := ListToSlice(value)
		if value.Tag() != TagNil && value.Tag() != TagList {
			return false
		}
		vi := 0
		for i := 0; i < len(items); i++ {
			p := items[i]
			if p.Tag() == TagID && p.SameIdentifier(colon) {
				if i+1 >= len(items) {
					return false
				}
				rest := it.SliceToList(vals[min(vi, len(vals)):])
				if !it.matchPattern(env, items[i+1], rest) {
					return false
				}
				vi = len(vals)
				i++
				continue
			}
			if vi >= len(vals) {
				return false
			}
			if !it.matchPattern(env, p, vals[vi]) {
				return false
			}
			vi++
		}
		return vi == len(vals)

	case TagNil:
		return value.Tag() == TagNil

	default:
		return valuesStructurallyEqual(pattern, value)
	}
}

// valuesStructurallyEqual compares immediates by value and strings by
// byte content; other heap kinds compare by identity, matching the
// evaluator's general equality discipline (spec §3).
func valuesStructurallyEqual(a, b Value) bool {
	if a.Tag() != b.Tag() {
		return false
	}
	switch a.Tag() {
	case TagString:
		return stringsEqual(a, b)
	case TagNil:
		return true
	default:
		if a.obj != nil || b.obj != nil {
			return a.obj == b.obj
		}
		return a.IsEqualImmediate(b)
	}
}
