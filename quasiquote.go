package lispcore

// evalQuasiquote expands a backquoted form at nesting depth `depth`
// (starting at 1 for the outermost backquote). Nested backquotes
// increment depth and nested commas decrement it; a comma/splice only
// actually evaluates its operand once depth reaches zero, so
// `` `(a `(b ,(c))) `` leaves the inner comma untouched (spec §8
// quasiquote laws).
func (it *Interp) evalQuasiquote(env *Env, form Value, depth int) Value {
	switch form.Tag() {
	case TagComma:
		if depth == 1 {
			return it.Eval(env, form.Inner())
		}
		inner := it.evalQuasiquote(env, form.Inner(), depth-1)
		if it.HasError() {
			return NilValue
		}
		return it.NewComma(inner)

	case TagSplice:
		if depth == 1 {
			return it.Throw(ErrStatic, "splice-unquote not valid outside of a list position")
		}
		inner := it.evalQuasiquote(env, form.Inner(), depth-1)
		if it.HasError() {
			return NilValue
		}
		return it.NewSplice(inner)

	case TagBackquote:
		inner := it.evalQuasiquote(env, form.Inner(), depth+1)
		if it.HasError() {
			return NilValue
		}
		return it.NewBackquote(inner)

	case TagList:
		return it.qqList(env, form, depth)

	default:
		return form
	}
}

// qqList expands each element of a quasiquoted list, splicing in the
// result of any element tagged SPLICE at the current depth.
func (it *Interp) qqList(env *Env, form Value, depth int) Value {
	items := ListToSlice(form)
	out := make([]Value, 0, len(items))
	for _, item := range items {
		if item.Tag() == TagSplice && depth == 1 {
			spliced := it.Eval(env, item.Inner())
			if it.HasError() {
				return NilValue
			}
			out = append(out, ListToSlice(spliced)...)
			continue
		}
		expanded := it.evalQuasiquote(env, item, depth)
		if it.HasError() {
			return NilValue
		}
		out = append(out, expanded)
	}
	return it.SliceToList(out)
}
