package lispcore

import "fmt"

// tailResult is what a special form returns instead of recursing into
// Eval for a form in tail position. When IsTail is true, Eval's outer
// trampoline loop swaps in Env/Form and continues instead of growing
// the host stack -- this is the mechanism behind spec §4.11's
// tail-call elimination.
type tailResult struct {
	IsTail bool
	Env    *Env
	Form   Value
}

func tailCall(env *Env, form Value) tailResult { return tailResult{IsTail: true, Env: env, Form: form} }
func noTail() tailResult                       { return tailResult{} }

// Eval reduces form to a value in env. It is a straight-line loop,
// not a recursive function, except for non-tail sub-evaluations
// (argument evaluation, special form bodies not in tail position)
// which do recurse -- those are exactly the positions the spec does
// not require O(1) stack for.
func (it *Interp) Eval(env *Env, form Value) Value {
	for {
		if it.HasError() {
			return NilValue
		}

		switch form.Tag() {
		case TagID:
			return it.Get(env, form)

		case TagQuote:
			return form.Inner()

		case TagBackquote:
			return it.evalQuasiquote(env, form.Inner(), 1)

		case TagComma, TagSplice:
			return it.Throw(ErrStatic, "comma/splice used outside of quasiquote")

		case TagList:
			if !it.tceEnabled {
				return it.evalListNoTCE(env, form)
			}
			cell := form.obj.(*consCell)
			head := it.Eval(env, cell.value)
			if it.HasError() {
				return NilValue
			}
			switch head.Tag() {
			case TagSpecialForm:
				sf := head.obj.(*specialFormObj)
				it.pushFrame(form, it.formLocation(form))
				res, tail := sf.handler(it, env, cell.next)
				if it.HasError() {
					return NilValue
				}
				if tail.IsTail {
					env, form = tail.Env, tail.Form
					continue
				}
				return res

			case TagExtFunc:
				args, ok := it.evalArgs(env, cell.next)
				if !ok {
					return NilValue
				}
				ef := head.obj.(*extFuncObj)
				h := it.Ref(head)
				res := ef.fn(it, args)
				it.Unref(h)
				return res

			case TagFunc:
				fn := head.obj.(*funcObj)
				args, ok := it.evalArgs(env, cell.next)
				if !ok {
					return NilValue
				}
				newEnv, err := it.bindArgs(fn, args)
				if err != nil {
					return it.Throw(ErrMatch, err.Error())
				}
				if len(fn.body) == 0 {
					return NilValue
				}
				for i := 0; i < len(fn.body)-1; i++ {
					it.Eval(newEnv, fn.body[i])
					if it.HasError() {
						return NilValue
					}
				}
				env, form = newEnv, fn.body[len(fn.body)-1]
				continue

			default:
				return it.Throw(ErrEval, fmt.Sprintf("%s is not callable", it.Print(head)))
			}

		default:
			// Immediates, strings, functions, environments, host
			// callbacks, and special forms evaluate to themselves.
			return form
		}
	}
}

// evalListNoTCE is used only when tail-call elimination has been
// disabled for debugging (spec §6 tail-call-elimination option): it
// simply recurses for tail positions instead of looping.
func (it *Interp) evalListNoTCE(env *Env, form Value) Value {
	cell := form.obj.(*consCell)
	head := it.Eval(env, cell.value)
	if it.HasError() {
		return NilValue
	}
	switch head.Tag() {
	case TagSpecialForm:
		sf := head.obj.(*specialFormObj)
		res, tail := sf.handler(it, env, cell.next)
		if it.HasError() {
			return NilValue
		}
		if tail.IsTail {
			return it.Eval(tail.Env, tail.Form)
		}
		return res
	case TagExtFunc:
		args, ok := it.evalArgs(env, cell.next)
		if !ok {
			return NilValue
		}
		return head.obj.(*extFuncObj).fn(it, args)
	case TagFunc:
		fn := head.obj.(*funcObj)
		args, ok := it.evalArgs(env, cell.next)
		if !ok {
			return NilValue
		}
		newEnv, err := it.bindArgs(fn, args)
		if err != nil {
			return it.Throw(ErrMatch, err.Error())
		}
		var res Value
		for _, f := range fn.body {
			res = it.Eval(newEnv, f)
			if it.HasError() {
				return NilValue
			}
		}
		return res
	default:
		return it.Throw(ErrEval, fmt.Sprintf("%s is not callable", it.Print(head)))
	}
}

func (it *Interp) evalArgs(env *Env, argsList Value) ([]Value, bool) {
	var out []Value
	cur := argsList
	for cur.Tag() == TagList {
		c := cur.obj.(*consCell)
		v := it.Eval(env, c.value)
		if it.HasError() {
			return nil, false
		}
		out = append(out, v)
		cur = c.next
	}
	return out, true
}

func (it *Interp) formLocation(form Value) Location {
	if form.obj == nil {
		return Location{}
	}
	loc, _ := it.attrs.GetLocation(form.obj)
	return loc
}

// Apply evaluates fn against already-evaluated args, used by host
// code (builtins, unpack "l"/"p" callers) that needs to invoke a
// FUNC or EXT-FUNC value directly instead of through a source form.
func (it *Interp) Apply(fn Value, args []Value) Value {
	switch fn.Tag() {
	case TagExtFunc:
		return fn.obj.(*extFuncObj).fn(it, args)
	case TagFunc:
		f := fn.obj.(*funcObj)
		newEnv, err := it.bindArgs(f, args)
		if err != nil {
			return it.Throw(ErrMatch, err.Error())
		}
		var res Value
		for _, form := range f.body {
			res = it.Eval(newEnv, form)
			if it.HasError() {
				return NilValue
			}
		}
		return res
	default:
		return it.Throw(ErrEval, "Apply: value is not callable")
	}
}
