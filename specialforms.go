package lispcore

import "fmt"

// registerSpecialForms installs the special-form vocabulary every
// NewInterp instance starts with, each pattern-guarded the way
// preprocess.go's matchShape expects (spec §4.10). Builtins that need
// no unevaluated arguments (arithmetic, list ops) belong to the
// mathlib/collaborator packages instead -- this file only covers
// forms whose defining trait is that some argument position must NOT
// be evaluated before the handler runs.
func registerSpecialForms(it *Interp) {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(it.DefineSpecialForm("quote", "(quote expr) -> expr, unevaluated and unexpanded",
		PNode(PLit(), PNil()),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			return args.Car(), noTail()
		}))

	must(it.DefineSpecialForm("if", "(if cond then [else]) -> then or else, tail position preserved",
		PNode(PExpr(), PNode(PExpr(), PMaybe(PNode(PExpr(), PNil())))),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			cond := it.Eval(env, args.Car())
			if it.HasError() {
				return NilValue, noTail()
			}
			rest := args.Cdr()
			if isTruthy(cond) {
				return NilValue, tailCall(env, rest.Car())
			}
			elseClause := rest.Cdr()
			if elseClause.Tag() == TagNil {
				return NilValue, noTail()
			}
			return NilValue, tailCall(env, elseClause.Car())
		}))

	must(it.DefineSpecialForm("do", "(do expr...) -> last expr's value, tail position preserved",
		PSeq(PExpr()),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			items := ListToSlice(args)
			if len(items) == 0 {
				return NilValue, noTail()
			}
			for _, f := range items[:len(items)-1] {
				it.Eval(env, f)
				if it.HasError() {
					return NilValue, noTail()
				}
			}
			return NilValue, tailCall(env, items[len(items)-1])
		}))

	must(it.DefineSpecialForm("def", "(def name expr) -> expr's value, bound in the innermost normal env",
		PNode(PLit(), PNode(PExpr(), PNil())),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			name := args.Car()
			if name.Tag() != TagID {
				return it.Throw(ErrStatic, "def: first argument must be an identifier"), noTail()
			}
			v := it.Eval(env, args.Cdr().Car())
			if it.HasError() {
				return NilValue, noTail()
			}
			if err := it.Define(env, name.IdentifierName(), v, SymNone); err != nil {
				return it.Throw(ErrExist, err.Error()), noTail()
			}
			return v, noTail()
		}))

	must(it.DefineSpecialForm("set!", "(set! name expr) -> expr's value, assigned to an existing binding",
		PNode(PLit(), PNode(PExpr(), PNil())),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			name := args.Car()
			if name.Tag() != TagID {
				return it.Throw(ErrStatic, "set!: first argument must be an identifier"), noTail()
			}
			v := it.Eval(env, args.Cdr().Car())
			if it.HasError() {
				return NilValue, noTail()
			}
			return it.Set(env, name, v), noTail()
		}))

	fnPattern := PNode(PLit(), PSeq(PExpr()))
	must(it.DefineSpecialForm("fn", "(fn formals body...) -> an anonymous closure over env",
		fnPattern,
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			return it.NewFunc("", args.Car(), ListToSlice(args.Cdr()), env), noTail()
		}))

	must(it.DefineSpecialForm("defn", "(defn name formals body...) -> a named closure, bound in the innermost normal env",
		PNode(PLit(), fnPattern),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			name := args.Car()
			if name.Tag() != TagID {
				return it.Throw(ErrStatic, "defn: first argument must be an identifier"), noTail()
			}
			rest := args.Cdr()
			fn := it.NewFunc(name.IdentifierName(), rest.Car(), ListToSlice(rest.Cdr()), env)
			if err := it.Define(env, name.IdentifierName(), fn, SymNone); err != nil {
				return it.Throw(ErrExist, err.Error()), noTail()
			}
			return fn, noTail()
		}))

	must(it.DefineSpecialForm("defmacro", "(defmacro name formals body...) -> registers a macro, returns nil",
		PNode(PLit(), fnPattern),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			name := args.Car()
			if name.Tag() != TagID {
				return it.Throw(ErrStatic, "defmacro: first argument must be an identifier"), noTail()
			}
			rest := args.Cdr()
			fn := it.NewFunc(name.IdentifierName(), rest.Car(), ListToSlice(rest.Cdr()), env)
			if err := it.DefineMacro(name.IdentifierName(), fn); err != nil {
				return it.Throw(ErrExist, err.Error()), noTail()
			}
			return NilValue, noTail()
		}))

	must(it.DefineSpecialForm("match", "(match expr (pattern body...) ...) -> first matching clause's value",
		PNode(PExpr(), PSeq(PNode(PLit(), PSeq(PExpr())))),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			scrutinee := it.Eval(env, args.Car())
			if it.HasError() {
				return NilValue, noTail()
			}
			for _, clauseV := range ListToSlice(args.Cdr()) {
				clause := ListToSlice(clauseV)
				if len(clause) == 0 {
					continue
				}
				clauseEnv := it.pushEnvOver(env)
				if !it.matchPattern(clauseEnv, clause[0], scrutinee) {
					continue
				}
				body := clause[1:]
				if len(body) == 0 {
					return NilValue, noTail()
				}
				for _, f := range body[:len(body)-1] {
					it.Eval(clauseEnv, f)
					if it.HasError() {
						return NilValue, noTail()
					}
				}
				return NilValue, tailCall(clauseEnv, body[len(body)-1])
			}
			return it.Throw(ErrMatch, fmt.Sprintf("no clause of match matches %s", it.Print(scrutinee))), noTail()
		}))

	must(it.DefineSpecialForm("let", "(let ((name init)...) body...) -> last body form's value, tail position preserved",
		PNode(PSeq(PNode(PLit(), PNode(PExpr(), PNil()))), PSeq(PExpr())),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			letEnv := it.pushEnvOver(env)
			for _, bindingV := range ListToSlice(args.Car()) {
				binding := ListToSlice(bindingV)
				if len(binding) != 2 || binding[0].Tag() != TagID {
					return it.Throw(ErrStatic, "let: each binding must be (name init)"), noTail()
				}
				v := it.Eval(letEnv, binding[1])
				if it.HasError() {
					return NilValue, noTail()
				}
				if err := it.Define(letEnv, binding[0].IdentifierName(), v, SymNone); err != nil {
					return it.Throw(ErrExist, err.Error()), noTail()
				}
			}
			body := ListToSlice(args.Cdr())
			if len(body) == 0 {
				return NilValue, noTail()
			}
			for _, f := range body[:len(body)-1] {
				it.Eval(letEnv, f)
				if it.HasError() {
					return NilValue, noTail()
				}
			}
			return NilValue, tailCall(letEnv, body[len(body)-1])
		}))

	// try's standard identifiers `catch`/`finally` mark trailing clauses
	// rather than being their own special forms (spec §4.5's five
	// pre-interned names): a catch clause is `(catch code... binding)`,
	// where binding is bound to the thrown message string and doubles
	// as try's result on a match; finally's forms always run last,
	// restoring any error the catch clause didn't handle.
	must(it.DefineSpecialForm("try", "(try body... [(catch code... binding)] [(finally cleanup...)]) -> spec §4.9/§4.11 recovery",
		PSeq(PLit()),
		func(it *Interp, env *Env, args Value) (Value, tailResult) {
			items := ListToSlice(args)
			n := len(items)

			var finallyForms, catchForms []Value
			if n > 0 && isClauseNamed(items[n-1], "finally") {
				finallyForms = ListToSlice(items[n-1].Cdr())
				n--
			}
			if n > 0 && isClauseNamed(items[n-1], "catch") {
				catchForms = ListToSlice(items[n-1].Cdr())
				n--
			}
			body := items[:n]

			result := it.runTryBody(env, body)
			if it.HasError() {
				result = it.runCatchClause(env, catchForms)
			}
			if len(finallyForms) > 0 {
				savedCode, savedMsg := it.errCode, it.errMsg
				it.ClearError()
				for _, f := range finallyForms {
					it.evalForm(env, f)
					if it.HasError() {
						return NilValue, noTail()
					}
				}
				if savedCode != ErrNone {
					it.Throw(savedCode, savedMsg)
				}
			}
			return result, noTail()
		}))
}

// evalForm preprocesses then evaluates f. try's own pattern is PLit
// (its clause shapes are too irregular for the fixed-arity pattern
// DSL), so unlike every other special form here its body forms never
// went through preprocessExpr on the way in -- this recovers that
// step at eval time instead.
func (it *Interp) evalForm(env *Env, f Value) Value {
	expanded, err := it.preprocessExpr(f)
	if err != nil {
		return NilValue
	}
	return it.Eval(env, expanded)
}

func (it *Interp) runTryBody(env *Env, body []Value) Value {
	var result Value
	for _, f := range body {
		result = it.evalForm(env, f)
		if it.HasError() {
			return NilValue
		}
	}
	return result
}

// runCatchClause matches the interpreter's current error against the
// leading code expressions of a catch clause (an empty list of codes
// catches anything) and, on a match, binds the trailing identifier to
// the thrown message and returns it.
func (it *Interp) runCatchClause(env *Env, clause []Value) Value {
	if len(clause) == 0 {
		return NilValue
	}
	codes := clause[:len(clause)-1]
	binding := clause[len(clause)-1]

	// The code expressions are evaluated with the error state cleared
	// (Eval short-circuits while an error is set); an unmatched error is
	// re-thrown afterwards.
	code, msg := it.errCode, it.errMsg
	it.ClearError()
	matched := len(codes) == 0
	for _, c := range codes {
		cv := it.evalForm(env, c)
		if it.HasError() {
			return NilValue
		}
		if cv.Tag() == TagErrorCode && cv.AsErrorCode() == code {
			matched = true
			break
		}
	}
	if !matched {
		it.Throw(code, msg)
		return NilValue
	}

	if binding.Tag() != TagID {
		return NilValue
	}
	catchEnv := it.pushEnvOver(env)
	msgVal := it.NewString(msg)
	it.Define(catchEnv, binding.IdentifierName(), msgVal, SymNone)
	return it.Get(catchEnv, binding)
}

// isClauseNamed reports whether form is a list whose head is the
// identifier name (used to recognize trailing catch/finally clauses
// inside try's argument list).
func isClauseNamed(form Value, name string) bool {
	if form.Tag() != TagList {
		return false
	}
	head := form.Car()
	return head.Tag() == TagID && head.IdentifierName() == name
}

// isTruthy is the truthiness test `if` uses: only `false` and the empty list/NIL are
// false, everything else -- including 0 and 0.0 -- is true.
func isTruthy(v Value) bool {
	switch v.Tag() {
	case TagNil:
		return false
	case TagBool:
		return v.AsBool()
	default:
		return true
	}
}
