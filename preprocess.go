package lispcore

import "fmt"

// PatOp is an opcode in the small byte-coded DSL each special form
// uses to describe its surface syntax (spec §4.10). The interpreter
// here models the teacher's opcode-table-plus-switch VM (vm.go,
// vm_instructions.go) as a compact Go struct tree instead of a flat
// byte array: nothing in this repo ships compiled patterns across a
// process boundary the way the teacher ships compiled grammars, so
// the tree form is the idiomatic Go rendering of the same dispatch
// shape (documented in DESIGN.md).
type PatOp byte

const (
	PatNil PatOp = iota
	PatNode
	PatSeq
	PatMaybe
	PatLit
	PatExpr
)

// Pattern is one node of a special form's surface-syntax program.
// ErrMsg is the high-nibble-carried message index from spec §4.10,
// raised under ESTATIC on a match failure at this node.
type Pattern struct {
	Op     PatOp
	A, B   *Pattern
	ErrMsg string
}

func PNil() *Pattern                 { return &Pattern{Op: PatNil} }
func PNode(a, b *Pattern) *Pattern   { return &Pattern{Op: PatNode, A: a, B: b} }
func PSeq(a *Pattern) *Pattern       { return &Pattern{Op: PatSeq, A: a} }
func PMaybe(a *Pattern) *Pattern     { return &Pattern{Op: PatMaybe, A: a} }
func PLit() *Pattern                 { return &Pattern{Op: PatLit} }
func PExpr() *Pattern                { return &Pattern{Op: PatExpr} }

func (p *Pattern) WithMsg(msg string) *Pattern { p.ErrMsg = msg; return p }

// matchShape is the opcode-dispatch "VM" that validates a sub-form
// against a pattern, recursing into EXPR positions via preprocessExpr
// so that macro expansion happens exactly once, at preprocessing time,
// never during pattern validation itself.
func (it *Interp) matchShape(p *Pattern, form Value) (Value, error) {
	switch p.Op {
	case PatNil:
		if form.Tag() != TagNil {
			return NilValue, it.staticErr(p, form)
		}
		return form, nil

	case PatNode:
		if form.Tag() != TagList {
			return NilValue, it.staticErr(p, form)
		}
		head, err := it.matchShape(p.A, form.Car())
		if err != nil {
			return NilValue, err
		}
		tail, err := it.matchShape(p.B, form.Cdr())
		if err != nil {
			return NilValue, err
		}
		if head.Tag() == form.Car().Tag() && head.obj == form.Car().obj && tail.obj == form.Cdr().obj {
			return form, nil
		}
		return it.NewCons(head, tail), nil

	case PatSeq:
		items := ListToSlice(form)
		if form.Tag() != TagNil && form.Tag() != TagList {
			return NilValue, it.staticErr(p, form)
		}
		out := make([]Value, len(items))
		for i, item := range items {
			rewritten, err := it.matchShape(p.A, item)
			if err != nil {
				return NilValue, err
			}
			out[i] = rewritten
		}
		return it.SliceToList(out), nil

	case PatMaybe:
		if form.Tag() == TagNil {
			return form, nil
		}
		return it.matchShape(p.A, form)

	case PatLit:
		return form, nil

	case PatExpr:
		return it.preprocessExpr(form)

	default:
		return NilValue, it.newGoErr(ErrStatic, "unknown pattern opcode")
	}
}

func (it *Interp) staticErr(p *Pattern, form Value) error {
	msg := p.ErrMsg
	if msg == "" {
		msg = fmt.Sprintf("malformed special form near %s", it.Print(form))
	}
	return it.newGoErr(ErrStatic, msg)
}

// preprocessExpr is the entry point called before a form is first
// evaluated (by EvalTopLevel, by try's evalForm, and recursively for
// EXPR pattern positions and macro expansions). It recognizes macro
// invocations, validates special-form shapes, and recurses into
// ordinary application positions. A form's PREPROC_BIT is set once
// preprocessing succeeds so repeated evaluation (inside a loop body,
// for instance) never redoes the work.
func (it *Interp) preprocessExpr(form Value) (Value, error) {
	if form.Tag() != TagList {
		return form, nil
	}
	cell := form.obj.(*consCell)
	if cell.hdr.rtflags&flagPreproc != 0 {
		return form, nil
	}

	head := cell.value
	if head.Tag() == TagID {
		name := head.IdentifierName()
		if sym, ok := lookupSymbol(it.macroEnv, name); ok {
			expanded, err := it.expandMacro(sym, form)
			if err != nil {
				return NilValue, err
			}
			return it.preprocessExpr(expanded)
		}
		if sym, ok := lookupSymbol(it.specialFormsEnv, name); ok {
			sfVal := sym.get()
			sf := sfVal.obj.(*specialFormObj)
			rewrittenArgs, err := it.matchShape(sf.pattern, cell.next)
			if err != nil {
				return NilValue, err
			}
			rewritten := it.NewCons(head, rewrittenArgs)
			rewritten.obj.header().rtflags |= flagPreproc
			return rewritten, nil
		}
	}

	// Ordinary application: every position, including the head, is an
	// expression to preprocess.
	items := ListToSlice(form)
	out := make([]Value, len(items))
	for i, item := range items {
		rewritten, err := it.preprocessExpr(item)
		if err != nil {
			return NilValue, err
		}
		out[i] = rewritten
	}
	rewritten := it.SliceToList(out)
	if rewritten.Tag() == TagList {
		rewritten.obj.header().rtflags |= flagPreproc
	}
	return rewritten, nil
}

// expandMacro invokes the macro function bound to sym on the
// unevaluated argument list and attaches the original pre-expansion
// form via the ORIG-FORM attribute, for diagnostics.
func (it *Interp) expandMacro(sym *Symbol, form Value) (Value, error) {
	macroVal := sym.get()
	if macroVal.Tag() != TagFunc {
		return NilValue, it.newGoErr(ErrEval, "macro binding is not a function")
	}
	fn := macroVal.obj.(*funcObj)
	args := ListToSlice(form.Cdr())

	// The macro body runs in a fresh scope built by bindArgs over the
	// macro's lexenv; it.env is left as it is. it.inMacroExpansion
	// counts nested expansions; no special form consults it, so
	// runtime-only forms are not refused during expansion.
	it.inMacroExpansion++
	defer func() { it.inMacroExpansion-- }()

	newEnv, err := it.bindArgs(fn, args)
	if err != nil {
		return NilValue, it.newGoErr(ErrMatch, err.Error())
	}
	var result Value
	for _, f := range fn.body {
		result = it.Eval(newEnv, f)
		if it.HasError() {
			return NilValue, fmt.Errorf("%s", it.ErrorMessage())
		}
	}
	if result.obj != nil {
		it.attrs.SetOrigForm(result.obj, form)
	}
	return result, nil
}
