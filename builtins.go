package lispcore

import "fmt"

// registerCoreBuiltins installs the host-facing error/pinning
// functions named in spec §6 as ordinary global bindings (they need
// no unevaluated argument, unlike the special forms in
// specialforms.go) plus one `E<CODENAME>` ERRORCODE constant per
// built-in error kind, so Lisp code can write `(try ... (catch EVALUE
// msg))` the way spec §8's end-to-end scenario does.
func registerCoreBuiltins(it *Interp) {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	for code, name := range builtinCodeNames {
		must(it.Define(it.globalEnv, "E"+name, NewErrorCodeValue(code), SymReadOnly))
	}

	must(it.DefineFunction("throw", "(throw code msg) -> nil, sets the error state",
		func(it *Interp, args []Value) Value {
			if len(args) != 2 || args[0].Tag() != TagErrorCode || args[1].Tag() != TagString {
				return it.Throw(ErrAPI, "throw: expected (errorcode string)")
			}
			return it.Throw(args[0].AsErrorCode(), args[1].AsString())
		}))

	must(it.DefineFunction("errno", "(errno) -> the current ERRORCODE, or ERRORCODE 0 if none is set",
		func(it *Interp, args []Value) Value {
			return NewErrorCodeValue(it.errCode)
		}))

	must(it.DefineFunction("error-message", "(error-message) -> the current error's message string",
		func(it *Interp, args []Value) Value {
			return it.errMsgValue
		}))

	must(it.DefineFunction("clear-error", "(clear-error) -> nil, resets the error state",
		func(it *Interp, args []Value) Value {
			it.ClearError()
			return NilValue
		}))

	must(it.DefineFunction("perror", "(perror prefix) -> nil, prints \"prefix: message [CODE]\" to stderr",
		func(it *Interp, args []Value) Value {
			prefix := ""
			if len(args) == 1 && args[0].Tag() == TagString {
				prefix = args[0].AsString()
			}
			it.PError(prefix)
			return NilValue
		}))

	must(it.DefineFunction("ref", "(ref value) -> value, pinned as a GC root until unref",
		func(it *Interp, args []Value) Value {
			if len(args) != 1 {
				return it.Throw(ErrAPI, "ref: expected exactly one argument")
			}
			it.Ref(args[0])
			return args[0]
		}))

	must(it.DefineFunction("unref", "(unref value) -> nil, releases a pin taken by ref",
		func(it *Interp, args []Value) Value {
			if len(args) != 1 {
				return it.Throw(ErrAPI, "unref: expected exactly one argument")
			}
			if args[0].obj != nil {
				args[0].obj.header().rtflags &^= flagRef
			}
			return NilValue
		}))

	must(it.DefineFunction("register-error-code", "(register-error-code name) -> a fresh ERRORCODE",
		func(it *Interp, args []Value) Value {
			if len(args) != 1 || args[0].Tag() != TagString {
				return it.Throw(ErrAPI, "register-error-code: expected a string name")
			}
			return NewErrorCodeValue(it.RegisterErrorCode(args[0].AsString()))
		}))

	must(it.DefineFunction("identity?", "(identity? a b) -> bool, true iff a and b are the same heap object",
		func(it *Interp, args []Value) Value {
			if len(args) != 2 {
				return it.Throw(ErrAPI, "identity?: expected exactly two arguments")
			}
			return NewBool(args[0].Tag() == args[1].Tag() && args[0].imm == args[1].imm && args[0].obj == args[1].obj)
		}))

	must(it.DefineFunction("equal?", "(equal? a b) -> bool, immediates by value, strings by content, other heap values by identity",
		func(it *Interp, args []Value) Value {
			if len(args) != 2 {
				return it.Throw(ErrAPI, "equal?: expected exactly two arguments")
			}
			return NewBool(valuesStructurallyEqual(args[0], args[1]))
		}))

	must(it.DefineFunction("type-of", "(type-of value) -> TYPECODE",
		func(it *Interp, args []Value) Value {
			if len(args) != 1 {
				return it.Throw(ErrAPI, "type-of: expected exactly one argument")
			}
			return NewTypeCode(args[0].Tag())
		}))

	must(it.DefineFunction("print", fmt.Sprintf("(print value) -> STRING, %s's diagnostic rendering", "value"),
		func(it *Interp, args []Value) Value {
			if len(args) != 1 {
				return it.Throw(ErrAPI, "print: expected exactly one argument")
			}
			return it.NewString(it.Print(args[0]))
		}))

	must(it.DefineFunction("list", "(list a...) -> the arguments collected into a list",
		func(it *Interp, args []Value) Value {
			return it.SliceToList(args)
		}))

	must(it.DefineFunction("substr", "(substr s start length) -> STRING sharing storage with s",
		func(it *Interp, args []Value) Value {
			vs, ok := it.UnpackOrThrow(args, "sii")
			if !ok {
				return NilValue
			}
			start := int(vs[1].AsInt())
			v, err := it.NewSubstring(vs[0], start, start+int(vs[2].AsInt()))
			if err != nil {
				// NewSubstring already set the interpreter's error state.
				return NilValue
			}
			return v
		}))
}
