// Package mathlib installs the numeric builtins over INT and DOUBLE
// named in spec.md §1 as an out-of-core-scope collaborator. It also
// exercises the type registry (C8) end-to-end, per SPEC_FULL.md §12,
// by registering a NUMBER alias over INT and adding one NUMBER->DOUBLE
// cast to it.
package mathlib

import (
	"math"

	"github.com/lispcore/lispcore"
)

// Install defines every mathlib binding into it's global environment
// and registers the NUMBER alias type.
func Install(it *lispcore.Interp) error {
	numTag, err := it.RegisterType("NUMBER", lispcore.TagInt)
	if err != nil {
		return err
	}
	must(it.AddCast(numTag, lispcore.TagDouble, func(v lispcore.Value) (lispcore.Value, error) {
		return lispcore.NewDouble(float64(v.AsInt())), nil
	}))

	def := func(name, info string, fn lispcore.ExtFunc) {
		must(it.DefineFunction(name, info, fn))
	}

	def("+", "(+ a b...) -> sum, INT if every argument is INT, DOUBLE otherwise", variadicFold(0, addInt, addDouble))
	def("*", "(* a b...) -> product, INT if every argument is INT, DOUBLE otherwise", variadicFold(1, mulInt, mulDouble))
	def("-", "(- a b...) -> a minus the rest, or negation with one argument", subtract)
	def("/", "(/ a b...) -> a divided by the rest; DIVZERO on a zero divisor", divide)
	def("mod", "(mod a b) -> a modulo b, INT only", modOp)
	def("abs", "(abs a) -> |a|, same numeric type as a", absOp)
	def("sqrt", "(sqrt a) -> DOUBLE square root of a", sqrtOp)

	for name, cmp := range map[string]func(float64, float64) bool{
		"<":  func(a, b float64) bool { return a < b },
		"<=": func(a, b float64) bool { return a <= b },
		">":  func(a, b float64) bool { return a > b },
		">=": func(a, b float64) bool { return a >= b },
		"=":  func(a, b float64) bool { return a == b },
	} {
		def(name, "numeric comparison", compareOp(cmp))
	}

	return nil
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func asFloat(v lispcore.Value) float64 {
	if v.Tag() == lispcore.TagInt {
		return float64(v.AsInt())
	}
	return v.AsDouble()
}

func allInts(vs []lispcore.Value) bool {
	for _, v := range vs {
		if v.Tag() != lispcore.TagInt {
			return false
		}
	}
	return true
}

func addInt(a, b int64) int64       { return a + b }
func mulInt(a, b int64) int64       { return a * b }
func addDouble(a, b float64) float64 { return a + b }
func mulDouble(a, b float64) float64 { return a * b }

// variadicFold builds a left-fold over `#`-typed arguments (spec
// §4.12's numeric slot), starting from identity and promoting to
// DOUBLE the moment any argument is not an INT.
func variadicFold(identity int64, foldInt func(a, b int64) int64, foldDouble func(a, b float64) float64) lispcore.ExtFunc {
	return func(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
		vs, ok := it.UnpackOrThrow(args, "#*")
		if !ok {
			return lispcore.NilValue
		}
		nums := lispcore.ListToSlice(vs[0])
		if allInts(nums) {
			acc := identity
			for _, n := range nums {
				acc = foldInt(acc, n.AsInt())
			}
			return lispcore.NewInt(acc)
		}
		acc := float64(identity)
		for _, n := range nums {
			acc = foldDouble(acc, asFloat(n))
		}
		return lispcore.NewDouble(acc)
	}
}

func subtract(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
	vs, ok := it.UnpackOrThrow(args, "#+")
	if !ok {
		return lispcore.NilValue
	}
	nums := lispcore.ListToSlice(vs[0])
	if len(nums) == 1 {
		if nums[0].Tag() == lispcore.TagInt {
			return lispcore.NewInt(-nums[0].AsInt())
		}
		return lispcore.NewDouble(-nums[0].AsDouble())
	}
	if allInts(nums) {
		acc := nums[0].AsInt()
		for _, n := range nums[1:] {
			acc -= n.AsInt()
		}
		return lispcore.NewInt(acc)
	}
	acc := asFloat(nums[0])
	for _, n := range nums[1:] {
		acc -= asFloat(n)
	}
	return lispcore.NewDouble(acc)
}

func divide(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
	vs, ok := it.UnpackOrThrow(args, "#+")
	if !ok {
		return lispcore.NilValue
	}
	nums := lispcore.ListToSlice(vs[0])
	allInt := allInts(nums)
	if len(nums) == 1 {
		nums = append([]lispcore.Value{lispcore.NewInt(1)}, nums...)
	}
	if allInt {
		acc := nums[0].AsInt()
		for _, n := range nums[1:] {
			if n.AsInt() == 0 {
				return it.Throw(lispcore.ErrDivZero, "/: division by zero")
			}
			acc /= n.AsInt()
		}
		return lispcore.NewInt(acc)
	}
	acc := asFloat(nums[0])
	for _, n := range nums[1:] {
		d := asFloat(n)
		if d == 0 {
			return it.Throw(lispcore.ErrDivZero, "/: division by zero")
		}
		acc /= d
	}
	return lispcore.NewDouble(acc)
}

func modOp(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
	vs, ok := it.UnpackOrThrow(args, "ii")
	if !ok {
		return lispcore.NilValue
	}
	if vs[1].AsInt() == 0 {
		return it.Throw(lispcore.ErrDivZero, "mod: division by zero")
	}
	return lispcore.NewInt(vs[0].AsInt() % vs[1].AsInt())
}

func absOp(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
	vs, ok := it.UnpackOrThrow(args, "#")
	if !ok {
		return lispcore.NilValue
	}
	if vs[0].Tag() == lispcore.TagInt {
		n := vs[0].AsInt()
		if n < 0 {
			n = -n
		}
		return lispcore.NewInt(n)
	}
	return lispcore.NewDouble(math.Abs(vs[0].AsDouble()))
}

func sqrtOp(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
	vs, ok := it.UnpackOrThrow(args, "#")
	if !ok {
		return lispcore.NilValue
	}
	return lispcore.NewDouble(math.Sqrt(asFloat(vs[0])))
}

func compareOp(cmp func(a, b float64) bool) lispcore.ExtFunc {
	return func(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
		vs, ok := it.UnpackOrThrow(args, "##")
		if !ok {
			return lispcore.NilValue
		}
		return lispcore.NewBool(cmp(asFloat(vs[0]), asFloat(vs[1])))
	}
}
