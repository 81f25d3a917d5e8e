package lispcore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lispcore/lispcore"
	"github.com/lispcore/lispcore/builtin/mathlib"
	"github.com/lispcore/lispcore/reader"
)

// newTestInterp builds a fresh interpreter with mathlib installed, the
// way every end-to-end scenario in spec §8 needs at least arithmetic.
func newTestInterp(t *testing.T) *lispcore.Interp {
	t.Helper()
	it := lispcore.NewInterp(nil)
	require.NoError(t, mathlib.Install(it))
	t.Cleanup(it.Destroy)
	return it
}

func evalSource(t *testing.T, it *lispcore.Interp, src string) lispcore.Value {
	t.Helper()
	forms, err := reader.New(it, "<test>", src).ReadAll()
	require.NoError(t, err)
	var result lispcore.Value
	for _, form := range forms {
		result = it.EvalTopLevel(form)
		require.False(t, it.HasError(), "unexpected error: %s", it.ErrorMessage())
	}
	return result
}

func TestEndToEndScenarios(t *testing.T) {
	t.Run("arithmetic", func(t *testing.T) {
		it := newTestInterp(t)
		v := evalSource(t, it, "(+ 1 2)")
		assert.Equal(t, lispcore.TagInt, v.Tag())
		assert.EqualValues(t, 3, v.AsInt())
	})

	t.Run("closure application", func(t *testing.T) {
		it := newTestInterp(t)
		v := evalSource(t, it, "((fn (x) (* x x)) 5)")
		assert.EqualValues(t, 25, v.AsInt())
	})

	t.Run("macro plus let", func(t *testing.T) {
		it := newTestInterp(t)
		evalSource(t, it, "(defmacro twice (x) `(do ,x ,x))")
		v := evalSource(t, it, "(let ((c 0)) (twice (set! c (+ c 1))) c)")
		assert.EqualValues(t, 2, v.AsInt())
	})

	t.Run("try catch", func(t *testing.T) {
		it := newTestInterp(t)
		v := evalSource(t, it, `(try (throw EVALUE "boom") (catch EVALUE errmsg))`)
		require.Equal(t, lispcore.TagString, v.Tag())
		assert.Equal(t, "boom", v.AsString())
	})

	t.Run("substr shares storage", func(t *testing.T) {
		it := newTestInterp(t)
		v := evalSource(t, it, `(substr "abcdef" 1 3)`)
		require.Equal(t, lispcore.TagString, v.Tag())
		assert.Equal(t, "bcd", v.AsString())
	})

	t.Run("tail recursion stays bounded", func(t *testing.T) {
		it := newTestInterp(t)
		evalSource(t, it, `
			(defn count-to (n acc)
			  (if (= n acc) acc (count-to n (+ acc 1))))`)
		v := evalSource(t, it, "(count-to 100000 0)")
		assert.EqualValues(t, 100000, v.AsInt())
	})
}

func TestQuasiquoteLaws(t *testing.T) {
	it := newTestInterp(t)

	t.Run("non-list passthrough", func(t *testing.T) {
		v := evalSource(t, it, "`a")
		assert.Equal(t, lispcore.TagID, v.Tag())
		assert.Equal(t, "a", v.IdentifierName())
	})

	t.Run("comma splices a single value", func(t *testing.T) {
		evalSource(t, it, "(def x 2)")
		v := evalSource(t, it, "`(1 ,x 3)")
		items := lispcore.ListToSlice(v)
		require.Len(t, items, 3)
		assert.EqualValues(t, 1, items[0].AsInt())
		assert.EqualValues(t, 2, items[1].AsInt())
		assert.EqualValues(t, 3, items[2].AsInt())
	})

	t.Run("comma-at splices a list", func(t *testing.T) {
		evalSource(t, it, "(def xs (list 2 3))")
		v := evalSource(t, it, "`(1 ,@xs 4)")
		items := lispcore.ListToSlice(v)
		require.Len(t, items, 4)
		for i, want := range []int64{1, 2, 3, 4} {
			assert.EqualValues(t, want, items[i].AsInt())
		}
	})
}

func TestEnvironmentShadowing(t *testing.T) {
	it := newTestInterp(t)
	xid := it.Intern("x")

	e1 := it.PushEnv()
	require.NoError(t, it.Define(e1, "x", lispcore.NewInt(1), lispcore.SymNone))

	e2 := it.PushEnv()
	require.NoError(t, it.Define(e2, "x", lispcore.NewInt(2), lispcore.SymNone))
	assert.EqualValues(t, 2, it.Get(e2, xid).AsInt())

	it.PopEnv()
	assert.EqualValues(t, 1, it.Get(e1, xid).AsInt())
	it.PopEnv()
}

func TestIdentifierInterning(t *testing.T) {
	it := newTestInterp(t)
	a := it.Intern("foo")
	b := it.Intern("foo")
	c := it.Intern("bar")
	assert.True(t, a.SameIdentifier(b))
	assert.False(t, a.SameIdentifier(c))
}

func TestPreprocessorRejectsMalformedSpecialForms(t *testing.T) {
	it := newTestInterp(t)
	forms, err := reader.New(it, "<test>", "(if)").ReadAll()
	require.NoError(t, err)
	result := it.EvalTopLevel(forms[0])
	assert.True(t, it.HasError())
	assert.Equal(t, lispcore.ErrStatic, it.Errno())
	_ = result
}

func TestUnpackRoundTrips(t *testing.T) {
	it := newTestInterp(t)

	vs, err := it.Unpack([]lispcore.Value{lispcore.NewInt(1)}, "i")
	require.NoError(t, err)
	assert.EqualValues(t, 1, vs[0].AsInt())

	vs, err = it.Unpack(nil, "I?")
	require.NoError(t, err)
	assert.Equal(t, lispcore.TagNil, vs[0].Tag())

	vs, err = it.Unpack([]lispcore.Value{lispcore.NewInt(1), lispcore.NewInt(2), lispcore.NewInt(3)}, "+")
	require.NoError(t, err)
	items := lispcore.ListToSlice(vs[0])
	require.Len(t, items, 3)
	assert.EqualValues(t, 1, items[0].AsInt())
	assert.EqualValues(t, 2, items[1].AsInt())
	assert.EqualValues(t, 3, items[2].AsInt())
}
