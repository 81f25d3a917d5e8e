package mathlib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lispcore/lispcore"
	"github.com/lispcore/lispcore/builtin/mathlib"
	"github.com/lispcore/lispcore/reader"
)

func newMathInterp(t *testing.T) *lispcore.Interp {
	t.Helper()
	it := lispcore.NewInterp(nil)
	require.NoError(t, mathlib.Install(it))
	t.Cleanup(it.Destroy)
	return it
}

func evalOne(t *testing.T, it *lispcore.Interp, src string) lispcore.Value {
	t.Helper()
	forms, err := reader.New(it, "<test>", src).ReadAll()
	require.NoError(t, err)
	require.Len(t, forms, 1)
	v := it.EvalTopLevel(forms[0])
	require.False(t, it.HasError(), "unexpected error: %s", it.ErrorMessage())
	return v
}

func TestArithmeticStaysIntWhenAllArgsAreInt(t *testing.T) {
	it := newMathInterp(t)
	v := evalOne(t, it, "(+ 1 2 3)")
	require.Equal(t, lispcore.TagInt, v.Tag())
	assert.EqualValues(t, 6, v.AsInt())
}

func TestArithmeticPromotesToDoubleOnAnyDoubleArgument(t *testing.T) {
	it := newMathInterp(t)
	v := evalOne(t, it, "(+ 1 2.5)")
	require.Equal(t, lispcore.TagDouble, v.Tag())
	assert.InDelta(t, 3.5, v.AsDouble(), 1e-9)
}

func TestUnaryMinusNegates(t *testing.T) {
	it := newMathInterp(t)
	v := evalOne(t, it, "(- 5)")
	assert.EqualValues(t, -5, v.AsInt())
}

func TestDivisionByZeroThrowsDivZero(t *testing.T) {
	it := newMathInterp(t)
	forms, err := reader.New(it, "<test>", "(/ 1 0)").ReadAll()
	require.NoError(t, err)
	it.EvalTopLevel(forms[0])
	require.True(t, it.HasError())
	assert.Equal(t, lispcore.ErrDivZero, it.Errno())
}

func TestModOperatesOnInts(t *testing.T) {
	it := newMathInterp(t)
	v := evalOne(t, it, "(mod 7 3)")
	assert.EqualValues(t, 1, v.AsInt())
}

func TestAbsPreservesNumericType(t *testing.T) {
	it := newMathInterp(t)
	vi := evalOne(t, it, "(abs -3)")
	require.Equal(t, lispcore.TagInt, vi.Tag())
	assert.EqualValues(t, 3, vi.AsInt())

	vd := evalOne(t, it, "(abs -3.5)")
	require.Equal(t, lispcore.TagDouble, vd.Tag())
	assert.InDelta(t, 3.5, vd.AsDouble(), 1e-9)
}

func TestSqrtReturnsDouble(t *testing.T) {
	it := newMathInterp(t)
	v := evalOne(t, it, "(sqrt 16)")
	require.Equal(t, lispcore.TagDouble, v.Tag())
	assert.InDelta(t, 4.0, v.AsDouble(), 1e-9)
}

func TestComparisons(t *testing.T) {
	it := newMathInterp(t)
	cases := []struct {
		src  string
		want bool
	}{
		{"(< 1 2)", true},
		{"(< 2 1)", false},
		{"(<= 2 2)", true},
		{"(> 3 2)", true},
		{"(>= 2 3)", false},
		{"(= 2 2)", true},
	}
	for _, c := range cases {
		v := evalOne(t, it, c.src)
		assert.Equal(t, c.want, v.AsBool(), c.src)
	}
}

func TestNumberAliasIsRegisteredExactlyOnce(t *testing.T) {
	it := newMathInterp(t)
	// A second Install on the same interpreter must fail: RegisterType
	// rejects a name already present in the registry.
	assert.Error(t, mathlib.Install(it))
}
