package printer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lispcore/lispcore"
	"github.com/lispcore/lispcore/printer"
	"github.com/lispcore/lispcore/reader"
)

func printSource(t *testing.T, it *lispcore.Interp, src string) string {
	t.Helper()
	forms, err := reader.New(it, "<test>", src).ReadAll()
	require.NoError(t, err)
	require.Len(t, forms, 1)
	return printer.Print(it, forms[0])
}

func TestPrintAtoms(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	assert.Equal(t, "42", printSource(t, it, "42"))
	assert.Equal(t, "nil", printSource(t, it, "nil"))
	assert.Equal(t, "true", printSource(t, it, "true"))
	assert.Equal(t, "foo", printSource(t, it, "foo"))
}

func TestPrintStringEscapes(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	got := printSource(t, it, `"a\nb\"c"`)
	assert.Equal(t, `"a\nb\"c"`, got)
}

func TestPrintListRoundTrips(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	got := printSource(t, it, "(+ 1 (* 2 3))")
	assert.Equal(t, "(+ 1 (* 2 3))", got)
}

func TestPrintQuoteForms(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	assert.Equal(t, "'a", printSource(t, it, "'a"))
	assert.Equal(t, "`(1 ,x ,@xs)", printSource(t, it, "`(1 ,x ,@xs)"))
}
