package reader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lispcore/lispcore"
	"github.com/lispcore/lispcore/reader"
)

func TestReadAllAtoms(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	forms, err := reader.New(it, "<test>", `42 3.5 true false nil foo "bar\nbaz"`).ReadAll()
	require.NoError(t, err)
	require.Len(t, forms, 7)

	assert.Equal(t, lispcore.TagInt, forms[0].Tag())
	assert.EqualValues(t, 42, forms[0].AsInt())

	assert.Equal(t, lispcore.TagDouble, forms[1].Tag())
	assert.InDelta(t, 3.5, forms[1].AsDouble(), 1e-9)

	assert.Equal(t, lispcore.TagBool, forms[2].Tag())
	assert.True(t, forms[2].AsBool())
	assert.False(t, forms[3].AsBool())

	assert.Equal(t, lispcore.TagNil, forms[4].Tag())

	assert.Equal(t, lispcore.TagID, forms[5].Tag())
	assert.Equal(t, "foo", forms[5].IdentifierName())
}

func TestReadStringEscapes(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	forms, err := reader.New(it, "<test>", `"a\nb\tc\"d"`).ReadAll()
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "a\nb\tc\"d", forms[0].AsString())
}

func TestReadList(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	forms, err := reader.New(it, "<test>", `(+ 1 (* 2 3))`).ReadAll()
	require.NoError(t, err)
	require.Len(t, forms, 1)
	require.Equal(t, lispcore.TagList, forms[0].Tag())

	items := lispcore.ListToSlice(forms[0])
	require.Len(t, items, 3)
	assert.Equal(t, "+", items[0].IdentifierName())
	assert.EqualValues(t, 1, items[1].AsInt())
	assert.Equal(t, lispcore.TagList, items[2].Tag())
}

func TestReadQuoteAndQuasiquote(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	forms, err := reader.New(it, "<test>", "'a `(1 ,x ,@xs)").ReadAll()
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, lispcore.TagQuote, forms[0].Tag())
	assert.Equal(t, lispcore.TagBackquote, forms[1].Tag())

	items := lispcore.ListToSlice(forms[1].Inner())
	require.Len(t, items, 3)
	assert.Equal(t, lispcore.TagComma, items[1].Tag())
	assert.Equal(t, lispcore.TagSplice, items[2].Tag())
}

func TestReadOneReportsExhaustion(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	r := reader.New(it, "<test>", "1")
	_, ok, err := r.ReadOne()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = r.ReadOne()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadUnterminatedListIsAnError(t *testing.T) {
	it := lispcore.NewInterp(nil)
	defer it.Destroy()

	_, err := reader.New(it, "<test>", "(+ 1 2").ReadAll()
	assert.Error(t, err)
}
