package lispcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrsLocationRoundTrips(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	cell := it.NewCons(NewInt(1), NilValue)
	_, ok := it.attrs.GetLocation(cell.obj)
	assert.False(t, ok)

	loc := Location{File: "f.lisp", Line: 3, Offset: 12}
	it.attrs.SetLocation(cell.obj, loc)

	got, ok := it.attrs.GetLocation(cell.obj)
	require.True(t, ok)
	assert.Equal(t, loc, got)
}

func TestAttrsRemoveClearsPresence(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	cell := it.NewCons(NewInt(1), NilValue)
	it.attrs.SetDoc(cell.obj, it.NewString("docs"))
	_, ok := it.attrs.GetDoc(cell.obj)
	require.True(t, ok)

	it.attrs.Remove(AttrDoc, cell.obj)
	_, ok = it.attrs.GetDoc(cell.obj)
	assert.False(t, ok)
}

func TestAttrsCopyTransfersBetweenObjects(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	from := it.NewCons(NewInt(1), NilValue)
	to := it.NewCons(NewInt(2), NilValue)

	loc := Location{File: "a.lisp", Line: 1}
	it.attrs.SetLocation(from.obj, loc)
	it.attrs.Copy(AttrLocation, from.obj, to.obj)

	got, ok := it.attrs.GetLocation(to.obj)
	require.True(t, ok)
	assert.Equal(t, loc, got)
}

func TestAttrsRemoveAllStripsEveryTable(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	cell := it.NewCons(NewInt(1), NilValue)
	it.attrs.SetLocation(cell.obj, Location{Line: 1})
	it.attrs.SetDoc(cell.obj, it.NewString("x"))
	it.attrs.SetOrigForm(cell.obj, NewInt(9))

	it.attrs.RemoveAll(cell.obj)

	_, ok := it.attrs.GetLocation(cell.obj)
	assert.False(t, ok)
	_, ok = it.attrs.GetDoc(cell.obj)
	assert.False(t, ok)
	_, ok = it.attrs.GetOrigForm(cell.obj)
	assert.False(t, ok)
}
