package lispcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvPushDefineGetPop(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	xid := it.Intern("x")
	e1 := it.PushEnv()
	require.NoError(t, it.Define(e1, "x", NewInt(1), SymNone))
	assert.EqualValues(t, 1, it.Get(e1, xid).AsInt())

	it.PopEnv()
}

func TestEnvRedefinitionOutsideGlobalIsAnError(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	e1 := it.PushEnv()
	require.NoError(t, it.Define(e1, "x", NewInt(1), SymNone))
	assert.Error(t, it.Define(e1, "x", NewInt(2), SymNone))
	it.PopEnv()
}

func TestEnvGlobalRedefinitionRequiresAllowRedef(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	g := it.GlobalEnv()
	require.NoError(t, it.Define(g, "answer", NewInt(1), SymNone))
	assert.Error(t, it.Define(g, "answer", NewInt(2), SymNone))

	it.cfg.SetBool(OptAllowRedef, true)
	require.NoError(t, it.Define(g, "answer", NewInt(2), SymNone))
	assert.EqualValues(t, 2, it.Get(g, it.Intern("answer")).AsInt())
}

func TestEnvWriteOnlyAndReadOnlySymbols(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	e := it.PushEnv()
	defer it.PopEnv()

	require.NoError(t, it.Define(e, "ro", NewInt(1), SymReadOnly))
	id := it.Intern("ro")
	assert.EqualValues(t, 1, it.Get(e, id).AsInt())
	it.Set(e, id, NewInt(2))
	assert.True(t, it.HasError())
	it.ClearError()

	require.NoError(t, it.Define(e, "wo", NewInt(1), SymWriteOnly))
	wid := it.Intern("wo")
	it.Get(e, wid)
	assert.True(t, it.HasError())
	it.ClearError()
}

func TestEnvUnboundSymbolThrowsNoSym(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	e := it.PushEnv()
	defer it.PopEnv()

	it.Get(e, it.Intern("nope"))
	assert.True(t, it.HasError())
	assert.Equal(t, ErrNoSym, it.Errno())
}

func TestEnvBifurcatedLooksLeftThenRight(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	left := it.pushEnvOver(nil)
	require.NoError(t, it.Define(left, "x", NewInt(1), SymNone))
	right := it.pushEnvOver(nil)
	require.NoError(t, it.Define(right, "x", NewInt(2), SymNone))
	require.NoError(t, it.Define(right, "y", NewInt(9), SymNone))

	it.EnterEnv(left, right)
	defer it.PopEnv()

	assert.EqualValues(t, 1, it.Get(it.env, it.Intern("x")).AsInt())
	assert.EqualValues(t, 9, it.Get(it.env, it.Intern("y")).AsInt())
}

func TestSyncedInt64MarshalsToCallerCell(t *testing.T) {
	it := NewInterp(nil)
	defer it.Destroy()

	var cell int64 = 41
	e := it.GlobalEnv()
	require.NoError(t, it.DefineSymbol(e, "counter", NewSyncedInt64(&cell)))

	id := it.Intern("counter")
	assert.EqualValues(t, 41, it.Get(e, id).AsInt())

	it.Set(e, id, NewInt(42))
	assert.False(t, it.HasError())
	assert.EqualValues(t, 42, cell)

	it.Set(e, id, NewBool(true))
	assert.True(t, it.HasError())
	it.ClearError()
}
