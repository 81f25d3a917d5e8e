package prelude_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lispcore/lispcore"
	"github.com/lispcore/lispcore/builtin/mathlib"
	"github.com/lispcore/lispcore/prelude"
	"github.com/lispcore/lispcore/reader"
)

func newPreludeInterp(t *testing.T) *lispcore.Interp {
	t.Helper()
	it := lispcore.NewInterp(nil)
	require.NoError(t, mathlib.Install(it))
	t.Cleanup(it.Destroy)
	return it
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	it := newPreludeInterp(t)
	fs := afero.NewMemMapFs()
	assert.NoError(t, prelude.LoadFile(it, fs, prelude.DefaultPath))
}

func TestLoadFileDefinesBindings(t *testing.T) {
	it := newPreludeInterp(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, prelude.DefaultPath, []byte("(def pi 3.5) (defn sq (x) (* x x))"), 0o644))

	require.NoError(t, prelude.LoadFile(it, fs, prelude.DefaultPath))

	forms, err := reader.New(it, "<test>", "(sq pi)").ReadAll()
	require.NoError(t, err)
	v := it.EvalTopLevel(forms[0])
	require.False(t, it.HasError())
	require.Equal(t, lispcore.TagDouble, v.Tag())
	assert.InDelta(t, 12.25, v.AsDouble(), 1e-9)
}

func TestLoadSourceStopsAtFirstError(t *testing.T) {
	it := newPreludeInterp(t)
	err := prelude.LoadSource(it, "<inline>", "(def x 1) (undefined-fn x) (def y 2)")
	require.Error(t, err)

	forms, rerr := reader.New(it, "<test>", "y").ReadAll()
	require.NoError(t, rerr)
	it.EvalTopLevel(forms[0])
	assert.True(t, it.HasError())
}

func TestLoadSourceParseErrorIsWrapped(t *testing.T) {
	it := newPreludeInterp(t)
	err := prelude.LoadSource(it, "<inline>", "(unterminated")
	assert.Error(t, err)
}
