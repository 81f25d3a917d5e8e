package fileio_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lispcore/lispcore"
	"github.com/lispcore/lispcore/builtin/fileio"
	"github.com/lispcore/lispcore/reader"
)

func newFileioInterp(t *testing.T) (*lispcore.Interp, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	it := lispcore.NewInterp(nil)
	require.NoError(t, fileio.Install(it, fs))
	t.Cleanup(it.Destroy)
	return it, fs
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

func TestWriteThenReadRoundTrips(t *testing.T) {
	it, fs := newFileioInterp(t)

	evalOne(t, it, `(write (open "/out.txt" "w") "hello\n")`)

	data, err := afero.ReadFile(fs, "/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	v := evalOne(t, it, `(read (open "/out.txt" "r"))`)
	require.Equal(t, lispcore.TagString, v.Tag())
	assert.Equal(t, "hello", v.AsString())
}

func TestReadAtEOFReturnsNil(t *testing.T) {
	it, fs := newFileioInterp(t)
	require.NoError(t, afero.WriteFile(fs, "/empty.txt", []byte{}, 0o644))

	v := evalOne(t, it, `(read (open "/empty.txt" "r"))`)
	assert.Equal(t, lispcore.TagNil, v.Tag())
}

func TestOpenMissingFileForReadIsAnError(t *testing.T) {
	it, _ := newFileioInterp(t)
	forms, err := reader.New(it, "<test>", `(open "/missing.txt" "r")`).ReadAll()
	require.NoError(t, err)
	it.EvalTopLevel(forms[0])
	require.True(t, it.HasError())
	assert.Equal(t, lispcore.ErrIO, it.Errno())
}

func TestCloseThenReadIsAnError(t *testing.T) {
	it, fs := newFileioInterp(t)
	require.NoError(t, afero.WriteFile(fs, "/f.txt", []byte("x\n"), 0o644))

	forms, err := reader.New(it, "<test>", `(def h (open "/f.txt" "r")) (close h) (read h)`).ReadAll()
	require.NoError(t, err)
	for i, form := range forms {
		v := it.EvalTopLevel(form)
		if i < len(forms)-1 {
			require.False(t, it.HasError())
		} else {
			_ = v
		}
	}
	assert.True(t, it.HasError())
	assert.Equal(t, lispcore.ErrIO, it.Errno())
}
