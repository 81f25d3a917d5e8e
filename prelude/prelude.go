// Package prelude loads a fixed install-path bootstrap script into a
// freshly constructed Interp. Its filesystem-backed "get content at a
// path, fall back to a fake for tests" shape is grounded on the
// teacher's RelativeImportLoader / InMemoryImportLoader pair
// (go/grammar_import_loaders.go): content retrieval is an afero.Fs
// call rather than a second bespoke loader type, since afero already
// gives tests an in-memory fake (afero.NewMemMapFs()) for free.
package prelude

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/lispcore/lispcore"
	"github.com/lispcore/lispcore/reader"
)

// DefaultPath is where `cmd/lispcore` and embedding hosts look for the
// bootstrap script unless overridden.
const DefaultPath = "/usr/local/share/lispcore/prelude.lisp"

// Load reads and evaluates the prelude at DefaultPath against fs. A
// missing file is not an error -- an interpreter with no installed
// prelude still runs, just without its standard-library definitions.
func Load(it *lispcore.Interp, fs afero.Fs) error {
	return LoadFile(it, fs, DefaultPath)
}

// LoadFile reads and evaluates the script at path, in source order,
// stopping at the first form that sets the interpreter's error state.
func LoadFile(it *lispcore.Interp, fs afero.Fs, path string) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return errors.Wrapf(err, "checking prelude path %q", path)
	}
	if !exists {
		return nil
	}
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "reading prelude %q", path)
	}
	return LoadSource(it, path, string(raw))
}

// LoadSource reads and evaluates src, attributing its forms to name
// for error messages and backtraces.
func LoadSource(it *lispcore.Interp, name, src string) error {
	forms, err := reader.New(it, name, src).ReadAll()
	if err != nil {
		return errors.Wrapf(err, "parsing prelude %q", name)
	}
	for _, form := range forms {
		it.EvalTopLevel(form)
		if it.HasError() {
			code, msg := it.Errno(), it.ErrorMessage()
			it.ClearError()
			return errors.Errorf("evaluating prelude %q: [%v] %s", name, code, msg)
		}
	}
	return nil
}
