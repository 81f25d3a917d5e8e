// Package fileio installs the file-I/O builtins spec.md §1 names as
// out-of-core-scope: open/read/write/close over a USER-PTR handle.
// It is built against afero.Fs instead of the raw os package so
// prelude loading and the builtins here are testable against
// afero.NewMemMapFs(), the way the teacher's own import-loader tests
// run against fakes (grammar_import_loaders_test.go).
package fileio

import (
	"bufio"
	"io"
	"sync"

	"github.com/spf13/afero"

	"github.com/lispcore/lispcore"
)

// fileHandle is one open file's record. A FILE-typed USER-PTR does not
// hold it directly: its payload is the uint64 index of the record in
// the open-handle table that Install creates, since USER-PTR only
// carries a 64-bit opaque payload (spec §4.3), never a real pointer.
type fileHandle struct {
	f      afero.File
	reader *bufio.Reader
}

// table owns every open handle for the lifetime of one Install call;
// handles are never reclaimed by the GC (USER-PTR values carry no
// finalizer), so `close` is the only way to release the underlying
// afero.File.
type table struct {
	mu      sync.Mutex
	entries map[uint64]*fileHandle
	next    uint64
}

func newTable() *table { return &table{entries: map[uint64]*fileHandle{}, next: 1} }

func (t *table) add(h *fileHandle) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.entries[id] = h
	return id
}

func (t *table) get(id uint64) (*fileHandle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.entries[id]
	return h, ok
}

func (t *table) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Install defines open/read/write/close against fs, registering a
// FILE alias type (resolved base USER-PTR) through the core's type
// registry.
func Install(it *lispcore.Interp, fs afero.Fs) error {
	fileTag, err := it.RegisterType("FILE", lispcore.TagUserPtr)
	if err != nil {
		return err
	}
	files := newTable()

	must(it.DefineFunction("open", "(open path mode) -> FILE, opens path for \"r\" or \"w\"",
		func(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
			vs, ok := it.UnpackOrThrow(args, "ss")
			if !ok {
				return lispcore.NilValue
			}
			path, mode := vs[0].AsString(), vs[1].AsString()
			var f afero.File
			var err error
			switch mode {
			case "r":
				f, err = fs.Open(path)
			case "w":
				f, err = fs.Create(path)
			default:
				return it.Throw(lispcore.ErrValue, "open: mode must be \"r\" or \"w\"")
			}
			if err != nil {
				return it.Throw(lispcore.ErrIO, err.Error())
			}
			h := &fileHandle{f: f}
			if mode == "r" {
				h.reader = bufio.NewReader(f)
			}
			id := files.add(h)
			v, err := it.NewUserPtr(fileTag, id)
			if err != nil {
				return it.Throw(lispcore.ErrAPI, err.Error())
			}
			return v
		}))

	must(it.DefineFunction("read", "(read file) -> STRING line, or nil at EOF",
		func(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
			vs, ok := it.UnpackOrThrow(args, "f")
			if !ok {
				return lispcore.NilValue
			}
			h, ok := files.get(vs[0].AsUserPtr())
			if !ok || h.reader == nil {
				return it.Throw(lispcore.ErrIO, "read: not an open read file")
			}
			line, err := h.reader.ReadString('\n')
			if err != nil && err != io.EOF {
				return it.Throw(lispcore.ErrIO, err.Error())
			}
			if err == io.EOF && line == "" {
				return lispcore.NilValue
			}
			return it.NewString(trimNewline(line))
		}))

	must(it.DefineFunction("write", "(write file text) -> nil, appends text to file",
		func(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
			vs, ok := it.UnpackOrThrow(args, "fs")
			if !ok {
				return lispcore.NilValue
			}
			h, ok := files.get(vs[0].AsUserPtr())
			if !ok {
				return it.Throw(lispcore.ErrIO, "write: not an open file")
			}
			if _, err := h.f.Write(vs[1].StringBytes()); err != nil {
				return it.Throw(lispcore.ErrIO, err.Error())
			}
			return lispcore.NilValue
		}))

	must(it.DefineFunction("close", "(close file) -> nil, closes the underlying handle",
		func(it *lispcore.Interp, args []lispcore.Value) lispcore.Value {
			vs, ok := it.UnpackOrThrow(args, "f")
			if !ok {
				return lispcore.NilValue
			}
			id := vs[0].AsUserPtr()
			h, ok := files.get(id)
			if !ok {
				return it.Throw(lispcore.ErrIO, "close: not an open file")
			}
			err := h.f.Close()
			files.remove(id)
			if err != nil {
				return it.Throw(lispcore.ErrIO, err.Error())
			}
			return lispcore.NilValue
		}))

	return nil
}

func trimNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
