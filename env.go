package lispcore

import "fmt"

// SymFlag controls which of a symbol's capability callbacks Define
// installs.
type SymFlag int

const SymNone SymFlag = 0

const (
	SymReadOnly SymFlag = 1 << iota
	SymWriteOnly
)

// Symbol is a pair of capability callbacks, not a value slot: get=nil
// means write-only, set=nil means read-only (spec §4.7).
type Symbol struct {
	get       func() Value
	set       func(Value) error
	fin       func()
	userInfo  any
	protected Value
}

func newVarSymbol(initial Value, flags SymFlag) *Symbol {
	s := &Symbol{protected: initial}
	if flags&SymWriteOnly == 0 {
		s.get = func() Value { return s.protected }
	}
	if flags&SymReadOnly == 0 {
		s.set = func(v Value) error { s.protected = v; return nil }
	}
	return s
}

// NewSyncedInt64 builds a symbol whose get/set marshal to a
// caller-owned int64 cell, matching spec's "synced numeric
// primitives" (e.g. exposing a Go counter as a Lisp variable).
func NewSyncedInt64(cell *int64) *Symbol {
	s := &Symbol{}
	s.get = func() Value { return NewInt(*cell) }
	s.set = func(v Value) error {
		if v.Tag() != TagInt {
			return fmt.Errorf("synced int requires an INT value")
		}
		*cell = v.AsInt()
		return nil
	}
	return s
}

func (s *Symbol) SetFinalizer(fn func()) { s.fin = fn }
func (s *Symbol) SetUserInfo(v any)      { s.userInfo = v }
func (s *Symbol) UserInfo() any          { return s.userInfo }

type envKind int

const (
	envNormal envKind = iota
	envBifurcated
)

// Env is either a normal frame (syms + below) or a bifurcated overlay
// of two environments (left + right), consulted left-then-right. It
// is itself a GC-managed heap object so it can be held as a
// first-class ENV value (spec §3, §4.7).
type Env struct {
	hdr   objHeader
	kind  envKind
	syms  *HashTable[string, *Symbol]
	below *Env
	left  *Env
	right *Env
}

func (e *Env) header() *objHeader { return &e.hdr }

// PushEnv allocates a new normal frame above the current environment,
// with NO_ESC_BIT set until something captures it as a closure's
// lexenv.
func (it *Interp) PushEnv() *Env {
	e := it.pushEnvOver(it.env)
	it.env = e
	return e
}

func (it *Interp) pushEnvOver(below *Env) *Env {
	e := &Env{kind: envNormal, syms: NewHashTable[string, *Symbol](djb2Hash), below: below}
	e.hdr.tag = TagEnv
	e.hdr.rtflags |= flagNoEscape
	it.gc.register(e, envObjSize)
	return e
}

// EnterEnv pushes a bifurcated frame over two existing environments;
// lookup consults left then right.
func (it *Interp) EnterEnv(left, right *Env) *Env {
	e := it.bifurcateOver(it.env, left, right)
	it.env = e
	return e
}

// bifurcateOver builds a bifurcated frame over left/right without
// touching the active environment. EnterEnv uses it to push one as the
// active frame; NewInterp uses it to wire globalEnv's lookup chain
// over specialFormsEnv/macroEnv at construction time, so a list form's
// head identifier resolves to a special form or macro binding through
// the same lookupSymbol walk ordinary application uses.
func (it *Interp) bifurcateOver(below, left, right *Env) *Env {
	e := &Env{kind: envBifurcated, left: left, right: right, below: below}
	e.hdr.tag = TagEnv
	it.gc.register(e, envObjSize)
	return e
}

// PopEnv unlinks the current environment. If nothing captured it
// (NO_ESC_BIT still set) it becomes unreachable immediately and the
// next sweep reclaims it; if a closure captured it, markEscaped
// already cleared the bit and the GC keeps it alive as long as
// something reaches it.
func (it *Interp) PopEnv() {
	it.env = it.env.below
}

// markEscaped clears NO_ESC_BIT on every frame of the active chain
// being captured, and recurses into both branches of any bifurcated
// frame on that chain -- spec §3's closure-capture invariant.
func markEscaped(e *Env) {
	for cur := e; cur != nil; cur = cur.below {
		if cur.hdr.rtflags&flagNoEscape == 0 {
			return
		}
		cur.hdr.rtflags &^= flagNoEscape
		if cur.kind == envBifurcated {
			markEscaped(cur.left)
			markEscaped(cur.right)
		}
	}
}

func innermostNormal(e *Env) *Env {
	for cur := e; cur != nil; cur = cur.below {
		if cur.kind == envNormal {
			return cur
		}
	}
	return nil
}

// lookupSymbol walks the chain from e down through `below`, consulting
// each normal frame's symbol map and recursing left-then-right through
// bifurcated overlays.
func lookupSymbol(e *Env, name string) (*Symbol, bool) {
	for cur := e; cur != nil; cur = cur.below {
		if cur.kind == envBifurcated {
			if s, ok := lookupSymbol(cur.left, name); ok {
				return s, true
			}
			if s, ok := lookupSymbol(cur.right, name); ok {
				return s, true
			}
			continue
		}
		if s, ok := cur.syms.Get(name); ok {
			return s, true
		}
	}
	return nil, false
}

// Define creates a symbol named name in the innermost normal
// environment reachable from e. Redefinition in the global environment
// is allowed only when allow-redef is enabled; elsewhere it is always
// an error (spec §4.7).
func (it *Interp) Define(e *Env, name string, v Value, flags SymFlag) error {
	target := innermostNormal(e)
	if target == nil {
		return it.newGoErr(ErrAPI, "no normal environment to define into")
	}
	if existing, ok := target.syms.Get(name); ok {
		if target == it.globalEnv && it.cfg.GetBool(OptAllowRedef) {
			if existing.fin != nil {
				existing.fin()
			}
			target.syms.Set(name, newVarSymbol(v, flags))
			return nil
		}
		return it.newGoErr(ErrExist, fmt.Sprintf("%q already defined", name))
	}
	target.syms.Set(name, newVarSymbol(v, flags))
	return nil
}

// DefineSymbol installs an already-constructed Symbol (used for
// synced primitives and get/set pairs), under the same redefinition
// rule as Define.
func (it *Interp) DefineSymbol(e *Env, name string, sym *Symbol) error {
	target := innermostNormal(e)
	if target == nil {
		return it.newGoErr(ErrAPI, "no normal environment to define into")
	}
	if existing, ok := target.syms.Get(name); ok {
		if target == it.globalEnv && it.cfg.GetBool(OptAllowRedef) {
			if existing.fin != nil {
				existing.fin()
			}
			target.syms.Set(name, sym)
			return nil
		}
		return it.newGoErr(ErrExist, fmt.Sprintf("%q already defined", name))
	}
	target.syms.Set(name, sym)
	return nil
}

// Get resolves id in env, raising NOSYM/WRITEONLY as appropriate.
func (it *Interp) Get(env *Env, id Value) Value {
	name := id.IdentifierName()
	sym, ok := lookupSymbol(env, name)
	if !ok {
		return it.Throw(ErrNoSym, fmt.Sprintf("unbound symbol %q", name))
	}
	if sym.get == nil {
		return it.Throw(ErrWriteOnly, fmt.Sprintf("%q is write-only", name))
	}
	return sym.get()
}

// Set assigns v to id in env, raising NOSYM/READONLY as appropriate.
func (it *Interp) Set(env *Env, id Value, v Value) Value {
	name := id.IdentifierName()
	sym, ok := lookupSymbol(env, name)
	if !ok {
		return it.Throw(ErrNoSym, fmt.Sprintf("unbound symbol %q", name))
	}
	if sym.set == nil {
		return it.Throw(ErrReadOnly, fmt.Sprintf("%q is read-only", name))
	}
	if err := sym.set(v); err != nil {
		return it.Throw(ErrType, err.Error())
	}
	return v
}
