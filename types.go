package lispcore

import "fmt"

// CastFunc converts a Value of a registered alias's type to its
// target type.
type CastFunc func(Value) (Value, error)

// TypeEntry is one append-only registry slot (spec §4.8).
type TypeEntry struct {
	Name    string
	Base    Tag
	Printer func(Value) string
	Casts   map[Tag]CastFunc
}

// TypeRegistry is the runtime-extensible alias/cast system layered
// over the finite set of base tags. It is append-only and capped at
// 2^16 minus the number of basic tags.
type TypeRegistry struct {
	entries []*TypeEntry
	byName  map[string]Tag
}

const maxAliasTags = (1 << 16) - int(BasicLast) - 1

func newTypeRegistry() *TypeRegistry {
	return &TypeRegistry{byName: make(map[string]Tag)}
}

// RegisterType appends a new alias named name over the given base
// type (spec §6 register-type).
func (tr *TypeRegistry) RegisterType(name string, base Tag) (Tag, error) {
	if _, exists := tr.byName[name]; exists {
		return 0, fmt.Errorf("type %q already registered", name)
	}
	if len(tr.entries) >= maxAliasTags {
		return 0, errHashTableFull
	}
	tag := BasicLast + 1 + Tag(len(tr.entries))
	tr.entries = append(tr.entries, &TypeEntry{Name: name, Base: base, Casts: map[Tag]CastFunc{}})
	tr.byName[name] = tag
	return tag, nil
}

func (tr *TypeRegistry) entry(t Tag) *TypeEntry {
	if t <= BasicLast {
		return nil
	}
	idx := int(t) - int(BasicLast) - 1
	if idx < 0 || idx >= len(tr.entries) {
		return nil
	}
	return tr.entries[idx]
}

func (tr *TypeRegistry) Lookup(name string) (Tag, bool) {
	t, ok := tr.byName[name]
	return t, ok
}

// ResolveBase reduces an alias chain to its basic type, raising an
// error if a cycle is detected.
func (tr *TypeRegistry) ResolveBase(t Tag) (Tag, error) {
	seen := map[Tag]bool{}
	cur := t
	for cur > BasicLast {
		if seen[cur] {
			return 0, fmt.Errorf("cyclic type alias detected at tag %d", cur)
		}
		seen[cur] = true
		e := tr.entry(cur)
		if e == nil {
			return 0, fmt.Errorf("unknown type tag %d", cur)
		}
		cur = e.Base
	}
	return cur, nil
}

// AddCast registers a converter from the alias src to dst.
func (tr *TypeRegistry) AddCast(src, dst Tag, fn CastFunc) error {
	e := tr.entry(src)
	if e == nil {
		return fmt.Errorf("add-cast: %d is not a registered alias", src)
	}
	e.Casts[dst] = fn
	return nil
}

// Cast succeeds iff v's type equals t, v's resolved base type equals
// t, or a converter to t is registered on v's own alias entry (casts
// of the aliases that v's type resolves through are not consulted).
func (tr *TypeRegistry) Cast(v Value, t Tag) (Value, error) {
	if v.Tag() == t {
		return v, nil
	}
	base, err := tr.ResolveBase(v.Tag())
	if err == nil && base == t {
		return v, nil
	}
	if e := tr.entry(v.Tag()); e != nil {
		if fn, ok := e.Casts[t]; ok {
			return fn(v)
		}
	}
	return Value{}, errCastFailed
}

// Printer returns the custom printer for an alias tag, if any.
func (tr *TypeRegistry) Printer(t Tag) (func(Value) string, bool) {
	e := tr.entry(t)
	if e == nil || e.Printer == nil {
		return nil, false
	}
	return e.Printer, true
}

func (tr *TypeRegistry) SetPrinter(t Tag, fn func(Value) string) {
	if e := tr.entry(t); e != nil {
		e.Printer = fn
	}
}
