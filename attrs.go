package lispcore

// AttrKind enumerates the three side-band metadata tables (spec §4.6).
type AttrKind int

const (
	AttrOrigForm AttrKind = iota
	AttrLocation
	AttrDoc
)

var attrFlagBits = [3]uint32{flagAttrOrigForm, flagAttrLocation, flagAttrDoc}

// Attributes attaches metadata to heap objects without changing their
// type: the original pre-macro-expansion form (AttrOrigForm), reader
// source positions (AttrLocation), and doc strings (AttrDoc). Presence
// is mirrored in the object's rtflags so hot-path code can test
// without touching the hash table.
type Attributes struct {
	tables [3]*HashTable[uintptr, any]
}

func newAttributes() *Attributes {
	a := &Attributes{}
	for i := range a.tables {
		a.tables[i] = NewHashTable[uintptr, any](Uint64Hash32)
	}
	return a
}

// Uint64Hash32 adapts Uint64Hash for the uintptr key type used by the
// attribute tables (object identity, not name).
func Uint64Hash32(u uintptr) uint32 { return Uint64Hash(uint64(u)) }

func (a *Attributes) Add(kind AttrKind, obj heapObject, val any) {
	obj.header().rtflags |= attrFlagBits[kind]
	a.tables[kind].Set(ptrKey(obj), val)
}

func (a *Attributes) Get(kind AttrKind, obj heapObject) (any, bool) {
	if obj.header().rtflags&attrFlagBits[kind] == 0 {
		return nil, false
	}
	return a.tables[kind].Get(ptrKey(obj))
}

func (a *Attributes) Remove(kind AttrKind, obj heapObject) {
	obj.header().rtflags &^= attrFlagBits[kind]
	a.tables[kind].Remove(ptrKey(obj))
}

// Copy transfers an attribute from one object to another. Preprocessing
// does not call it, so a rewritten form does not carry the old form's
// LOCATION.
func (a *Attributes) Copy(kind AttrKind, from, to heapObject) {
	if v, ok := a.Get(kind, from); ok {
		a.Add(kind, to, v)
	}
}

// RemoveAll strips every attribute from obj; called by the LIST
// finalizer when a cons cell is swept.
func (a *Attributes) RemoveAll(obj heapObject) {
	for kind := range a.tables {
		a.Remove(AttrKind(kind), obj)
	}
}

// SetLocation/Location are the typed convenience wrappers around the
// AttrLocation table used by the reader and the backtrace.
func (a *Attributes) SetLocation(obj heapObject, loc Location) { a.Add(AttrLocation, obj, loc) }

func (a *Attributes) GetLocation(obj heapObject) (Location, bool) {
	v, ok := a.Get(AttrLocation, obj)
	if !ok {
		return Location{}, false
	}
	return v.(Location), true
}

// SetDoc/GetDoc attach a doc string to a symbol's heap identity.
func (a *Attributes) SetDoc(obj heapObject, doc Value) { a.Add(AttrDoc, obj, doc) }

func (a *Attributes) GetDoc(obj heapObject) (Value, bool) {
	v, ok := a.Get(AttrDoc, obj)
	if !ok {
		return NilValue, false
	}
	return v.(Value), true
}

// SetOrigForm/GetOrigForm record the pre-macro-expansion form for
// diagnostics (spec §4.10).
func (a *Attributes) SetOrigForm(obj heapObject, orig Value) { a.Add(AttrOrigForm, obj, orig) }

func (a *Attributes) GetOrigForm(obj heapObject) (Value, bool) {
	v, ok := a.Get(AttrOrigForm, obj)
	if !ok {
		return NilValue, false
	}
	return v.(Value), true
}
