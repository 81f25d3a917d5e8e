package lispcore

// internTable is the dedicated hash table mapping identifier name to
// identifier record (spec §4.5). Construction probes by name: a hit
// returns the existing record (guaranteeing pointer equality for
// equal byte sequences), a miss allocates and inserts.
type internTable struct {
	it  *Interp
	ht  *HashTable[string, *idObj]
	std map[string]*idObj
}

// standardIdentifierNames are pre-interned at startup. Only `:`
// (dotted-tail argument lists and match patterns) is compared by
// pointer; catch/finally clauses are recognized by name comparison, and
// defget/defset are not consulted by the evaluator.
var standardIdentifierNames = []string{":", "defget", "defset", "catch", "finally"}

func newInternTable(it *Interp) *internTable {
	return &internTable{
		it:  it,
		ht:  NewHashTable[string, *idObj](djb2Hash),
		std: make(map[string]*idObj, len(standardIdentifierNames)),
	}
}

func (t *internTable) preinternStandard() {
	for _, name := range standardIdentifierNames {
		t.std[name] = t.internObj(name)
	}
}

// Intern returns the Value wrapping the canonical identifier record
// for name, allocating one on first use.
func (t *internTable) Intern(name string) Value {
	return Value{tag: TagID, obj: t.internObj(name)}
}

func (t *internTable) internObj(name string) *idObj {
	if id, ok := t.ht.Get(name); ok {
		return id
	}
	id := &idObj{name: name, hash: djb2Hash(name)}
	id.hdr.tag = TagID
	t.it.gc.register(id, idObjSize+uintptr(len(name)))
	t.ht.Set(name, id)
	return id
}

// remove is called from the ID finalizer during sweep, unlinking the
// record from the table so a future Intern of the same name allocates
// fresh rather than resurrecting a freed record.
func (t *internTable) remove(name string) {
	t.ht.Remove(name)
}

// Standard returns one of the five pre-interned standard identifiers.
func (t *internTable) Standard(name string) Value {
	return Value{tag: TagID, obj: t.std[name]}
}
