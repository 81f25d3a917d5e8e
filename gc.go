package lispcore

// GC is a tri-colourless mark-and-sweep collector over the doubly
// linked "all objects" list rooted in the interpreter. It is not
// reentrant: both entry points are no-ops while locked, and finalizers
// must never allocate, evaluate, or call Destroy (spec §4.4, §5).
type GC struct {
	it     *Interp
	arena  *Arena
	head   heapObject
	tail   heapObject
	locked bool

	hyperGC bool

	cycles     int64
	lastFreed  int64
	lastMarked int64
}

func newGC(it *Interp, arena *Arena) *GC {
	return &GC{it: it, arena: arena}
}

// doubly-linked "all objects" traversal uses these accessor shims
// since heapObject is an interface; header() always returns the same
// fixed-offset struct regardless of concrete type.
func (g *GC) register(o heapObject, size uintptr) {
	h := o.header()
	h.rtflags |= flagGC
	h.size = size
	if err := g.arena.Alloc(size); err != nil {
		// The allocation itself already happened in Go terms (we
		// can't un-allocate); surface NOMEM to the interpreter and
		// let the caller's Eval loop notice HasError() post-call.
		g.it.Throw(ErrNoMem, err.Error())
	}
	h.allPrev = g.tail
	if g.tail != nil {
		g.tail.header().allNext = o
	} else {
		g.head = o
	}
	g.tail = o

	if g.hyperGC {
		g.CollectHard()
	} else {
		g.CollectSoft()
	}
}

func isMarked(o heapObject) bool   { return o.header().rtflags&flagMarked != 0 }
func setMarked(o heapObject)       { o.header().rtflags |= flagMarked }
func clearMarked(o heapObject)     { o.header().rtflags &^= flagMarked }
func isRefPinned(o heapObject) bool { return o.header().rtflags&flagRef != 0 }

// RefHandle records whether ref() newly pinned an object, so nested
// ref/unref calls compose correctly (spec §4.4 Pinning).
type RefHandle struct {
	target  heapObject
	wasSet  bool
}

// Ref pins v as a GC root until Unref releases it. Immediate values
// and TagNil are no-ops.
func (it *Interp) Ref(v Value) RefHandle {
	if v.obj == nil {
		return RefHandle{}
	}
	h := v.obj.header()
	if h.rtflags&flagRef != 0 {
		return RefHandle{target: v.obj, wasSet: false}
	}
	h.rtflags |= flagRef
	return RefHandle{target: v.obj, wasSet: true}
}

func (it *Interp) Unref(h RefHandle) {
	if h.target == nil || !h.wasSet {
		return
	}
	h.target.header().rtflags &^= flagRef
}

// CollectSoft runs iff the arena has armed its threshold, or hyper-GC
// is enabled for stress testing.
func (g *GC) CollectSoft() {
	if g.locked {
		return
	}
	if !g.arena.shouldCollectSoft(g.hyperGC) {
		return
	}
	g.collectHard()
}

// CollectHard runs unconditionally unless the collector is locked.
func (g *GC) CollectHard() {
	if g.locked {
		return
	}
	g.collectHard()
}

func (g *GC) collectHard() {
	g.locked = true
	defer func() { g.locked = false }()

	g.mark()
	g.sweep()
	g.arena.noteSweepDone()
	g.cycles++

	if g.it.logger != nil && g.it.cfg.GetBool(OptGenDebugInfo) {
		g.it.logger.Debugw("gc cycle",
			"cycle", g.cycles,
			"marked", g.lastMarked,
			"freed", g.lastFreed,
			"live_bytes", g.arena.TotalBytes(),
		)
	}
	if g.it.metrics != nil {
		g.it.metrics.observeGCCycle(g.lastMarked, g.lastFreed, g.arena.TotalBytes())
	}
}

// mark walks every root named in spec §4.4: the current environment
// chain, the three namespace environments, the standard-identifier
// cache, the last-thrown-error message string, every ref-pinned
// object, and every DOC-attribute string.
func (g *GC) mark() {
	g.lastMarked = 0
	markEnvChain(g, g.it.env)
	markEnvChain(g, g.it.globalEnv)
	markEnvChain(g, g.it.specialFormsEnv)
	markEnvChain(g, g.it.macroEnv)
	for _, id := range g.it.intern.std {
		g.markValue(Value{tag: TagID, obj: id})
	}
	if g.it.errMsgValue.obj != nil {
		g.markValue(g.it.errMsgValue)
	}
	for o := g.head; o != nil; o = o.header().allNext {
		if isRefPinned(o) {
			g.markObject(o)
		}
	}
	g.it.attrs.tables[AttrDoc].ForEach(func(_ uintptr, v any) bool {
		if s, ok := v.(Value); ok {
			g.markValue(s)
		}
		return true
	})
}

func markEnvChain(g *GC, e *Env) {
	for cur := e; cur != nil; cur = cur.below {
		if isMarked(cur) {
			return
		}
		g.markObject(cur)
		if cur.kind == envBifurcated {
			markEnvChain(g, cur.left)
			markEnvChain(g, cur.right)
		}
	}
}

// markObject marks the concrete record behind a heapObject, type
// switching to know which fields hold further Values to recurse into.
func (g *GC) markObject(o heapObject) {
	if isMarked(o) {
		return
	}
	setMarked(o)
	g.lastMarked++

	switch rec := o.(type) {
	case *consCell:
		// Walk the spine iteratively so long lists don't grow the
		// Go call stack; only the element values need recursion.
		cur := o
		for {
			cell := cur.(*consCell)
			g.markValue(cell.value)
			if cell.next.tag != TagList {
				return
			}
			next := cell.next.obj
			if isMarked(next) {
				return
			}
			setMarked(next)
			g.lastMarked++
			cur = next
		}
	case *stringObj:
		if rec.origin != nil {
			g.markObject(rec.origin)
		}
	case *idObj:
		// no further GC-managed references
	case *funcObj:
		g.markValue(rec.formals)
		for _, f := range rec.body {
			g.markValue(f)
		}
		markEnvChain(g, rec.lexenv)
	case *wrapObj:
		g.markValue(rec.inner)
	case *Env:
		if rec.kind == envBifurcated {
			markEnvChain(g, rec.left)
			markEnvChain(g, rec.right)
		} else if rec.syms != nil {
			rec.syms.ForEach(func(_ string, s *Symbol) bool {
				g.markValue(s.protected)
				return true
			})
		}
		if rec.below != nil {
			markEnvChain(g, rec.below)
		}
	case *extFuncObj, *specialFormObj:
		// no GC-managed internal value references
	}
}

func (g *GC) markValue(v Value) {
	if v.obj == nil {
		return
	}
	g.markObject(v.obj)
}

// sweep iterates the all-objects list, finalizing and dropping every
// unmarked object, and un-marking survivors.
func (g *GC) sweep() {
	g.lastFreed = 0
	var newHead, newTail heapObject
	for o := g.head; o != nil; {
		next := o.header().allNext
		if isMarked(o) {
			clearMarked(o)
			o.header().allPrev = newTail
			o.header().allNext = nil
			if newTail != nil {
				newTail.header().allNext = o
			} else {
				newHead = o
			}
			newTail = o
		} else {
			g.finalize(o)
			g.arena.Free(o.header().size)
			g.lastFreed++
		}
		o = next
	}
	g.head, g.tail = newHead, newTail
}

// finalize runs the per-type cleanup callbacks named in spec §4.4.
func (g *GC) finalize(o heapObject) {
	switch rec := o.(type) {
	case *idObj:
		g.it.intern.remove(rec.name)
	case *Env:
		if rec.syms != nil {
			rec.syms.ForEach(func(_ string, s *Symbol) bool {
				if s.fin != nil {
					s.fin()
				}
				return true
			})
		}
	case *consCell:
		g.it.attrs.RemoveAll(rec)
	}
}

// Destroy runs up to three sweeps with an empty root set to drain
// finalizer-revived objects, warning if any remain (spec §4.4).
func (g *GC) Destroy() {
	for i := 0; i < 3; i++ {
		if g.head == nil {
			return
		}
		g.locked = true
		g.sweep()
		g.locked = false
	}
	if g.head != nil && g.it.logger != nil {
		g.it.logger.Warnw("objects survived interpreter teardown")
	}
}
