package vm

import "github.com/dolthub/swiss"

// Heap owns every object allocated during a run. Objects are linked
// through Obj.next into a single intrusive list — the same structure
// the allocator needs for sweeping — and strings are additionally kept
// in an intern table so two identical string literals are always the
// same object.
//
// "Freeing" an object here means unlinking it from both the intrusive
// list and the intern table. The underlying Go value is then left for
// Go's own collector; this package's GC algorithm (mark roots, trace,
// purge intern table, sweep) is the one under test, not manual memory
// reclamation, which Go does not expose.
type Heap struct {
	objects *Obj
	strings *swiss.Map[string, *StringObj]

	allocated int // approximate live-object count, drives adaptive GC
	nextGC    int

	gray []*Obj

	stats Stats
}

// Stats accumulates lifetime GC counters for diagnostic logging.
type Stats struct {
	Collections int
	Freed       int
	LiveAfter   int
}

const defaultGCThreshold = 1 << 10
const internTableInitialSize = 256

func NewHeap() *Heap {
	return &Heap{
		strings: swiss.NewMap[string, *StringObj](internTableInitialSize),
		nextGC:  defaultGCThreshold,
	}
}

func (h *Heap) link(o *Obj) {
	o.next = h.objects
	h.objects = o
	h.allocated++
}

// --- FNV-1a string hashing, matching the reference implementation's
// constants exactly so that any ported test fixtures relying on hash
// values keep working. ---

const (
	fnvOffset = 2166136261
	fnvPrime  = 16777619
)

func hashString(s string) uint32 {
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

// InternString returns the canonical StringObj for s, allocating one
// only the first time s is seen. Because Lox string equality is
// therefore just pointer (Value) equality, OP_EQUAL never needs to
// compare bytes at runtime.
func (h *Heap) InternString(s string) *StringObj {
	if existing, ok := h.strings.Get(s); ok {
		return existing
	}
	obj := &StringObj{
		Obj:   Obj{Kind: ObjString},
		Chars: s,
		Hash:  hashString(s),
	}
	h.link(&obj.Obj)
	h.strings.Put(s, obj)
	return obj
}

func (h *Heap) NewFunction(name *StringObj) *FunctionObj {
	fn := &FunctionObj{Obj: Obj{Kind: ObjFunction}, Name: name}
	h.link(&fn.Obj)
	return fn
}

func (h *Heap) NewClosure(fn *FunctionObj) *ClosureObj {
	cl := &ClosureObj{
		Obj:      Obj{Kind: ObjClosure},
		Function: fn,
		Upvalues: make([]*UpvalueObj, fn.UpvalueCount),
	}
	h.link(&cl.Obj)
	return cl
}

func (h *Heap) NewUpvalue(slotIndex int, location *Value) *UpvalueObj {
	uv := &UpvalueObj{Obj: Obj{Kind: ObjUpvalue}, Location: location, slot: slotIndex}
	h.link(&uv.Obj)
	return uv
}

func (h *Heap) NewClass(name *StringObj) *ClassObj {
	cls := newClass(name)
	h.link(&cls.Obj)
	return cls
}

func (h *Heap) NewInstance(class *ClassObj) *InstanceObj {
	inst := newInstance(class)
	h.link(&inst.Obj)
	return inst
}

func (h *Heap) NewBoundMethod(receiver Value, method *ClosureObj) *BoundMethodObj {
	bm := &BoundMethodObj{Obj: Obj{Kind: ObjBoundMethod}, Receiver: receiver, Method: method}
	h.link(&bm.Obj)
	return bm
}

// ShouldCollect reports whether the allocator has crossed the adaptive
// threshold since the last collection.
func (h *Heap) ShouldCollect() bool {
	return h.allocated >= h.nextGC
}

func (h *Heap) markObj(o *Obj) {
	if o == nil || o.marked {
		return
	}
	o.marked = true
	h.gray = append(h.gray, o)
}

func (h *Heap) markValue(v Value) {
	if v.IsObj() {
		h.markObj(v.AsObj())
	}
}

// blacken visits every reference an already-marked object holds and
// marks those too, the "trace references" phase of mark-and-sweep.
func (h *Heap) blacken(o *Obj) {
	switch o.Kind {
	case ObjString:
		// no outgoing references
	case ObjFunction:
		fn := o.AsFunction()
		if fn.Name != nil {
			h.markObj(&fn.Name.Obj)
		}
		for _, c := range fn.Chunk.Constants {
			h.markValue(c)
		}
	case ObjUpvalue:
		uv := o.AsUpvalue()
		h.markValue(*uv.Location)
	case ObjClosure:
		cl := o.AsClosure()
		h.markObj(&cl.Function.Obj)
		for _, uv := range cl.Upvalues {
			if uv != nil {
				h.markObj(&uv.Obj)
			}
		}
	case ObjClass:
		cls := o.AsClass()
		h.markObj(&cls.Name.Obj)
		if cls.Superclass != nil {
			h.markObj(&cls.Superclass.Obj)
		}
		for _, m := range cls.Methods {
			h.markObj(&m.Obj)
		}
	case ObjInstance:
		inst := o.AsInstance()
		h.markObj(&inst.Class.Obj)
		for _, v := range inst.Fields {
			h.markValue(v)
		}
	case ObjBoundMethod:
		bm := o.AsBoundMethod()
		h.markValue(bm.Receiver)
		h.markObj(&bm.Method.Obj)
	}
}

// Collect runs one full mark-and-sweep cycle:
//  1. mark roots (provided by the caller, typically the VM)
//  2. blacken the gray worklist until it is empty
//  3. purge the intern table of strings nothing else references
//  4. sweep the object list, unlinking anything still unmarked
func (h *Heap) Collect(markRoots func(h *Heap)) {
	markRoots(h)

	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}

	var dead []string
	h.strings.Iter(func(s string, obj *StringObj) bool {
		if !obj.marked {
			dead = append(dead, s)
		}
		return false
	})
	for _, s := range dead {
		h.strings.Delete(s)
	}

	freed := h.sweep()

	h.stats.Collections++
	h.stats.Freed += freed
	h.stats.LiveAfter = h.allocated
	h.nextGC = h.allocated * 2
	if h.nextGC < defaultGCThreshold {
		h.nextGC = defaultGCThreshold
	}
}

func (h *Heap) sweep() int {
	freed := 0
	var prev *Obj
	obj := h.objects
	for obj != nil {
		if obj.marked {
			obj.marked = false
			prev = obj
			obj = obj.next
			continue
		}
		unreached := obj
		obj = obj.next
		if prev != nil {
			prev.next = obj
		} else {
			h.objects = obj
		}
		unreached.next = nil
		freed++
		h.allocated--
	}
	return freed
}
