package vm

import "unsafe"

// ptrOf converts an *Obj back to the address of the concrete struct it
// is embedded in. This is sound only because Obj is always the first
// field of its containing struct (see Obj's doc comment): first-field
// layout guarantees the two pointers are numerically identical.
func ptrOf(o *Obj) unsafe.Pointer {
	return unsafe.Pointer(o)
}

// ObjKind discriminates the heap object variants. Every Obj carries
// one; the GC and the VM both switch on it to find the concrete type
// without relying on Go's own dynamic type assertions in the hot path.
type ObjKind byte

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjUpvalue
	ObjClosure
	ObjClass
	ObjInstance
	ObjBoundMethod
)

// Obj is the common header every heap object starts with. It must be
// the first field of every concrete object struct below: that layout
// guarantee is what lets AsObj()/the concrete accessors convert
// between *Obj and the concrete type via unsafe.Pointer without a
// separate boxed representation, mirroring the base-struct-pointer
// trick the reference implementation gets from C struct inheritance.
type Obj struct {
	Kind   ObjKind
	marked bool
	next   *Obj // intrusive heap list, owned by Heap
}

// StringObj is an interned Lox string. Two StringObj values are the
// same object if and only if they hold equal Chars, enforced by the
// Heap's intern table at allocation time.
type StringObj struct {
	Obj
	Chars string
	Hash  uint32
}

func (s *StringObj) AsObj() *Obj { return &s.Obj }

// AsString reinterprets a *Obj known to have Kind == ObjString. It is
// only safe to call after checking Kind.
func (o *Obj) AsString() *StringObj {
	return (*StringObj)(ptrOf(o))
}

// FunctionObj is a compiled function body: its Chunk plus the metadata
// the VM needs to set up a call frame for it.
type FunctionObj struct {
	Obj
	Name         *StringObj // nil for the implicit top-level script
	Arity        int
	UpvalueCount int
	Chunk        Chunk
}

func (f *FunctionObj) AsObj() *Obj { return &f.Obj }

func (o *Obj) AsFunction() *FunctionObj {
	return (*FunctionObj)(ptrOf(o))
}

// UpvalueObj is a closure's captured variable. While it is "open",
// Location points directly into a live VM stack slot.
// Closing an upvalue (when the enclosing frame returns) copies the
// current value into Closed and repoints Location at Closed, so the
// closure keeps working once the original stack slot is gone.
type UpvalueObj struct {
	Obj
	Location *Value
	Closed   Value
	Next     *UpvalueObj // VM's open-upvalue list, ordered by descending stack slot
	slot     int         // stack index Location points at while open
}

func (u *UpvalueObj) AsObj() *Obj { return &u.Obj }

func (o *Obj) AsUpvalue() *UpvalueObj {
	return (*UpvalueObj)(ptrOf(o))
}

func (u *UpvalueObj) close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ClosureObj pairs a compiled function with the upvalues it captured
// at the point its OP_CLOSURE instruction ran.
type ClosureObj struct {
	Obj
	Function *FunctionObj
	Upvalues []*UpvalueObj
}

func (c *ClosureObj) AsObj() *Obj { return &c.Obj }

func (o *Obj) AsClosure() *ClosureObj {
	return (*ClosureObj)(ptrOf(o))
}

// ClassObj is a Lox class: its own methods plus (if any) the
// superclass whose methods it inherits. Methods are looked up by name
// at call time, walking to Superclass on a miss.
type ClassObj struct {
	Obj
	Name       *StringObj
	Superclass *ClassObj
	Methods    map[string]*ClosureObj
}

func (c *ClassObj) AsObj() *Obj { return &c.Obj }

func (o *Obj) AsClass() *ClassObj {
	return (*ClassObj)(ptrOf(o))
}

func newClass(name *StringObj) *ClassObj {
	return &ClassObj{Obj: Obj{Kind: ObjClass}, Name: name, Methods: make(map[string]*ClosureObj)}
}

// findMethod walks the inheritance chain looking for name, the same
// walk OP_GET_PROPERTY and OP_INVOKE both perform on a method-table miss.
func (c *ClassObj) findMethod(name string) (*ClosureObj, bool) {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// InstanceObj is a runtime instance of a ClassObj: its class pointer
// plus an open field table. Lox has no declared-field list, so any
// identifier can be set as a field from outside the class body.
type InstanceObj struct {
	Obj
	Class  *ClassObj
	Fields map[string]Value
}

func (i *InstanceObj) AsObj() *Obj { return &i.Obj }

func (o *Obj) AsInstance() *InstanceObj {
	return (*InstanceObj)(ptrOf(o))
}

func newInstance(class *ClassObj) *InstanceObj {
	return &InstanceObj{Obj: Obj{Kind: ObjInstance}, Class: class, Fields: make(map[string]Value)}
}

// BoundMethodObj pairs a receiver instance with one of its class's
// closures, produced by a plain OP_GET_PROPERTY on a method name (the
// fused OP_INVOKE/OP_SUPER_INVOKE paths skip allocating one of these
// entirely when the property is called immediately).
type BoundMethodObj struct {
	Obj
	Receiver Value
	Method   *ClosureObj
}

func (b *BoundMethodObj) AsObj() *Obj { return &b.Obj }

func (o *Obj) AsBoundMethod() *BoundMethodObj {
	return (*BoundMethodObj)(ptrOf(o))
}
