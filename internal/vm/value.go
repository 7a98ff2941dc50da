package vm

import (
	"math"
	"unsafe"
)

// Value is a NaN-boxed Lox value: every Value is the bit pattern of an
// IEEE-754 double, except that doubles are never actually NaN at
// runtime (Lox has no way to produce one through arithmetic that
// matters here), so the unused quiet-NaN payload space is repurposed
// to tag nil, the booleans, and heap object pointers. A real double is
// stored verbatim and round-trips through math.Float64frombits/bits
// unchanged; every other kind is recognized by masking against qnan
// and signBit.
type Value uint64

const (
	signBit = uint64(0x8000000000000000)
	qnan    = uint64(0x7ffc000000000000)

	tagNil   = uint64(1)
	tagFalse = uint64(2)
	tagTrue  = uint64(3)
)

var (
	NilValue   = Value(qnan | tagNil)
	FalseValue = Value(qnan | tagFalse)
	TrueValue  = Value(qnan | tagTrue)
)

func NumberValue(n float64) Value {
	return Value(math.Float64bits(n))
}

func BoolValue(b bool) Value {
	if b {
		return TrueValue
	}
	return FalseValue
}

// ObjValue boxes a heap object pointer. The pointer must stay reachable
// through the heap's own object list — boxing it here does not, by
// itself, keep Go's garbage collector from reclaiming it.
func ObjValue(o *Obj) Value {
	if o == nil {
		return NilValue
	}
	return Value(signBit | qnan | uint64(uintptr(unsafe.Pointer(o))))
}

func (v Value) IsNumber() bool {
	return uint64(v)&qnan != qnan
}

func (v Value) IsNil() bool {
	return v == NilValue
}

func (v Value) IsBool() bool {
	return v == TrueValue || v == FalseValue
}

func (v Value) IsObj() bool {
	return uint64(v)&(qnan|signBit) == (qnan | signBit)
}

func (v Value) AsNumber() float64 {
	return math.Float64frombits(uint64(v))
}

func (v Value) AsBool() bool {
	return v == TrueValue
}

// AsObj unboxes the heap pointer. The mask clears the sign bit and the
// qnan tag, leaving the original pointer bits; this relies on pointers
// fitting in 50 bits, true of every supported Go platform's user-space
// address space.
func (v Value) AsObj() *Obj {
	return (*Obj)(unsafe.Pointer(uintptr(uint64(v) &^ (signBit | qnan))))
}

// IsFalsey implements Lox's truthiness rule: nil and false are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements Lox's `==`. Numbers compare by value, objects by
// identity except for strings, which compare by content — but since
// strings are interned, identity and content equality coincide and a
// raw Value equality check is all either needs.
func (v Value) Equal(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		return v.AsNumber() == other.AsNumber()
	}
	return v == other
}

// TypeName names a value's runtime type for error messages.
func (v Value) TypeName() string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		return "boolean"
	case v.IsNumber():
		return "number"
	case v.IsObj():
		switch v.AsObj().Kind {
		case ObjString:
			return "string"
		case ObjFunction, ObjClosure:
			return "function"
		case ObjClass:
			return "class"
		case ObjInstance:
			return "instance"
		case ObjBoundMethod:
			return "function"
		}
	}
	return "value"
}
