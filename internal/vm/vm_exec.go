package vm

import (
	"fmt"
	"strconv"

	"github.com/si0005hp/lox/internal/ast"
)

// Run compiles prog and executes it to completion. A nil error means
// the program finished normally; ErrCompile means compilation failed
// and nothing ran; ErrRuntime means an uncaught runtime error aborted
// execution partway through (diagnostics for either case are written
// to vm.Stderr as they're produced).
func (vm *VM) Run(prog *ast.Program) error {
	fn, errs := Compile(prog, vm.heap)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(vm.Stderr, e.Error())
		}
		return ErrCompile
	}

	if vm.config.DumpBytecode {
		fmt.Fprint(vm.Stderr, Disassemble(&fn.Chunk, "script"))
	}

	closure := vm.heap.NewClosure(fn)
	vm.push(ObjValue(&closure.Obj))
	if err := vm.call(closure, 0); err != nil {
		return err
	}

	return vm.execute()
}

func (frame *callFrame) readByte() byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (frame *callFrame) readShort() int {
	hi := frame.readByte()
	lo := frame.readByte()
	return int(hi)<<8 | int(lo)
}

func (frame *callFrame) readConstant() Value {
	return frame.closure.Function.Chunk.Constants[frame.readByte()]
}

func (frame *callFrame) readString() *StringObj {
	return frame.readConstant().AsObj().AsString()
}

// execute is the VM's dispatch loop: fetch one opcode from the current
// frame, perform its effect on the operand stack, repeat. Every
// instruction's semantics here must match the table the bytecode was
// compiled against exactly — there is no verification pass.
func (vm *VM) execute() error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		// Checked at every instruction boundary rather than at each
		// individual allocation call: since a collection here always
		// re-derives reachability from the stack/frames/globals as they
		// stand between two complete instructions, nothing allocated
		// and then used within the same instruction (e.g. ADD's string
		// concatenation) is ever at risk, without needing a separate
		// auxiliary root set for in-flight intermediates.
		vm.maybeCollect()

		op := OpCode(frame.readByte())
		switch op {
		case OpConstant:
			vm.push(frame.readConstant())

		case OpNil:
			vm.push(NilValue)
		case OpTrue:
			vm.push(TrueValue)
		case OpFalse:
			vm.push(FalseValue)
		case OpPop:
			vm.pop()

		case OpGetLocal:
			slot := frame.readByte()
			vm.push(vm.stack[frame.base+int(slot)])
		case OpSetLocal:
			slot := frame.readByte()
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case OpGetGlobal:
			name := frame.readString()
			v, ok := vm.globals.Get(name.Chars)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case OpDefineGlobal:
			name := frame.readString()
			vm.globals.Put(name.Chars, vm.peek(0))
			vm.pop()
		case OpSetGlobal:
			name := frame.readString()
			if !vm.globals.Has(name.Chars) {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.globals.Put(name.Chars, vm.peek(0))

		case OpGetUpvalue:
			idx := frame.readByte()
			vm.push(*frame.closure.Upvalues[idx].Location)
		case OpSetUpvalue:
			idx := frame.readByte()
			*frame.closure.Upvalues[idx].Location = vm.peek(0)

		case OpGetProperty:
			if !vm.peek(0).IsObj() || vm.peek(0).AsObj().Kind != ObjInstance {
				return vm.runtimeError("Only instances have properties.")
			}
			name := frame.readString()
			instance := vm.peek(0).AsObj().AsInstance()
			if v, ok := instance.Fields[name.Chars]; ok {
				vm.pop()
				vm.push(v)
				break
			}
			if err := vm.bindMethod(instance.Class, name.Chars); err != nil {
				return err
			}

		case OpSetProperty:
			if !vm.peek(1).IsObj() || vm.peek(1).AsObj().Kind != ObjInstance {
				return vm.runtimeError("Only instances have fields.")
			}
			name := frame.readString()
			instance := vm.peek(1).AsObj().AsInstance()
			instance.Fields[name.Chars] = vm.peek(0)
			value := vm.pop()
			vm.pop()
			vm.push(value)

		case OpGetSuper:
			name := frame.readString()
			superclass := vm.pop().AsObj().AsClass()
			if err := vm.bindMethod(superclass, name.Chars); err != nil {
				return err
			}

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolValue(a.Equal(b)))
		case OpGreater:
			if err := vm.numericCompare(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case OpLess:
			if err := vm.numericCompare(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case OpSubtract:
			if err := vm.numericBinary(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case OpMultiply:
			if err := vm.numericBinary(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case OpDivide:
			if err := vm.numericBinary(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case OpNot:
			vm.push(BoolValue(vm.pop().IsFalsey()))
		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(NumberValue(-vm.pop().AsNumber()))

		case OpPrint:
			fmt.Fprintln(vm.Stdout, FormatValue(vm.pop()))

		case OpJump:
			offset := frame.readShort()
			frame.ip += offset
		case OpJumpIfFalse:
			offset := frame.readShort()
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}
		case OpLoop:
			offset := frame.readShort()
			frame.ip -= offset

		case OpAnd:
			offset := frame.readShort()
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}
		case OpOr:
			offset := frame.readShort()
			if !vm.peek(0).IsFalsey() {
				frame.ip += offset
			}

		case OpCall:
			argCount := int(frame.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpInvoke:
			name := frame.readString()
			argCount := int(frame.readByte())
			if err := vm.invoke(name.Chars, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpSuperInvoke:
			name := frame.readString()
			argCount := int(frame.readByte())
			superclass := vm.pop().AsObj().AsClass()
			if err := vm.invokeFromClass(superclass, name.Chars, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpClosure:
			fn := frame.readConstant().AsObj().AsFunction()
			closure := vm.heap.NewClosure(fn)
			vm.push(ObjValue(&closure.Obj))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := frame.readByte()
				index := int(frame.readByte())
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.base
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case OpClass:
			name := frame.readString()
			vm.push(ObjValue(&vm.heap.NewClass(name).Obj))

		case OpInherit:
			superVal := vm.peek(1)
			if !superVal.IsObj() || superVal.AsObj().Kind != ObjClass {
				return vm.runtimeError("Superclass must be a class.")
			}
			superclass := superVal.AsObj().AsClass()
			subclass := vm.peek(0).AsObj().AsClass()
			subclass.Superclass = superclass
			for name, method := range superclass.Methods {
				subclass.Methods[name] = method
			}
			vm.pop()

		case OpMethod:
			name := frame.readString()
			method := vm.peek(0).AsObj().AsClosure()
			class := vm.peek(1).AsObj().AsClass()
			class.Methods[name.Chars] = method
			vm.pop()

		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}
	}
}

func (vm *VM) numericBinary(f func(a, b float64) float64) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(NumberValue(f(a, b)))
	return nil
}

func (vm *VM) numericCompare(f func(a, b float64) bool) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(BoolValue(f(a, b)))
	return nil
}

func (vm *VM) add() error {
	if vm.peek(0).IsNumber() && vm.peek(1).IsNumber() {
		b := vm.pop().AsNumber()
		a := vm.pop().AsNumber()
		vm.push(NumberValue(a + b))
		return nil
	}
	if vm.isString(vm.peek(0)) && vm.isString(vm.peek(1)) {
		b := vm.pop().AsObj().AsString()
		a := vm.pop().AsObj().AsString()
		vm.push(ObjValue(&vm.heap.InternString(a.Chars + b.Chars).Obj))
		return nil
	}
	return vm.runtimeError("Operands must be two numbers or two strings.")
}

func (vm *VM) isString(v Value) bool {
	return v.IsObj() && v.AsObj().Kind == ObjString
}

// FormatValue renders a Value the way `print` writes it to stdout.
// Numbers use Go's shortest round-tripping decimal form, matching the
// canonical Lox reference's number formatting rather than a fixed
// precision.
func FormatValue(v Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case v.IsObj():
		return formatObj(v.AsObj())
	}
	return ""
}

func formatObj(o *Obj) string {
	switch o.Kind {
	case ObjString:
		return o.AsString().Chars
	case ObjFunction:
		fn := o.AsFunction()
		if fn.Name == nil {
			return "<script>"
		}
		return "<fn " + fn.Name.Chars + ">"
	case ObjClosure:
		return formatObj(&o.AsClosure().Function.Obj)
	case ObjClass:
		return o.AsClass().Name.Chars
	case ObjInstance:
		return o.AsInstance().Class.Name.Chars + " instance"
	case ObjBoundMethod:
		return formatObj(&o.AsBoundMethod().Method.Function.Obj)
	}
	return "<object>"
}
