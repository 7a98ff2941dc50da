package vm

// call pushes a new frame for closure, validating arity and the call
// depth limit. The frame's stack window starts argCount+1 slots below
// the current stack top: slot 0 of the window is the callee itself (or
// the bound receiver, for a method call), slots 1..argCount are the
// arguments.
func (vm *VM) call(closure *ClosureObj, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.base = vm.stackTop - argCount - 1
	return nil
}

// callValue dispatches OP_CALL's callee, the one place every call
// shape (plain function, class constructor, already-bound method)
// funnels through.
func (vm *VM) callValue(callee Value, argCount int) error {
	if !callee.IsObj() {
		return vm.runtimeError("Can only call functions and classes.")
	}

	obj := callee.AsObj()
	switch obj.Kind {
	case ObjClosure:
		return vm.call(obj.AsClosure(), argCount)
	case ObjClass:
		class := obj.AsClass()
		instance := vm.heap.NewInstance(class)
		vm.stack[vm.stackTop-argCount-1] = ObjValue(&instance.Obj)
		if initializer, ok := class.findMethod("init"); ok {
			return vm.call(initializer, argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil
	case ObjBoundMethod:
		bound := obj.AsBoundMethod()
		vm.stack[vm.stackTop-argCount-1] = bound.Receiver
		return vm.call(bound.Method, argCount)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

// invoke implements OP_INVOKE: a property access immediately called,
// fused into one instruction so the common `receiver.method(args)`
// shape never allocates a throwaway BoundMethodObj just to call it
// once.
func (vm *VM) invoke(name string, argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsObj() || receiver.AsObj().Kind != ObjInstance {
		return vm.runtimeError("Only instances have methods.")
	}

	instance := receiver.AsObj().AsInstance()
	if field, ok := instance.Fields[name]; ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}

	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *ClassObj, name string, argCount int) error {
	method, ok := class.findMethod(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	return vm.call(method, argCount)
}

// bindMethod implements plain (non-called) property access on a
// method name: it allocates the BoundMethodObj that OP_INVOKE's fast
// path skips.
func (vm *VM) bindMethod(class *ClassObj, name string) error {
	method, ok := class.findMethod(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	receiver := vm.peek(0)
	bound := vm.heap.NewBoundMethod(receiver, method)
	vm.pop()
	vm.push(ObjValue(&bound.Obj))
	return nil
}

// captureUpvalue returns the open upvalue for the given absolute stack
// slot, reusing an existing one if some other closure already captured
// that exact slot. The open-upvalue list is kept sorted by descending
// slot so this scan and closeUpvalues's truncation both stop early.
func (vm *VM) captureUpvalue(slot int) *UpvalueObj {
	var prev *UpvalueObj
	uv := vm.openUpvalues
	for uv != nil && uv.slot > slot {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.slot == slot {
		return uv
	}

	created := vm.heap.NewUpvalue(slot, &vm.stack[slot])
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above the given stack
// slot, called when a block or function returns and its locals are
// about to go out of scope.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.slot >= last {
		uv := vm.openUpvalues
		uv.close()
		vm.openUpvalues = uv.Next
	}
}
