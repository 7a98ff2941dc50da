// Package vm implements the bytecode compiler and stack-based virtual
// machine that execute a Lox program once it has been parsed into an
// ast.Program.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dolthub/swiss"
)

const globalsInitialSize = 64

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// ErrCompile and ErrRuntime let callers (the CLI driver) distinguish
// "source didn't compile" from "source compiled but crashed at
// runtime" without parsing error text, so they can choose the matching
// process exit code.
var (
	ErrCompile = errors.New("compile error")
	ErrRuntime = errors.New("runtime error")
)

// callFrame is one live call's bookkeeping: which closure it is
// executing, where its instruction pointer is within that closure's
// chunk, and where its stack window begins (slot 0 of the frame is the
// receiver for methods, or the called value itself for plain calls).
type callFrame struct {
	closure *ClosureObj
	ip      int
	base    int
}

// VM is a single-threaded stack machine: one operand stack, one call
// frame stack, and one GC-owned heap. There is never more than one VM
// executing at a time and it is never shared across goroutines.
type VM struct {
	stack    [stackMax]Value
	stackTop int

	frames     [framesMax]callFrame
	frameCount int

	openUpvalues *UpvalueObj

	globals *swiss.Map[string, Value]
	heap    *Heap

	initString *StringObj

	Stdout io.Writer
	Stderr io.Writer

	config Config
}

// New constructs a VM ready to run compiled closures. Config governs
// GC tuning and diagnostic output; see config.Load for where it
// usually comes from.
func New(cfg Config) *VM {
	heap := NewHeap()
	vm := &VM{
		globals: swiss.NewMap[string, Value](globalsInitialSize),
		heap:    heap,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		config:  cfg,
	}
	vm.initString = heap.InternString("init")
	vm.applyThreshold()
	return vm
}

func (vm *VM) push(v Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(vm.Stderr, "%s\n", msg)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := 0
		if frame.ip-1 >= 0 && frame.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[frame.ip-1]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		fmt.Fprintf(vm.Stderr, "[line %d] in %s\n", line, name)
	}

	vm.resetStack()
	return ErrRuntime
}

// maybeCollect triggers a GC cycle if the heap's adaptive allocation
// threshold has been crossed, rooted at everything this VM currently
// has reachable: the operand stack, every live call frame's closure,
// the open-upvalue list, and the globals table.
func (vm *VM) maybeCollect() {
	if vm.config.StressGC {
		vm.collect()
		return
	}
	if vm.heap.ShouldCollect() {
		vm.collect()
	}
}

func (vm *VM) collect() {
	vm.heap.Collect(func(h *Heap) {
		for i := 0; i < vm.stackTop; i++ {
			h.markValue(vm.stack[i])
		}
		for i := 0; i < vm.frameCount; i++ {
			h.markObj(&vm.frames[i].closure.Obj)
		}
		for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
			h.markObj(&uv.Obj)
		}
		vm.globals.Iter(func(_ string, v Value) bool {
			h.markValue(v)
			return false
		})
		if vm.initString != nil {
			h.markObj(&vm.initString.Obj)
		}
	})

	if vm.config.LogGC {
		vm.logGCStats()
	}
}
