package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/si0005hp/lox/internal/lexer"
	"github.com/si0005hp/lox/internal/parser"
)

// run compiles and executes src with a fresh VM, returning stdout,
// stderr, and the error Run produced (nil, ErrCompile, or ErrRuntime).
func run(t *testing.T, src string, cfg Config) (string, string, error) {
	t.Helper()
	toks, lexErrs := lexer.New(src).Scan()
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	prog, parseErrs := parser.New(toks).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}

	// Production always constructs Config via ConfigFromFile, which
	// defaults a zero threshold to defaultGCThreshold; tests bypass that
	// translation layer, so mirror the default here rather than running
	// every case against an effective threshold of zero.
	if cfg.InitialThreshold == 0 && !cfg.StressGC {
		cfg.InitialThreshold = defaultGCThreshold
	}

	machine := New(cfg)
	var stdout, stderr bytes.Buffer
	machine.Stdout = &stdout
	machine.Stderr = &stderr

	err := machine.Run(prog)
	return stdout.String(), stderr.String(), err
}

func TestArithmeticAndPrecedence(t *testing.T) {
	out, _, err := run(t, "print 1 + 2 * 3;", Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Errorf("got %q, want 7", out)
	}
}

func TestStringConcatenationInterns(t *testing.T) {
	out, _, err := run(t, `var a = "foo"; var b = "bar"; print a + b;`, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "foobar" {
		t.Errorf("got %q, want foobar", out)
	}
}

func TestClosureCapturesUpvalue(t *testing.T) {
	src := `
	fun makeCounter() {
		var i = 0;
		fun count() {
			i = i + 1;
			print i;
		}
		return count;
	}
	var counter = makeCounter();
	counter();
	counter();
	`
	out, _, err := run(t, src, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "1\n2" {
		t.Errorf("got %q, want \"1\\n2\"", got)
	}
}

// OP_INHERIT must link the subclass to its superclass, not just flatten
// the superclass's methods into the subclass's own method table:
// findMethod's chain walk (used by OP_INVOKE/OP_GET_PROPERTY/init
// lookup on a miss) depends on that link actually being set.
func TestInheritSetsSuperclassLink(t *testing.T) {
	src := `
	class A {}
	class B < A {}
	`
	toks, lexErrs := lexer.New(src).Scan()
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	prog, parseErrs := parser.New(toks).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}

	machine := New(Config{})
	var stdout, stderr bytes.Buffer
	machine.Stdout = &stdout
	machine.Stderr = &stderr
	if err := machine.Run(prog); err != nil {
		t.Fatalf("unexpected error: %v (stderr: %s)", err, stderr.String())
	}

	aVal, ok := machine.globals.Get("A")
	if !ok {
		t.Fatalf("global A not found")
	}
	bVal, ok := machine.globals.Get("B")
	if !ok {
		t.Fatalf("global B not found")
	}
	a := aVal.AsObj().AsClass()
	b := bVal.AsObj().AsClass()
	if b.Superclass != a {
		t.Errorf("B.Superclass = %v, want %v", b.Superclass, a)
	}
}

func TestClassMethodAndInheritanceWithSuper(t *testing.T) {
	src := `
	class A {
		speak() {
			print "A";
		}
	}
	class B < A {
		speak() {
			super.speak();
			print "B";
		}
	}
	B().speak();
	`
	out, _, err := run(t, src, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "A\nB" {
		t.Errorf("got %q, want \"A\\nB\"", got)
	}
}

func TestRuntimeTypeMismatchReportsLineAndFrame(t *testing.T) {
	out, errOut, err := run(t, `print "s" - 1;`, Config{})
	if !errors.Is(err, ErrRuntime) {
		t.Fatalf("got err=%v, want ErrRuntime", err)
	}
	if out != "" {
		t.Errorf("expected no stdout, got %q", out)
	}
	if !strings.Contains(errOut, "Operands must be numbers.") {
		t.Errorf("stderr missing expected message: %q", errOut)
	}
	if !strings.Contains(errOut, "[line 1] in script") {
		t.Errorf("stderr missing frame trace: %q", errOut)
	}
}

func TestStackOverflowFromUnboundedRecursion(t *testing.T) {
	src := `
	fun recurse() {
		recurse();
	}
	recurse();
	`
	_, errOut, err := run(t, src, Config{})
	if !errors.Is(err, ErrRuntime) {
		t.Fatalf("got err=%v, want ErrRuntime", err)
	}
	if !strings.Contains(errOut, "Stack overflow.") {
		t.Errorf("stderr missing 'Stack overflow.': %q", errOut)
	}
}

func TestWrongArityRuntimeError(t *testing.T) {
	src := `
	fun needsOne(a) { return a; }
	needsOne();
	`
	_, errOut, err := run(t, src, Config{})
	if !errors.Is(err, ErrRuntime) {
		t.Fatalf("got err=%v, want ErrRuntime", err)
	}
	if !strings.Contains(errOut, "Expected 1 arguments but got 0.") {
		t.Errorf("stderr missing arity message: %q", errOut)
	}
}

func TestCompileErrorShortCircuitsExecution(t *testing.T) {
	out, errOut, err := run(t, `print 1; return 1;`, Config{})
	if !errors.Is(err, ErrCompile) {
		t.Fatalf("got err=%v, want ErrCompile", err)
	}
	if out != "" {
		t.Errorf("expected no stdout on a compile error, got %q", out)
	}
	if errOut == "" {
		t.Errorf("expected a diagnostic on stderr")
	}
}

// Two independent duplicate-local mistakes in two unrelated blocks
// must both be reported: one compile-time error must not suppress a
// later, unrelated one in the same compile.
func TestCompileAccumulatesMultipleIndependentErrors(t *testing.T) {
	src := `{ var a; var a; } { var b; var b; }`
	_, errOut, err := run(t, src, Config{})
	if !errors.Is(err, ErrCompile) {
		t.Fatalf("got err=%v, want ErrCompile", err)
	}
	if n := strings.Count(errOut, "Already a variable with this name in this scope."); n != 2 {
		t.Errorf("got %d duplicate-local errors, want 2:\n%s", n, errOut)
	}
}

// StressGC forces a collection before every instruction. Since
// collection only ever frees genuinely unreachable objects, the
// observable program output must be identical whether or not it runs.
func TestGCStressDoesNotChangeObservableOutput(t *testing.T) {
	src := `
	class Node {
		init(value) {
			this.value = value;
		}
	}
	fun build(n) {
		var head = nil;
		var i = 0;
		while (i < n) {
			var node = Node(i);
			head = node;
			i = i + 1;
		}
		return head;
	}
	var last = build(50);
	print last.value;
	`
	outNormal, _, errNormal := run(t, src, Config{})
	outStress, _, errStress := run(t, src, Config{StressGC: true})

	if errNormal != nil || errStress != nil {
		t.Fatalf("unexpected errors: normal=%v stress=%v", errNormal, errStress)
	}
	if outNormal != outStress {
		t.Errorf("stress GC changed output: normal=%q stress=%q", outNormal, outStress)
	}
}

func TestWhileLoopAndReassignment(t *testing.T) {
	out, _, err := run(t, `var i = 0; while (i < 3) { print i; i = i + 1; }`, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "0\n1\n2" {
		t.Errorf("got %q, want \"0\\n1\\n2\"", got)
	}
}
