package vm

import "github.com/si0005hp/lox/internal/config"

// Config governs GC tuning and diagnostic output for one VM instance.
type Config struct {
	StressGC         bool
	LogGC            bool
	InitialThreshold int
	Color            bool
	DumpBytecode     bool
}

// ConfigFromFile translates a loaded config.File into a vm.Config,
// applying the defaultGCThreshold when the file didn't set one.
func ConfigFromFile(f config.File) Config {
	cfg := Config{
		StressGC:         f.GC.StressTest,
		LogGC:            f.GC.LogStats,
		InitialThreshold: f.GC.InitialThreshold,
		Color:            true,
		DumpBytecode:     f.Debug.Disassemble,
	}
	if cfg.InitialThreshold == 0 {
		cfg.InitialThreshold = defaultGCThreshold
	}
	if f.Output.Color != nil {
		cfg.Color = *f.Output.Color
	}
	return cfg
}

// applyThreshold seeds the heap's adaptive GC threshold from config,
// called once right after New.
func (vm *VM) applyThreshold() {
	vm.heap.nextGC = vm.config.InitialThreshold
}
