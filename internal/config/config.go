// Package config defines the VM's runtime-tunable settings: garbage
// collector behavior and diagnostic output. Settings load from an
// optional YAML file so a deployment can tune GC thresholds without a
// rebuild; every field has a sane zero-config default.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Version is the current interpreter version, set at build time via
// -ldflags or by editing this file directly for a release.
var Version = "0.1.0"

const SourceFileExt = ".lox"

// HasSourceExt reports whether path ends in the recognized Lox source
// extension.
func HasSourceExt(path string) bool {
	return len(path) >= len(SourceFileExt) && path[len(path)-len(SourceFileExt):] == SourceFileExt
}

// File mirrors the on-disk YAML shape of a VM config file. Zero values
// throughout mean "use the default," so an empty or partial file is
// always valid.
type File struct {
	GC struct {
		StressTest     bool `yaml:"stress_test"`
		LogStats       bool `yaml:"log_stats"`
		InitialThreshold int `yaml:"initial_threshold"`
	} `yaml:"gc"`
	Output struct {
		Color *bool `yaml:"color"`
	} `yaml:"output"`
	Debug struct {
		Disassemble bool `yaml:"disassemble"`
	} `yaml:"debug"`
}

// Load reads a YAML config file at path, returning defaults unchanged
// if path is empty or the file does not exist — only a malformed file
// that does exist is treated as an error.
func Load(path string) (File, error) {
	var f File
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, err
	}
	return f, nil
}
