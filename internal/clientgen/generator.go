// Package clientgen provides a registry of language-specific model code
// generators.
//
// Generators turn registered document types into typed models for client
// code: Go structs carrying the docstore tags that register them again, or
// TypeScript interfaces describing the stored JSON. Generators return a file
// map to support languages that need multiple output files.
//
// This is an internal package used by the docstore CLI. For programmatic code
// generation, use pkg/clientgen which provides a stable public API.
package clientgen

import (
	"fmt"
	"slices"

	"github.com/pthm/docstore/schema"
)

// Generator produces language-specific model code from document types.
//
// Implementations register themselves via Register() in their init()
// function. The CLI dispatches on the --runtime flag.
type Generator interface {
	// Name returns the runtime identifier ("go", "typescript").
	Name() string

	// Generate returns a map of filename -> content for all generated files.
	// The filenames are relative paths (e.g., "models_gen.go").
	Generate(types []*schema.Type, cfg *Config) (map[string][]byte, error)

	// DefaultConfig returns the configuration used when none is given.
	DefaultConfig() *Config
}

// Config holds language-agnostic generation options.
type Config struct {
	// Package is the package/module name for generated code.
	// For Go: package name (e.g., "models")
	// For TypeScript: unused
	Package string

	// Types limits generation to the named types and their parts.
	// If empty, every type is generated.
	Types []string

	// Options holds language-specific configuration.
	Options map[string]any
}

// Select returns the types named by cfg.Types together with their part
// types, or all types when cfg.Types is empty. Order follows types.
func (c *Config) Select(types []*schema.Type) ([]*schema.Type, error) {
	if c == nil || len(c.Types) == 0 {
		return types, nil
	}
	byName := make(map[string]*schema.Type, len(types))
	for _, t := range types {
		byName[t.Name] = t
	}
	keep := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		t, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: %q", schema.ErrUnknownType, name)
		}
		if keep[name] {
			return nil
		}
		keep[name] = true
		for _, p := range t.PartTypes() {
			if err := visit(p); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range c.Types {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return slices.DeleteFunc(slices.Clone(types), func(t *schema.Type) bool {
		return !keep[t.Name]
	}), nil
}

// registry maps runtime names to generators.
var registry = make(map[string]Generator)

// Register adds a generator to the global registry.
// Generators should call this from their init() function.
//
// Panics if a generator with the same name is already registered.
func Register(g Generator) {
	name := g.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("clientgen: generator %q already registered", name))
	}
	registry[name] = g
}

// Get returns the generator for the given runtime name.
// Returns nil if no generator is registered for that name.
func Get(name string) Generator {
	return registry[name]
}

// List returns all registered generator names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Registered returns true if a generator is registered for the given name.
func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}
