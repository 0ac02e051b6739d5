// Package clientgen generates typed model code from docstore document types.
//
// Generated Go structs carry the docstore tags that register them again, so
// a schema kept in YAML can be turned into Go models:
//
//	reg := schema.NewRegistry()
//	_ = parser.LoadSchema(reg, "docstore.schema.yaml")
//	files, _ := clientgen.Generate("go", reg.Types(), &clientgen.Config{Package: "models"})
//	_ = os.WriteFile("models/models_gen.go", files["models_gen.go"], 0o644)
//
// The generated file should be committed so builds do not need the schema.
package clientgen

import (
	"fmt"

	"github.com/pthm/docstore/internal/clientgen"
	_ "github.com/pthm/docstore/internal/clientgen/go"
	_ "github.com/pthm/docstore/internal/clientgen/typescript"
	"github.com/pthm/docstore/schema"
)

// Config is an alias for the generator configuration.
type Config = clientgen.Config

// Generate produces model code for the given runtime ("go", "typescript").
// It returns a map of relative file names to contents.
func Generate(runtime string, types []*schema.Type, cfg *Config) (map[string][]byte, error) {
	g := clientgen.Get(runtime)
	if g == nil {
		return nil, fmt.Errorf("unknown runtime %q (supported: %v)", runtime, clientgen.List())
	}
	return g.Generate(types, cfg)
}

// DefaultConfig returns the defaults of the given runtime, or nil if the
// runtime is unknown.
func DefaultConfig(runtime string) *Config {
	g := clientgen.Get(runtime)
	if g == nil {
		return nil
	}
	return g.DefaultConfig()
}

// ListRuntimes returns the supported runtime names, sorted.
func ListRuntimes() []string {
	return clientgen.List()
}

// Registered reports whether a generator exists for the runtime.
func Registered(runtime string) bool {
	return clientgen.Registered(runtime)
}
