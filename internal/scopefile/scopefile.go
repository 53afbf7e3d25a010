// Package scopefile reads and writes the verifier's JSON interchange
// format. Scope files (.arsc.json) carry the resource-relevant AST of a
// compiled program plus standalone pool and contract declarations; the
// front end emits them, the verifier consumes them. Reports are written in
// a separate, flat JSON shape meant for tooling.
package scopefile

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/francoispqt/gojay"

	"github.com/aether-lang/aether/internal/ast"
)

// Extension is the conventional scope file suffix.
const Extension = ".arsc.json"

// schemaRange is the range of schema versions this build understands.
const schemaRange = "^1.0"

// File is one decoded scope file.
type File struct {
	SchemaVersion string
	Pools         []*ast.ResourcePool
	Contracts     []*ast.ResourceContract
	Program       *ast.Program
}

// Read loads and decodes the scope file at path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scope file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes scope file bytes.
func Parse(data []byte) (*File, error) {
	env := newFileEnvelope()
	if err := gojay.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("decode scope file: %w", err)
	}
	if err := checkSchema(env.schemaVersion); err != nil {
		return nil, err
	}
	return env.toFile()
}

// checkSchema gates decoding on a compatible schema version.
func checkSchema(version string) error {
	if version == "" {
		return fmt.Errorf("scope file has no schema_version")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid schema_version %q: %w", version, err)
	}
	constraint, err := semver.NewConstraint(schemaRange)
	if err != nil {
		return fmt.Errorf("invalid schema range %q: %w", schemaRange, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("unsupported schema_version %q, this build accepts %s", version, schemaRange)
	}
	return nil
}
