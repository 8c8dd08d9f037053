// Package schema compiles and applies the embedded kits document JSON
// schema.
package schema

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/kitscan/schema"
)

var (
	kitsSchema  *jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

func compileSchema() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		data, err := schemafs.FS.ReadFile("kits.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("read kits schema: %w", err)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal kits schema: %w", err)
			return
		}

		if err := compiler.AddResource("kits.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add kits schema resource: %w", err)
			return
		}

		kitsSchema, err = compiler.Compile("kits.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile kits schema: %w", err)
			return
		}
	})

	return compileErr
}

// ValidateKits validates v (already-parsed JSON, e.g. via a relaxed
// parser) against the embedded kits schema. On failure it returns one
// human-readable violation line per entry in jsonschema/v6's formatted
// error output, so callers can log "one error per violated schema path"
// per spec.md §4.G without depending on the library's internal error
// tree shape.
func ValidateKits(v any) ([]string, error) {
	if err := compileSchema(); err != nil {
		return nil, err
	}

	err := kitsSchema.Validate(v)
	if err == nil {
		return nil, nil
	}

	return violationLines(err), nil
}

// violationLines splits jsonschema/v6's multi-line Error() output into
// one string per "- at '<path>': <message>" entry, falling back to the
// whole message if the format doesn't match what v6 currently emits.
func violationLines(err error) []string {
	lines := strings.Split(err.Error(), "\n")
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		out = []string{err.Error()}
	}
	return out
}
