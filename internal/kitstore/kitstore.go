// Package kitstore implements the Kit Persistence & Diff component:
// loading and validating the on-disk kits document against its embedded
// schema, saving it back out, and deciding whether a kit transition is
// material enough to invalidate cached build state.
package kitstore

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/output"
	"github.com/AndreyAkinshin/kitscan/internal/schema"
)

// Store loads and saves kits documents, logging schema/parse diagnostics
// through out.
type Store struct {
	out *output.Writer
}

// New creates a Store that logs diagnostics to out.
func New(out *output.Writer) *Store {
	return &Store{out: out}
}

// Load implements spec.md §4.G: a missing file returns an empty list; a
// relaxed-JSON parse failure or a schema violation logs diagnostics and
// also returns an empty list rather than a Go error, matching the "whole
// document parse errors surface as empty kit list + user-visible error
// log" policy of §7. Null array entries are dropped before schema
// validation.
func (s *Store) Load(path string) ([]*kit.Kit, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	relaxed := stripRelaxedSyntax(raw)

	var generic any
	if jsonErr := json.Unmarshal(relaxed, &generic); jsonErr != nil {
		s.logError("failed to parse kits document %s: %v", path, jsonErr)
		return nil, nil
	}

	if items, ok := generic.([]any); ok {
		nonNull := make([]any, 0, len(items))
		for _, item := range items {
			if item != nil {
				nonNull = append(nonNull, item)
			}
		}
		generic = nonNull
	}

	issues, err := schema.ValidateKits(generic)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		for _, issue := range issues {
			s.logError("%s: %s", path, issue)
		}
		return nil, nil
	}

	var kits []*kit.Kit
	if jsonErr := json.Unmarshal(relaxed, &kits); jsonErr != nil {
		s.logError("failed to decode kits document %s: %v", path, jsonErr)
		return nil, nil
	}

	result := make([]*kit.Kit, 0, len(kits))
	for _, k := range kits {
		if k != nil {
			result = append(result, k)
		}
	}

	// A hand-edited document can reintroduce the same invariant violations
	// the schema doesn't catch (e.g. two kits sharing a name): resolve them
	// the same way the aggregator does, last-writer-wins with a logged
	// warning, rather than silently persisting two kits under one name.
	return kit.ValidateAll(result, s.out), nil
}

// Merge implements the "destroyed on discovery re-run unless keep is set"
// kit lifecycle rule: fresh is the just-scanned kit list, existing is the
// previously persisted document. Any kit in existing with Keep set and no
// same-named counterpart in fresh is carried forward; everything else in
// existing that fresh didn't re-emit is dropped. fresh's own kits and their
// order are left untouched.
func Merge(fresh, existing []*kit.Kit) []*kit.Kit {
	present := make(map[string]bool, len(fresh))
	for _, k := range fresh {
		if k != nil {
			present[k.Name] = true
		}
	}

	merged := make([]*kit.Kit, len(fresh))
	copy(merged, fresh)
	for _, k := range existing {
		if k == nil || !k.Keep || present[k.Name] {
			continue
		}
		merged = append(merged, k)
	}
	return merged
}

// Save serializes kits as indented JSON, dropping nil entries.
func (s *Store) Save(path string, kits []*kit.Kit) error {
	clean := make([]*kit.Kit, 0, len(kits))
	for _, k := range kits {
		if k != nil {
			clean = append(clean, k)
		}
	}

	data, err := json.MarshalIndent(clean, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

func (s *Store) logError(format string, args ...any) {
	if s.out != nil {
		s.out.Error(format, args...)
	}
}

// ChangeNeedsClean implements spec.md §4.G's change_needs_clean: a nil old
// kit never requires cleanup (first selection); otherwise the comparison
// is restricted to the material tuple
// {compilers, visualStudio, visualStudioArchitecture, toolchainFile,
// preferredGenerator.name} — cmakeSettings and environmentVariables
// changes alone never trigger a clean.
func ChangeNeedsClean(newKit, oldKit *kit.Kit) bool {
	if oldKit == nil {
		return false
	}
	return !materialEqual(newKit, oldKit)
}

func materialEqual(a, b *kit.Kit) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.VisualStudio != b.VisualStudio ||
		a.VisualStudioArchitecture != b.VisualStudioArchitecture ||
		a.ToolchainFile != b.ToolchainFile ||
		a.GeneratorName() != b.GeneratorName() {
		return false
	}
	return stringMapEqual(a.Compilers, b.Compilers)
}

func stringMapEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
