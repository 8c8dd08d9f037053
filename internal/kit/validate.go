package kit

import (
	"fmt"

	"github.com/AndreyAkinshin/kitscan/internal/output"
)

// ValidationError reports a single kits-document invariant violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a single Kit against the invariants of the data model:
// non-empty name, at least one of compilers/visualStudio/toolchainFile,
// and visualStudioArchitecture required iff visualStudio is set and must
// be one of the enumerated architecture tokens.
func (k *Kit) Validate() error {
	if k.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}

	hasCompilers := len(k.Compilers) > 0
	hasVisualStudio := k.VisualStudio != ""
	hasToolchainFile := k.ToolchainFile != ""

	if !hasCompilers && !hasVisualStudio && !hasToolchainFile {
		return &ValidationError{
			Field:   k.Name,
			Message: "at least one of compilers, visualStudio, or toolchainFile must be present",
		}
	}

	if hasVisualStudio {
		if k.VisualStudioArchitecture == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("%s.visualStudioArchitecture", k.Name),
				Message: "is required when visualStudio is set",
			}
		}
		if !IsValidArchitecture(k.VisualStudioArchitecture) {
			return &ValidationError{
				Field:   fmt.Sprintf("%s.visualStudioArchitecture", k.Name),
				Message: fmt.Sprintf("must be one of the enumerated architecture tokens, got %q", k.VisualStudioArchitecture),
			}
		}
	} else if k.VisualStudioArchitecture != "" {
		return &ValidationError{
			Field:   fmt.Sprintf("%s.visualStudioArchitecture", k.Name),
			Message: "must not be set without visualStudio",
		}
	}

	return nil
}

// ValidateAll validates each kit, dropping the ones that fail with a
// logged warning, and enforces name uniqueness across the set by actually
// resolving collisions last-writer-wins: a later kit with a name already
// seen replaces the earlier one in place, and a warning is logged for each
// collision. out may be nil, in which case nothing is logged.
func ValidateAll(kits []*Kit, out *output.Writer) []*Kit {
	indexByName := make(map[string]int, len(kits))
	resolved := make([]*Kit, 0, len(kits))
	for _, k := range kits {
		if k == nil {
			continue
		}
		if err := k.Validate(); err != nil {
			if out != nil {
				out.Warning("dropping invalid kit: %v", err)
			}
			continue
		}
		if idx, ok := indexByName[k.Name]; ok {
			if out != nil {
				out.Warning("duplicate kit name %q: keeping the later entry", k.Name)
			}
			resolved[idx] = k
			continue
		}
		indexByName[k.Name] = len(resolved)
		resolved = append(resolved, k)
	}
	return resolved
}
