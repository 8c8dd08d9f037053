// Package kitenv implements the Kit Effective-Environment Composer:
// layering the host process environment, a kit's declared environment
// overrides, and (for a Visual Studio kit) the vendor SDK activation
// environment into the single VariableMap an external build driver
// actually invokes the compiler with.
package kitenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/output"
	"github.com/AndreyAkinshin/kitscan/internal/pathresolver"
	"github.com/AndreyAkinshin/kitscan/internal/vendorenv"
)

// Expand resolves a workspace-variable template (e.g. "${workspaceFolder}")
// against vars. It is an external collaborator (spec.md §6's expand());
// Composer never interprets the template syntax itself.
type Expand func(template string, vars map[string]string) (string, error)

// Extract matches (*vendorenv.Extractor).Extract's signature, injected so
// Composer can be exercised against a stub in tests.
type Extract func(ctx context.Context, installation kit.VendorInstallation, arch string, bundledNinjaDir string) (*kit.VariableMap, error)

// Composer implements the Effective Environment Composer of spec.md §4.H.
type Composer struct {
	extract Extract
	out     *output.Writer
	upper   cases.Caser
}

// New creates a Composer from an explicit Extract collaborator.
func New(extract Extract, out *output.Writer) *Composer {
	return &Composer{extract: extract, out: out, upper: cases.Upper(language.Und)}
}

// NewDefault wires the real Vendor SDK Environment Extractor.
func NewDefault(out *output.Writer) *Composer {
	resolver := pathresolver.New(out)
	extractor := vendorenv.New(resolver, out)
	return New(extractor.Extract, out)
}

// Request bundles EffectiveEnv's inputs beyond the kit itself.
type Request struct {
	// HostEnv is the process environment as "KEY=VALUE" pairs, e.g.
	// os.Environ(); nil means an empty host environment.
	HostEnv []string
	// IsWindows selects case-insensitive PATH/Path/path folding and the
	// vendor-SDK uppercase-on-merge rule.
	IsWindows bool
	// Installation is the resolved vendor installation for k.VisualStudio,
	// looked up by the caller through the external vendor_installations()
	// collaborator. Nil if k has no visualStudio selector or the caller
	// could not resolve it.
	Installation *kit.VendorInstallation
	// BundledNinjaDir is forwarded to the Vendor SDK Environment Extractor
	// (spec.md §4.D step 5's PATH append), as resolved by the Path
	// Resolver's ResolveCMake.
	BundledNinjaDir string
	// Expand, if non-nil, runs each of kit.EnvironmentVariables' values
	// through workspace-variable substitution before merging.
	Expand     Expand
	ExpandVars map[string]string
}

// EffectiveEnv implements spec.md §4.H's effective_env: host env, then the
// kit's declared environment overrides (optionally expanded), then, for a
// kit with a vendor SDK selector, the vendor activation environment
// (uppercase-folded on Windows), finally patching CMT_MINGW_PATH into
// whichever of PATH/Path is present.
func (c *Composer) EffectiveEnv(ctx context.Context, k *kit.Kit, req Request) (*kit.VariableMap, error) {
	vm := kit.NewVariableMap(req.IsWindows)

	for _, pair := range req.HostEnv {
		name, value, ok := splitEnvPair(pair)
		if ok {
			vm.Set(name, value)
		}
	}

	if k != nil {
		names := make([]string, 0, len(k.EnvironmentVariables))
		for name := range k.EnvironmentVariables {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := k.EnvironmentVariables[name]
			if req.Expand != nil {
				expanded, err := req.Expand(value, req.ExpandVars)
				if err != nil {
					return nil, fmt.Errorf("expand %q for kit %q: %w", name, k.Name, err)
				}
				value = expanded
			}
			vm.Set(name, value)
		}
	}

	if k != nil && k.VisualStudio != "" && k.VisualStudioArchitecture != "" && req.Installation != nil {
		sdkEnv, err := c.extract(ctx, *req.Installation, k.VisualStudioArchitecture, req.BundledNinjaDir)
		if err != nil {
			return nil, err
		}
		for _, name := range sdkEnv.Keys() {
			value, _ := sdkEnv.Get(name)
			mergeName := name
			if req.IsWindows {
				mergeName = c.upper.String(name)
			}
			vm.Set(mergeName, value)
		}
	}

	patchMinGWPath(vm)

	return vm, nil
}

// patchMinGWPath implements spec.md §4.H step 4: if the merged map
// contains CMT_MINGW_PATH, its value is appended (as ";<value>") to
// whichever of PATH or Path is present, preferring PATH. Absent either,
// nothing happens — the spec does not invent a PATH entry from nothing.
func patchMinGWPath(vm *kit.VariableMap) {
	mingwPath, ok := vm.Get("CMT_MINGW_PATH")
	if !ok || mingwPath == "" {
		return
	}

	target := ""
	for _, name := range vm.Keys() {
		if name == "PATH" {
			target = "PATH"
			break
		}
	}
	if target == "" {
		for _, name := range vm.Keys() {
			if name == "Path" {
				target = "Path"
				break
			}
		}
	}
	if target == "" {
		return
	}

	existing, _ := vm.Get(target)
	vm.Set(target, existing+";"+mingwPath)
}

func splitEnvPair(pair string) (name, value string, ok bool) {
	idx := strings.IndexByte(pair, '=')
	if idx < 0 {
		return "", "", false
	}
	return pair[:idx], pair[idx+1:], true
}

// FindCl implements spec.md §4.H's find_cl: locate PATH and PATHEXT
// case-insensitively, then for each directory and each extension test
// whether "<dir>/cl<ext>" exists and is not a directory, returning the
// first hit.
func FindCl(env *kit.VariableMap) (string, bool) {
	pathVar, ok := findCaseInsensitive(env, "PATH")
	if !ok {
		return "", false
	}
	pathExt, ok := findCaseInsensitive(env, "PATHEXT")
	if !ok {
		pathExt = ".exe"
	}

	dirs := splitPathList(pathVar)
	exts := splitPathList(pathExt)
	if len(exts) == 0 {
		exts = []string{""}
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, ext := range exts {
			candidate := filepath.Join(dir, "cl"+ext)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

func findCaseInsensitive(env *kit.VariableMap, name string) (string, bool) {
	if v, ok := env.Get(name); ok {
		return v, true
	}
	for _, key := range env.Keys() {
		if strings.EqualFold(key, name) {
			v, _ := env.Get(key)
			return v, true
		}
	}
	return "", false
}

func splitPathList(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ";")
}
