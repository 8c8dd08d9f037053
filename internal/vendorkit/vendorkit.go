// Package vendorkit implements the Vendor Kit Builder: crossing enumerated
// vendor installations with a fixed architecture list through the Vendor
// SDK Environment Extractor, and the clang-cl variant scan that pairs each
// installation with an MSVC-compatible Clang driver found on disk.
package vendorkit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AndreyAkinshin/kitscan/internal/executil"
	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/output"
)

// Extract activates the vendor SDK environment for (installation, arch),
// matching vendorenv.Extractor.Extract's signature. Injected so Builder can
// be exercised without shelling out.
type Extract func(ctx context.Context, installation kit.VendorInstallation, arch string, bundledNinjaDir string) (*kit.VariableMap, error)

// Builder implements the Vendor Kit Builder of spec.md §4.E.
type Builder struct {
	extract Extract
	out     *output.Writer
}

// New creates a Builder that activates through extract.
func New(extract Extract, out *output.Writer) *Builder {
	return &Builder{extract: extract, out: out}
}

// Build crosses installations with kit.BuilderArchitectures, invoking the
// extractor for each pair and shaping successful activations into Kits
// carrying a preferred generator. A nil activation (extractor returned a
// nil map, or an error) is skipped, not a scan failure.
func (b *Builder) Build(ctx context.Context, installations []kit.VendorInstallation, bundledNinjaDir string) []*kit.Kit {
	var kits []*kit.Kit
	for _, installation := range installations {
		for _, arch := range kit.BuilderArchitectures {
			vm, err := b.extract(ctx, installation, arch, bundledNinjaDir)
			if err != nil {
				if b.out != nil {
					b.out.Warning("activation failed for %s (%s): %v", installation.DisplayNameFor(), arch, err)
				}
				continue
			}
			if vm == nil {
				continue
			}

			visualStudio := installation.InstanceID
			if major := installation.MajorVersion(); kit.IsLegacyCommonToolsMajor(major) {
				visualStudio = fmt.Sprintf("VisualStudio.%d.0", major)
			}

			k := &kit.Kit{
				Name:                     installation.DisplayNameFor() + " - " + arch,
				VisualStudio:             visualStudio,
				VisualStudioArchitecture: arch,
			}
			if generator, ok := kit.VSMajorToGenerator[installation.MajorVersion()]; ok {
				pg := &kit.PreferredGenerator{Name: generator}
				if platform, ok := kit.ArchitectureToPlatform[arch]; ok {
					pg.Platform = platform
				}
				k.PreferredGenerator = pg
			}
			kits = append(kits, k)
		}
	}
	return kits
}

var clangCLTargetPattern = regexp.MustCompile(`(?m)^Target:\s+(.*)$`)

// probeClangCL runs path's version probe and extracts the target triple,
// mirroring the Compiler Prober's Clang parsing but kept local to this
// package to avoid a cross-component dependency for one regex.
func probeClangCL(ctx context.Context, run func(ctx context.Context, path string, args []string, opts executil.Options) (executil.Result, error), path string) (target string, ok bool) {
	result, err := run(ctx, path, []string{"-v"}, executil.Options{})
	if err != nil || result.ExitCode != 0 {
		return "", false
	}
	m := clangCLTargetPattern.FindStringSubmatch(result.Combined)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// FindClangCL scans searchDirs for files whose basename starts with
// "clang-cl", probes each, and emits one kit per (installation, binary)
// pair per spec.md §4.E's clang-cl variant. Directories that do not exist
// or cannot be listed are skipped silently.
func FindClangCL(ctx context.Context, searchDirs []string, installations []kit.VendorInstallation, run func(ctx context.Context, path string, args []string, opts executil.Options) (executil.Result, error)) []*kit.Kit {
	var binaries []string
	seen := map[string]bool{}
	for _, dir := range searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if !strings.HasPrefix(strings.ToLower(entry.Name()), "clang-cl") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if seen[path] {
				continue
			}
			seen[path] = true
			binaries = append(binaries, path)
		}
	}

	var kits []*kit.Kit
	for _, bin := range binaries {
		target, ok := probeClangCL(ctx, run, bin)
		if !ok {
			continue
		}
		arch := "amd64"
		if strings.Contains(target, "i686-pc") {
			arch = "x86"
		}
		for _, installation := range installations {
			kits = append(kits, &kit.Kit{
				Name:                     installation.DisplayNameFor() + " - clang-cl (" + arch + ")",
				Compilers:                map[string]string{"C": bin, "CXX": bin},
				VisualStudio:             installation.InstanceID,
				VisualStudioArchitecture: arch,
			})
		}
	}
	return kits
}

// ClangCLSearchDirs builds the clang-cl search set of spec.md §4.E:
// LLVM_ROOT\bin, %ProgramFiles%\LLVM\bin, %ProgramFiles(x86)%\LLVM\bin,
// every PATH entry, and every installation's VC\Tools\Llvm\bin, in that
// order with duplicates dropped. Paths are joined with a literal backslash
// rather than filepath.Join, since this set describes Windows paths
// regardless of the host the scanner itself is compiled for.
func ClangCLSearchDirs(env map[string]string, pathEntries []string, installations []kit.VendorInstallation) []string {
	var dirs []string
	seen := map[string]bool{}
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	if root := env["LLVM_ROOT"]; root != "" {
		add(winJoin(root, "bin"))
	}
	if pf := env["ProgramFiles"]; pf != "" {
		add(winJoin(pf, "LLVM", "bin"))
	}
	if pf86 := env["ProgramFiles(x86)"]; pf86 != "" {
		add(winJoin(pf86, "LLVM", "bin"))
	}
	for _, p := range pathEntries {
		add(p)
	}
	for _, installation := range installations {
		add(winJoin(installation.InstallationPath, "VC", "Tools", "Llvm", "bin"))
	}
	return dirs
}

// winJoin concatenates elems with a literal backslash, trimming any
// redundant separators at each boundary.
func winJoin(elems ...string) string {
	var parts []string
	for _, e := range elems {
		e = strings.Trim(e, `\`)
		if e == "" {
			continue
		}
		parts = append(parts, e)
	}
	return strings.Join(parts, `\`)
}
