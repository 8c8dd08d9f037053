// Package compiler implements the Compiler Prober: classifying a candidate
// binary, running its version probe, parsing vendor-specific free-form
// output into a structured identity, and detecting sibling tools.
package compiler

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AndreyAkinshin/kitscan/internal/executil"
	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/output"
)

// Family identifies which compiler vendor produced a probed binary.
type Family string

const (
	FamilyGCC   Family = "GCC"
	FamilyClang Family = "Clang"
)

// Identity is the structured result of parsing a compiler's version probe
// output.
type Identity struct {
	Family       Family
	Version      string
	FullVersion  string
	Target       string
	ThreadModel  string
	InstalledDir string
}

var (
	gccNamePattern   = regexp.MustCompile(`^((?:[a-zA-Z0-9_]+-)*)gcc(?:-\d+(?:\.\d+)*)?(?:\.exe)?$`)
	clangNamePattern = regexp.MustCompile(`^clang(?:-\d+(?:\.\d+)*)?(?:\.exe)?$`)

	gccVersionPattern   = regexp.MustCompile(`(?m)^gcc version (\S+) .*`)
	clangVersionPattern = regexp.MustCompile(`(?m)^(?:Apple LLVM|Apple clang|clang) version (\S+)[\s-]`)
	clangTargetPattern  = regexp.MustCompile(`(?m)^Target:\s+(.*)$`)
	clangThreadPattern  = regexp.MustCompile(`(?m)^Thread model:\s+(.*)$`)
	clangInstallPattern = regexp.MustCompile(`(?m)^InstalledDir:\s+(.*)$`)
)

// classify reports which family a candidate's basename belongs to and, for
// GCC, the cross-compile triple prefix embedded in the basename (e.g.
// "arm-none-eabi" for "arm-none-eabi-gcc"), used to build the kit's display
// name per spec.md §4.B step 8.
func classify(basename string) (Family, string) {
	if m := gccNamePattern.FindStringSubmatch(basename); m != nil {
		return FamilyGCC, strings.TrimSuffix(m[1], "-")
	}
	if clangNamePattern.MatchString(basename) {
		return FamilyClang, ""
	}
	return "", ""
}

// Prober runs candidate binaries and parses their output into Kits.
type Prober struct {
	out *output.Writer
	run func(ctx context.Context, path string, args []string, opts executil.Options) (executil.Result, error)
}

// New creates a Prober that shells out via executil.Run.
func New(out *output.Writer) *Prober {
	return &Prober{out: out, run: executil.Run}
}

// Probe classifies bin, runs its version probe, and returns the resulting
// Kit, or nil if bin is not a supported compiler driver, the probe exits
// non-zero, or the output is unrecognizable. isWindows controls the
// MinGW-augmentation branch, which only runs on Windows; a Clang whose
// target contains "msvc" is rejected on every host.
func (p *Prober) Probe(ctx context.Context, bin string, isWindows bool) (*kit.Kit, error) {
	basename := filepath.Base(bin)
	family, triple := classify(basename)
	if family == "" {
		return nil, nil
	}

	result, err := p.run(ctx, bin, []string{"-v"}, executil.Options{})
	if err != nil {
		// The binary could not even be started: ENOENT/EACCES and Windows
		// UNKNOWN are absorbed as null by the caller (scanner layer); other
		// I/O errors are surfaced so the scan layer can log them.
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, nil
	}

	identity, ok := parse(family, result.Combined)
	if !ok {
		return nil, nil
	}

	if family == FamilyClang && strings.Contains(identity.Target, "msvc") {
		// The MSVC-compatible driver form (clang-cl) is handled separately
		// by the Vendor Kit Builder; a plain clang targeting msvc here is
		// not a usable standalone kit.
		return nil, nil
	}

	k := &kit.Kit{
		Compilers: map[string]string{"C": bin},
	}

	if sibling := siblingCXX(bin, family); sibling != "" {
		k.Compilers["CXX"] = sibling
	}

	k.Name = name(family, triple, identity)

	if family == FamilyGCC && isWindows && strings.Contains(strings.ToLower(bin), "mingw") {
		p.augmentMinGW(ctx, bin, k)
	}

	return k, nil
}

func parse(family Family, output string) (Identity, bool) {
	switch family {
	case FamilyGCC:
		m := gccVersionPattern.FindStringSubmatch(output)
		if m == nil {
			return Identity{}, false
		}
		return Identity{Family: FamilyGCC, Version: m[1], FullVersion: m[1]}, true
	case FamilyClang:
		m := clangVersionPattern.FindStringSubmatch(output)
		if m == nil {
			return Identity{}, false
		}
		id := Identity{Family: FamilyClang, Version: m[1], FullVersion: m[1]}
		if tm := clangTargetPattern.FindStringSubmatch(output); tm != nil {
			id.Target = strings.TrimSpace(tm[1])
		}
		if tm := clangThreadPattern.FindStringSubmatch(output); tm != nil {
			id.ThreadModel = strings.TrimSpace(tm[1])
		}
		if tm := clangInstallPattern.FindStringSubmatch(output); tm != nil {
			id.InstalledDir = strings.TrimSpace(tm[1])
		}
		return id, true
	default:
		return Identity{}, false
	}
}

func name(family Family, triple string, id Identity) string {
	switch family {
	case FamilyGCC:
		if triple != "" {
			return "GCC [for " + triple + " ]" + id.Version
		}
		return "GCC " + id.Version
	case FamilyClang:
		return "Clang " + id.Version
	default:
		return ""
	}
}

// siblingCXX replaces the gcc/clang basename component with its C++
// counterpart and returns the sibling path if it exists in the same
// directory.
func siblingCXX(bin string, family Family) string {
	dir := filepath.Dir(bin)
	basename := filepath.Base(bin)

	var siblingName string
	switch family {
	case FamilyGCC:
		siblingName = strings.Replace(basename, "gcc", "g++", 1)
	case FamilyClang:
		siblingName = strings.Replace(basename, "clang", "clang++", 1)
	default:
		return ""
	}
	if siblingName == basename {
		return ""
	}
	siblingPath := filepath.Join(dir, siblingName)
	if fi, err := os.Stat(siblingPath); err == nil && !fi.IsDir() {
		return siblingPath
	}
	return ""
}

// augmentMinGW implements spec.md §4.B step 9: looks for mingw32-make.exe
// alongside bin, runs it with -v under a PATH restricted to that sibling
// directory, and on success records the MinGW Makefiles preferred
// generator plus CMT_MINGW_PATH.
func (p *Prober) augmentMinGW(ctx context.Context, bin string, k *kit.Kit) {
	dir := filepath.Dir(bin)
	makePath := filepath.Join(dir, "mingw32-make.exe")
	if fi, err := os.Stat(makePath); err != nil || fi.IsDir() {
		return
	}

	result, err := p.run(ctx, makePath, []string{"-v"}, executil.Options{Env: []string{"PATH=" + dir}})
	if err != nil {
		if p.out != nil {
			p.out.Warning("failed to probe %s: %v", makePath, err)
		}
		return
	}
	if result.ExitCode != 0 {
		return
	}

	lines := strings.SplitN(result.Combined, "\n", 3)
	if len(lines) < 2 || !strings.Contains(lines[0], "Make") || !strings.Contains(lines[1], "mingw32") {
		return
	}

	k.PreferredGenerator = &kit.PreferredGenerator{Name: "MinGW Makefiles"}
	k.EnvironmentVariables = map[string]string{"CMT_MINGW_PATH": dir}
}
