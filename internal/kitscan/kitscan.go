// Package kitscan implements the Kit Aggregator: composing the Path
// Resolver, Compiler Prober, Directory Scanner, Vendor SDK Environment
// Extractor, and Vendor Kit Builder into a single scan() entry point.
package kitscan

import (
	"context"
	"sync"

	"github.com/AndreyAkinshin/kitscan/internal/compiler"
	"github.com/AndreyAkinshin/kitscan/internal/executil"
	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/output"
	"github.com/AndreyAkinshin/kitscan/internal/parallel"
	"github.com/AndreyAkinshin/kitscan/internal/pathresolver"
	"github.com/AndreyAkinshin/kitscan/internal/scanner"
	"github.com/AndreyAkinshin/kitscan/internal/vendorenv"
	"github.com/AndreyAkinshin/kitscan/internal/vendorkit"
)

// ProbeFunc matches (*compiler.Prober).Probe's signature, injected so the
// aggregator can be exercised against a stub in tests.
type ProbeFunc func(ctx context.Context, path string, isWindows bool) (*kit.Kit, error)

// VendorBuildFunc matches (*vendorkit.Builder).Build's signature.
type VendorBuildFunc func(ctx context.Context, installations []kit.VendorInstallation, bundledNinjaDir string) []*kit.Kit

// ClangCLFunc matches vendorkit.FindClangCL's signature, minus the run
// collaborator (bound at construction time).
type ClangCLFunc func(ctx context.Context, searchDirs []string, installations []kit.VendorInstallation) []*kit.Kit

// Options parameterizes a single scan.
type Options struct {
	// PathEntries are the host-appropriate PATH directories to scan for
	// compiler drivers, in PATH order.
	PathEntries []string
	// MinGWSearchDirs are additional directories whose "/bin" subdirectory
	// is scanned in addition to PathEntries, when IsWindows is set.
	MinGWSearchDirs []string
	IsWindows       bool
	Installations   []kit.VendorInstallation
	// ClangCLSearchDirs is the precomputed clang-cl search set (see
	// vendorkit.ClangCLSearchDirs); only consulted when IsWindows is set.
	ClangCLSearchDirs []string
	BundledNinjaDir   string
}

// Aggregator implements the Kit Aggregator of spec.md §4.F.
type Aggregator struct {
	probe       ProbeFunc
	vendorBuild VendorBuildFunc
	clangCL     ClangCLFunc
	out         *output.Writer
}

// New creates an Aggregator from explicit collaborators, for testing or for
// callers that want to swap in their own installation enumerator plumbing.
func New(probe ProbeFunc, vendorBuild VendorBuildFunc, clangCL ClangCLFunc, out *output.Writer) *Aggregator {
	return &Aggregator{probe: probe, vendorBuild: vendorBuild, clangCL: clangCL, out: out}
}

// NewDefault wires the real Compiler Prober, Vendor SDK Environment
// Extractor, and Vendor Kit Builder together, shelling out via executil.
func NewDefault(out *output.Writer) *Aggregator {
	resolver := pathresolver.New(out)
	prober := compiler.New(out)
	extractor := vendorenv.New(resolver, out)
	builder := vendorkit.New(extractor.Extract, out)

	clangCL := func(ctx context.Context, searchDirs []string, installations []kit.VendorInstallation) []*kit.Kit {
		return vendorkit.FindClangCL(ctx, searchDirs, installations, executil.Run)
	}

	return New(prober.Probe, builder.Build, clangCL, out)
}

// Scan implements spec.md §4.F: directories are scanned with bounded
// parallelism, preserving the insertion order of the deduplicated scan-path
// set; on Windows the Vendor Kit Builder and clang-cl builder additionally
// run concurrently with the directory scans. The final list concatenates
// compiler kits, then vendor kits, then clang-cl kits.
func (a *Aggregator) Scan(ctx context.Context, opts Options) []*kit.Kit {
	dirs := buildScanDirs(opts)
	probe := func(ctx context.Context, path string) (*kit.Kit, error) {
		return a.probe(ctx, path, opts.IsWindows)
	}

	var wg sync.WaitGroup
	var vendorKits, clangKits []*kit.Kit

	if opts.IsWindows {
		wg.Add(2)
		go func() {
			defer wg.Done()
			vendorKits = a.vendorBuild(ctx, opts.Installations, opts.BundledNinjaDir)
		}()
		go func() {
			defer wg.Done()
			clangKits = a.clangCL(ctx, opts.ClangCLSearchDirs, opts.Installations)
		}()
	}

	compileKits := scanDirsParallel(ctx, dirs, probe, a.out)
	wg.Wait()

	all := make([]*kit.Kit, 0, len(compileKits)+len(vendorKits)+len(clangKits))
	all = append(all, compileKits...)
	all = append(all, vendorKits...)
	all = append(all, clangKits...)

	// Compiler, vendor, and clang-cl kits are built independently and can
	// land on the same name (e.g. a vendor-supplied clang-cl picked up by
	// both the Vendor Kit Builder and a bare PATH scan). Name uniqueness is
	// enforced here, last-writer-wins, with a logged warning per collision.
	return kit.ValidateAll(all, a.out)
}

// scanDirsParallel applies scanner.ScanDirectory to each directory with a
// bounded worker pool (sized to runtime.NumCPU(), overridable via
// KITSCAN_PARALLEL), preserving dirs' order in the concatenated result
// regardless of goroutine completion order — mirroring the teacher's
// runner.runParallel ordering discipline one level up from the Directory
// Scanner's own internal fan-out.
func scanDirsParallel(ctx context.Context, dirs []string, probe scanner.Probe, out *output.Writer) []*kit.Kit {
	results := make([][]*kit.Kit, len(dirs))

	sem := make(chan struct{}, parallel.Workers(out))

	var wg sync.WaitGroup
	for i, dir := range dirs {
		wg.Add(1)
		go func(i int, dir string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			results[i] = scanner.ScanDirectory(ctx, dir, probe, out)
		}(i, dir)
	}
	wg.Wait()

	var all []*kit.Kit
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// buildScanDirs implements spec.md §4.F step 1: the deduplicated,
// insertion-ordered set of PATH directories, plus each MinGW search
// directory's "/bin" subdirectory when scanning a Windows host. The
// literal forward slash (rather than a host path join) matches the
// reference behavior exactly.
func buildScanDirs(opts Options) []string {
	var dirs []string
	seen := map[string]bool{}
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for _, p := range opts.PathEntries {
		add(p)
	}
	if opts.IsWindows {
		for _, m := range opts.MinGWSearchDirs {
			add(m + "/bin")
		}
	}
	return dirs
}
