// Package kitscan is the small public facade external collaborators (a
// CLI shell, a build-generator driver) use to drive discovery and
// environment synthesis without reaching into kitscan's internal
// packages. It re-exports just enough of the Kit model and the
// component entry points to scan, persist, and materialize a kit's
// effective environment.
package kitscan

import (
	"context"

	"github.com/AndreyAkinshin/kitscan/internal/kit"
	aggregator "github.com/AndreyAkinshin/kitscan/internal/kitscan"
	"github.com/AndreyAkinshin/kitscan/internal/kitenv"
	"github.com/AndreyAkinshin/kitscan/internal/kitstore"
	"github.com/AndreyAkinshin/kitscan/internal/output"
)

// Kit is the on-disk and in-memory record describing a complete toolchain
// selection. See internal/kit for field documentation.
type Kit = kit.Kit

// VariableMap is an ordered, optionally case-insensitive environment map.
type VariableMap = kit.VariableMap

// VendorInstallation describes one discovered vendor SDK installation,
// normally obtained from an external installation enumerator.
type VendorInstallation = kit.VendorInstallation

// ScanOptions parameterizes Scan.
type ScanOptions = aggregator.Options

// EnvRequest parameterizes EffectiveEnv.
type EnvRequest = kitenv.Request

// Expand resolves a workspace-variable template against a variable set,
// an external collaborator supplied by the caller.
type Expand = kitenv.Expand

// Writer is the diagnostic sink used by every facade function below.
// Passing nil turns off the diagnostics the underlying components log.
type Writer = output.Writer

// Scan runs the full discovery pipeline (compiler probing, vendor SDK
// activation, clang-cl detection) and returns the aggregated kit list.
func Scan(ctx context.Context, opts ScanOptions, out *Writer) []*Kit {
	return aggregator.NewDefault(out).Scan(ctx, opts)
}

// Load reads and validates the kits document at path, returning an empty
// list (not an error) for a missing file, a parse failure, or a schema
// violation — diagnostics for the latter two are logged through out.
func Load(path string, out *Writer) ([]*Kit, error) {
	return kitstore.New(out).Load(path)
}

// Save serializes kits as an indented JSON document at path.
func Save(path string, kits []*Kit, out *Writer) error {
	return kitstore.New(out).Save(path, kits)
}

// Merge combines a freshly scanned kit list with a previously persisted
// one: any existing kit marked Keep that fresh didn't re-emit (by name) is
// carried forward, implementing the "destroyed on discovery re-run unless
// keep is set" kit lifecycle rule. Callers that save to the same path a
// scan is re-run against should Load the existing document, call Merge,
// and Save the result rather than saving the fresh list directly.
func Merge(fresh, existing []*Kit) []*Kit {
	return kitstore.Merge(fresh, existing)
}

// ChangeNeedsClean reports whether replacing oldKit with newKit changes
// enough of the material selection (compilers, vendor SDK, toolchain
// file, preferred generator) that cached build state must be discarded.
func ChangeNeedsClean(newKit, oldKit *Kit) bool {
	return kitstore.ChangeNeedsClean(newKit, oldKit)
}

// EffectiveEnv materializes the environment a build driver should invoke
// a kit's compilers with: host environment, kit overrides, and (for a
// vendor SDK kit) the vendor activation environment.
func EffectiveEnv(ctx context.Context, k *Kit, req EnvRequest, out *Writer) (*VariableMap, error) {
	return kitenv.NewDefault(out).EffectiveEnv(ctx, k, req)
}

// FindCl locates cl.exe within env's PATH/PATHEXT, or reports false.
func FindCl(env *VariableMap) (string, bool) {
	return kitenv.FindCl(env)
}
