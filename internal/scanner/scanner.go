// Package scanner implements the Directory Scanner: enumerating candidate
// binaries in a directory and applying a prober to each, tolerating
// permission and non-existence errors.
package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/output"
	"github.com/AndreyAkinshin/kitscan/internal/parallel"
)

// Probe classifies and probes a single file path, returning a Kit or nil.
type Probe func(ctx context.Context, path string) (*kit.Kit, error)

// ScanDirectory lists dir's entries and applies probe to each in parallel,
// using a bounded worker pool sized to runtime.NumCPU() and overridable via
// KITSCAN_PARALLEL (the same channel-as-semaphore pattern the teacher's
// runner package uses for target execution). Nulls are dropped. A probe
// error for a missing or permission-denied file yields no kit silently; any
// other probe error is logged. Neither aborts the scan.
func ScanDirectory(ctx context.Context, dir string, probe Probe, out *output.Writer) []*kit.Kit {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil
		}
		if out != nil {
			out.Warning("failed to list %s: %v", dir, err)
		}
		return nil
	}

	sem := make(chan struct{}, parallel.Workers(out))

	var mu sync.Mutex
	var wg sync.WaitGroup
	var results []*kit.Kit

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		wg.Add(1)
		go func(path string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			k, err := probe(ctx, path)
			if err != nil {
				absorbed := errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission)
				if !absorbed && out != nil {
					out.Warning("probe failed for %s: %v", path, err)
				}
				return
			}
			if k == nil {
				return
			}

			mu.Lock()
			results = append(results, k)
			mu.Unlock()
		}(path)
	}

	wg.Wait()
	return results
}
