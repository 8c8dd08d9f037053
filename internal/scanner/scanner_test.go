package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/AndreyAkinshin/kitscan/internal/kit"
)

func TestScanDirectory_MissingDirReturnsEmpty(t *testing.T) {
	got := ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, nil)
	if len(got) != 0 {
		t.Errorf("ScanDirectory() = %v, want empty", got)
	}
}

func TestScanDirectory_NotADirectoryReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notadir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	got := ScanDirectory(context.Background(), file, nil, nil)
	if len(got) != 0 {
		t.Errorf("ScanDirectory() = %v, want empty", got)
	}
}

func TestScanDirectory_AppliesProbeToEachEntry(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"gcc-9", "clang", "README"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0755); err != nil {
			t.Fatal(err)
		}
	}

	var calls atomic.Int32
	probe := func(ctx context.Context, path string) (*kit.Kit, error) {
		calls.Add(1)
		base := filepath.Base(path)
		if base == "README" {
			return nil, nil
		}
		return &kit.Kit{Name: base, Compilers: map[string]string{"C": path}}, nil
	}

	got := ScanDirectory(context.Background(), dir, probe, nil)
	if calls.Load() != 3 {
		t.Errorf("probe called %d times, want 3", calls.Load())
	}
	if len(got) != 2 {
		t.Errorf("ScanDirectory() returned %d kits, want 2 (README should be dropped)", len(got))
	}
}

func TestScanDirectory_ProbeErrorDoesNotAbortScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0755); err != nil {
			t.Fatal(err)
		}
	}

	probe := func(ctx context.Context, path string) (*kit.Kit, error) {
		if filepath.Base(path) == "b" {
			return nil, errors.New("boom")
		}
		return &kit.Kit{Name: filepath.Base(path), Compilers: map[string]string{"C": path}}, nil
	}

	got := ScanDirectory(context.Background(), dir, probe, nil)
	if len(got) != 2 {
		t.Errorf("ScanDirectory() returned %d kits, want 2 (one probe failed but scan continued)", len(got))
	}
}

func TestScanDirectory_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	probe := func(ctx context.Context, path string) (*kit.Kit, error) {
		calls.Add(1)
		return nil, nil
	}

	ScanDirectory(context.Background(), dir, probe, nil)
	if calls.Load() != 0 {
		t.Errorf("probe called %d times, want 0 (subdirectories should be skipped)", calls.Load())
	}
}
