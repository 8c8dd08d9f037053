package kitenv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/output"
)

func TestEffectiveEnv_HostThenKitOverrides(t *testing.T) {
	t.Parallel()

	c := New(nil, output.New())
	k := &kit.Kit{
		Name: "gcc",
		EnvironmentVariables: map[string]string{
			"FOO": "kit-value",
			"NEW": "added",
		},
	}

	env, err := c.EffectiveEnv(context.Background(), k, Request{
		HostEnv:   []string{"FOO=host-value", "UNRELATED=1"},
		IsWindows: false,
	})
	if err != nil {
		t.Fatalf("EffectiveEnv() error = %v", err)
	}

	if v, _ := env.Get("FOO"); v != "kit-value" {
		t.Errorf("FOO = %q, want kit override to win over host", v)
	}
	if v, _ := env.Get("NEW"); v != "added" {
		t.Errorf("NEW = %q, want %q", v, "added")
	}
	if v, _ := env.Get("UNRELATED"); v != "1" {
		t.Errorf("UNRELATED = %q, want %q", v, "1")
	}
}

func TestEffectiveEnv_ExpandsKitValues(t *testing.T) {
	t.Parallel()

	c := New(nil, output.New())
	k := &kit.Kit{
		Name:                 "gcc",
		EnvironmentVariables: map[string]string{"OUT": "${workspaceFolder}/build"},
	}

	expand := func(template string, vars map[string]string) (string, error) {
		return vars["workspaceFolder"] + "/build", nil
	}

	env, err := c.EffectiveEnv(context.Background(), k, Request{
		Expand:     expand,
		ExpandVars: map[string]string{"workspaceFolder": "/repo"},
	})
	if err != nil {
		t.Fatalf("EffectiveEnv() error = %v", err)
	}
	if v, _ := env.Get("OUT"); v != "/repo/build" {
		t.Errorf("OUT = %q, want %q", v, "/repo/build")
	}
}

func TestEffectiveEnv_MergesVendorSDKAndUppercasesOnWindows(t *testing.T) {
	t.Parallel()

	extract := func(ctx context.Context, installation kit.VendorInstallation, arch string, bundledNinjaDir string) (*kit.VariableMap, error) {
		vm := kit.NewVariableMap(true)
		vm.Set("Include", `C:\VS\Include`)
		vm.Set("Lib", `C:\VS\Lib`)
		return vm, nil
	}
	c := New(extract, output.New())

	k := &kit.Kit{
		Name:                     "vs2019-amd64",
		VisualStudio:             "abcd",
		VisualStudioArchitecture: "amd64",
	}
	installation := &kit.VendorInstallation{InstanceID: "abcd", InstallationPath: `C:\VS`}

	env, err := c.EffectiveEnv(context.Background(), k, Request{
		HostEnv:      []string{`Path=C:\Windows`},
		IsWindows:    true,
		Installation: installation,
	})
	if err != nil {
		t.Fatalf("EffectiveEnv() error = %v", err)
	}

	if v, ok := env.Get("INCLUDE"); !ok || v != `C:\VS\Include` {
		t.Errorf("INCLUDE = %q, %v, want C:\\VS\\Include merged under uppercase key", v, ok)
	}
	if v, ok := env.Get("include"); !ok || v != `C:\VS\Include` {
		t.Errorf("case-insensitive lookup of include failed: %q, %v", v, ok)
	}
}

func TestEffectiveEnv_SkipsVendorMergeWithoutArchitecture(t *testing.T) {
	t.Parallel()

	called := false
	extract := func(ctx context.Context, installation kit.VendorInstallation, arch string, bundledNinjaDir string) (*kit.VariableMap, error) {
		called = true
		return kit.NewVariableMap(true), nil
	}
	c := New(extract, output.New())

	k := &kit.Kit{Name: "plain-gcc"}
	_, err := c.EffectiveEnv(context.Background(), k, Request{IsWindows: true})
	if err != nil {
		t.Fatalf("EffectiveEnv() error = %v", err)
	}
	if called {
		t.Error("extract should not be called for a kit with no vendor SDK selector")
	}
}

func TestEffectiveEnv_PropagatesExtractError(t *testing.T) {
	t.Parallel()

	wantErr := os.ErrNotExist
	extract := func(ctx context.Context, installation kit.VendorInstallation, arch string, bundledNinjaDir string) (*kit.VariableMap, error) {
		return nil, wantErr
	}
	c := New(extract, output.New())

	k := &kit.Kit{Name: "vs", VisualStudio: "abcd", VisualStudioArchitecture: "amd64"}
	_, err := c.EffectiveEnv(context.Background(), k, Request{
		IsWindows:    true,
		Installation: &kit.VendorInstallation{InstanceID: "abcd"},
	})
	if err != wantErr {
		t.Errorf("EffectiveEnv() error = %v, want %v", err, wantErr)
	}
}

func TestEffectiveEnv_PatchesMinGWPathIntoExistingPATH(t *testing.T) {
	t.Parallel()

	c := New(nil, output.New())
	k := &kit.Kit{
		Name: "mingw",
		EnvironmentVariables: map[string]string{
			"CMT_MINGW_PATH": `C:\mingw64\bin`,
		},
	}

	env, err := c.EffectiveEnv(context.Background(), k, Request{
		HostEnv: []string{`PATH=C:\Windows`},
	})
	if err != nil {
		t.Fatalf("EffectiveEnv() error = %v", err)
	}
	if v, _ := env.Get("PATH"); v != `C:\Windows;C:\mingw64\bin` {
		t.Errorf("PATH = %q, want mingw dir appended", v)
	}
}

func TestEffectiveEnv_PrefersPATHOverPathWhenBothPresent(t *testing.T) {
	t.Parallel()

	vm := kit.NewVariableMap(false)
	vm.Set("PATH", `C:\A`)
	vm.Set("Path", `C:\B`)
	vm.Set("CMT_MINGW_PATH", `C:\mingw\bin`)

	patchMinGWPath(vm)

	if v, _ := vm.Get("PATH"); v != `C:\A;C:\mingw\bin` {
		t.Errorf("PATH = %q, want only PATH patched", v)
	}
	if v, _ := vm.Get("Path"); v != `C:\B` {
		t.Errorf("Path = %q, want unmodified", v)
	}
}

func TestEffectiveEnv_NoopWithoutExistingPathVariable(t *testing.T) {
	t.Parallel()

	vm := kit.NewVariableMap(false)
	vm.Set("CMT_MINGW_PATH", `C:\mingw\bin`)
	patchMinGWPath(vm)

	if _, ok := vm.Get("PATH"); ok {
		t.Error("expected no PATH to be invented from nothing")
	}
}

func TestFindCl_LocatesFirstMatchAcrossPathAndExt(t *testing.T) {
	t.Parallel()

	dir1 := t.TempDir()
	dir2 := t.TempDir()
	clPath := filepath.Join(dir2, "cl.exe")
	if err := os.WriteFile(clPath, []byte("stub"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	vm := kit.NewVariableMap(true)
	vm.Set("PATH", dir1+";"+dir2)
	vm.Set("PATHEXT", ".com;.exe;.bat")

	got, ok := FindCl(vm)
	if !ok {
		t.Fatal("FindCl() ok = false, want true")
	}
	if got != clPath {
		t.Errorf("FindCl() = %q, want %q", got, clPath)
	}
}

func TestFindCl_SkipsDirectoriesNamedCl(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "cl.exe"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	vm := kit.NewVariableMap(true)
	vm.Set("PATH", dir)
	vm.Set("PATHEXT", ".exe")

	if _, ok := FindCl(vm); ok {
		t.Error("FindCl() should not match a directory named cl.exe")
	}
}

func TestFindCl_NoPathReturnsNotFound(t *testing.T) {
	t.Parallel()

	vm := kit.NewVariableMap(true)
	if _, ok := FindCl(vm); ok {
		t.Error("FindCl() should fail without a PATH entry")
	}
}
