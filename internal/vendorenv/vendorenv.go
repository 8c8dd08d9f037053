// Package vendorenv implements the Vendor SDK Environment Extractor:
// materializing a host-shell activation transcript from a vendor batch
// entry point and parsing the resulting environment into a VariableMap.
// Only meaningful on Windows: the activation script runs under cmd.exe, so
// on a host without it the script cannot be started and Extract returns an
// ActivationFailed-classified error.
package vendorenv

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/AndreyAkinshin/kitscan/internal/executil"
	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/kiterrors"
	"github.com/AndreyAkinshin/kitscan/internal/output"
	"github.com/AndreyAkinshin/kitscan/internal/pathresolver"
)

var activationLinePattern = regexp.MustCompile(`^(\w+) := ?(.*)$`)

// runScript executes the activation script and returns an error if the
// process could not be started or exited non-zero. Swapped out in tests
// since the real implementation shells out to cmd.exe, which only exists
// on Windows hosts.
type runScript func(ctx context.Context, scriptPath string) error

// Extractor implements the Vendor SDK Environment Extractor.
type Extractor struct {
	resolver *pathresolver.Resolver
	out      *output.Writer
	run      runScript
	newID    func() string
}

// New creates an Extractor that shells out to cmd.exe.
func New(resolver *pathresolver.Resolver, out *output.Writer) *Extractor {
	return &Extractor{
		resolver: resolver,
		out:      out,
		run:      runViaCmdExe,
		newID:    func() string { return uuid.NewString() },
	}
}

func runViaCmdExe(ctx context.Context, scriptPath string) error {
	result, err := executil.Run(ctx, "cmd.exe", []string{"/c", scriptPath}, executil.Options{})
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("cmd.exe exited with code %d: %s", result.ExitCode, result.Combined)
	}
	return nil
}

// Extract activates the vendor SDK environment for (installation, arch) and
// returns the resulting VariableMap. bundledNinjaDir, if non-empty, is
// appended to PATH when not already present, per spec.md §4.D step 5.
func (e *Extractor) Extract(ctx context.Context, installation kit.VendorInstallation, arch string, bundledNinjaDir string) (*kit.VariableMap, error) {
	major := installation.MajorVersion()
	if major < 0 {
		return nil, kiterrors.Newf(kiterrors.KindParseError, "malformed installationVersion %q", installation.InstallationVersion)
	}

	entryPoint := vcvarsallPath(installation.InstallationPath, major)

	suffix := e.newID()
	scriptPath := filepath.Join(e.resolver.TmpDir(), "kitscan-activate-"+suffix+".bat")
	envPath := filepath.Join(e.resolver.TmpDir(), "kitscan-activate-"+suffix+".env")

	script := buildActivationScript(installation.InstallationPath, major, entryPoint, arch, envPath)
	if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
		return nil, kiterrors.Wrap(kiterrors.KindUnexpected, err, "failed to write activation script")
	}
	defer os.Remove(scriptPath)
	defer os.Remove(envPath)

	if err := e.run(ctx, scriptPath); err != nil {
		if e.out != nil {
			e.out.Warning("vendor SDK activation failed for %s (%s): %v", installation.DisplayNameFor(), arch, err)
		}
		return nil, kiterrors.Wrap(kiterrors.KindActivationFailed, err, "activation script exited non-zero")
	}

	raw, err := os.ReadFile(envPath)
	if err != nil || len(raw) == 0 {
		return nil, kiterrors.New(kiterrors.KindActivationFailed, "activation produced no environment")
	}

	vm, err := parseEnvFile(raw, e.out)
	if err != nil {
		return nil, err
	}

	include, ok := vm.Get("INCLUDE")
	if !ok || include == "" {
		return nil, kiterrors.New(kiterrors.KindActivationFailed, "activation did not set a non-empty INCLUDE")
	}

	postProcess(vm, installation.InstallationPath, bundledNinjaDir)

	return vm, nil
}

// vcvarsallPath picks the activation entry point: the legacy VC\vcvarsall.bat
// for installations predating Visual Studio 15, else the modern
// VC\Auxiliary\Build\vcvarsall.bat.
func vcvarsallPath(installPath string, major int) string {
	if major < 15 {
		return filepath.Join(installPath, "VC", "vcvarsall.bat")
	}
	return filepath.Join(installPath, "VC", "Auxiliary", "Build", "vcvarsall.bat")
}

// buildActivationScript synthesizes the throwaway host-shell script of
// spec.md §4.D step 2: silence echoing, cd to the script's own directory,
// set the VS<major>0COMNTOOLS common-dir hack, invoke the activation entry
// point (aborting on non-zero exit), return to the original drive, then
// append each whitelisted variable to the sibling .env file.
func buildActivationScript(installPath string, major int, entryPoint, arch, envPath string) string {
	var b strings.Builder
	b.WriteString("@echo off\r\n")
	b.WriteString("cd /d \"%~dp0\"\r\n")
	fmt.Fprintf(&b, "set VS%d0COMNTOOLS=%s\r\n", major, filepath.Join(installPath, "Common7", "Tools"))
	fmt.Fprintf(&b, "call \"%s\" %s\r\n", entryPoint, arch)
	b.WriteString("if errorlevel 1 exit /b 1\r\n")
	b.WriteString("cd /d \"%~d0\\\"\r\n")
	for _, name := range kit.EnvironmentWhitelist {
		fmt.Fprintf(&b, "echo %s := %%%s%%>>\"%s\"\r\n", name, name, envPath)
	}
	return b.String()
}

// parseEnvFile parses the captured .env transcript into a VariableMap,
// skipping and logging malformed lines per spec.md §4.D step 4.
func parseEnvFile(raw []byte, out *output.Writer) (*kit.VariableMap, error) {
	vm := kit.NewVariableMap(true)
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		m := activationLinePattern.FindStringSubmatch(line)
		if m == nil {
			if out != nil {
				out.Warning("malformed activation line: %q", line)
			}
			continue
		}
		vm.Set(m[1], m[2])
	}
	return vm, nil
}

// postProcess implements spec.md §4.D step 5: the VISUALSTUDIOVERSION
// disambiguation alias, forcing CC/CXX to cl.exe, and appending the
// bundled Ninja directory to PATH when absent.
func postProcess(vm *kit.VariableMap, installPath string, bundledNinjaDir string) {
	if vsVersion, ok := vm.Get("VISUALSTUDIOVERSION"); ok && vsVersion != "" {
		commonDir := filepath.Join(installPath, "Common7", "Tools")
		key := "VS" + strings.ReplaceAll(vsVersion, ".", "") + "COMNTOOLS"
		vm.Set(key, commonDir)
	}
	vm.Set("CC", "cl.exe")
	vm.Set("CXX", "cl.exe")

	if bundledNinjaDir == "" {
		return
	}
	existing, ok := vm.Get("PATH")
	if !ok {
		vm.Set("PATH", bundledNinjaDir)
		return
	}
	entries := strings.Split(existing, ";")
	for _, e := range entries {
		if e == bundledNinjaDir {
			return
		}
	}
	vm.Set("PATH", existing+";"+bundledNinjaDir)
}
