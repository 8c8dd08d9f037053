package clikit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListCmd_MissingFileReportsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kits.json")

	cmd := newListCmd()
	listFile = path
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "no kits") {
		t.Errorf("stdout = %q, want a no-kits message", stdout.String())
	}
}

func TestListCmd_PrintsKitNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kits.json")
	doc := `[{"name": "gcc-x86_64", "compilers": {"C": "/usr/bin/gcc"}}]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := newListCmd()
	listFile = path
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "gcc-x86_64") {
		t.Errorf("stdout = %q, want it to mention gcc-x86_64", stdout.String())
	}
}

func TestEnvCmd_UnknownKitErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kits.json")
	doc := `[{"name": "gcc-x86_64", "compilers": {"C": "/usr/bin/gcc"}}]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := newEnvCmd()
	envFile = path
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.RunE(cmd, []string{"does-not-exist"}); err == nil {
		t.Fatal("RunE() error = nil, want error for unknown kit name")
	}
}

func TestEnvCmd_PrintsEffectiveEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kits.json")
	doc := `[{"name": "gcc-x86_64", "compilers": {"C": "/usr/bin/gcc"}, "environmentVariables": {"FOO": "bar"}}]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := newEnvCmd()
	envFile = path
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.RunE(cmd, []string{"gcc-x86_64"}); err != nil {
		t.Fatalf("RunE() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "FOO=bar") {
		t.Errorf("stdout = %q, want FOO=bar", stdout.String())
	}
}

func TestScanCmd_PrintsJSONArray(t *testing.T) {
	scanSavePath = ""

	cmd := newScanCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE() error = %v", err)
	}
	trimmed := strings.TrimSpace(stdout.String())
	if !strings.HasPrefix(trimmed, "[") {
		t.Errorf("stdout = %q, want a JSON array", stdout.String())
	}
}

func TestScanCmd_SaveRetainsHandEditedKeptKit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kits.json")
	doc := `[{"name": "hand-edited", "toolchainFile": "/x/toolchain.cmake", "keep": true}]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	scanSavePath = path
	defer func() { scanSavePath = "" }()

	cmd := newScanCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hand-edited") {
		t.Errorf("saved document = %q, want the kept kit to survive the re-scan", data)
	}
}

func TestRootCmd_HasExpectedSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"scan", "list", "env"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}
