package clikit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	kitscan "github.com/AndreyAkinshin/kitscan/pkg/kitscan"
)

var scanSavePath string

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover compiler toolchains on PATH and print the resulting kits as JSON",
		RunE:  runScan,
	}
	cmd.Flags().StringVar(&scanSavePath, "save", "", "also write the discovered kits to this file")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	isWindows := runtime.GOOS == "windows"
	opts := kitscan.ScanOptions{
		PathEntries: splitPathEnv(os.Getenv("PATH")),
		IsWindows:   isWindows,
	}

	kits := kitscan.Scan(context.Background(), opts, out)

	if scanSavePath != "" {
		existing, err := kitscan.Load(scanSavePath, out)
		if err != nil {
			return fmt.Errorf("load existing kits from %s: %w", scanSavePath, err)
		}
		kits = kitscan.Merge(kits, existing)
	}

	data, err := json.MarshalIndent(kits, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scan result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if scanSavePath != "" {
		if err := os.MkdirAll(filepath.Dir(scanSavePath), 0755); err != nil {
			return fmt.Errorf("create kits directory: %w", err)
		}
		if err := kitscan.Save(scanSavePath, kits, out); err != nil {
			return fmt.Errorf("save kits to %s: %w", scanSavePath, err)
		}
		out.Success("wrote %d kit(s) to %s", len(kits), scanSavePath)
	}

	return nil
}

func splitPathEnv(path string) []string {
	if path == "" {
		return nil
	}
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	var entries []string
	for _, p := range strings.Split(path, sep) {
		if p != "" {
			entries = append(entries, p)
		}
	}
	return entries
}
