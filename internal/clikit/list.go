package clikit

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	kitscan "github.com/AndreyAkinshin/kitscan/pkg/kitscan"
)

var listFile string

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the kits recorded in a kits document",
		RunE:  runList,
	}
	cmd.Flags().StringVar(&listFile, "file", defaultKitsPath(), "kits document to read")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	kits, err := kitscan.Load(listFile, out)
	if err != nil {
		return fmt.Errorf("load %s: %w", listFile, err)
	}

	if len(kits) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no kits in %s\n", listFile)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOMPILERS\tVISUAL STUDIO\tTOOLCHAIN FILE")
	for _, k := range kits {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k.Name, summarizeCompilers(k.Compilers), k.VisualStudio, k.ToolchainFile)
	}
	return w.Flush()
}

func summarizeCompilers(compilers map[string]string) string {
	if len(compilers) == 0 {
		return "-"
	}
	cc, ok := compilers["C"]
	if !ok {
		for _, v := range compilers {
			cc = v
			break
		}
	}
	return cc
}

func defaultKitsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cmake-tools-kits.json"
	}
	return filepath.Join(home, ".local", "share", "CMakeTools", "cmake-tools-kits.json")
}
