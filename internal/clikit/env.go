package clikit

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	kitscan "github.com/AndreyAkinshin/kitscan/pkg/kitscan"
)

var envFile string

func newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env <kit-name>",
		Short: "Print the effective environment for a named kit",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnv,
	}
	cmd.Flags().StringVar(&envFile, "file", defaultKitsPath(), "kits document to read")
	return cmd
}

func runEnv(cmd *cobra.Command, args []string) error {
	name := args[0]

	kits, err := kitscan.Load(envFile, out)
	if err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	var selected *kitscan.Kit
	for _, k := range kits {
		if k.Name == name {
			selected = k
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("no kit named %q in %s", name, envFile)
	}

	if selected.VisualStudio != "" {
		out.Warning("kit %q selects a vendor SDK; this CLI has no installation enumerator wired in, so the vendor activation environment is omitted", name)
	}

	env, err := kitscan.EffectiveEnv(context.Background(), selected, kitscan.EnvRequest{
		HostEnv:   os.Environ(),
		IsWindows: runtime.GOOS == "windows",
	}, out)
	if err != nil {
		return fmt.Errorf("compute effective environment for %q: %w", name, err)
	}

	for _, key := range env.Keys() {
		value, _ := env.Get(key)
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, value)
	}
	return nil
}
