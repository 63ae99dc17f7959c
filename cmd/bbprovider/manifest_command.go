package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bbprovider/internal/config"
	"bbprovider/internal/manifest"
)

const defaultManifestExec = "bbprovider"

func newManifestCommand(ctx *commandContext) *cobra.Command {
	var execPath string
	var writeDir string
	var noAutostart bool

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the providers.d manifest for this provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			m := manifest.FromConfig(cfg, execPath)
			m.Autostart = !noAutostart
			data, err := m.Marshal()
			if err != nil {
				return err
			}

			dir := strings.TrimSpace(writeDir)
			if dir == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			dir, err = config.ExpandPath(dir)
			if err != nil {
				return fmt.Errorf("resolve manifest dir: %w", err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create manifest dir: %w", err)
			}
			target := filepath.Join(dir, m.FileName())
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote provider manifest to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&execPath, "exec", defaultManifestExec, "Executable the daemon launches (absolute path or basename)")
	cmd.Flags().StringVarP(&writeDir, "write", "w", "", "Write <id>.json into this providers.d directory instead of stdout")
	cmd.Flags().BoolVar(&noAutostart, "no-autostart", false, "Mark the provider as not started by the daemon")
	return cmd
}
