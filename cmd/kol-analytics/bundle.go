// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kol-analytics/internal/source"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle <output>",
	Short: "Write the loaded KOL data to a local bundle file",
	Long: `Bundle loads the KOL data (from the remote source when --source-url is
set) and writes it to a local bundle that can later be passed as --fallback.
The format follows the file extension: .json, .yaml/.yml or .db/.sqlite.

Use --require-remote to refuse writing a bundle built from fallback data.`,
	Args: cobra.ExactArgs(1),
	RunE: runBundle,
}

func init() {
	bundleCmd.Flags().Bool("require-remote", false, "fail unless the data came from the remote source")

	rootCmd.AddCommand(bundleCmd)
}

func runBundle(cmd *cobra.Command, args []string) error {
	_, out, err := loadOnce(cmd.Context())
	if err != nil {
		return err
	}
	if requireRemote, _ := cmd.Flags().GetBool("require-remote"); requireRemote && !out.Healthy() {
		return fmt.Errorf("remote source unavailable: %w", out.Cause)
	}

	path := args[0]
	if err := source.SaveBundle(cmd.Context(), path, out.Snapshot.Records()); err != nil {
		return err
	}
	fmt.Printf("Wrote %d KOLs to %s (source: %s)\n", out.Snapshot.Len(), path, out.Status)
	return nil
}
