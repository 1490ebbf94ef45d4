// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/kol-analytics/internal/source"
	"github.com/pdiddy/kol-analytics/internal/store"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single KOL by identifier",
	Long: `Show a single KOL by identifier. When the remote source answered the
load cycle, the record is fetched from it directly so the detail is current;
otherwise it comes from the loaded snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("format", formatTable, "output format: table, json or yaml")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, out, err := loadOnce(cmd.Context())
	if err != nil {
		return err
	}

	var remote source.Remote
	if out.Status == source.StatusOK && cfg.Source.BaseURL != "" {
		remote = source.NewHTTPRemote(cfg.Source, logger)
	}
	rec, err := lookupRecord(cmd.Context(), remote, out.Snapshot, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no KOL with id %q", args[0])
	}
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if done, err := writeStructured(os.Stdout, format, rec); done {
		return err
	}
	writeRecordDetail(os.Stdout, rec)
	return nil
}

// lookupRecord asks remote for id when one is given and falls back to snap
// if the remote becomes unavailable. A remote not-found is final.
func lookupRecord(ctx context.Context, remote source.Remote, snap *store.Snapshot, id string) (types.Record, error) {
	if remote != nil {
		rec, err := remote.GetRecord(ctx, id)
		if err == nil || !errors.Is(err, source.ErrUnavailable) {
			return rec, err
		}
		logger.Debug("remote lookup failed, using snapshot", zap.String("id", id), zap.Error(err))
	}
	return snap.Get(id)
}
