// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate statistics for the loaded KOL data",
	Long: `Stats loads the KOL data and prints the aggregate report: totals, mean
h-index, pooled citations per publication, the top countries, the expertise
distribution and the KOL with the highest citation ratio.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("format", formatTable, "output format: table, json or yaml")
	statsCmd.Flags().Int("top-countries", 0, "number of countries in the distribution, also applied to a remote report (default 10)")
	_ = viper.BindPFlag("engine.top_countries", statsCmd.Flags().Lookup("top-countries"))

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	_, out, err := loadOnce(cmd.Context())
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if done, err := writeStructured(os.Stdout, format, out.Report); done {
		return err
	}
	writeReport(os.Stdout, out.Report)
	return nil
}
