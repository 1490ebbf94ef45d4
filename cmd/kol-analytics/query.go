// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kol-analytics/internal/query"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search, filter, sort and page through KOLs",
	Long: `Query filters the loaded KOLs by free text (matched against name and
affiliation), country, expertise area and an inclusive h-index range, then
sorts the matches.

Results are paged only when no filter is active; any active filter returns
every match on a single page.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("query", "", "free text matched against name or affiliation")
	queryCmd.Flags().String("country", types.All, "filter by country")
	queryCmd.Flags().String("expertise", types.All, "filter by expertise area")
	queryCmd.Flags().Int("min-h", -1, "minimum h-index, inclusive (-1 = unbounded)")
	queryCmd.Flags().Int("max-h", -1, "maximum h-index, inclusive (-1 = unbounded)")
	queryCmd.Flags().String("sort", string(types.SortByName), "sort field: "+sortFieldList())
	queryCmd.Flags().String("order", string(types.Ascending), "sort order: asc or desc")
	queryCmd.Flags().Int("page", 1, "page number, 1-based")
	queryCmd.Flags().Int("page-size", 0, "records per page (default 10)")
	queryCmd.Flags().String("format", formatTable, "output format: table, json or yaml")

	_ = viper.BindPFlag("engine.page_size", queryCmd.Flags().Lookup("page-size"))

	rootCmd.AddCommand(queryCmd)
}

func sortFieldList() string {
	names := make([]string, len(types.SortFields))
	for i, f := range types.SortFields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func querySpecFromFlags(cmd *cobra.Command, args []string) types.QuerySpec {
	text, _ := cmd.Flags().GetString("query")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	country, _ := cmd.Flags().GetString("country")
	expertise, _ := cmd.Flags().GetString("expertise")
	sortBy, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")
	page, _ := cmd.Flags().GetInt("page")

	spec := types.QuerySpec{
		Text:          text,
		Country:       country,
		ExpertiseArea: expertise,
		SortBy:        types.SortField(sortBy),
		Order:         types.SortOrder(order),
		Page:          page,
	}
	if v, _ := cmd.Flags().GetInt("min-h"); v >= 0 {
		spec.MinHIndex = types.IntPtr(v)
	}
	if v, _ := cmd.Flags().GetInt("max-h"); v >= 0 {
		spec.MaxHIndex = types.IntPtr(v)
	}
	return spec
}

func runQuery(cmd *cobra.Command, args []string) error {
	spec := querySpecFromFlags(cmd, args)
	if err := query.Validate(spec); err != nil {
		return err
	}

	cfg, out, err := loadOnce(cmd.Context())
	if err != nil {
		return err
	}
	page, err := query.Run(out.Snapshot, spec, cfg.Engine.PageSize)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if done, err := writeStructured(os.Stdout, format, page); done {
		return err
	}

	if len(page.Records) == 0 {
		fmt.Println("No KOLs found.")
		return nil
	}
	writeRecordTable(os.Stdout, page.Records)
	if page.Paginated {
		fmt.Printf("\nPage %d of %d (%d KOLs)\n", page.PageNumber, page.TotalPages, page.TotalMatched)
	} else {
		fmt.Printf("\n%d matching KOLs\n", page.TotalMatched)
	}
	return nil
}
