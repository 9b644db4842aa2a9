package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/moldhistory/internal/history"
)

var queryFlags struct {
	from, to, action, employee, rack, company, keyword string
	sort, order                                        string
	page, pageSize                                     int
}

func addQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&queryFlags.from, "from", "", "first date, YYYY-MM-DD")
	f.StringVar(&queryFlags.to, "to", "", "last date, YYYY-MM-DD")
	f.StringVar(&queryFlags.action, "action", "", "action, e.g. AUDIT or SHIP_OUT")
	f.StringVar(&queryFlags.employee, "employee", "", "handler employee id")
	f.StringVar(&queryFlags.rack, "rack", "", "rack-layer substring (either side)")
	f.StringVar(&queryFlags.company, "company", "", "company id or name substring")
	f.StringVarP(&queryFlags.keyword, "query", "q", "", "keyword search")
	f.StringVar(&queryFlags.sort, "sort", string(history.SortDate), "sort key: "+sortKeyList())
	f.StringVar(&queryFlags.order, "order", "", "asc or desc (default: desc for date, asc otherwise)")
}

func sortKeyList() string {
	keys := make([]string, len(history.SortKeys))
	for i, k := range history.SortKeys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}

// buildQuery turns the query flags into a validated history.Query.
func buildQuery() (history.Query, error) {
	f := history.Filter{
		DateFrom:   strings.TrimSpace(queryFlags.from),
		DateTo:     strings.TrimSpace(queryFlags.to),
		Action:     history.Action(strings.ToUpper(strings.TrimSpace(queryFlags.action))),
		EmployeeID: strings.TrimSpace(queryFlags.employee),
		Rack:       strings.TrimSpace(queryFlags.rack),
		Company:    strings.TrimSpace(queryFlags.company),
		Keyword:    strings.TrimSpace(queryFlags.keyword),
	}
	if err := f.Validate(); err != nil {
		return history.Query{}, err
	}

	key, err := history.ParseSortKey(queryFlags.sort)
	if err != nil {
		return history.Query{}, err
	}
	sort := history.Sort{}.Toggle(key)
	if queryFlags.order != "" {
		sort.Dir = history.ParseSortDir(queryFlags.order)
	}

	return history.Query{
		Filter:   f,
		Sort:     sort,
		Page:     queryFlags.page,
		PageSize: queryFlags.pageSize,
	}, nil
}

// openEngine loads the configured source into a fresh store and returns an
// engine positioned at q.
func openEngine(ctx context.Context, q history.Query) (*history.Engine, error) {
	tables, err := loadTables(ctx)
	if err != nil {
		return nil, err
	}
	store := history.NewStore(nil)
	store.Publish(tables)

	eng := history.NewEngine(store,
		history.WithPageSize(q.PageSize),
		history.WithFilter(q.Filter),
		history.WithSort(q.Sort),
	)
	if q.Page > 1 {
		eng.SetPage(q.Page)
	}
	return eng, nil
}

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Print one page of the filtered history",
	Example: `  historyctl page --dir ./data
  historyctl page --dir ./data --action SHIP_OUT --from 2025-01-01 --page 2
  historyctl page --dir ./data -q 棚卸 -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := buildQuery()
		if err != nil {
			return fmt.Errorf("%s", history.FormatUserError(err))
		}
		eng, err := openEngine(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("%s", history.FormatUserError(err))
		}
		res := eng.PageResult()

		out := cmd.OutOrStdout()
		if outputFormat == "json" {
			return writeJSON(out, res)
		}

		if res.Empty {
			warnColor.Fprintln(out, res.Message)
			return nil
		}
		renderEvents(out, res.Events)
		infoColor.Fprintf(out, "page %d/%d  total %d  audit %d  move %d  in/out %d\n",
			res.CurrentPage, res.TotalPages, res.TotalCount,
			res.Aggregates.AuditCount, res.Aggregates.MoveCount, res.Aggregates.InOutCount)
		return nil
	},
}

func init() {
	addQueryFlags(pageCmd)
	pageCmd.Flags().IntVar(&queryFlags.page, "page", 1, "page number")
	pageCmd.Flags().IntVar(&queryFlags.pageSize, "page-size", history.DefaultPageSize, "rows per page")
	rootCmd.AddCommand(pageCmd)
}
