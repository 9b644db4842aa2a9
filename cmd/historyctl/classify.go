package main

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/moldhistory/internal/history"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// sourceTables maps each event source to the log table it is read from.
var sourceTables = []struct {
	source history.Source
	table  string
}{
	{history.SourceLocation, schema.LocationLog},
	{history.SourceShipment, schema.ShipLog},
	{history.SourceStatus, schema.StatusLog},
}

// ruleCount is how many rows of a source one rule classified.
type ruleCount struct {
	Source history.Source `json:"source"`
	Rule   string         `json:"rule"`
	Action history.Action `json:"action"`
	Rows   int            `json:"rows"`
}

// countRules classifies every log row and tallies the deciding rule.
func countRules(tables tabular.Tables) []ruleCount {
	var out []ruleCount
	for _, st := range sourceTables {
		c := history.NewClassifier(st.source)
		c.OnFallback = nil

		counts := map[[2]string]int{}
		for _, rec := range tables.Get(st.table).Records {
			action, rule := c.Explain(rec)
			if rule == "" {
				rule = "(fallback)"
			}
			counts[[2]string{rule, string(action)}]++
		}
		for k, n := range counts {
			out = append(out, ruleCount{Source: st.source, Rule: k[0], Action: history.Action(k[1]), Rows: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Rows != out[j].Rows {
			return out[i].Rows > out[j].Rows
		}
		return out[i].Rule < out[j].Rule
	})
	return out
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show which classification rule matched how many rows",
	Long: `classify runs every log row through its source's rules and prints,
per source, how many rows each rule decided. Rows no rule matched are
reported under the fallback.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := loadTables(cmd.Context())
		if err != nil {
			return err
		}
		counts := countRules(tables)

		out := cmd.OutOrStdout()
		if outputFormat == "json" {
			return writeJSON(out, counts)
		}
		t := newTable("SOURCE", "RULE", "ACTION", "ROWS")
		for _, c := range counts {
			t.addRow(string(c.Source), c.Rule, string(c.Action), strconv.Itoa(c.Rows))
		}
		t.render(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
