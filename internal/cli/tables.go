package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tablesync/internal/model"
)

var (
	tablesJSON bool
	tablesSQL  string
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables a run would copy and compare them with the target",
	Long:  `List the selected tables of every source and how the target would be affected: created, refreshed, or refused because the existing target table lacks source columns. Nothing is written to any database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		svc, _ := newSyncService(cfg)
		plan, err := svc.Plan(cmd.Context())
		if err != nil {
			return err
		}

		if tablesSQL != "" {
			if err := os.WriteFile(tablesSQL, []byte(planSQL(plan)), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", tablesSQL, err)
			}
			logrus.WithField("file", tablesSQL).Info("create statements saved")
		}

		if tablesJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}
		writePlan(cmd.OutOrStdout(), plan)
		return nil
	},
}

func init() {
	tablesCmd.Flags().BoolVar(&tablesJSON, "json", false, "print the comparison as JSON")
	tablesCmd.Flags().StringVar(&tablesSQL, "sql", "", "write the CREATE TABLE statements a run would issue to this file")
}

func writePlan(out io.Writer, plan *model.SyncPlan) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTABLE\tACTION\tMISSING IN TARGET\tEXTRA IN TARGET")
	for _, t := range plan.Tables {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Source, t.Table, t.Action,
			strings.Join(t.Missing, ","), strings.Join(t.Extra, ","))
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d tables: create=%d refresh=%d drift=%d\n",
		len(plan.Tables),
		plan.Count(model.PlanCreate),
		plan.Count(model.PlanRefresh),
		plan.Count(model.PlanDrift),
	)
}

// planSQL joins the DDL of every table that would be created.
func planSQL(plan *model.SyncPlan) string {
	var b strings.Builder
	for _, t := range plan.Tables {
		if t.Action != model.PlanCreate {
			continue
		}
		fmt.Fprintf(&b, "-- %s.%s\n%s;\n\n", t.Source, t.Table, t.SQL)
	}
	return b.String()
}
