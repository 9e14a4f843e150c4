package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tablesync/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one synchronization and exit",
	Long:  `Run one synchronization in the foreground. The exit status is non-zero when the run fails as a whole; individual table failures are only reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, _ := newSyncService(cfg)
		report, err := svc.Run(ctx)
		if report != nil {
			writeReport(cmd.OutOrStdout(), report)
		}
		return err
	},
}

// writeReport prints one line per table followed by the run totals.
func writeReport(out io.Writer, report *model.RunReport) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTABLE\tOUTCOME\tROWS\tDETAIL")
	for _, t := range report.Tables {
		detail := t.Reason
		if t.Err != nil {
			if detail != "" {
				detail += ": "
			}
			detail += t.Err.Error()
		}
		if t.Created {
			if detail != "" {
				detail = "created; " + detail
			} else {
				detail = "created"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", t.Source, t.Table, t.Outcome, t.Rows, detail)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%s synced=%d skipped=%d failed=%d rows=%d duration=%s\n",
		report.Message(),
		report.Count(model.OutcomeSynced),
		report.Count(model.OutcomeSkipped),
		report.Count(model.OutcomeFailed),
		report.RowsCopied(),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
}
