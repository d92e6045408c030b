package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-roster-api/internal/service"
)

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List recorded dates, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoster(cmd, func(roster service.RosterService, out io.Writer) error {
			for _, date := range roster.ListDates() {
				fmt.Fprintln(out, date)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print every record, most recent date first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoster(cmd, func(roster service.RosterService, out io.Writer) error {
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDATE\tACTIVE\tVIOLATED\tSCORE")
			for _, entry := range roster.FullHistory() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", entry.Name, entry.Date, yesNo(entry.Active), yesNo(entry.Violated), entry.Score)
			}
			return w.Flush()
		})
	},
}

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Print the table for one date",
	Long: `Print one row per student for the given date.

Students without a record on that date are shown with the default score and
marked "-" in the RECORDED column. Nothing is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		return withRoster(cmd, func(roster service.RosterService, out io.Writer) error {
			entries, err := roster.ViewForDate(date)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tACTIVE\tVIOLATED\tSCORE\tRECORDED")
			for _, entry := range entries {
				recorded := "-"
				if entry.Present {
					recorded = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", entry.Name, yesNo(entry.Record.Active), yesNo(entry.Record.Violated), entry.Record.Score, recorded)
			}
			return w.Flush()
		})
	},
}

func init() {
	dayCmd.Flags().StringP("date", "d", "", "date in YYYY-MM-DD form (required)")
	_ = dayCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(datesCmd, historyCmd, dayCmd)
}

func yesNo(flag bool) string {
	if flag {
		return "yes"
	}
	return "no"
}
