package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-roster-api/internal/service"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one date to an XLSX workbook",
	Long: `Write penilaian_<date>.xlsx with one row per student recorded on the date.

Example:
  rosterctl export --date 2024-01-01 --out ./exports`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("date", "d", "", "date in YYYY-MM-DD form (required)")
	exportCmd.Flags().StringP("out", "o", ".", "directory to write the workbook to")
	_ = exportCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")
	dir, _ := cmd.Flags().GetString("out")

	return withRoster(cmd, func(roster service.RosterService, out io.Writer) error {
		file, err := service.NewExportService(roster, zerolog.Nop()).ExportDay(cmd.Context(), date)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		path := filepath.Join(dir, file.Name)
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}

		fmt.Fprintf(out, "wrote %d rows to %s\n", file.Rows, path)
		return nil
	})
}
