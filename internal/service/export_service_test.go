package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/gema-roster-api/internal/models"
)

func TestExportServiceWritesPresentRowsOnly(t *testing.T) {
	ctx := context.Background()
	roster := NewRosterService(newCountingStore(), RosterOptions{}, zerolog.Nop())

	_, _, err := roster.ToggleFlag(ctx, "Budi", "2024-01-01", models.FlagActive, teacher)
	require.NoError(t, err)
	_, _, err = roster.ToggleFlag(ctx, "Ana", "2024-01-01", models.FlagViolated, teacher)
	require.NoError(t, err)
	_, _, err = roster.AddStudent(ctx, "Citra", "2024-01-02", teacher)
	require.NoError(t, err)

	svc := NewExportService(roster, zerolog.Nop())
	file, err := svc.ExportDay(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Equal(t, "penilaian_2024-01-01.xlsx", file.Name)
	require.Equal(t, XLSXContentType, file.ContentType)
	require.Equal(t, 2, file.Rows)

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer workbook.Close()

	require.Equal(t, []string{ExportSheetName}, workbook.GetSheetList())

	rows, err := workbook.GetRows(ExportSheetName)
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Name", "Date", "Active", "Violated", "TotalScore"},
		{"Ana", "2024-01-01", "", "✓", "78"},
		{"Budi", "2024-01-01", "✓", "", "82"},
	}, rows)
}

func TestExportServiceEmptyDay(t *testing.T) {
	roster := NewRosterService(newCountingStore(), RosterOptions{}, zerolog.Nop())
	svc := NewExportService(roster, zerolog.Nop())

	file, err := svc.ExportDay(context.Background(), "2024-03-01")
	require.NoError(t, err)
	require.Zero(t, file.Rows)

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows(ExportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestExportServiceRejectsInvalidDate(t *testing.T) {
	roster := NewRosterService(newCountingStore(), RosterOptions{}, zerolog.Nop())
	svc := NewExportService(roster, zerolog.Nop())

	_, err := svc.ExportDay(context.Background(), "2024/03/01")
	require.ErrorIs(t, err, ErrInvalidDate)
}
