package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-roster-api/internal/models"
	"github.com/noah-isme/gema-roster-api/internal/observability"
)

const (
	// ExportSheetName is the worksheet holding the day table.
	ExportSheetName = "Penilaian"
	// XLSXContentType is the media type of exported workbooks.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	checkMark = "✓"
)

// ExportHeader lists the column titles of an exported day.
var ExportHeader = []string{"Name", "Date", "Active", "Violated", "TotalScore"}

// ExportFile is a rendered workbook ready to be downloaded or written to disk.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders a day of the roster as a spreadsheet.
type ExportService interface {
	ExportDay(ctx context.Context, date string) (ExportFile, error)
}

type exportService struct {
	roster RosterService
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewExportService constructs the spreadsheet exporter on top of the roster store.
func NewExportService(roster RosterService, logger zerolog.Logger) ExportService {
	return &exportService{
		roster: roster,
		logger: logger.With().Str("component", "export_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/gema-roster-api/internal/service/export"),
	}
}

func (s *exportService) ExportDay(ctx context.Context, date string) (ExportFile, error) {
	_, span := s.tracer.Start(ctx, "roster.export_day", trace.WithAttributes(attribute.String("roster.date", date)))
	defer span.End()

	entries, err := s.roster.ViewForDate(date)
	if err != nil {
		return ExportFile{}, err
	}

	// ViewForDate already rejected malformed dates.
	day, _ := models.ParseDate(date)

	data, rows, err := renderWorkbook(entries)
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Str("date", day).Msg("failed to render workbook")
		return ExportFile{}, fmt.Errorf("render workbook: %w", err)
	}

	span.SetAttributes(attribute.Int("roster.export_rows", rows))
	observability.RosterExports().Inc()

	return ExportFile{
		Name:        fmt.Sprintf("penilaian_%s.xlsx", day),
		ContentType: XLSXContentType,
		Data:        data,
		Rows:        rows,
	}, nil
}

func renderWorkbook(entries []models.DayEntry) ([]byte, int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		return nil, 0, err
	}

	header := make([]interface{}, len(ExportHeader))
	for i, title := range ExportHeader {
		header[i] = title
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return nil, 0, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, 0, err
	}
	if err := f.SetCellStyle(ExportSheetName, "A1", "E1", bold); err != nil {
		return nil, 0, err
	}
	if err := f.SetColWidth(ExportSheetName, "A", "A", 28); err != nil {
		return nil, 0, err
	}

	rows := 0
	for _, entry := range entries {
		if !entry.Present {
			continue
		}
		rows++
		cell, err := excelize.CoordinatesToCellName(1, rows+1)
		if err != nil {
			return nil, 0, err
		}
		values := []interface{}{
			entry.Name,
			entry.Date,
			mark(entry.Record.Active),
			mark(entry.Record.Violated),
			entry.Record.Score,
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &values); err != nil {
			return nil, 0, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), rows, nil
}

func mark(flag bool) string {
	if flag {
		return checkMark
	}
	return ""
}
