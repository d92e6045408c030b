package dto

import "github.com/noah-isme/gema-roster-api/internal/models"

// AddStudentRequest adds a student to the roster for a date. An empty date means today.
type AddStudentRequest struct {
	Name string `json:"name"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ToggleFlagRequest flips one conduct flag of a student on a date.
type ToggleFlagRequest struct {
	Name string `json:"name" validate:"required"`
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Flag string `json:"flag" validate:"required,oneof=active violated"`
}

// AddStudentResponse reports whether the add request changed the roster.
type AddStudentResponse struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Added bool   `json:"added"`
}

// DailyRecordResponse serializes a single daily record.
type DailyRecordResponse struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Active   bool   `json:"active"`
	Violated bool   `json:"violated"`
	Score    int    `json:"score"`
}

// DayEntryResponse is one row of the per-date table.
type DayEntryResponse struct {
	DailyRecordResponse
	Present bool `json:"present"`
}

// DayViewResponse holds the per-date table.
type DayViewResponse struct {
	Date    string             `json:"date"`
	Entries []DayEntryResponse `json:"entries"`
}

// SeriesPointResponse is one chart sample.
type SeriesPointResponse struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// SeriesResponse holds a student's chart data.
type SeriesResponse struct {
	Name   string                `json:"name"`
	Points []SeriesPointResponse `json:"points"`
}

// ImportResponse summarises a snapshot import.
type ImportResponse struct {
	Students int `json:"students"`
	Records  int `json:"records"`
}

// NewDailyRecordResponse converts a stored record into a DTO.
func NewDailyRecordResponse(name, date string, record models.DailyRecord) DailyRecordResponse {
	return DailyRecordResponse{
		Name:     name,
		Date:     date,
		Active:   record.Active,
		Violated: record.Violated,
		Score:    record.Score,
	}
}

// NewDayViewResponse converts the per-date view.
func NewDayViewResponse(date string, entries []models.DayEntry) DayViewResponse {
	items := make([]DayEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, DayEntryResponse{
			DailyRecordResponse: NewDailyRecordResponse(entry.Name, entry.Date, entry.Record),
			Present:             entry.Present,
		})
	}
	return DayViewResponse{Date: date, Entries: items}
}

// NewHistoryResponse converts the flattened history.
func NewHistoryResponse(entries []models.HistoryEntry) []DailyRecordResponse {
	items := make([]DailyRecordResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, DailyRecordResponse{
			Name:     entry.Name,
			Date:     entry.Date,
			Active:   entry.Active,
			Violated: entry.Violated,
			Score:    entry.Score,
		})
	}
	return items
}

// NewSeriesResponse converts a student's chart series.
func NewSeriesResponse(name string, points []models.SeriesPoint) SeriesResponse {
	items := make([]SeriesPointResponse, 0, len(points))
	for _, point := range points {
		items = append(items, SeriesPointResponse{Date: point.Date, Score: point.Score})
	}
	return SeriesResponse{Name: name, Points: items}
}
