package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-roster-api/internal/dto"
	"github.com/noah-isme/gema-roster-api/internal/models"
	"github.com/noah-isme/gema-roster-api/internal/service"
	"github.com/noah-isme/gema-roster-api/internal/utils"
)

const maxImportBytes = 5 << 20

// RosterHandler exposes the roster store over HTTP.
type RosterHandler struct {
	roster    service.RosterService
	exporter  service.ExportService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRosterHandler constructs the roster handler.
func NewRosterHandler(roster service.RosterService, exporter service.ExportService, validator *validator.Validate, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		roster:    roster,
		exporter:  exporter,
		validator: validator,
		logger:    logger.With().Str("component", "roster_handler").Logger(),
	}
}

// Register attaches roster endpoints to the router group.
func (h *RosterHandler) Register(router fiber.Router) {
	router.Get("/dates", h.listDates)
	router.Get("/students", h.listStudents)
	router.Post("/students", h.addStudent)
	router.Delete("/students/:name", h.removeStudent)
	router.Get("/students/:name/series", h.series)
	router.Post("/records/toggle", h.toggle)
	router.Get("/days/:date", h.day)
	router.Get("/days/:date/export", h.export)
	router.Get("/history", h.history)
	router.Post("/import", h.importSnapshot)
}

func (h *RosterHandler) listDates(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "dates retrieved", h.roster.ListDates())
}

func (h *RosterHandler) listStudents(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "students retrieved", h.roster.Students())
}

func (h *RosterHandler) addStudent(c *fiber.Ctx) error {
	var payload dto.AddStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	key, added, err := h.roster.AddStudent(c.UserContext(), payload.Name, payload.Date, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	response := dto.AddStudentResponse{Name: key.Name, Date: key.Date, Added: added}
	if !added {
		return utils.SendSuccess(c, "empty name ignored", response)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student added", response)
}

func (h *RosterHandler) removeStudent(c *fiber.Ctx) error {
	name, err := pathParam(c, "name")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student name")
	}

	if err := h.roster.RemoveStudent(c.UserContext(), name, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student removed", nil)
}

func (h *RosterHandler) series(c *fiber.Ctx) error {
	name, err := pathParam(c, "name")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student name")
	}

	name = strings.TrimSpace(name)
	return utils.SendSuccess(c, "series retrieved", dto.NewSeriesResponse(name, h.roster.SeriesForStudent(name)))
}

func (h *RosterHandler) toggle(c *fiber.Ctx) error {
	var payload dto.ToggleFlagRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	key, record, err := h.roster.ToggleFlag(c.UserContext(), payload.Name, payload.Date, models.Flag(payload.Flag), activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "record updated", dto.NewDailyRecordResponse(key.Name, key.Date, record))
}

func (h *RosterHandler) day(c *fiber.Ctx) error {
	date := c.Params("date")
	entries, err := h.roster.ViewForDate(date)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "day retrieved", dto.NewDayViewResponse(date, entries))
}

func (h *RosterHandler) history(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "history retrieved", dto.NewHistoryResponse(h.roster.FullHistory()))
}

func (h *RosterHandler) export(c *fiber.Ctx) error {
	file, err := h.exporter.ExportDay(c.UserContext(), c.Params("date"))
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	return c.Status(fiber.StatusOK).Send(file.Data)
}

func (h *RosterHandler) importSnapshot(c *fiber.Ctx) error {
	data, err := importPayload(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if len(data) > maxImportBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "snapshot too large")
	}

	if mime := mimetype.Detect(data); !mime.Is("application/json") {
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, fmt.Sprintf("snapshot must be JSON, got %s", mime.String()))
	}

	var snapshot models.Roster
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "snapshot is not a roster object")
	}

	imported, err := h.roster.Import(c.UserContext(), snapshot, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	response := dto.ImportResponse{Students: len(imported)}
	for _, dates := range imported {
		response.Records += len(dates)
	}

	return utils.SendSuccess(c, "roster imported", response)
}

// importPayload reads the snapshot from a multipart "file" field or the raw body.
func importPayload(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		body := c.Body()
		if len(body) == 0 {
			return nil, errors.New("snapshot body is empty")
		}
		return body, nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("snapshot file is required")
	}
	if header.Size > maxImportBytes {
		return nil, errors.New("snapshot too large")
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.New("unable to read snapshot file")
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, maxImportBytes+1))
}

func (h *RosterHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidStudentName),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrUnknownFlag):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("path", c.Path()).Msg("roster request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update roster")
	}
}
