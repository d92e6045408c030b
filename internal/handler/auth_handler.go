package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-roster-api/internal/dto"
	"github.com/noah-isme/gema-roster-api/internal/service"
	"github.com/noah-isme/gema-roster-api/internal/utils"
)

// AuthHandler exposes login, logout and the session probe.
type AuthHandler struct {
	service   service.AuthService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(service service.AuthService, validator *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the auth routes. loginGuards wrap login (rate limiting) and
// logoutGuards authenticate the caller before the session flag is cleared.
func (h *AuthHandler) Register(router fiber.Router, loginGuards, logoutGuards []fiber.Handler) {
	login := append(append([]fiber.Handler{}, loginGuards...), h.login)
	router.Post("/login", login...)
	logout := append(append([]fiber.Handler{}, logoutGuards...), h.logout)
	router.Post("/logout", logout...)
	router.Get("/session", h.session)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "username and password are required", validationDetails(err))
	}

	response, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("login failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to log in")
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext()); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("logout failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to log out")
	}
	return utils.SendSuccess(c, "logged out", dto.SessionResponse{LoggedIn: false})
}

func (h *AuthHandler) session(c *fiber.Ctx) error {
	loggedIn, err := h.service.IsLoggedIn(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("session probe failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to read session")
	}
	return utils.SendSuccess(c, "session retrieved", dto.SessionResponse{LoggedIn: loggedIn})
}
