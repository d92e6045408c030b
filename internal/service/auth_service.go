package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-roster-api/internal/dto"
	"github.com/noah-isme/gema-roster-api/internal/observability"
	"github.com/noah-isme/gema-roster-api/internal/repository"
)

// RoleTeacher is the role carried by tokens issued to the roster operator.
const RoleTeacher = "teacher"

// DefaultSessionKey is the storage key of the logged-in flag.
const DefaultSessionKey = "isLoggedIn"

// ErrInvalidCredentials is returned when the username or password does not match.
var ErrInvalidCredentials = errors.New("username atau password salah")

// AuthConfig holds the fixed credential pair and token settings.
type AuthConfig struct {
	Username   string
	Password   string
	JWTSecret  string
	TokenTTL   time.Duration
	SessionKey string
}

// AuthService checks teacher credentials and tracks the logged-in flag.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Logout(ctx context.Context) error
	IsLoggedIn(ctx context.Context) (bool, error)
}

type authService struct {
	cfg    AuthConfig
	store  repository.KeyValueRepository
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewAuthService constructs the auth service. The logged-in flag lives in store
// next to the roster snapshot.
func NewAuthService(store repository.KeyValueRepository, cfg AuthConfig, logger zerolog.Logger) AuthService {
	if strings.TrimSpace(cfg.SessionKey) == "" {
		cfg.SessionKey = DefaultSessionKey
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	return &authService{
		cfg:    cfg,
		store:  store,
		logger: logger.With().Str("component", "auth_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/gema-roster-api/internal/service/auth"),
		now:    time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	ctx, span := s.tracer.Start(ctx, "auth.login", trace.WithAttributes(attribute.String("auth.username", username)))
	defer span.End()

	if !s.credentialsMatch(username, req.Password) {
		observability.AuthAttempts().WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, "invalid_credentials")
		s.logger.Warn().Str("username", username).Msg("login rejected")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.cfg.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  username,
		"role": RoleTeacher,
		"iat":  issuedAt.Unix(),
		"exp":  expiresAt.Unix(),
	})

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		observability.AuthAttempts().WithLabelValues("error").Inc()
		span.RecordError(err)
		return dto.LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	if err := s.store.Set(ctx, s.cfg.SessionKey, "true"); err != nil {
		observability.AuthAttempts().WithLabelValues("error").Inc()
		span.RecordError(err)
		return dto.LoginResponse{}, fmt.Errorf("store session flag: %w", err)
	}

	observability.AuthAttempts().WithLabelValues("accepted").Inc()
	s.logger.Info().Str("username", username).Msg("teacher logged in")

	return dto.LoginResponse{Token: signed, Username: username, ExpiresAt: expiresAt}, nil
}

func (s *authService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.cfg.SessionKey); err != nil && !errors.Is(err, repository.ErrKeyNotFound) {
		return fmt.Errorf("clear session flag: %w", err)
	}
	s.logger.Info().Msg("teacher logged out")
	return nil
}

func (s *authService) IsLoggedIn(ctx context.Context) (bool, error) {
	value, err := s.store.Get(ctx, s.cfg.SessionKey)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read session flag: %w", err)
	}
	return value == "true", nil
}

func (s *authService) credentialsMatch(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1
	return userOK && passOK && s.cfg.Username != ""
}
