package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-roster-api/internal/models"
	"github.com/noah-isme/gema-roster-api/internal/observability"
	"github.com/noah-isme/gema-roster-api/internal/repository"
)

// DefaultRosterKey is the storage key holding the roster snapshot.
const DefaultRosterKey = "penilaianSiswa"

var (
	// ErrInvalidStudentName indicates a mutation was attempted without a usable name.
	ErrInvalidStudentName = errors.New("student name is required")
	// ErrInvalidDate indicates a date that is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must use the YYYY-MM-DD format")
	// ErrUnknownFlag indicates a flag other than active or violated.
	ErrUnknownFlag = errors.New("flag must be active or violated")
	// ErrRosterCorrupt indicates the persisted snapshot could not be decoded.
	ErrRosterCorrupt = errors.New("persisted roster is corrupt")
)

// StudentDay is the normalized (student, date) key a mutation wrote.
type StudentDay struct {
	Name string
	Date string
}

// RosterService is the roster store: it owns the in-memory roster, applies
// mutations and derives read views from snapshots.
type RosterService interface {
	Load(ctx context.Context) error
	AddStudent(ctx context.Context, name, date string, actor ActivityActor) (StudentDay, bool, error)
	ToggleFlag(ctx context.Context, name, date string, flag models.Flag, actor ActivityActor) (StudentDay, models.DailyRecord, error)
	RemoveStudent(ctx context.Context, name string, actor ActivityActor) error
	Import(ctx context.Context, snapshot models.Roster, actor ActivityActor) (models.Roster, error)
	Record(name, date string) (models.DailyRecord, bool)
	Students() []string
	ListDates() []string
	ViewForDate(date string) ([]models.DayEntry, error)
	FullHistory() []models.HistoryEntry
	SeriesForStudent(name string) []models.SeriesPoint
	Snapshot() models.Roster
}

// RosterOptions configures optional collaborators of the roster store.
type RosterOptions struct {
	Key      string
	Activity ActivityRecorder
	Events   RosterEventPublisher
}

type rosterService struct {
	mu        sync.RWMutex
	roster    models.Roster
	store     repository.KeyValueRepository
	key       string
	activity  ActivityRecorder
	events    RosterEventPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewRosterService constructs a roster store persisting through store.
// Call Load before serving reads to pick up the persisted snapshot.
func NewRosterService(store repository.KeyValueRepository, opts RosterOptions, logger zerolog.Logger) RosterService {
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = DefaultRosterKey
	}

	return &rosterService{
		roster:    models.Roster{},
		store:     store,
		key:       key,
		activity:  opts.Activity,
		events:    opts.Events,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "roster_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-roster-api/internal/service/roster"),
		now:       time.Now,
	}
}

func (s *rosterService) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "roster.load")
	defer span.End()

	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			s.swap(models.Roster{})
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "roster_read_failed")
		return fmt.Errorf("load roster: %w", err)
	}

	decoded, err := decodeRoster(raw)
	if err != nil {
		s.swap(models.Roster{})
		span.RecordError(err)
		span.SetStatus(codes.Error, "roster_corrupt")
		s.logger.Warn().Err(err).Str("key", s.key).Msg("persisted roster is unreadable, starting empty")
		return fmt.Errorf("%w: %v", ErrRosterCorrupt, err)
	}

	roster, err := s.normalizeSnapshot(decoded)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("skipped invalid persisted roster entries")
	}

	s.swap(roster)
	s.logger.Info().Int("students", len(roster)).Msg("roster loaded")
	return nil
}

func (s *rosterService) AddStudent(ctx context.Context, name, date string, actor ActivityActor) (StudentDay, bool, error) {
	name = s.normalizeName(name)
	if name == "" {
		return StudentDay{}, false, nil
	}

	if strings.TrimSpace(date) == "" {
		date = s.now().Format(models.DateLayout)
	}
	date, err := normalizeDate(date)
	if err != nil {
		return StudentDay{}, false, err
	}
	key := StudentDay{Name: name, Date: date}

	ctx, span := s.tracer.Start(ctx, "roster.add_student", trace.WithAttributes(
		attribute.String("roster.student", name),
		attribute.String("roster.date", date),
	))
	defer span.End()

	s.mu.Lock()
	_, exists := s.roster.Record(name, date)
	var students int
	if !exists {
		err = s.commit(ctx, s.roster.WithRecord(name, date, models.DefaultRecord()))
	}
	students = len(s.roster)
	s.mu.Unlock()

	if err != nil {
		return StudentDay{}, false, s.mutationFailed(span, "add_student", err)
	}

	observability.RosterMutations().WithLabelValues("add_student", "ok").Inc()
	if !exists {
		s.afterCommit(ctx, actor, RosterEvent{Type: RosterEventStudentAdded, Student: name, Date: date, Students: students},
			"student", name, map[string]interface{}{"date": date})
	}
	return key, true, nil
}

func (s *rosterService) ToggleFlag(ctx context.Context, name, date string, flag models.Flag, actor ActivityActor) (StudentDay, models.DailyRecord, error) {
	name = s.normalizeName(name)
	if name == "" {
		return StudentDay{}, models.DailyRecord{}, ErrInvalidStudentName
	}

	date, err := normalizeDate(date)
	if err != nil {
		return StudentDay{}, models.DailyRecord{}, err
	}

	if !flag.Valid() {
		return StudentDay{}, models.DailyRecord{}, ErrUnknownFlag
	}

	ctx, span := s.tracer.Start(ctx, "roster.toggle_flag", trace.WithAttributes(
		attribute.String("roster.student", name),
		attribute.String("roster.date", date),
		attribute.String("roster.flag", string(flag)),
	))
	defer span.End()

	s.mu.Lock()
	current, _ := s.roster.Record(name, date)
	next := current.Toggle(flag)
	err = s.commit(ctx, s.roster.WithRecord(name, date, next))
	students := len(s.roster)
	s.mu.Unlock()

	if err != nil {
		return StudentDay{}, models.DailyRecord{}, s.mutationFailed(span, "toggle_flag", err)
	}

	span.SetAttributes(attribute.Int("roster.score", next.Score))
	observability.RosterMutations().WithLabelValues("toggle_flag", "ok").Inc()
	s.afterCommit(ctx, actor, RosterEvent{
		Type:     RosterEventRecordToggled,
		Student:  name,
		Date:     date,
		Record:   &RosterEventRecord{Active: next.Active, Violated: next.Violated, Score: next.Score},
		Students: students,
	}, "record", name+"/"+date, map[string]interface{}{
		"date":     date,
		"flag":     string(flag),
		"active":   next.Active,
		"violated": next.Violated,
		"score":    next.Score,
	})

	return StudentDay{Name: name, Date: date}, next, nil
}

func (s *rosterService) RemoveStudent(ctx context.Context, name string, actor ActivityActor) error {
	name = s.normalizeName(name)
	if name == "" {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "roster.remove_student", trace.WithAttributes(
		attribute.String("roster.student", name),
	))
	defer span.End()

	s.mu.Lock()
	records, exists := s.roster[name]
	var err error
	if exists {
		err = s.commit(ctx, s.roster.WithoutStudent(name))
	}
	students := len(s.roster)
	s.mu.Unlock()

	if err != nil {
		return s.mutationFailed(span, "remove_student", err)
	}
	if !exists {
		return nil
	}

	observability.RosterMutations().WithLabelValues("remove_student", "ok").Inc()
	s.afterCommit(ctx, actor, RosterEvent{Type: RosterEventStudentRemoved, Student: name, Students: students},
		"student", name, map[string]interface{}{"records": len(records)})
	return nil
}

func (s *rosterService) Import(ctx context.Context, snapshot models.Roster, actor ActivityActor) (models.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "roster.import")
	defer span.End()

	normalized, err := s.normalizeSnapshot(snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_snapshot")
		return nil, err
	}

	s.mu.Lock()
	err = s.commit(ctx, normalized)
	s.mu.Unlock()

	if err != nil {
		return nil, s.mutationFailed(span, "import", err)
	}

	records := 0
	for _, dates := range normalized {
		records += len(dates)
	}

	observability.RosterMutations().WithLabelValues("import", "ok").Inc()
	s.afterCommit(ctx, actor, RosterEvent{Type: RosterEventImported, Students: len(normalized)},
		"roster", s.key, map[string]interface{}{"students": len(normalized), "records": records})

	return normalized.Clone(), nil
}

func (s *rosterService) Record(name, date string) (models.DailyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Record(s.normalizeName(name), strings.TrimSpace(date))
}

func (s *rosterService) Students() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Students()
}

func (s *rosterService) ListDates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Dates()
}

func (s *rosterService) ViewForDate(date string) ([]models.DayEntry, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.ViewForDate(date), nil
}

func (s *rosterService) FullHistory() []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.History()
}

func (s *rosterService) SeriesForStudent(name string) []models.SeriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Series(s.normalizeName(name))
}

func (s *rosterService) Snapshot() models.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Clone()
}

// commit persists next in full and only then makes it current. Callers hold s.mu.
func (s *rosterService) commit(ctx context.Context, next models.Roster) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}

	if err := s.store.Set(ctx, s.key, string(payload)); err != nil {
		return fmt.Errorf("persist roster: %w", err)
	}

	s.roster = next
	observability.RosterStudents().Set(float64(len(next)))
	return nil
}

func (s *rosterService) swap(next models.Roster) {
	s.mu.Lock()
	s.roster = next
	s.mu.Unlock()
	observability.RosterStudents().Set(float64(len(next)))
}

func (s *rosterService) mutationFailed(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, operation+"_failed")
	observability.RosterMutations().WithLabelValues(operation, "error").Inc()
	s.logger.Error().Err(err).Str("operation", operation).Msg("roster mutation failed")
	return err
}

func (s *rosterService) afterCommit(ctx context.Context, actor ActivityActor, event RosterEvent, entityType, entityKey string, metadata map[string]interface{}) {
	if s.activity != nil {
		if _, err := s.activity.Record(ctx, ActivityEntry{
			Actor:      actor,
			Action:     event.Type,
			EntityType: entityType,
			EntityKey:  entityKey,
			Metadata:   metadata,
		}); err != nil {
			s.logger.Warn().Err(err).Str("action", event.Type).Msg("failed to record roster activity")
		}
	}

	if s.events != nil {
		event.Actor = normalizeActorName(actor.Name)
		event.OccurredAt = s.now().UTC()
		if err := s.events.Publish(ctx, event); err != nil {
			observability.RosterEventPublishErrors().Inc()
			s.logger.Warn().Err(err).Str("event", event.Type).Msg("failed to publish roster event")
		}
	}
}

// normalizeName strips markup and surrounding whitespace so names used as keys
// are stable across add, toggle and remove.
func (s *rosterService) normalizeName(name string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(name)))
}

// normalizeSnapshot rekeys snapshot the way mutations do and recomputes scores.
// Invalid entries are skipped and reported together in the returned error.
func (s *rosterService) normalizeSnapshot(snapshot models.Roster) (models.Roster, error) {
	out := make(models.Roster, len(snapshot))
	var errs []error
	for rawName, dates := range snapshot {
		name := s.normalizeName(rawName)
		if name == "" {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidStudentName, rawName))
			continue
		}
		merged, ok := out[name]
		if !ok {
			merged = make(map[string]models.DailyRecord, len(dates))
			out[name] = merged
		}
		for rawDate, record := range dates {
			date, err := normalizeDate(rawDate)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %q for %s", ErrInvalidDate, rawDate, name))
				continue
			}
			merged[date] = models.NewDailyRecord(record.Active, record.Violated)
		}
	}
	return out, errors.Join(errs...)
}

func normalizeDate(date string) (string, error) {
	parsed, err := models.ParseDate(date)
	if err != nil {
		return "", ErrInvalidDate
	}
	return parsed, nil
}

func decodeRoster(raw string) (models.Roster, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return models.Roster{}, nil
	}

	var roster models.Roster
	if err := json.Unmarshal([]byte(trimmed), &roster); err != nil {
		return nil, err
	}
	if roster == nil {
		roster = models.Roster{}
	}
	return roster, nil
}
