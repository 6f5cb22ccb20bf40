package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"alcyxob/jogging-api/internal/domain"
	"alcyxob/jogging-api/internal/filter"
	"alcyxob/jogging-api/internal/repository"
	"alcyxob/jogging-api/internal/weather"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// weatherTimestampLayout is the ISO timestamp handed to the weather
// collaborator. The start time is UTC with zero offset by the time the
// lookup runs, so no offset suffix is needed.
const weatherTimestampLayout = "2006-01-02T15:04:05"

// SessionInput carries the caller-supplied field values for a session
// write. Pointer fields distinguish "missing" from zero values so the
// validation can report absent fields.
type SessionInput struct {
	UserID          primitive.ObjectID
	Distance        *int
	Duration        *int
	Start           *time.Time
	LocalTimezone   string
	WeatherLocation string
}

// SessionService owns the session write path (validation, denormalized
// field computation, the one-session-per-user-per-day invariant) and the
// scoped read paths.
type SessionService interface {
	Create(ctx context.Context, input SessionInput) (*domain.Session, error)
	Get(ctx context.Context, caller *domain.User, id primitive.ObjectID) (*domain.Session, error)
	Update(ctx context.Context, caller *domain.User, id primitive.ObjectID, input SessionInput) (*domain.Session, error)
	Delete(ctx context.Context, caller *domain.User, id primitive.ObjectID) error
	List(ctx context.Context, caller *domain.User, filterString string) ([]domain.Session, error)
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	weather     weather.Service
}

func NewSessionService(sessionRepo repository.SessionRepository, weatherService weather.Service) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		weather:     weatherService,
	}
}

// roundSpeed rounds a km/h value to one decimal place.
func roundSpeed(v float64) float64 {
	return math.Round(v*10) / 10
}

// validateAndCompute checks the proposed field values in order (first
// failure wins) and computes the denormalized fields. When existing is
// non-nil its identity, ownership and previously looked-up weather carry
// over; weather is only ever looked up while the field is still empty.
func (s *sessionService) validateAndCompute(ctx context.Context, input SessionInput, existing *domain.Session) (*domain.Session, error) {
	if input.Distance == nil || *input.Distance < 0 {
		return nil, ErrInvalidDistance
	}
	if input.Duration == nil || *input.Duration < 0 {
		return nil, ErrInvalidDuration
	}
	if input.Start == nil {
		return nil, ErrNonZeroOffset
	}
	if _, offset := input.Start.Zone(); offset != 0 {
		return nil, ErrNonZeroOffset
	}

	session := &domain.Session{
		UserID:          input.UserID,
		Distance:        *input.Distance,
		Duration:        *input.Duration,
		LocalTimezone:   input.LocalTimezone,
		WeatherLocation: input.WeatherLocation,
	}
	if existing != nil {
		session.ID = existing.ID
		session.UserID = existing.UserID
		session.Weather = existing.Weather
		session.CreatedAt = existing.CreatedAt
	}

	// Speed, defined as 0 when duration is 0.
	if session.Duration == 0 {
		session.Speed = 0
	} else {
		km := float64(session.Distance) / 1000.0
		hr := float64(session.Duration) / 60.0
		session.Speed = roundSpeed(km / hr)
	}

	// Start time keeps minute resolution.
	session.Start = input.Start.UTC().Truncate(time.Minute)

	// ISO 8601 calendar week, yyyyww.
	isoYear, isoWeek := session.Start.ISOWeek()
	session.Week = isoYear*100 + isoWeek

	// Look up weather at most once per session lifetime.
	if session.Weather == "" && session.WeatherLocation != "" {
		session.Weather = s.weather.Lookup(ctx, session.WeatherLocation, session.Start.Format(weatherTimestampLayout))
	}

	return session, nil
}

// checkUnique enforces the at-most-one-session-per-user-per-day
// invariant against all other stored sessions. It runs on the validated,
// minute-truncated session, before persistence.
func (s *sessionService) checkUnique(ctx context.Context, session *domain.Session) error {
	if session.Start.IsZero() {
		return ErrStartNotDefined
	}
	if session.UserID.IsZero() {
		return ErrUserNotDefined
	}

	count, err := s.sessionRepo.CountForUserDay(ctx, session.UserID, session.Start, session.ID)
	if err != nil {
		return err
	}
	if count != 0 {
		return ErrDuplicateDay
	}
	return nil
}

func (s *sessionService) Create(ctx context.Context, input SessionInput) (*domain.Session, error) {
	session, err := s.validateAndCompute(ctx, input, nil)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, session); err != nil {
		return nil, err
	}

	id, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		// The unique day index may reject a concurrent insert that slipped
		// past the check above.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateDay
		}
		return nil, err
	}
	session.ID = id

	log.Debugf("session %s created for user %s", session.ID.Hex(), session.UserID.Hex())
	return session, nil
}

// Get returns the session when the caller owns it or is a superuser.
func (s *sessionService) Get(ctx context.Context, caller *domain.User, id primitive.ObjectID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != caller.ID && !caller.IsSuperuser {
		return nil, ErrForbidden
	}
	return session, nil
}

// Update reruns full validation and recomputation on the stored session;
// there is no partial-update short-circuit. The owning user cannot be
// changed through an update.
func (s *sessionService) Update(ctx context.Context, caller *domain.User, id primitive.ObjectID, input SessionInput) (*domain.Session, error) {
	existing, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	session, err := s.validateAndCompute(ctx, input, existing)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, session); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateDay
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionService) Delete(ctx context.Context, caller *domain.User, id primitive.ObjectID) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	return s.sessionRepo.Delete(ctx, id)
}

// List returns sessions in the default order (start desc, id asc):
// all of them for superusers, otherwise the caller's own. A non-empty
// filter string keeps only the sessions it evaluates to true for.
func (s *sessionService) List(ctx context.Context, caller *domain.User, filterString string) ([]domain.Session, error) {
	var userID *primitive.ObjectID
	if !caller.IsSuperuser {
		userID = &caller.ID
	}

	sessions, err := s.sessionRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	if filterString == "" {
		return sessions, nil
	}

	matched := []domain.Session{}
	for i := range sessions {
		if filter.Evaluate(filterString, sessionTokens(&sessions[i])) {
			matched = append(matched, sessions[i])
		}
	}
	return matched, nil
}

// sessionTokens builds the per-session substitution map for the filter
// evaluator. String-valued fields are single-quoted so they substitute as
// string literals.
func sessionTokens(session *domain.Session) map[string]string {
	tokens := filter.NewTokens()
	tokens["start"] = "'" + session.Start.Format("2006-01-02T15:04") + "'"
	tokens["week"] = strconv.Itoa(session.Week)
	tokens["local_timezone"] = "'" + session.LocalTimezone + "'"
	tokens["distance"] = strconv.Itoa(session.Distance)
	tokens["duration"] = strconv.Itoa(session.Duration)
	tokens["speed"] = strconv.FormatFloat(session.Speed, 'f', 1, 64)
	tokens["weather_location"] = "'" + session.WeatherLocation + "'"
	tokens["weather"] = "'" + session.Weather + "'"
	tokens["user"] = "'" + session.UserID.Hex() + "'"
	return tokens
}
