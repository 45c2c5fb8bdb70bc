package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JCUYLLE2/FindFilms/internal/identity"
)

// MaxAge is the largest age accepted on save.
const MaxAge = 150

var validate = validator.New()

// Service applies profile rules on top of a Repository.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	timeout time.Duration
}

// NewService constructs a Service. timeout bounds each remote call.
func NewService(repo Repository, logger *slog.Logger, timeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{repo: repo, logger: logger, timeout: timeout}
}

// Load returns the profile of id, defaulting every missing field.
func (s *Service) Load(ctx context.Context, id *identity.Identity) (Profile, error) {
	if id == nil || id.UID == "" {
		return Profile{}, ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.repo.Get(ctx, id.UID)
	if err != nil {
		s.logger.Warn("profile load failed", "user_id", id.UID, "err", err)
		return Profile{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return decodeProfile(data), nil
}

type validatedInput struct {
	Name    string `validate:"max=100"`
	City    string `validate:"max=100"`
	Country string `validate:"max=100"`
	Age     int    `validate:"gte=0,lte=150"`
}

// Save validates in and overwrites the whole profile document.
func (s *Service) Save(ctx context.Context, id *identity.Identity, in Input) (Profile, error) {
	if id == nil || id.UID == "" {
		return Profile{}, ErrUnauthenticated
	}

	age, err := parseAge(in.Age)
	if err != nil {
		return Profile{}, err
	}
	v := validatedInput{
		Name:    strings.TrimSpace(in.Name),
		City:    strings.TrimSpace(in.City),
		Country: strings.TrimSpace(in.Country),
		Age:     age,
	}
	if err := validate.Struct(v); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	p := Profile{Name: v.Name, City: v.City, Country: v.Country, Age: v.Age}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Set(ctx, id.UID, p.fields()); err != nil {
		s.logger.Warn("profile save failed", "user_id", id.UID, "err", err)
		return Profile{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return p, nil
}

// CreateOnRegister writes the initial {Name, Location} document of a new account.
func (s *Service) CreateOnRegister(ctx context.Context, id *identity.Identity, name, location string) error {
	if id == nil || id.UID == "" {
		return ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.repo.Set(ctx, id.UID, map[string]any{
		fieldName:     strings.TrimSpace(name),
		fieldLocation: strings.TrimSpace(location),
	})
	if err != nil {
		s.logger.Warn("profile create failed", "user_id", id.UID, "err", err)
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return nil
}

// parseAge rejects non-numeric input instead of storing it; empty means 0.
func parseAge(raw AgeInput) (int, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: age must be a whole number", ErrValidation)
	}
	if n < 0 || n > MaxAge {
		return 0, fmt.Errorf("%w: age must be between 0 and %d", ErrValidation, MaxAge)
	}
	return n, nil
}
