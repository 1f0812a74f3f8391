package app

import (
	"context"
	"strings"
	"time"

	"github.com/cimillas/seatplan/internal/clock"
	"github.com/cimillas/seatplan/internal/domain"
)

type AdminRepository interface {
	CreateOccasion(ctx context.Context, occasion domain.Occasion) (domain.Occasion, error)
	ListOccasions(ctx context.Context) ([]domain.Occasion, error)
	CreatePerson(ctx context.Context, person domain.Person, createdAt time.Time) error
	ListPersons(ctx context.Context, status domain.PersonStatus) ([]domain.Person, error)
}

// AdminService maintains occasions and the person roster the planner draws from.
type AdminService struct {
	repo  AdminRepository
	clock clock.Clock
}

func NewAdminService(repo AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
	}
}

type CreateOccasionInput struct {
	Name string
	Day  *time.Time
}

func (s *AdminService) CreateOccasion(ctx context.Context, in CreateOccasionInput) (domain.Occasion, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Occasion{}, domain.ErrNameRequired
	}
	day := s.clock.Now()
	if in.Day != nil {
		day = *in.Day
	}
	y, m, d := day.Date()

	return s.repo.CreateOccasion(ctx, domain.Occasion{
		ID:   newUUID(),
		Name: name,
		Day:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	})
}

func (s *AdminService) ListOccasions(ctx context.Context) ([]domain.Occasion, error) {
	return s.repo.ListOccasions(ctx)
}

type CreatePersonInput struct {
	Name    string
	Gender  string
	GroupID string
}

func (s *AdminService) CreatePerson(ctx context.Context, in CreatePersonInput) (domain.Person, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Person{}, domain.ErrNameRequired
	}
	gender := domain.Gender(strings.ToLower(strings.TrimSpace(in.Gender)))
	if !gender.Valid() {
		return domain.Person{}, domain.ErrInvalidGender
	}

	person := domain.Person{
		ID:      newUUID(),
		Name:    name,
		Gender:  gender,
		GroupID: strings.TrimSpace(in.GroupID),
		Status:  domain.PersonStatusCandidate,
	}
	if err := s.repo.CreatePerson(ctx, person, s.clock.Now()); err != nil {
		return domain.Person{}, err
	}
	return person, nil
}

// ListPersons returns the roster. An empty status lists everyone.
func (s *AdminService) ListPersons(ctx context.Context, status string) ([]domain.Person, error) {
	st := domain.PersonStatus(status)
	if st != "" && !st.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.ListPersons(ctx, st)
}
