package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"schoolhub/internal/cache"
	"schoolhub/internal/model"
	"schoolhub/internal/repository"
)

// Schools is superadmin-only end to end; the route policy enforces the role
// before these methods run.
type Schools struct {
	schools    repository.Schools
	classrooms repository.Classrooms
	students   repository.Students
	cache      *cache.Cache
	listTTL    time.Duration
	detailTTL  time.Duration
}

func NewSchools(schools repository.Schools, classrooms repository.Classrooms, students repository.Students, c *cache.Cache, listTTL, detailTTL time.Duration) *Schools {
	return &Schools{
		schools:    schools,
		classrooms: classrooms,
		students:   students,
		cache:      c,
		listTTL:    listTTL,
		detailTTL:  detailTTL,
	}
}

type SchoolInput struct {
	Name         string `json:"name" validate:"required,min=3,max=100"`
	Address      string `json:"address" validate:"omitempty,max=200"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,e164"`
	Profile      struct {
		Logo        string `json:"logo" validate:"omitempty,uri"`
		Description string `json:"description" validate:"omitempty,max=500"`
	} `json:"profile"`
}

func (s *Schools) Create(ctx context.Context, in SchoolInput) (*model.School, error) {
	now := time.Now().UTC()
	school := &model.School{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Address:      in.Address,
		ContactEmail: in.ContactEmail,
		Phone:        in.Phone,
		Profile: model.SchoolProfile{
			Logo:        in.Profile.Logo,
			Description: in.Profile.Description,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.SchoolsListPattern())
	return school, nil
}

func (s *Schools) Get(ctx context.Context, id string) (*model.School, error) {
	key := cache.SchoolKey(id)
	var cached model.School
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("School not found")
		}
		return nil, err
	}
	s.cache.SetJSON(ctx, key, school, s.detailTTL)
	return school, nil
}

func (s *Schools) List(ctx context.Context, p repository.ListParams) (*ListResult[model.School], error) {
	key := cache.SchoolsListKey(p.Page, p.Limit, sortKey(p))
	var cached ListResult[model.School]
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}
	schools, total, err := s.schools.List(ctx, p)
	if err != nil {
		return nil, err
	}
	result := &ListResult[model.School]{Items: schools, Total: total, Page: p.Page, Limit: p.Limit}
	s.cache.SetJSON(ctx, key, result, s.listTTL)
	return result, nil
}

func (s *Schools) Update(ctx context.Context, id string, in SchoolInput) (*model.School, error) {
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("School not found")
		}
		return nil, err
	}
	school.Name = in.Name
	school.Address = in.Address
	school.ContactEmail = in.ContactEmail
	school.Phone = in.Phone
	school.Profile = model.SchoolProfile{Logo: in.Profile.Logo, Description: in.Profile.Description}
	school.UpdatedAt = time.Now().UTC()
	if err := s.schools.Update(ctx, school); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.SchoolsListPattern())
	s.cache.Delete(ctx, cache.SchoolKey(id))
	return school, nil
}

// Delete refuses to orphan classrooms or students.
func (s *Schools) Delete(ctx context.Context, id string) error {
	if _, err := s.schools.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("School not found")
		}
		return err
	}
	classrooms, err := s.classrooms.CountBySchool(ctx, id)
	if err != nil {
		return err
	}
	students, err := s.students.CountBySchool(ctx, id)
	if err != nil {
		return err
	}
	if classrooms > 0 || students > 0 {
		return badRequest("Cannot delete school with associated resources")
	}
	if err := s.schools.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("School not found")
		}
		return err
	}
	s.cache.Invalidate(ctx, cache.SchoolsListPattern())
	s.cache.Delete(ctx, cache.SchoolKey(id))
	return nil
}
