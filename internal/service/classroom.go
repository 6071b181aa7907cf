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

type Classrooms struct {
	classrooms repository.Classrooms
	schools    repository.Schools
	students   repository.Students
	cache      *cache.Cache
	listTTL    time.Duration
	detailTTL  time.Duration
}

func NewClassrooms(classrooms repository.Classrooms, schools repository.Schools, students repository.Students, c *cache.Cache, listTTL, detailTTL time.Duration) *Classrooms {
	return &Classrooms{
		classrooms: classrooms,
		schools:    schools,
		students:   students,
		cache:      c,
		listTTL:    listTTL,
		detailTTL:  detailTTL,
	}
}

type CreateClassroomInput struct {
	SchoolID  string   `json:"schoolId" validate:"required,uuid"`
	Name      string   `json:"name" validate:"required,min=2,max=100"`
	Capacity  int      `json:"capacity" validate:"required,min=1,max=1000"`
	Resources []string `json:"resources" validate:"omitempty,unique,dive,min=1,max=50"`
}

type UpdateClassroomInput struct {
	Name      string   `json:"name" validate:"required,min=2,max=100"`
	Capacity  int      `json:"capacity" validate:"required,min=1,max=1000"`
	Resources []string `json:"resources" validate:"omitempty,unique,dive,min=1,max=50"`
}

func (s *Classrooms) Create(ctx context.Context, identity model.Identity, in CreateClassroomInput) (*model.Classroom, error) {
	if err := checkWriteScope(identity, in.SchoolID); err != nil {
		return nil, err
	}
	if _, err := s.schools.GetByID(ctx, in.SchoolID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("School not found")
		}
		return nil, err
	}
	now := time.Now().UTC()
	classroom := &model.Classroom{
		ID:        uuid.NewString(),
		SchoolID:  in.SchoolID,
		Name:      in.Name,
		Capacity:  in.Capacity,
		Resources: in.Resources,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.classrooms.Create(ctx, classroom); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.ClassroomsListPattern(in.SchoolID))
	return classroom, nil
}

func (s *Classrooms) Get(ctx context.Context, identity model.Identity, id string) (*model.Classroom, error) {
	classroom, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRecordScope(identity, classroom.SchoolID); err != nil {
		return nil, err
	}
	return classroom, nil
}

func (s *Classrooms) List(ctx context.Context, identity model.Identity, schoolID *string, p repository.ListParams) (*ListResult[model.Classroom], error) {
	scope, err := listScope(identity, schoolID)
	if err != nil {
		return nil, err
	}
	key := cache.ClassroomsListKey(scope, p.Page, p.Limit, sortKey(p))
	var cached ListResult[model.Classroom]
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}
	classrooms, total, err := s.classrooms.List(ctx, scope, p)
	if err != nil {
		return nil, err
	}
	result := &ListResult[model.Classroom]{Items: classrooms, Total: total, Page: p.Page, Limit: p.Limit}
	s.cache.SetJSON(ctx, key, result, s.listTTL)
	return result, nil
}

// Update reads the store directly so a stale cached detail never becomes the
// base of a write.
func (s *Classrooms) Update(ctx context.Context, identity model.Identity, id string, in UpdateClassroomInput) (*model.Classroom, error) {
	classroom, err := s.loadStore(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRecordScope(identity, classroom.SchoolID); err != nil {
		return nil, err
	}
	classroom.Name = in.Name
	classroom.Capacity = in.Capacity
	classroom.Resources = in.Resources
	classroom.UpdatedAt = time.Now().UTC()
	if err := s.classrooms.Update(ctx, classroom); err != nil {
		return nil, err
	}
	s.invalidate(ctx, classroom)
	return classroom, nil
}

// Delete refuses while students are still enrolled.
func (s *Classrooms) Delete(ctx context.Context, identity model.Identity, id string) error {
	classroom, err := s.loadStore(ctx, id)
	if err != nil {
		return err
	}
	if err := checkRecordScope(identity, classroom.SchoolID); err != nil {
		return err
	}
	enrolled, err := s.students.CountByClassroom(ctx, id)
	if err != nil {
		return err
	}
	if enrolled > 0 {
		return badRequest("Cannot delete classroom with enrolled students")
	}
	if err := s.classrooms.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Classroom not found")
		}
		return err
	}
	s.invalidate(ctx, classroom)
	return nil
}

func (s *Classrooms) load(ctx context.Context, id string) (*model.Classroom, error) {
	key := cache.ClassroomKey(id)
	var cached model.Classroom
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Classroom not found")
		}
		return nil, err
	}
	s.cache.SetJSON(ctx, key, classroom, s.detailTTL)
	return classroom, nil
}

func (s *Classrooms) loadStore(ctx context.Context, id string) (*model.Classroom, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Classroom not found")
		}
		return nil, err
	}
	return classroom, nil
}

func (s *Classrooms) invalidate(ctx context.Context, classroom *model.Classroom) {
	s.cache.Invalidate(ctx, cache.ClassroomsListPattern(classroom.SchoolID))
	s.cache.Delete(ctx, cache.ClassroomKey(classroom.ID))
}
