// Package repository defines the persistence interfaces and their Postgres
// implementations. A matching in-memory implementation backs the service
// tests.
package repository

import (
	"context"
	"errors"

	"schoolhub/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// ListParams carries normalized pagination and sorting. Callers validate and
// default the values before they reach a repository.
type ListParams struct {
	Page      int
	Limit     int
	SortField string
	SortOrder string
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Users interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, id string, token *string) error
}

type Schools interface {
	Create(ctx context.Context, s *model.School) error
	GetByID(ctx context.Context, id string) (*model.School, error)
	List(ctx context.Context, p ListParams) ([]model.School, int, error)
	Update(ctx context.Context, s *model.School) error
	Delete(ctx context.Context, id string) error
}

type Classrooms interface {
	Create(ctx context.Context, c *model.Classroom) error
	GetByID(ctx context.Context, id string) (*model.Classroom, error)
	List(ctx context.Context, schoolID string, p ListParams) ([]model.Classroom, int, error)
	Update(ctx context.Context, c *model.Classroom) error
	Delete(ctx context.Context, id string) error
	CountBySchool(ctx context.Context, schoolID string) (int, error)
}

type Students interface {
	Create(ctx context.Context, s *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	List(ctx context.Context, schoolID string, classroomID *string, p ListParams) ([]model.Student, int, error)
	Update(ctx context.Context, s *model.Student) error
	Delete(ctx context.Context, id string) error
	CountBySchool(ctx context.Context, schoolID string) (int, error)
	CountByClassroom(ctx context.Context, classroomID string) (int, error)
}
