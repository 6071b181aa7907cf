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

type Students struct {
	students   repository.Students
	schools    repository.Schools
	classrooms repository.Classrooms
	cache      *cache.Cache
	listTTL    time.Duration
	detailTTL  time.Duration
}

func NewStudents(students repository.Students, schools repository.Schools, classrooms repository.Classrooms, c *cache.Cache, listTTL, detailTTL time.Duration) *Students {
	return &Students{
		students:   students,
		schools:    schools,
		classrooms: classrooms,
		cache:      c,
		listTTL:    listTTL,
		detailTTL:  detailTTL,
	}
}

type StudentProfileInput struct {
	Photo string `json:"photo" validate:"omitempty,uri"`
	Bio   string `json:"bio" validate:"omitempty,max=500"`
}

type CreateStudentInput struct {
	SchoolID string              `json:"schoolId" validate:"required,uuid"`
	Name     string              `json:"name" validate:"required,min=2,max=100"`
	Age      *int                `json:"age" validate:"omitempty,min=5,max=25"`
	Profile  StudentProfileInput `json:"profile"`
}

type UpdateStudentInput struct {
	Name    string              `json:"name" validate:"required,min=2,max=100"`
	Age     *int                `json:"age" validate:"omitempty,min=5,max=25"`
	Profile StudentProfileInput `json:"profile"`
}

func (s *Students) Create(ctx context.Context, identity model.Identity, in CreateStudentInput) (*model.Student, error) {
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
	student := &model.Student{
		ID:       uuid.NewString(),
		SchoolID: in.SchoolID,
		Name:     in.Name,
		Age:      in.Age,
		Profile: model.StudentProfile{
			Photo: in.Profile.Photo,
			Bio:   in.Profile.Bio,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.StudentsListPattern(in.SchoolID))
	return student, nil
}

func (s *Students) Get(ctx context.Context, identity model.Identity, id string) (*model.Student, error) {
	key := cache.StudentKey(id)
	var cached model.Student
	if s.cache.GetJSON(ctx, key, &cached) {
		if err := checkRecordScope(identity, cached.SchoolID); err != nil {
			return nil, err
		}
		return &cached, nil
	}
	student, err := s.loadStore(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRecordScope(identity, student.SchoolID); err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, student, s.detailTTL)
	return student, nil
}

func (s *Students) List(ctx context.Context, identity model.Identity, schoolID, classroomID *string, p repository.ListParams) (*ListResult[model.Student], error) {
	scope, err := listScope(identity, schoolID)
	if err != nil {
		return nil, err
	}
	key := cache.StudentsListKey(scope, classroomID, p.Page, p.Limit, sortKey(p))
	var cached ListResult[model.Student]
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}
	students, total, err := s.students.List(ctx, scope, classroomID, p)
	if err != nil {
		return nil, err
	}
	result := &ListResult[model.Student]{Items: students, Total: total, Page: p.Page, Limit: p.Limit}
	s.cache.SetJSON(ctx, key, result, s.listTTL)
	return result, nil
}

func (s *Students) Update(ctx context.Context, identity model.Identity, id string, in UpdateStudentInput) (*model.Student, error) {
	student, err := s.loadStore(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRecordScope(identity, student.SchoolID); err != nil {
		return nil, err
	}
	student.Name = in.Name
	student.Age = in.Age
	student.Profile = model.StudentProfile{Photo: in.Profile.Photo, Bio: in.Profile.Bio}
	student.UpdatedAt = time.Now().UTC()
	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}
	s.invalidate(ctx, student)
	return student, nil
}

func (s *Students) Delete(ctx context.Context, identity model.Identity, id string) error {
	student, err := s.loadStore(ctx, id)
	if err != nil {
		return err
	}
	if err := checkRecordScope(identity, student.SchoolID); err != nil {
		return err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Student not found")
		}
		return err
	}
	s.invalidate(ctx, student)
	return nil
}

// Enroll assigns the student to a classroom in the same school, subject to
// capacity. The count-then-write is intentionally not atomic; two concurrent
// enrollments can each observe a free seat and both land.
func (s *Students) Enroll(ctx context.Context, identity model.Identity, studentID, classroomID string) (*model.Student, error) {
	student, err := s.loadStore(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := checkRecordScope(identity, student.SchoolID); err != nil {
		return nil, err
	}
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, badRequest("Invalid classroom for this school")
		}
		return nil, err
	}
	if classroom.SchoolID != student.SchoolID {
		return nil, badRequest("Invalid classroom for this school")
	}
	enrolled, err := s.students.CountByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if enrolled >= classroom.Capacity {
		return nil, badRequest("Classroom at full capacity")
	}
	student.ClassroomID = &classroom.ID
	if student.EnrollmentDate == nil {
		now := time.Now().UTC()
		student.EnrollmentDate = &now
	}
	student.UpdatedAt = time.Now().UTC()
	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}
	s.invalidate(ctx, student)
	return student, nil
}

func (s *Students) loadStore(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Student not found")
		}
		return nil, err
	}
	return student, nil
}

func (s *Students) invalidate(ctx context.Context, student *model.Student) {
	s.cache.Invalidate(ctx, cache.StudentsListPattern(student.SchoolID))
	s.cache.Delete(ctx, cache.StudentKey(student.ID))
}
