package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"schoolhub/internal/model"
)

// In-memory implementations used by tests and local development. They mirror
// the Postgres behavior, including sort whitelisting and duplicate detection.

type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]model.User)}
}

func (r *MemoryUsers) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			copy := u
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := u
	return &copy, nil
}

func (r *MemoryUsers) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = token
	r.users[id] = u
	return nil
}

type MemorySchools struct {
	mu      sync.RWMutex
	schools map[string]model.School
}

func NewMemorySchools() *MemorySchools {
	return &MemorySchools{schools: make(map[string]model.School)}
}

func (r *MemorySchools) Create(ctx context.Context, s *model.School) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schools[s.ID] = *s
	return nil
}

func (r *MemorySchools) GetByID(ctx context.Context, id string) (*model.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schools[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := s
	return &copy, nil
}

func (r *MemorySchools) List(ctx context.Context, p ListParams) ([]model.School, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]model.School, 0, len(r.schools))
	for _, s := range r.schools {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		less := false
		switch p.SortField {
		case "createdAt":
			less = all[i].CreatedAt.Before(all[j].CreatedAt)
		default:
			less = strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
		}
		if p.SortOrder == "desc" {
			return !less
		}
		return less
	})
	total := len(all)
	return paginate(all, p), total, nil
}

func (r *MemorySchools) Update(ctx context.Context, s *model.School) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schools[s.ID]; !ok {
		return ErrNotFound
	}
	r.schools[s.ID] = *s
	return nil
}

func (r *MemorySchools) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schools[id]; !ok {
		return ErrNotFound
	}
	delete(r.schools, id)
	return nil
}

type MemoryClassrooms struct {
	mu         sync.RWMutex
	classrooms map[string]model.Classroom
}

func NewMemoryClassrooms() *MemoryClassrooms {
	return &MemoryClassrooms{classrooms: make(map[string]model.Classroom)}
}

func (r *MemoryClassrooms) Create(ctx context.Context, c *model.Classroom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classrooms[c.ID] = *c
	return nil
}

func (r *MemoryClassrooms) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classrooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := c
	return &copy, nil
}

func (r *MemoryClassrooms) List(ctx context.Context, schoolID string, p ListParams) ([]model.Classroom, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := []model.Classroom{}
	for _, c := range r.classrooms {
		if c.SchoolID == schoolID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		less := false
		switch p.SortField {
		case "capacity":
			less = all[i].Capacity < all[j].Capacity
		case "createdAt":
			less = all[i].CreatedAt.Before(all[j].CreatedAt)
		default:
			less = strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
		}
		if p.SortOrder == "desc" {
			return !less
		}
		return less
	})
	total := len(all)
	return paginate(all, p), total, nil
}

func (r *MemoryClassrooms) Update(ctx context.Context, c *model.Classroom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classrooms[c.ID]; !ok {
		return ErrNotFound
	}
	r.classrooms[c.ID] = *c
	return nil
}

func (r *MemoryClassrooms) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classrooms[id]; !ok {
		return ErrNotFound
	}
	delete(r.classrooms, id)
	return nil
}

func (r *MemoryClassrooms) CountBySchool(ctx context.Context, schoolID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, c := range r.classrooms {
		if c.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

type MemoryStudents struct {
	mu       sync.RWMutex
	students map[string]model.Student
}

func NewMemoryStudents() *MemoryStudents {
	return &MemoryStudents{students: make(map[string]model.Student)}
}

func (r *MemoryStudents) Create(ctx context.Context, s *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[s.ID] = *s
	return nil
}

func (r *MemoryStudents) GetByID(ctx context.Context, id string) (*model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := s
	return &copy, nil
}

func (r *MemoryStudents) List(ctx context.Context, schoolID string, classroomID *string, p ListParams) ([]model.Student, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := []model.Student{}
	for _, s := range r.students {
		if s.SchoolID != schoolID {
			continue
		}
		if classroomID != nil && (s.ClassroomID == nil || *s.ClassroomID != *classroomID) {
			continue
		}
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		less := false
		switch p.SortField {
		case "age":
			ai, aj := 0, 0
			if all[i].Age != nil {
				ai = *all[i].Age
			}
			if all[j].Age != nil {
				aj = *all[j].Age
			}
			less = ai < aj
		case "createdAt":
			less = all[i].CreatedAt.Before(all[j].CreatedAt)
		default:
			less = strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
		}
		if p.SortOrder == "desc" {
			return !less
		}
		return less
	})
	total := len(all)
	return paginate(all, p), total, nil
}

func (r *MemoryStudents) Update(ctx context.Context, s *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[s.ID]; !ok {
		return ErrNotFound
	}
	r.students[s.ID] = *s
	return nil
}

func (r *MemoryStudents) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return ErrNotFound
	}
	delete(r.students, id)
	return nil
}

func (r *MemoryStudents) CountBySchool(ctx context.Context, schoolID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, s := range r.students {
		if s.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryStudents) CountByClassroom(ctx context.Context, classroomID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, s := range r.students {
		if s.ClassroomID != nil && *s.ClassroomID == classroomID {
			count++
		}
	}
	return count, nil
}

func paginate[T any](items []T, p ListParams) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
