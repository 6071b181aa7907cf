package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"schoolhub/internal/model"
)

func TestMemoryUsersDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUsers()

	if err := users.Create(ctx, &model.User{ID: "u1", Username: "admin"}); err != nil {
		t.Fatalf("create error: %v", err)
	}
	err := users.Create(ctx, &model.User{ID: "u2", Username: "admin"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemorySchoolsSortAndPaginate(t *testing.T) {
	ctx := context.Background()
	schools := NewMemorySchools()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"Charlie", "alpha", "Bravo"} {
		s := &model.School{ID: name, Name: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := schools.Create(ctx, s); err != nil {
			t.Fatalf("create error: %v", err)
		}
	}

	got, total, err := schools.List(ctx, ListParams{Page: 1, Limit: 2, SortField: "name", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(got) != 2 || got[0].Name != "alpha" || got[1].Name != "Bravo" {
		t.Fatalf("unexpected page: %+v", got)
	}

	got, _, err = schools.List(ctx, ListParams{Page: 2, Limit: 2, SortField: "name", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Charlie" {
		t.Fatalf("unexpected page: %+v", got)
	}

	got, _, err = schools.List(ctx, ListParams{Page: 1, Limit: 3, SortField: "createdAt", SortOrder: "desc"})
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if got[0].Name != "Bravo" {
		t.Fatalf("unexpected desc order: %+v", got)
	}
}

func TestMemoryStudentsClassroomFilter(t *testing.T) {
	ctx := context.Background()
	students := NewMemoryStudents()

	c1 := "c1"
	for _, s := range []*model.Student{
		{ID: "s1", SchoolID: "sch1", ClassroomID: &c1, Name: "Ana"},
		{ID: "s2", SchoolID: "sch1", Name: "Ben"},
		{ID: "s3", SchoolID: "sch2", ClassroomID: &c1, Name: "Cy"},
	} {
		if err := students.Create(ctx, s); err != nil {
			t.Fatalf("create error: %v", err)
		}
	}

	got, total, err := students.List(ctx, "sch1", &c1, ListParams{Page: 1, Limit: 10, SortField: "name"})
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("unexpected filtered list: %+v", got)
	}

	count, err := students.CountByClassroom(ctx, c1)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 in classroom, got %d (%v)", count, err)
	}
}

func TestMemoryDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	if err := NewMemorySchools().Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
