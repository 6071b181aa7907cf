package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolhub/internal/model"
)

// Sort fields are whitelisted per table; anything else falls back to name.
var schoolSortColumns = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
}

var classroomSortColumns = map[string]string{
	"name":      "name",
	"capacity":  "capacity",
	"createdAt": "created_at",
}

var studentSortColumns = map[string]string{
	"name":           "name",
	"age":            "age",
	"enrollmentDate": "enrollment_date",
	"createdAt":      "created_at",
}

func orderBy(columns map[string]string, p ListParams) string {
	column, ok := columns[p.SortField]
	if !ok {
		column = "name"
	}
	direction := "ASC"
	if p.SortOrder == "desc" {
		direction = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

type PostgresUsers struct {
	pool *pgxpool.Pool
}

func NewPostgresUsers(pool *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{pool: pool}
}

func (r *PostgresUsers) Create(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, role, school_id, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Username, u.PasswordHash, u.Role, u.SchoolID, u.RefreshToken, u.CreatedAt, u.UpdatedAt)
	return mapError(err)
}

func (r *PostgresUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, school_id, refresh_token, created_at, updated_at
		FROM users
		WHERE username = $1
	`, username)
	return scanUser(row)
}

func (r *PostgresUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, school_id, refresh_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PostgresUsers) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2
	`, token, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.SchoolID,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

type PostgresSchools struct {
	pool *pgxpool.Pool
}

func NewPostgresSchools(pool *pgxpool.Pool) *PostgresSchools {
	return &PostgresSchools{pool: pool}
}

func (r *PostgresSchools) Create(ctx context.Context, s *model.School) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO schools (id, name, address, contact_email, phone, logo, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.Name, s.Address, s.ContactEmail, s.Phone, s.Profile.Logo, s.Profile.Description, s.CreatedAt, s.UpdatedAt)
	return mapError(err)
}

func (r *PostgresSchools) GetByID(ctx context.Context, id string) (*model.School, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, address, contact_email, phone, logo, description, created_at, updated_at
		FROM schools
		WHERE id = $1
	`, id)
	return scanSchool(row)
}

func (r *PostgresSchools) List(ctx context.Context, p ListParams) ([]model.School, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM schools`).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, address, contact_email, phone, logo, description, created_at, updated_at
		FROM schools
		`+orderBy(schoolSortColumns, p)+`
		LIMIT $1 OFFSET $2
	`, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	schools := []model.School{}
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, 0, err
		}
		schools = append(schools, *s)
	}
	return schools, total, mapError(rows.Err())
}

func (r *PostgresSchools) Update(ctx context.Context, s *model.School) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE schools
		SET name = $1, address = $2, contact_email = $3, phone = $4, logo = $5, description = $6, updated_at = $7
		WHERE id = $8
	`, s.Name, s.Address, s.ContactEmail, s.Phone, s.Profile.Logo, s.Profile.Description, s.UpdatedAt, s.ID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresSchools) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSchool(row pgx.Row) (*model.School, error) {
	var s model.School
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Address,
		&s.ContactEmail,
		&s.Phone,
		&s.Profile.Logo,
		&s.Profile.Description,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

type PostgresClassrooms struct {
	pool *pgxpool.Pool
}

func NewPostgresClassrooms(pool *pgxpool.Pool) *PostgresClassrooms {
	return &PostgresClassrooms{pool: pool}
}

func (r *PostgresClassrooms) Create(ctx context.Context, c *model.Classroom) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO classrooms (id, school_id, name, capacity, resources, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.SchoolID, c.Name, c.Capacity, c.Resources, c.CreatedAt, c.UpdatedAt)
	return mapError(err)
}

func (r *PostgresClassrooms) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, school_id, name, capacity, resources, created_at, updated_at
		FROM classrooms
		WHERE id = $1
	`, id)
	return scanClassroom(row)
}

func (r *PostgresClassrooms) List(ctx context.Context, schoolID string, p ListParams) ([]model.Classroom, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM classrooms WHERE school_id = $1`, schoolID).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, school_id, name, capacity, resources, created_at, updated_at
		FROM classrooms
		WHERE school_id = $1
		`+orderBy(classroomSortColumns, p)+`
		LIMIT $2 OFFSET $3
	`, schoolID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	classrooms := []model.Classroom{}
	for rows.Next() {
		c, err := scanClassroom(rows)
		if err != nil {
			return nil, 0, err
		}
		classrooms = append(classrooms, *c)
	}
	return classrooms, total, mapError(rows.Err())
}

func (r *PostgresClassrooms) Update(ctx context.Context, c *model.Classroom) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE classrooms
		SET name = $1, capacity = $2, resources = $3, updated_at = $4
		WHERE id = $5
	`, c.Name, c.Capacity, c.Resources, c.UpdatedAt, c.ID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresClassrooms) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresClassrooms) CountBySchool(ctx context.Context, schoolID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM classrooms WHERE school_id = $1`, schoolID).Scan(&count)
	return count, mapError(err)
}

func scanClassroom(row pgx.Row) (*model.Classroom, error) {
	var c model.Classroom
	err := row.Scan(
		&c.ID,
		&c.SchoolID,
		&c.Name,
		&c.Capacity,
		&c.Resources,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

type PostgresStudents struct {
	pool *pgxpool.Pool
}

func NewPostgresStudents(pool *pgxpool.Pool) *PostgresStudents {
	return &PostgresStudents{pool: pool}
}

func (r *PostgresStudents) Create(ctx context.Context, s *model.Student) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO students (id, school_id, classroom_id, name, age, enrollment_date, photo, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ID, s.SchoolID, s.ClassroomID, s.Name, s.Age, s.EnrollmentDate, s.Profile.Photo, s.Profile.Bio, s.CreatedAt, s.UpdatedAt)
	return mapError(err)
}

func (r *PostgresStudents) GetByID(ctx context.Context, id string) (*model.Student, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, school_id, classroom_id, name, age, enrollment_date, photo, bio, created_at, updated_at
		FROM students
		WHERE id = $1
	`, id)
	return scanStudent(row)
}

func (r *PostgresStudents) List(ctx context.Context, schoolID string, classroomID *string, p ListParams) ([]model.Student, int, error) {
	where := `WHERE school_id = $1`
	args := []any{schoolID}
	if classroomID != nil {
		where += ` AND classroom_id = $2`
		args = append(args, *classroomID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM students `+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	limitPos := len(args) + 1
	args = append(args, p.Limit, p.Offset())
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, school_id, classroom_id, name, age, enrollment_date, photo, bio, created_at, updated_at
		FROM students
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, where, orderBy(studentSortColumns, p), limitPos, limitPos+1), args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, *s)
	}
	return students, total, mapError(rows.Err())
}

func (r *PostgresStudents) Update(ctx context.Context, s *model.Student) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE students
		SET classroom_id = $1, name = $2, age = $3, enrollment_date = $4, photo = $5, bio = $6, updated_at = $7
		WHERE id = $8
	`, s.ClassroomID, s.Name, s.Age, s.EnrollmentDate, s.Profile.Photo, s.Profile.Bio, s.UpdatedAt, s.ID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStudents) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStudents) CountBySchool(ctx context.Context, schoolID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM students WHERE school_id = $1`, schoolID).Scan(&count)
	return count, mapError(err)
}

func (r *PostgresStudents) CountByClassroom(ctx context.Context, classroomID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM students WHERE classroom_id = $1`, classroomID).Scan(&count)
	return count, mapError(err)
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	err := row.Scan(
		&s.ID,
		&s.SchoolID,
		&s.ClassroomID,
		&s.Name,
		&s.Age,
		&s.EnrollmentDate,
		&s.Profile.Photo,
		&s.Profile.Bio,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}
