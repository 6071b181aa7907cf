package model

import "time"

const (
	RoleSuperAdmin  = "superadmin"
	RoleSchoolAdmin = "schooladmin"
)

// Identity is the request-scoped caller context produced by the auth guard
// and consumed by every service for role and tenant scoping decisions.
type Identity struct {
	UserID   string
	Role     string
	SchoolID string
}

func (i Identity) IsSuperAdmin() bool  { return i.Role == RoleSuperAdmin }
func (i Identity) IsSchoolAdmin() bool { return i.Role == RoleSchoolAdmin }

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	SchoolID     *string    `json:"schoolId,omitempty"`
	RefreshToken *string    `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type SchoolProfile struct {
	Logo        string `json:"logo,omitempty"`
	Description string `json:"description,omitempty"`
}

type School struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Address      string        `json:"address,omitempty"`
	ContactEmail string        `json:"contactEmail,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	Profile      SchoolProfile `json:"profile"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type Classroom struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"schoolId"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Resources []string  `json:"resources"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type StudentProfile struct {
	Photo string `json:"photo,omitempty"`
	Bio   string `json:"bio,omitempty"`
}

type Student struct {
	ID             string         `json:"id"`
	SchoolID       string         `json:"schoolId"`
	ClassroomID    *string        `json:"classroomId,omitempty"`
	Name           string         `json:"name"`
	Age            *int           `json:"age,omitempty"`
	EnrollmentDate *time.Time     `json:"enrollmentDate,omitempty"`
	Profile        StudentProfile `json:"profile"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
