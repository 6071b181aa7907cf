package cache

import "fmt"

// Key builders. Every reader and invalidator goes through these so a list key
// written on read is always covered by the scope pattern deleted on write.

func SchoolKey(id string) string {
	return "school:" + id
}

func SchoolsListKey(page, limit int, sort string) string {
	return fmt.Sprintf("schools:all:%d:%d:%s", page, limit, sort)
}

func SchoolsListPattern() string {
	return "schools:all:*"
}

func ClassroomKey(id string) string {
	return "classroom:" + id
}

func ClassroomsListKey(schoolID string, page, limit int, sort string) string {
	return fmt.Sprintf("classrooms:%s:%d:%d:%s", schoolID, page, limit, sort)
}

func ClassroomsListPattern(schoolID string) string {
	return fmt.Sprintf("classrooms:%s:*", schoolID)
}

func StudentKey(id string) string {
	return "student:" + id
}

// StudentsListKey scopes the key by school and by the optional classroom
// filter, "all" standing in for an unfiltered list.
func StudentsListKey(schoolID string, classroomID *string, page, limit int, sort string) string {
	scope := "all"
	if classroomID != nil {
		scope = *classroomID
	}
	return fmt.Sprintf("students:%s:%s:%d:%d:%s", schoolID, scope, page, limit, sort)
}

func StudentsListPattern(schoolID string) string {
	return fmt.Sprintf("students:%s:*", schoolID)
}

func BlacklistKey(token string) string {
	return "blacklist:" + token
}

func RateLimitKey(scope, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, subject)
}
