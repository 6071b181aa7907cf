package service

import "schoolhub/internal/model"

// listScope decides which school a tenant-scoped list reads from. A
// schooladmin is pinned to their own school and any client-supplied schoolId
// is ignored; a superadmin must name one.
func listScope(identity model.Identity, schoolID *string) (string, error) {
	if identity.IsSchoolAdmin() {
		return identity.SchoolID, nil
	}
	if schoolID == nil || *schoolID == "" {
		return "", badRequest("schoolId required")
	}
	return *schoolID, nil
}

// checkWriteScope rejects a schooladmin payload naming another school.
func checkWriteScope(identity model.Identity, schoolID string) error {
	if identity.IsSchoolAdmin() && schoolID != identity.SchoolID {
		return forbidden("Forbidden: School mismatch")
	}
	return nil
}

// checkRecordScope rejects schooladmin access to another school's record,
// existence notwithstanding.
func checkRecordScope(identity model.Identity, schoolID string) error {
	if identity.IsSchoolAdmin() && schoolID != identity.SchoolID {
		return forbidden("Forbidden")
	}
	return nil
}
