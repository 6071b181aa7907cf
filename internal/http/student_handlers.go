package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/internal/service"
	"schoolhub/internal/validate"
)

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req service.CreateStudentInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validate.Struct(req); details != nil {
		writeValidationError(w, details)
		return
	}

	student, err := s.students.Create(r.Context(), identityFromContext(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	result, err := s.students.List(
		r.Context(),
		identityFromContext(r.Context()),
		optionalQuery(r, "schoolId"),
		optionalQuery(r, "classroomId"),
		listParamsFromRequest(r),
	)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.students.Get(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateStudentInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validate.Struct(req); details != nil {
		writeValidationError(w, details)
		return
	}

	student, err := s.students.Update(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := s.students.Delete(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type enrollRequest struct {
	ClassroomID string `json:"classroomId" validate:"required,uuid"`
}

func (s *Server) handleEnrollStudent(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validate.Struct(req); details != nil {
		writeValidationError(w, details)
		return
	}

	student, err := s.students.Enroll(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id"), req.ClassroomID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}
