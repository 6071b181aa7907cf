package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/internal/service"
	"schoolhub/internal/validate"
)

func (s *Server) handleCreateClassroom(w http.ResponseWriter, r *http.Request) {
	var req service.CreateClassroomInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validate.Struct(req); details != nil {
		writeValidationError(w, details)
		return
	}

	classroom, err := s.classrooms.Create(r.Context(), identityFromContext(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, classroom)
}

func (s *Server) handleListClassrooms(w http.ResponseWriter, r *http.Request) {
	result, err := s.classrooms.List(r.Context(), identityFromContext(r.Context()), optionalQuery(r, "schoolId"), listParamsFromRequest(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetClassroom(w http.ResponseWriter, r *http.Request) {
	classroom, err := s.classrooms.Get(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classroom)
}

func (s *Server) handleUpdateClassroom(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateClassroomInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validate.Struct(req); details != nil {
		writeValidationError(w, details)
		return
	}

	classroom, err := s.classrooms.Update(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classroom)
}

func (s *Server) handleDeleteClassroom(w http.ResponseWriter, r *http.Request) {
	if err := s.classrooms.Delete(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
