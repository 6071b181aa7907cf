package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/internal/service"
	"schoolhub/internal/validate"
)

func (s *Server) handleCreateSchool(w http.ResponseWriter, r *http.Request) {
	var req service.SchoolInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validate.Struct(req); details != nil {
		writeValidationError(w, details)
		return
	}

	school, err := s.schools.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, school)
}

func (s *Server) handleListSchools(w http.ResponseWriter, r *http.Request) {
	result, err := s.schools.List(r.Context(), listParamsFromRequest(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetSchool(w http.ResponseWriter, r *http.Request) {
	school, err := s.schools.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, school)
}

func (s *Server) handleUpdateSchool(w http.ResponseWriter, r *http.Request) {
	var req service.SchoolInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validate.Struct(req); details != nil {
		writeValidationError(w, details)
		return
	}

	school, err := s.schools.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, school)
}

func (s *Server) handleDeleteSchool(w http.ResponseWriter, r *http.Request) {
	if err := s.schools.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
