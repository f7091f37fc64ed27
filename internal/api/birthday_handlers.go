package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timetowish/timetowish-server/internal/http/response"
	"github.com/timetowish/timetowish-server/internal/service"
)

func (s *Server) handleCreateBirthday(w http.ResponseWriter, r *http.Request) {
	var req service.BirthdayRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	birthday, err := s.birthdayService.Create(r.Context(), getUserID(r), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, birthday, s.logger)
}

func (s *Server) handleListBirthdays(w http.ResponseWriter, r *http.Request) {
	collectionID := r.URL.Query().Get("collection_id")

	birthdays, err := s.birthdayService.List(r.Context(), getUserID(r), collectionID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, birthdays, s.logger)
}

func (s *Server) handleGetBirthday(w http.ResponseWriter, r *http.Request) {
	birthday, err := s.birthdayService.Get(r.Context(), getUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, birthday, s.logger)
}

func (s *Server) handleUpdateBirthday(w http.ResponseWriter, r *http.Request) {
	var req service.BirthdayRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	birthday, err := s.birthdayService.Update(r.Context(), getUserID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, birthday, s.logger)
}

func (s *Server) handleDeleteBirthday(w http.ResponseWriter, r *http.Request) {
	if err := s.birthdayService.Delete(r.Context(), getUserID(r), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleExportCalendar(w http.ResponseWriter, r *http.Request) {
	data, err := s.birthdayService.ExportCalendar(r.Context(), getUserID(r))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="birthdays.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write calendar response", "error", err)
	}
}

func (s *Server) handlePlatformStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analyticsService.Platform(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, stats, s.logger)
}
