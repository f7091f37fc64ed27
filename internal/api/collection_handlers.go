package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timetowish/timetowish-server/internal/http/response"
	"github.com/timetowish/timetowish-server/internal/service"
)

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req service.CollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	collection, err := s.collectionService.Create(r.Context(), getUserID(r), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, collection, s.logger)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.collectionService.List(r.Context(), getUserID(r))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, collections, s.logger)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.collectionService.Get(r.Context(), getUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, collection, s.logger)
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req service.CollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	collection, err := s.collectionService.Update(r.Context(), getUserID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, collection, s.logger)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collectionService.Delete(r.Context(), getUserID(r), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
