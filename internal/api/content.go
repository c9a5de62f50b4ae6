package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	sec, err := s.content.Get(r.Context(), mux.Vars(r)["section"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sec)
}

func (s *Server) handlePutContent(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.Join(errBadRequest, err))
		return
	}
	if err := s.content.Put(r.Context(), mux.Vars(r)["section"], raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetContent(w http.ResponseWriter, r *http.Request) {
	if err := s.content.Reset(r.Context(), mux.Vars(r)["section"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
