package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ganot/verdant/internal/domain/contact"
	"github.com/ganot/verdant/internal/domain/content"
	"github.com/ganot/verdant/internal/domain/project"
	"github.com/ganot/verdant/internal/kv"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, contact.ErrInvalidInput),
		errors.Is(err, contact.ErrInvalidStatus),
		errors.Is(err, content.ErrInvalidContent):
		return http.StatusBadRequest
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, contact.ErrContactNotFound),
		errors.Is(err, content.ErrUnknownSection):
		return http.StatusNotFound
	case errors.Is(err, project.ErrDuplicateSlug):
		return http.StatusConflict
	case errors.Is(err, kv.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		s.logger.Error("store unavailable", slog.String("path", r.URL.Path), slog.Any("error", err))
		msg = "store unavailable"
	case http.StatusInternalServerError:
		s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: what + " not found"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// pageParams reads page and size query values. Missing values default to
// page 1 and defaultPageSize; size is capped at maxPageSize.
func pageParams(r *http.Request) (page, size int, err error) {
	page, size = 1, defaultPageSize
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.Join(errBadRequest, errors.New("page must be an integer"))
		}
	}
	if v := q.Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.Join(errBadRequest, errors.New("size must be an integer"))
		}
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, nil
}
