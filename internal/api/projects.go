package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ganot/verdant/internal/domain/project"
)

type createProjectPayload struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Year        string   `json:"year"`
	Size        string   `json:"size"`
	Images      []string `json:"images"`
	Features    []string `json:"features"`
	Plants      []string `json:"plants"`
}

type updateProjectPayload struct {
	Slug        *string   `json:"slug"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Location    *string   `json:"location"`
	Year        *string   `json:"year"`
	Size        *string   `json:"size"`
	Images      *[]string `json:"images"`
	Features    *[]string `json:"features"`
	Plants      *[]string `json:"plants"`
}

type reorderPayload struct {
	IDs []string `json:"ids"`
}

type updateProjectResponse struct {
	Project *project.Project `json:"project"`
	OldSlug string           `json:"oldSlug"`
	NewSlug string           `json:"newSlug"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view := project.ParseView(r.URL.Query().Get("view"))
	pg, err := s.projects.GetPage(r.Context(), page, size, view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pg)
}

func (s *Server) handleGetProjectBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if p == nil {
		notFound(w, "project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if p == nil {
		notFound(w, "project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in createProjectPayload
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.projects.Create(r.Context(), project.CreateRequest(in))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var in updateProjectPayload
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.projects.Update(r.Context(), mux.Vars(r)["id"], project.UpdateRequest(in))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updateProjectResponse{
		Project: res.Project,
		OldSlug: res.OldSlug,
		NewSlug: res.NewSlug,
	})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderProjects(w http.ResponseWriter, r *http.Request) {
	var in reorderPayload
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.projects.Reorder(r.Context(), in.IDs); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
