package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ganot/verdant/internal/kv"
)

// Service handles portfolio operations.
type Service struct {
	store    kv.Store
	ordering *Ordering
	slugs    slugs
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new project service.
func NewService(store kv.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		ordering: NewOrdering(store, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// Ordering returns the ordering engine the service writes through.
func (s *Service) Ordering() *Ordering {
	return s.ordering
}

// CreateRequest defines project creation inputs. An empty Slug is derived
// from Title.
type CreateRequest struct {
	Slug        string
	Title       string
	Description string
	Category    string
	Location    string
	Year        string
	Size        string
	Images      []string
	Features    []string
	Plants      []string
}

// UpdateRequest carries a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Slug        *string
	Title       *string
	Description *string
	Category    *string
	Location    *string
	Year        *string
	Size        *string
	Images      *[]string
	Features    *[]string
	Plants      *[]string
}

// UpdateResult is returned by Update. OldSlug equals NewSlug when the slug
// did not change.
type UpdateResult struct {
	Project *Project
	OldSlug string
	NewSlug string
}

// Create stores a new project at the head of the ordering.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}
	if _, err := s.ordering.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	proj := &Project{
		ID:          uuid.NewString(),
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Year:        req.Year,
		Size:        req.Size,
		Images:      nonNil(req.Images),
		Features:    nonNil(req.Features),
		Plants:      nonNil(req.Plants),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.Update(ctx, func(tx kv.Tx) error {
		if err := s.slugs.Check(ctx, tx, proj.Slug, proj.ID); err != nil {
			return err
		}
		if err := s.ordering.insertAtHead(ctx, tx, proj.ID); err != nil {
			return err
		}
		if err := tx.HSet(ctx, keyProject(proj.ID), Encode(proj)); err != nil {
			return err
		}
		if err := tx.SAdd(ctx, keyAll, proj.ID); err != nil {
			return err
		}
		return s.slugs.Assign(ctx, tx, proj.Slug, proj.ID)
	}, keyOrder, keySlug(proj.Slug))
	if err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			return nil, err
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "id", proj.ID, "slug", proj.Slug)
	return proj, nil
}

// Get fetches a project by id. It returns nil, nil when there is none.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	if id == "" {
		return nil, nil
	}
	fields, err := s.store.HGetAll(ctx, keyProject(id))
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return s.decode(fields), nil
}

// GetBySlug fetches a project by slug. It returns nil, nil when the slug is
// unknown or its record is gone.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	id, ok, err := s.slugs.Resolve(ctx, s.store, slug)
	if err != nil {
		return nil, fmt.Errorf("resolving slug: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, id)
}

// Update applies req to the project. A slug change moves the index entry in
// the same transaction as the record write.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*UpdateResult, error) {
	if err := validateUpdate(&req); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrProjectNotFound
	}

	watch := []string{keyProject(id), keySlug(current.Slug)}
	if req.Slug != nil && *req.Slug != current.Slug {
		watch = append(watch, keySlug(*req.Slug))
	}

	var res UpdateResult
	err = s.store.Update(ctx, func(tx kv.Tx) error {
		fields, err := tx.HGetAll(ctx, keyProject(id))
		if err != nil {
			return err
		}
		proj := s.decode(fields)
		if proj == nil {
			return ErrProjectNotFound
		}
		oldSlug := proj.Slug
		req.apply(proj)
		proj.UpdatedAt = s.now().UTC()

		var owner string
		renamed := proj.Slug != oldSlug
		if renamed {
			if err := s.slugs.Check(ctx, tx, proj.Slug, id); err != nil {
				return err
			}
			if owner, _, err = s.slugs.Resolve(ctx, tx, oldSlug); err != nil {
				return err
			}
		}

		if err := tx.HSet(ctx, keyProject(id), Encode(proj)); err != nil {
			return err
		}
		if renamed {
			if err := s.slugs.Release(ctx, tx, oldSlug, id, owner); err != nil {
				return err
			}
			if err := s.slugs.Assign(ctx, tx, proj.Slug, id); err != nil {
				return err
			}
		}
		res = UpdateResult{Project: proj, OldSlug: oldSlug, NewSlug: proj.Slug}
		return nil
	}, watch...)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) || errors.Is(err, ErrDuplicateSlug) {
			return nil, err
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}

	s.logger.Info("project updated", "id", id, "old_slug", res.OldSlug, "new_slug", res.NewSlug)
	return &res, nil
}

// Delete removes the project record, its ordering entry and its slug.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrProjectNotFound
	}

	err = s.store.Update(ctx, func(tx kv.Tx) error {
		fields, err := tx.HGetAll(ctx, keyProject(id))
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return ErrProjectNotFound
		}
		slug := fields[fieldSlug]
		owner, _, err := s.slugs.Resolve(ctx, tx, slug)
		if err != nil {
			return err
		}

		if err := tx.Del(ctx, keyProject(id)); err != nil {
			return err
		}
		if err := tx.SRem(ctx, keyAll, id); err != nil {
			return err
		}
		if err := s.ordering.remove(ctx, tx, id); err != nil {
			return err
		}
		return s.slugs.Release(ctx, tx, slug, id, owner)
	}, keyProject(id), keySlug(current.Slug))
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return err
		}
		return fmt.Errorf("deleting project: %w", err)
	}

	s.logger.Info("project deleted", "id", id)
	return nil
}

// Reorder sets the display order to ids.
func (s *Service) Reorder(ctx context.Context, ids []string) error {
	if err := s.ordering.Reorder(ctx, ids); err != nil {
		if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrProjectNotFound) {
			return err
		}
		return fmt.Errorf("reordering projects: %w", err)
	}
	s.logger.Info("projects reordered", "count", len(ids))
	return nil
}

func (s *Service) decode(fields map[string]string) *Project {
	p, err := Decode(fields)
	var malformed *MalformedError
	if errors.As(err, &malformed) {
		s.logger.Warn("malformed project fields", "id", malformed.ID, "fields", malformed.Fields)
	}
	return p
}

func (r *UpdateRequest) apply(p *Project) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Slug, r.Slug)
	set(&p.Title, r.Title)
	set(&p.Description, r.Description)
	set(&p.Category, r.Category)
	set(&p.Location, r.Location)
	set(&p.Year, r.Year)
	set(&p.Size, r.Size)
	if r.Images != nil {
		p.Images = nonNil(*r.Images)
	}
	if r.Features != nil {
		p.Features = nonNil(*r.Features)
	}
	if r.Plants != nil {
		p.Plants = nonNil(*r.Plants)
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
