package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qri-io/jsonschema"

	"github.com/ganot/verdant/internal/kv"
)

// Service handles contact-form submissions.
type Service struct {
	store  kv.Store
	schema *jsonschema.Schema
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new contact service.
func NewService(store kv.Store, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rs, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return &Service{store: store, schema: rs, logger: logger, now: time.Now}, nil
}

// Submit validates a raw JSON form payload and stores it with status new.
func (s *Service) Submit(ctx context.Context, raw []byte) (*Contact, error) {
	if err := validate(ctx, s.schema, raw); err != nil {
		return nil, err
	}
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Message = strings.TrimSpace(sub.Message)
	if sub.Name == "" || sub.Message == "" {
		return nil, fmt.Errorf("%w: name and message are required", ErrInvalidInput)
	}

	c := &Contact{
		ID:          uuid.NewString(),
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       strings.TrimSpace(sub.Phone),
		Message:     sub.Message,
		ProjectType: sub.ProjectType,
		Location:    sub.Location,
		BudgetRange: sub.BudgetRange,
		CreatedAt:   s.now().UTC(),
		Status:      StatusNew,
	}
	err := s.store.Update(ctx, func(tx kv.Tx) error {
		if err := tx.HSet(ctx, keyContact(c.ID), encode(c)); err != nil {
			return err
		}
		return tx.ZAdd(ctx, keyAll, kv.Z{Member: c.ID, Score: score(c.CreatedAt)})
	})
	if err != nil {
		return nil, fmt.Errorf("storing contact: %w", err)
	}

	s.logger.Info("contact submitted", "id", c.ID)
	return c, nil
}

// Get fetches a submission. It returns nil, nil when there is none.
func (s *Service) Get(ctx context.Context, id string) (*Contact, error) {
	if id == "" {
		return nil, nil
	}
	fields, err := s.store.HGetAll(ctx, keyContact(id))
	if err != nil {
		return nil, fmt.Errorf("getting contact: %w", err)
	}
	return decode(fields), nil
}

// List returns a page of submissions, newest first.
func (s *Service) List(ctx context.Context, page, size int) (*Page, error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("%w: page %d size %d", ErrInvalidInput, page, size)
	}
	var (
		ids   []string
		total int64
		err   error
	)
	if start, stop, ok := pageWindow(page, size); ok {
		ids, total, err = s.store.ZWindow(ctx, keyAll, start, stop, true)
	} else {
		total, err = s.store.ZCard(ctx, keyAll)
	}
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	out := &Page{
		Items:      make([]Contact, 0, len(ids)),
		Page:       page,
		PageSize:   size,
		TotalCount: int(total),
		TotalPages: totalPages(int(total), size),
	}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyContact(id)
	}
	hashes, err := s.store.HGetAllMany(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}
	for i, fields := range hashes {
		c := decode(fields)
		if c == nil {
			s.logger.Warn("listed contact has no record", "id", ids[i])
			continue
		}
		out.Items = append(out.Items, *c)
	}
	return out, nil
}

// SetStatus moves a submission to status.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	err := s.store.Update(ctx, func(tx kv.Tx) error {
		ok, err := tx.Exists(ctx, keyContact(id))
		if err != nil {
			return err
		}
		if !ok {
			return ErrContactNotFound
		}
		return tx.HSet(ctx, keyContact(id), map[string]string{"status": string(status)})
	}, keyContact(id))
	if err != nil {
		if errors.Is(err, ErrContactNotFound) {
			return err
		}
		return fmt.Errorf("updating contact status: %w", err)
	}
	s.logger.Info("contact status changed", "id", id, "status", status)
	return nil
}

// Delete removes a submission.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Update(ctx, func(tx kv.Tx) error {
		ok, err := tx.Exists(ctx, keyContact(id))
		if err != nil {
			return err
		}
		if !ok {
			return ErrContactNotFound
		}
		if err := tx.Del(ctx, keyContact(id)); err != nil {
			return err
		}
		return tx.ZRem(ctx, keyAll, id)
	}, keyContact(id))
	if err != nil {
		if errors.Is(err, ErrContactNotFound) {
			return err
		}
		return fmt.Errorf("deleting contact: %w", err)
	}
	s.logger.Info("contact deleted", "id", id)
	return nil
}
