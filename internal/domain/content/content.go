// Package content serves the editable marketing sections. A section that
// was never edited, or cannot be read, is served from the built-in defaults.
package content

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ganot/verdant/internal/kv"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	// ErrUnknownSection indicates a section name outside Sections.
	ErrUnknownSection = errors.New("unknown content section")
	// ErrInvalidContent indicates a section body that is not a JSON object.
	ErrInvalidContent = errors.New("invalid content")
)

// Sections lists the editable sections.
var Sections = []string{"home", "about", "benefits", "faqs", "contact"}

// Section is one section body with its origin.
type Section struct {
	Name    string          `json:"name"`
	Data    json.RawMessage `json:"data"`
	Default bool            `json:"default"`
}

func keySection(name string) string {
	return "content:" + name
}

// Service reads and writes content sections.
type Service struct {
	store    kv.Store
	defaults map[string]json.RawMessage
	logger   *slog.Logger
}

// NewService creates a content service with the embedded defaults.
func NewService(store kv.Store, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults, err := loadDefaults(defaultsYAML)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, defaults: defaults, logger: logger}, nil
}

func loadDefaults(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing content defaults: %w", err)
	}
	out := make(map[string]json.RawMessage, len(Sections))
	for _, name := range Sections {
		v, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("content defaults: missing section %q", name)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("content defaults: section %q: %w", name, err)
		}
		out[name] = b
	}
	return out, nil
}

// Get returns the stored section, or the default when none is stored or the
// store cannot be read.
func (s *Service) Get(ctx context.Context, name string) (*Section, error) {
	if !slices.Contains(Sections, name) {
		return nil, ErrUnknownSection
	}
	v, ok, err := s.store.Get(ctx, keySection(name))
	if err != nil {
		s.logger.Warn("serving default content", "section", name, "error", err)
		return s.fallback(name), nil
	}
	if !ok {
		return s.fallback(name), nil
	}
	if !json.Valid([]byte(v)) {
		s.logger.Warn("stored content is not valid JSON, serving default", "section", name)
		return s.fallback(name), nil
	}
	return &Section{Name: name, Data: json.RawMessage(v)}, nil
}

func (s *Service) fallback(name string) *Section {
	return &Section{Name: name, Data: s.defaults[name], Default: true}
}

// Put stores data, which must be a JSON object, as the section body.
func (s *Service) Put(ctx context.Context, name string, data json.RawMessage) error {
	if !slices.Contains(Sections, name) {
		return ErrUnknownSection
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return fmt.Errorf("%w: section body must be a JSON object", ErrInvalidContent)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if err := s.store.Set(ctx, keySection(name), buf.String()); err != nil {
		return fmt.Errorf("storing content: %w", err)
	}
	s.logger.Info("content updated", "section", name)
	return nil
}

// Reset drops the stored override so the default is served again.
func (s *Service) Reset(ctx context.Context, name string) error {
	if !slices.Contains(Sections, name) {
		return ErrUnknownSection
	}
	if err := s.store.Del(ctx, keySection(name)); err != nil {
		return fmt.Errorf("resetting content: %w", err)
	}
	s.logger.Info("content reset", "section", name)
	return nil
}
