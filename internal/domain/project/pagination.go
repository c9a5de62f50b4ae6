package project

import (
	"context"
	"fmt"
	"math"
)

// GetPage returns page number page (from 1) of size items in display order.
// The window and the total come from one snapshot of the ordering. A page
// past the end is empty, not an error.
func (s *Service) GetPage(ctx context.Context, page, size int, view View) (*Page, error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("%w: page %d size %d", ErrInvalidInput, page, size)
	}
	if view != ViewOptimized {
		view = ViewFull
	}
	if _, err := s.ordering.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	var (
		ids   []string
		total int64
		err   error
	)
	if start, stop, ok := pageWindow(page, size); ok {
		ids, total, err = s.store.ZWindow(ctx, keyOrder, start, stop, false)
	} else {
		total, err = s.store.ZCard(ctx, keyOrder)
	}
	if err != nil {
		return nil, fmt.Errorf("reading page window: %w", err)
	}

	out := &Page{
		Page:       page,
		PageSize:   size,
		TotalCount: int(total),
		TotalPages: totalPages(int(total), size),
		View:       view,
	}
	projects, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if view == ViewOptimized {
		out.Summaries = make([]Summary, 0, len(projects))
		for i := range projects {
			out.Summaries = append(out.Summaries, projects[i].Summarize())
		}
	} else {
		out.Projects = projects
	}
	return out, nil
}

// pageWindow returns the inclusive rank range of page. ok is false when the
// page starts past any rank a sorted set can hold.
func pageWindow(page, size int) (start, stop int64, ok bool) {
	p, n := int64(page-1), int64(size)
	if p > (math.MaxInt64-n)/n {
		return 0, 0, false
	}
	start = p * n
	return start, start + n - 1, true
}

func totalPages(total, size int) int {
	if total == 0 {
		return 0
	}
	return (total-1)/size + 1
}

// loadMany reads the records for ids in order. Ids whose record vanished
// after the window was read are skipped.
func (s *Service) loadMany(ctx context.Context, ids []string) ([]Project, error) {
	projects := make([]Project, 0, len(ids))
	if len(ids) == 0 {
		return projects, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyProject(id)
	}
	hashes, err := s.store.HGetAllMany(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	for i, fields := range hashes {
		p := s.decode(fields)
		if p == nil {
			s.logger.Warn("ordered project has no record", "id", ids[i])
			continue
		}
		projects = append(projects, *p)
	}
	return projects, nil
}
