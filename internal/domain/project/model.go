package project

import (
	"encoding/json"
	"time"
)

// Project is a portfolio entry.
type Project struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Year        string    `json:"year"`
	Size        string    `json:"size"`
	Images      []string  `json:"images"`
	Features    []string  `json:"features"`
	Plants      []string  `json:"plants"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is the list projection of a project: every scalar field plus
// the hero image only.
type Summary struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Year        string    `json:"year"`
	Size        string    `json:"size"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summarize returns the list projection of p.
func (p *Project) Summarize() Summary {
	s := Summary{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Location:    p.Location,
		Year:        p.Year,
		Size:        p.Size,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if len(p.Images) > 0 {
		s.Image = p.Images[0]
	}
	return s
}

// View selects the per-record payload of a page.
type View string

const (
	// ViewFull returns complete projects.
	ViewFull View = "full"
	// ViewOptimized returns summaries.
	ViewOptimized View = "optimized"
)

// ParseView maps a query value to a View. Unknown values fall back to ViewFull.
func ParseView(s string) View {
	if View(s) == ViewOptimized {
		return ViewOptimized
	}
	return ViewFull
}

// Page is one window of the portfolio ordering. Depending on View, either
// Projects or Summaries holds the items; the other is nil.
type Page struct {
	Projects   []Project
	Summaries  []Summary
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
	View       View
}

// IDs returns the ids on the page in display order.
func (p *Page) IDs() []string {
	ids := []string{}
	for _, proj := range p.Projects {
		ids = append(ids, proj.ID)
	}
	for _, s := range p.Summaries {
		ids = append(ids, s.ID)
	}
	return ids
}

// Len returns the number of items on the page.
func (p *Page) Len() int {
	return len(p.Projects) + len(p.Summaries)
}

// MarshalJSON writes the page items under a single "items" key.
func (p Page) MarshalJSON() ([]byte, error) {
	var items any = p.Projects
	if p.View == ViewOptimized {
		items = p.Summaries
	}
	return json.Marshal(struct {
		Items      any  `json:"items"`
		Page       int  `json:"page"`
		PageSize   int  `json:"pageSize"`
		TotalCount int  `json:"totalCount"`
		TotalPages int  `json:"totalPages"`
		View       View `json:"view"`
	}{items, p.Page, p.PageSize, p.TotalCount, p.TotalPages, p.View})
}
