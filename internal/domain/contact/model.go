package contact

import "time"

// Status is where a submission is in the admin workflow.
type Status string

const (
	StatusNew      Status = "new"
	StatusRead     Status = "read"
	StatusReplied  Status = "replied"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusRead, StatusReplied, StatusArchived:
		return true
	}
	return false
}

// Contact is a contact-form submission.
type Contact struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Message     string    `json:"message"`
	ProjectType string    `json:"project_type"`
	Location    string    `json:"location"`
	BudgetRange string    `json:"budget_range"`
	CreatedAt   time.Time `json:"created_at"`
	Status      Status    `json:"status"`
}

// Submission is the public form payload.
type Submission struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	ProjectType string `json:"project_type"`
	Location    string `json:"location"`
	BudgetRange string `json:"budget_range"`
}

// Page is one window of submissions, newest first.
type Page struct {
	Items      []Contact `json:"items"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalCount int       `json:"totalCount"`
	TotalPages int       `json:"totalPages"`
}
