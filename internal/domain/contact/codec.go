package contact

import "time"

const keyAll = "contacts"

func keyContact(id string) string {
	return "contact:" + id
}

func encode(c *Contact) map[string]string {
	return map[string]string{
		"id":           c.ID,
		"name":         c.Name,
		"email":        c.Email,
		"phone":        c.Phone,
		"message":      c.Message,
		"project_type": c.ProjectType,
		"location":     c.Location,
		"budget_range": c.BudgetRange,
		"created_at":   c.CreatedAt.UTC().Format(time.RFC3339Nano),
		"status":       string(c.Status),
	}
}

func decode(fields map[string]string) *Contact {
	if len(fields) == 0 {
		return nil
	}
	c := &Contact{
		ID:          fields["id"],
		Name:        fields["name"],
		Email:       fields["email"],
		Phone:       fields["phone"],
		Message:     fields["message"],
		ProjectType: fields["project_type"],
		Location:    fields["location"],
		BudgetRange: fields["budget_range"],
		Status:      Status(fields["status"]),
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		c.CreatedAt = t.UTC()
	}
	if !c.Status.Valid() {
		c.Status = StatusNew
	}
	return c
}

// score orders submissions by creation time in milliseconds.
func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
