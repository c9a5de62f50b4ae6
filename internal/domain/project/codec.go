package project

import (
	"encoding/json"
	"fmt"
	"time"
)

// Hash field names.
const (
	fieldID          = "id"
	fieldSlug        = "slug"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldLocation    = "location"
	fieldYear        = "year"
	fieldSize        = "size"
	fieldImages      = "images"
	fieldFeatures    = "features"
	fieldPlants      = "plants"
	fieldCreatedAt   = "createdAt"
	fieldUpdatedAt   = "updatedAt"
)

// Encode flattens p into hash fields. Every field is written, list fields
// as JSON arrays and timestamps as RFC 3339 in UTC.
func Encode(p *Project) map[string]string {
	return map[string]string{
		fieldID:          p.ID,
		fieldSlug:        p.Slug,
		fieldTitle:       p.Title,
		fieldDescription: p.Description,
		fieldCategory:    p.Category,
		fieldLocation:    p.Location,
		fieldYear:        p.Year,
		fieldSize:        p.Size,
		fieldImages:      encodeList(p.Images),
		fieldFeatures:    encodeList(p.Features),
		fieldPlants:      encodeList(p.Plants),
		fieldCreatedAt:   encodeTime(p.CreatedAt),
		fieldUpdatedAt:   encodeTime(p.UpdatedAt),
	}
}

// Decode builds a project from hash fields. It returns nil for an empty
// hash. Fields that could not be decoded are replaced by their zero value
// (an empty list for list fields) and reported in a *MalformedError.
func Decode(fields map[string]string) (*Project, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	var bad []string
	list := func(name string) []string {
		v, err := decodeList(fields[name])
		if err != nil {
			bad = append(bad, name)
		}
		return v
	}
	ts := func(name string) time.Time {
		v, err := decodeTime(fields[name])
		if err != nil {
			bad = append(bad, name)
		}
		return v
	}

	p := &Project{
		ID:          fields[fieldID],
		Slug:        fields[fieldSlug],
		Title:       fields[fieldTitle],
		Description: fields[fieldDescription],
		Category:    fields[fieldCategory],
		Location:    fields[fieldLocation],
		Year:        fields[fieldYear],
		Size:        fields[fieldSize],
		Images:      list(fieldImages),
		Features:    list(fieldFeatures),
		Plants:      list(fieldPlants),
		CreatedAt:   ts(fieldCreatedAt),
		UpdatedAt:   ts(fieldUpdatedAt),
	}
	if len(bad) > 0 {
		return p, &MalformedError{ID: p.ID, Fields: bad}
	}
	return p, nil
}

// MalformedError lists the stored fields of a record that failed to decode.
type MalformedError struct {
	ID     string
	Fields []string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("project %s: malformed fields %v", e.ID, e.Fields)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedField
}

func encodeList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeList(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return []string{}, err
	}
	if v == nil {
		// "null"
		return []string{}, nil
	}
	return v, nil
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
