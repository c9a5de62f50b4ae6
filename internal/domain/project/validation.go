package project

import "fmt"

const (
	maxTitleLen = 200
	maxListLen  = 100
)

func validateCreate(req *CreateRequest) error {
	req.Title = trimmed(req.Title)
	if req.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(req.Title) > maxTitleLen {
		return fmt.Errorf("%w: title longer than %d bytes", ErrInvalidInput, maxTitleLen)
	}
	source := req.Slug
	if trimmed(source) == "" {
		source = req.Title
	}
	req.Slug = Slugify(source)
	if req.Slug == "" {
		return fmt.Errorf("%w: slug is empty after normalisation", ErrInvalidInput)
	}
	return checkLists(req.Images, req.Features, req.Plants)
}

func validateUpdate(req *UpdateRequest) error {
	if req.Title != nil {
		title := trimmed(*req.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		if len(title) > maxTitleLen {
			return fmt.Errorf("%w: title longer than %d bytes", ErrInvalidInput, maxTitleLen)
		}
		req.Title = &title
	}
	if req.Slug != nil {
		slug := Slugify(*req.Slug)
		if slug == "" {
			return fmt.Errorf("%w: slug is empty after normalisation", ErrInvalidInput)
		}
		req.Slug = &slug
	}
	var lists [][]string
	for _, l := range []*[]string{req.Images, req.Features, req.Plants} {
		if l != nil {
			lists = append(lists, *l)
		}
	}
	return checkLists(lists...)
}

func checkLists(lists ...[]string) error {
	for _, l := range lists {
		if len(l) > maxListLen {
			return fmt.Errorf("%w: more than %d list entries", ErrInvalidInput, maxListLen)
		}
	}
	return nil
}
