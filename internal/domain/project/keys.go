package project

const (
	keyAll   = "projects"
	keyOrder = "projects:order"
)

func keyProject(id string) string {
	return "project:" + id
}

func keySlug(slug string) string {
	return "project:slug:" + slug
}
