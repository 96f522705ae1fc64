package domain

import "strings"

// Link advertises a navigable resource. Href may be a URI template
// ("/{id}", "/{?completed}") that callers fill in when following the link.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Title string `json:"title,omitempty"`
	ID    string `json:"id,omitempty"`
}

// HasRel reports whether the space-separated rel list contains tag.
func (l Link) HasRel(tag string) bool {
	for _, r := range strings.Fields(l.Rel) {
		if strings.EqualFold(r, tag) {
			return true
		}
	}
	return false
}
