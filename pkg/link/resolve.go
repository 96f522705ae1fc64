package link

import (
	"fmt"
	"strings"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/yosida95/uritemplate/v3"
)

// Query describes the link a caller wants to follow.
//
// Rel lists the tags the link must carry (all of them). ID must equal the
// link's id attribute, or fill an {id} variable of its href template. Params
// behave like ID for any other template variable.
type Query struct {
	Rel    string
	ID     string
	Params map[string]string
}

// String renders the query for logs and errors.
func (q Query) String() string {
	var parts []string
	if q.Rel != "" {
		parts = append(parts, "rel="+q.Rel)
	}
	if q.ID != "" {
		parts = append(parts, "id="+q.ID)
	}
	for k, v := range q.Params {
		parts = append(parts, k+"="+v)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Match reports whether l satisfies the query.
func Match(l domain.Link, q Query) bool {
	for _, tag := range strings.Fields(q.Rel) {
		if !l.HasRel(tag) {
			return false
		}
	}

	vars := varnames(l.Href)
	if q.ID != "" {
		if l.ID != "" {
			if l.ID != q.ID {
				return false
			}
		} else if !vars["id"] {
			return false
		}
	}
	for name := range q.Params {
		if !vars[name] {
			return false
		}
	}
	return true
}

// Find returns the first link matching the query. Link lists are order
// significant: servers put specific links first and templated ones after.
func Find(links []domain.Link, q Query) (domain.Link, error) {
	for _, l := range links {
		if Match(l, q) {
			return l, nil
		}
	}
	return domain.Link{}, fmt.Errorf("%w for %s", domain.ErrNoLink, q)
}

// Expand fills the href template of l with the query's id and params.
// Variables absent from the query expand to nothing.
func Expand(l domain.Link, q Query) (string, error) {
	if !strings.Contains(l.Href, "{") {
		return l.Href, nil
	}
	tmpl, err := uritemplate.New(l.Href)
	if err != nil {
		return "", fmt.Errorf("invalid href template %q: %w", l.Href, err)
	}
	values := uritemplate.Values{}
	if q.ID != "" {
		values.Set("id", uritemplate.String(q.ID))
	}
	for k, v := range q.Params {
		values.Set(k, uritemplate.String(v))
	}
	href, err := tmpl.Expand(values)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", l.Href, err)
	}
	return href, nil
}

// Resolve finds the link for q and expands it in one step.
func Resolve(links []domain.Link, q Query) (string, error) {
	l, err := Find(links, q)
	if err != nil {
		return "", err
	}
	return Expand(l, q)
}

func varnames(href string) map[string]bool {
	out := map[string]bool{}
	if !strings.Contains(href, "{") {
		return out
	}
	tmpl, err := uritemplate.New(href)
	if err != nil {
		return out
	}
	for _, name := range tmpl.Varnames() {
		out[name] = true
	}
	return out
}
