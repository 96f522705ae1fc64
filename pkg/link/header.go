package link

import (
	"fmt"
	"strings"

	"github.com/aretw0/todosoa/pkg/domain"
)

// Format serializes links into the link header form:
//
//	</{?completed}>; rel="self service collection"; title="TodoSOA Storage", </{id}>; rel="item"
func Format(links []domain.Link) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		var b strings.Builder
		b.WriteString("<")
		b.WriteString(l.Href)
		b.WriteString(">")
		if l.Rel != "" {
			fmt.Fprintf(&b, "; rel=%q", l.Rel)
		}
		if l.Title != "" {
			fmt.Fprintf(&b, "; title=%q", l.Title)
		}
		if l.ID != "" {
			fmt.Fprintf(&b, "; id=%q", l.ID)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}

// Parse reads a link header produced by Format (or any RFC 8288 style header
// restricted to the rel, title and id attributes).
func Parse(header string) ([]domain.Link, error) {
	var links []domain.Link
	for _, entry := range splitEntries(header) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.HasPrefix(entry, "<") {
			return nil, fmt.Errorf("link entry %q: missing <href>", entry)
		}
		end := strings.Index(entry, ">")
		if end < 0 {
			return nil, fmt.Errorf("link entry %q: unterminated <href>", entry)
		}
		l := domain.Link{Href: entry[1:end]}
		for _, attr := range strings.Split(entry[end+1:], ";") {
			attr = strings.TrimSpace(attr)
			if attr == "" {
				continue
			}
			key, value, ok := strings.Cut(attr, "=")
			if !ok {
				return nil, fmt.Errorf("link entry %q: malformed attribute %q", entry, attr)
			}
			value = strings.Trim(strings.TrimSpace(value), `"`)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "rel":
				l.Rel = value
			case "title":
				l.Title = value
			case "id":
				l.ID = value
			}
		}
		links = append(links, l)
	}
	return links, nil
}

// splitEntries splits on commas that are outside of <...> and quoted strings.
func splitEntries(header string) []string {
	var (
		entries []string
		start   int
		inHref  bool
		inQuote bool
	)
	for i, r := range header {
		switch {
		case r == '"' && !inHref:
			inQuote = !inQuote
		case r == '<' && !inQuote:
			inHref = true
		case r == '>' && !inQuote:
			inHref = false
		case r == ',' && !inHref && !inQuote:
			entries = append(entries, header[start:i])
			start = i + 1
		}
	}
	return append(entries, header[start:])
}
