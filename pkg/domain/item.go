package domain

// Item is a single to-do record.
// The ID is assigned by the storage engine and never changes afterwards.
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Patch carries the fields of an Item a caller wants to set.
// Nil fields are left untouched.
type Patch struct {
	Title     *string `json:"title,omitempty" mapstructure:"title"`
	Completed *bool   `json:"completed,omitempty" mapstructure:"completed"`
}

// Empty reports whether the patch sets no field at all.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Completed == nil
}

// Apply overwrites the fields set in the patch.
func (p Patch) Apply(item *Item) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Completed != nil {
		item.Completed = *p.Completed
	}
}

// Filter is an exact-match predicate: every non-nil field must equal the
// corresponding Item field. The zero Filter matches every item.
type Filter struct {
	ID        *string
	Title     *string
	Completed *bool
}

// Match reports whether the item satisfies every field of the filter.
func (f Filter) Match(item Item) bool {
	if f.ID != nil && *f.ID != item.ID {
		return false
	}
	if f.Title != nil && *f.Title != item.Title {
		return false
	}
	if f.Completed != nil && *f.Completed != item.Completed {
		return false
	}
	return true
}

// ByID builds a filter selecting one item.
func ByID(id string) Filter {
	return Filter{ID: &id}
}

// ByCompleted builds a filter selecting items by their completed flag.
func ByCompleted(completed bool) Filter {
	return Filter{Completed: &completed}
}

// Counts partitions a collection by the completed flag.
type Counts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// CountItems computes the counts of the given items.
func CountItems(items []Item) Counts {
	var c Counts
	for _, item := range items {
		if item.Completed {
			c.Completed++
		} else {
			c.Active++
		}
		c.Total++
	}
	return c
}

// Ptr returns a pointer to v. Handy for building patches and filters.
func Ptr[T any](v T) *T {
	return &v
}
