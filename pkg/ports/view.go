package ports

import "github.com/aretw0/todosoa/pkg/domain"

// Row is one rendered entry of the list view.
type Row struct {
	Item   domain.Item
	Markup string
}

// View is the list view the host renders into. Implementations must be safe
// for concurrent use; the host never reads authoritative data back from it.
type View interface {
	// ReplaceList swaps the whole list for rows, in order.
	ReplaceList(rows []Row)
	// UpdateRow replaces the row of the same item. It reports false when the
	// item is not displayed.
	UpdateRow(row Row) bool
	// RemoveRow drops the row of the item, reporting whether it was displayed.
	RemoveRow(id string) bool
	// EditRow puts the row in edit mode, reporting whether it is displayed.
	EditRow(id string) bool
	// EndEdit leaves edit mode.
	EndEdit(id string)
	SetCounter(markup string)
	SetClearButton(markup string, visible bool)
	SetToggleAll(checked bool)
	SetFrameVisible(visible bool)
	// SelectFilter marks exactly one filter link as selected.
	SelectFilter(route domain.Route)
}
