// Package view is the presentation side of the app: the category tabs, the
// rows a user sees and the add form. It reads and mutates the expense
// store only through the store's methods.
package view

import (
	"context"

	"github.com/google/uuid"

	"iexpense/internal/core"
	"iexpense/internal/expenses"
)

// Row is one displayed line of the expense list.
type Row struct {
	ID       uuid.UUID
	Name     string
	Category core.Category
	Amount   string
	Tier     core.Tier
	Color    string
}

// ListView shows the store's records under the selected category tab.
type ListView struct {
	store     *expenses.Store
	formatter *Formatter
	selected  core.Category
}

// NewListView opens on the Business tab.
func NewListView(store *expenses.Store, formatter *Formatter) *ListView {
	return &ListView{
		store:     store,
		formatter: formatter,
		selected:  core.Business,
	}
}

func (v *ListView) Select(c core.Category) {
	v.selected = c
}

func (v *ListView) Selected() core.Category {
	return v.selected
}

// Rows recomputes the visible rows from the store's current contents.
func (v *ListView) Rows() []Row {
	items := v.store.Filter(v.selected)
	rows := make([]Row, len(items))
	for i, e := range items {
		tier := core.TierFor(e.Amount)
		rows[i] = Row{
			ID:       e.ID,
			Name:     e.Name,
			Category: e.Category,
			Amount:   v.formatter.Format(e.Amount),
			Tier:     tier,
			Color:    Color(tier),
		}
	}
	return rows
}

// DeleteRows removes the records at the given offsets of the visible,
// filtered list. Offsets are resolved to record ids before the store is
// touched; offsets outside the list are ignored.
func (v *ListView) DeleteRows(ctx context.Context, offsets ...int) error {
	visible := v.store.Filter(v.selected)
	ids := make([]uuid.UUID, 0, len(offsets))
	for _, off := range offsets {
		if off < 0 || off >= len(visible) {
			continue
		}
		ids = append(ids, visible[off].ID)
	}
	return v.store.Remove(ctx, ids...)
}
