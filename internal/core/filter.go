package core

// FilterByCategory returns the records shown under the selected tab, in
// their original order. The tabs form a binary partition: Business shows
// records labelled Business, any other selection shows every record that
// is not Business, so an unrecognised label lands under Personal.
func FilterByCategory(items []Expense, selected Category) []Expense {
	out := make([]Expense, 0, len(items))
	for _, e := range items {
		if (e.Category == Business) == (selected == Business) {
			out = append(out, e)
		}
	}
	return out
}
