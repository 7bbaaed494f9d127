package view

import (
	"context"
	"fmt"

	"iexpense/internal/core"
	"iexpense/internal/expenses"
)

// AddForm collects the fields of a new expense as typed by the user.
type AddForm struct {
	Name     string
	Category core.Category
	Amount   string
}

// NewAddForm returns an empty form with Personal preselected.
func NewAddForm() AddForm {
	return AddForm{Category: core.Personal}
}

// Record parses and checks the form, returning a record with a new id.
func (f AddForm) Record() (core.Expense, error) {
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount %q: %w", f.Amount, err)
	}
	e := core.NewExpense(f.Name, f.Category, amount)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// Submit appends the form's record to store. Nothing is appended when the
// form is invalid.
func (f AddForm) Submit(ctx context.Context, store *expenses.Store) (core.Expense, error) {
	e, err := f.Record()
	if err != nil {
		return core.Expense{}, err
	}
	if err := store.Append(ctx, e); err != nil {
		return e, err
	}
	return e, nil
}
