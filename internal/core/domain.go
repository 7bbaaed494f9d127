package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Business Category = "Business"
	Personal Category = "Personal"
)

const (
	Low Tier = iota
	Medium
	High
)

type (
	// Category is the label an expense is grouped under. Only Business and
	// Personal are offered for new records; anything else read back from
	// storage is kept as is.
	Category string

	// Tier is the presentation bucket an amount falls into.
	Tier int

	Expense struct {
		ID       uuid.UUID
		Name     string
		Category Category
		Amount   decimal.Decimal
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrUnknownCategory = errors.New("unknown category")
)

var (
	lowCeiling    = decimal.NewFromInt(10)
	mediumCeiling = decimal.NewFromInt(100)
)

// Categories returns the selectable categories in picker order.
func Categories() []Category {
	return []Category{Business, Personal}
}

// ParseCategory matches s against the known labels, ignoring case and
// surrounding space.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

func (c Category) String() string {
	return string(c)
}

// IsKnown reports whether c is one of the selectable categories.
func (c Category) IsKnown() bool {
	switch c {
	case Business, Personal:
		return true
	default:
		return false
	}
}

// NewExpense builds a record with a freshly generated identifier.
func NewExpense(name string, category Category, amount decimal.Decimal) Expense {
	return Expense{
		ID:       uuid.New(),
		Name:     name,
		Category: category,
		Amount:   amount,
	}
}

// Validate is meant for input forms. The store accepts records regardless.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Category.IsKnown() {
		return ErrUnknownCategory
	}
	return nil
}

// TierFor buckets an amount using half-open ranges: [0, 10) is Low,
// [10, 100) is Medium and everything else, negatives included, is High.
func TierFor(amount decimal.Decimal) Tier {
	switch {
	case amount.Sign() >= 0 && amount.LessThan(lowCeiling):
		return Low
	case amount.GreaterThanOrEqual(lowCeiling) && amount.LessThan(mediumCeiling):
		return Medium
	default:
		return High
	}
}

func (t Tier) String() string {
	switch t {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}
