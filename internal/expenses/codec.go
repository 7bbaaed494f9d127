package expenses

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"iexpense/internal/core"
)

// record is the stored shape of one expense.
type record struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Amount json.Number `json:"amount"`
}

// storedRecord mirrors record with every key required: a missing key is
// nil rather than a zero value.
type storedRecord struct {
	ID     *string      `json:"id"`
	Name   *string      `json:"name"`
	Type   *string      `json:"type"`
	Amount *json.Number `json:"amount"`
}

// Encode serialises the collection as a JSON array in collection order.
func Encode(items []core.Expense) ([]byte, error) {
	out := make([]record, len(items))
	for i, e := range items {
		out[i] = record{
			ID:     e.ID.String(),
			Name:   e.Name,
			Type:   string(e.Category),
			Amount: json.Number(e.Amount.String()),
		}
	}
	return json.Marshal(out)
}

// Decode parses a blob written by Encode. Any malformed record, or two
// records sharing an id, makes the whole blob invalid.
func Decode(data []byte) ([]core.Expense, error) {
	var in []storedRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if in == nil {
		return nil, fmt.Errorf("decode items: not an array")
	}

	items := make([]core.Expense, 0, len(in))
	seen := make(map[uuid.UUID]struct{}, len(in))
	for i, r := range in {
		if r.ID == nil || r.Name == nil || r.Type == nil || r.Amount == nil {
			return nil, fmt.Errorf("item %d: missing field", i)
		}
		id, err := uuid.Parse(*r.ID)
		if err != nil {
			return nil, fmt.Errorf("item %d: id: %w", i, err)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("item %d: duplicate id %s", i, id)
		}
		seen[id] = struct{}{}

		if *r.Amount == "" {
			return nil, fmt.Errorf("item %d: empty amount", i)
		}
		amount, err := decimal.NewFromString(r.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("item %d: amount: %w", i, err)
		}
		items = append(items, core.Expense{
			ID:       id,
			Name:     *r.Name,
			Category: core.Category(*r.Type),
			Amount:   amount,
		})
	}
	return items, nil
}
