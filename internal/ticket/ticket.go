// Package ticket holds the priced line items of a sale that has not been
// submitted yet.
package ticket

import (
	"slices"

	"github.com/creperia-pos/api/internal/catalog"
	"github.com/creperia-pos/api/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindFixed   Kind = "FIXED"
	KindVariant Kind = "VARIANT"
	KindCustom  Kind = "CUSTOM"
)

func (k Kind) Valid() bool {
	switch k {
	case KindFixed, KindVariant, KindCustom:
		return true
	}
	return false
}

// SelectedModifier is a copy of a modifier as it was when chosen.
type SelectedModifier struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Group string          `json:"group"`
	Price decimal.Decimal `json:"price"`
}

type Details struct {
	RuleID          string             `json:"rule_id,omitempty"`
	RuleDescription string             `json:"rule_description,omitempty"`
	SourceItemID    string             `json:"source_item_id,omitempty"`
	VariantName     string             `json:"variant_name,omitempty"`
	Modifiers       []SelectedModifier `json:"modifiers,omitempty"`
}

// Item is a finalized line. FinalPrice is fixed at creation and never
// recomputed from the catalog.
type Item struct {
	ID         uuid.UUID           `json:"id"`
	Name       string              `json:"name"`
	FinalPrice decimal.Decimal     `json:"final_price"`
	FinalCost  decimal.NullDecimal `json:"final_cost"`
	Kind       Kind                `json:"kind"`
	Details    Details             `json:"details"`
}

func freeze(mods []catalog.Modifier) []SelectedModifier {
	if len(mods) == 0 {
		return nil
	}
	out := make([]SelectedModifier, len(mods))
	for i, m := range mods {
		out[i] = SelectedModifier{ID: m.ID, Name: m.Name, Group: m.Group, Price: m.Price}
	}
	return out
}

// NewCustomItem freezes a priced build-your-own selection.
func NewCustomItem(group catalog.MenuGroup, res pricing.Result, selected []catalog.Modifier) Item {
	return Item{
		ID:         uuid.New(),
		Name:       group.Name,
		FinalPrice: res.Price,
		Kind:       KindCustom,
		Details: Details{
			RuleID:          group.RulesRef,
			RuleDescription: res.Description,
			SourceItemID:    group.ID,
			Modifiers:       freeze(selected),
		},
	}
}

// NewVariantItem freezes a simple item configured through the wizard.
// variant may be nil for items that only carry modifier groups.
func NewVariantItem(item catalog.MenuItem, variant *catalog.Variant, res pricing.Result, selected []catalog.Modifier) Item {
	it := Item{
		ID:         uuid.New(),
		Name:       item.Name,
		FinalPrice: res.Price,
		FinalCost:  item.Cost,
		Kind:       KindVariant,
		Details: Details{
			SourceItemID: item.ID,
			Modifiers:    freeze(selected),
		},
	}
	if variant != nil {
		it.Details.VariantName = variant.Name
	}
	return it
}

// NewFixedItem adds a menu item as-is.
func NewFixedItem(item catalog.MenuItem) Item {
	return Item{
		ID:         uuid.New(),
		Name:       item.Name,
		FinalPrice: item.Price,
		FinalCost:  item.Cost,
		Kind:       KindFixed,
		Details:    Details{SourceItemID: item.ID},
	}
}

// Ticket is the ordered list of items for the current sale.
type Ticket struct {
	items []Item
}

func (t *Ticket) Add(it Item) {
	t.items = append(t.items, it)
}

// Remove drops the item with the given id and reports whether it was found.
func (t *Ticket) Remove(id uuid.UUID) bool {
	i := slices.IndexFunc(t.items, func(it Item) bool { return it.ID == id })
	if i < 0 {
		return false
	}
	t.items = slices.Delete(t.items, i, i+1)
	return true
}

func (t *Ticket) Items() []Item {
	return slices.Clone(t.items)
}

func (t *Ticket) Len() int {
	return len(t.items)
}

func (t *Ticket) Total() decimal.Decimal {
	return Total(t.items)
}

func (t *Ticket) Clear() {
	t.items = nil
}

// Total sums the final prices of items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.FinalPrice)
	}
	return total
}

// Deductions aggregates how many units of each modifier the items consume.
// A modifier chosen on two items counts twice.
func Deductions(items []Item) map[string]int {
	out := make(map[string]int)
	for _, it := range items {
		for _, m := range it.Details.Modifiers {
			out[m.ID]++
		}
	}
	return out
}
