// Package catalog holds the menu data the pricing engine and the
// customization wizard read: groups, items, modifiers and price rules.
package catalog

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// CategoryMilk is the modifier category that drinks declaring it as an
// extra group must always pick from.
const CategoryMilk = "milk"

// PricingMode is resolved once when a group is authored and stored with it.
type PricingMode string

const (
	ModeFixedGeneric     PricingMode = "FIXED_GENERIC"
	ModeExclusiveBase    PricingMode = "EXCLUSIVE_BASE"
	ModeBlendedDrink     PricingMode = "BLENDED_DRINK"
	ModeScaledIngredient PricingMode = "SCALED_INGREDIENT"
)

// ParsePricingMode validates a stored mode tag. The empty string maps to
// ModeFixedGeneric.
func ParsePricingMode(s string) (PricingMode, error) {
	switch m := PricingMode(s); m {
	case ModeFixedGeneric, ModeExclusiveBase, ModeBlendedDrink, ModeScaledIngredient:
		return m, nil
	case "":
		return ModeFixedGeneric, nil
	}
	return "", fmt.Errorf("unknown pricing mode %q", s)
}

// Topping kinds split dessert toppings into two wizard steps.
const (
	ToppingSauce = "sauce"
	ToppingDry   = "dry"
)

type MenuGroup struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Level         int             `json:"level"`
	ParentID      string          `json:"parent_id,omitempty"`
	ItemIDs       []string        `json:"item_ids,omitempty"`
	RulesRef      string          `json:"rules_ref,omitempty"`
	BaseGroup     string          `json:"base_group,omitempty"`
	ExtraGroups   []string        `json:"extra_groups,omitempty"`
	ToppingGroups []string        `json:"topping_groups,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Mode          PricingMode     `json:"pricing_mode"`
	BlendedSimple bool            `json:"blended_simple,omitempty"`
	Dessert       bool            `json:"dessert,omitempty"`
}

// Customizable reports whether the group is a build-your-own template rather
// than a navigation container.
func (g MenuGroup) Customizable() bool {
	return g.RulesRef != ""
}

func (g MenuGroup) HasExtraGroup(key string) bool {
	return slices.Contains(g.ExtraGroups, key)
}

func (g MenuGroup) clone() MenuGroup {
	g.ItemIDs = slices.Clone(g.ItemIDs)
	g.ExtraGroups = slices.Clone(g.ExtraGroups)
	g.ToppingGroups = slices.Clone(g.ToppingGroups)
	return g
}

type Variant struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
}

type MenuItem struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	GroupID         string              `json:"group_id"`
	Price           decimal.Decimal     `json:"price"`
	Cost            decimal.NullDecimal `json:"cost"`
	Variants        []Variant           `json:"variants,omitempty"`
	ModifierGroups  []string            `json:"modifier_groups,omitempty"`
	ExclusiveGroups []string            `json:"exclusive_groups,omitempty"`
}

// Fixed reports whether the item goes straight to the ticket without a
// customization step.
func (it MenuItem) Fixed() bool {
	return len(it.Variants) == 0 && len(it.ModifierGroups) == 0
}

func (it MenuItem) Variant(id string) (Variant, bool) {
	for _, v := range it.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

func (it MenuItem) clone() MenuItem {
	it.Variants = slices.Clone(it.Variants)
	it.ModifierGroups = slices.Clone(it.ModifierGroups)
	it.ExclusiveGroups = slices.Clone(it.ExclusiveGroups)
	return it
}

type Modifier struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Group        string          `json:"group"`
	TrackStock   bool            `json:"track_stock"`
	CurrentStock int             `json:"current_stock"`
}

// ModifierCategory describes a modifier group key.
type ModifierCategory struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Exclusive   bool   `json:"exclusive"`
	ToppingKind string `json:"topping_kind,omitempty"`
}

type PriceTier struct {
	Count int             `json:"count"`
	Price decimal.Decimal `json:"price"`
}

// PriceRule is a step table mapping an ingredient count to a base price.
type PriceRule struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Tiers []PriceTier `json:"tiers"`
}

// Validate rejects tables where two tiers share a count.
func (r PriceRule) Validate() error {
	seen := make(map[int]bool, len(r.Tiers))
	for _, t := range r.Tiers {
		if t.Count < 0 {
			return fmt.Errorf("price rule %s: negative count %d", r.ID, t.Count)
		}
		if seen[t.Count] {
			return fmt.Errorf("price rule %s: duplicate count %d", r.ID, t.Count)
		}
		seen[t.Count] = true
	}
	return nil
}

// Floor returns the tier with the largest count not exceeding n.
func (r PriceRule) Floor(n int) (PriceTier, bool) {
	var best PriceTier
	found := false
	for _, t := range r.Tiers {
		if t.Count <= n && (!found || t.Count > best.Count) {
			best, found = t, true
		}
	}
	return best, found
}

// Exact returns the tier whose count equals n.
func (r PriceRule) Exact(n int) (PriceTier, bool) {
	for _, t := range r.Tiers {
		if t.Count == n {
			return t, true
		}
	}
	return PriceTier{}, false
}
