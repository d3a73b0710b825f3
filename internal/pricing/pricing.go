// Package pricing turns a customizable menu group and a set of selected
// modifiers into a price, a validity flag and a status line. Everything
// here is pure: no I/O, no shared state.
package pricing

import (
	"fmt"

	"github.com/creperia-pos/api/internal/catalog"
	"github.com/shopspring/decimal"
)

// Result is the outcome of a price computation. IsValid false means the
// selection is incomplete; it is never an error.
type Result struct {
	Price       decimal.Decimal `json:"price"`
	IsValid     bool            `json:"is_valid"`
	Description string          `json:"description"`
}

const (
	msgSelectMilk = "Select a milk type"
	msgSelectBase = "Select at least one base ingredient"
)

// selection is the pre-computed view of the selected modifiers shared by
// every validator.
type selection struct {
	group     catalog.MenuGroup
	rule      *catalog.PriceRule
	modifiers []catalog.Modifier
	baseCount int
	extraCost decimal.Decimal
}

// validator returns a non-empty message when the selection fails its check.
type validator func(s selection) string

var validators = []validator{
	validateBaseCount,
	validateMilk,
}

// ComputePrice prices a customizable group. rule may be nil when the group
// has no price rule configured; rule-based modes then price the base at 0.
func ComputePrice(group catalog.MenuGroup, rule *catalog.PriceRule, selected []catalog.Modifier) Result {
	s := selection{
		group:     group,
		rule:      rule,
		modifiers: selected,
		extraCost: decimal.Zero,
	}
	for _, m := range selected {
		if m.Price.IsPositive() {
			s.extraCost = s.extraCost.Add(m.Price)
		}
		if group.BaseGroup != "" && m.Group == group.BaseGroup {
			s.baseCount++
		}
	}

	base, desc := basePrice(s)
	res := Result{
		Price:       base.Add(s.extraCost),
		IsValid:     true,
		Description: desc,
	}
	for _, v := range validators {
		if msg := v(s); msg != "" {
			res.IsValid = false
			res.Description = msg
			break
		}
	}
	return res
}

// requiredBlended is the exact base count a blended drink needs.
func requiredBlended(g catalog.MenuGroup) int {
	if g.BlendedSimple {
		return 1
	}
	return 2
}

func basePrice(s selection) (decimal.Decimal, string) {
	g := s.group
	name := g.Name
	if s.rule != nil && s.rule.Name != "" {
		name = s.rule.Name
	}

	switch g.Mode {
	case catalog.ModeExclusiveBase:
		return g.Price, name
	case catalog.ModeBlendedDrink:
		if s.rule == nil {
			return decimal.Zero, name
		}
		if tier, ok := s.rule.Exact(requiredBlended(g)); ok {
			return tier.Price, name
		}
		return decimal.Zero, name
	case catalog.ModeScaledIngredient:
		if s.rule == nil {
			return decimal.Zero, name
		}
		if tier, ok := s.rule.Floor(s.baseCount); ok {
			unit := "ingredients"
			if tier.Count == 1 {
				unit = "ingredient"
			}
			return tier.Price, fmt.Sprintf("%s (%d %s)", name, tier.Count, unit)
		}
		return decimal.Zero, name
	default:
		return g.Price, name
	}
}

func validateBaseCount(s selection) string {
	switch s.group.Mode {
	case catalog.ModeExclusiveBase:
		if s.baseCount != 1 {
			return "Select exactly one flavor"
		}
	case catalog.ModeBlendedDrink:
		if n := requiredBlended(s.group); s.baseCount != n {
			if n == 1 {
				return "Select exactly 1 ingredient"
			}
			return fmt.Sprintf("Select exactly %d ingredients", n)
		}
	case catalog.ModeScaledIngredient:
		if s.baseCount == 0 {
			return msgSelectBase
		}
	}
	return ""
}

func validateMilk(s selection) string {
	if !s.group.HasExtraGroup(catalog.CategoryMilk) {
		return ""
	}
	for _, m := range s.modifiers {
		if m.Group == catalog.CategoryMilk {
			return ""
		}
	}
	return msgSelectMilk
}

// ItemPrice is the price of a simple menu item: its own price, the chosen
// variant's adjustment and every positive modifier price.
func ItemPrice(item catalog.MenuItem, variant *catalog.Variant, selected []catalog.Modifier) Result {
	price := item.Price
	desc := item.Name
	if variant != nil {
		price = price.Add(variant.PriceAdjustment)
		desc = fmt.Sprintf("%s (%s)", item.Name, variant.Name)
	}
	for _, m := range selected {
		if m.Price.IsPositive() {
			price = price.Add(m.Price)
		}
	}
	res := Result{Price: price, IsValid: true, Description: desc}
	if len(item.Variants) > 0 && variant == nil {
		res.IsValid = false
		res.Description = "Select a size"
	}
	return res
}
