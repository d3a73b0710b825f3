// Package wizard drives the step-by-step customization of a menu group or
// menu item and produces a frozen ticket item when finished.
package wizard

import (
	"slices"

	"github.com/creperia-pos/api/internal/catalog"
)

type Kind string

const (
	BaseSelector     Kind = "BASE"
	VariantSelector  Kind = "VARIANT"
	ModifierSelector Kind = "MODIFIER"
)

// Step is one screen of the wizard. Groups lists the modifier categories
// whose modifiers can be picked on it; a variant step has none.
type Step struct {
	Kind      Kind     `json:"kind"`
	Name      string   `json:"name"`
	Groups    []string `json:"groups,omitempty"`
	Exclusive bool     `json:"exclusive"`
	Required  bool     `json:"required"`
	// FreeHint is the number of selections included in the price. Display
	// only; never enforced.
	FreeHint int `json:"free_hint,omitempty"`
}

func (s Step) Accepts(group string) bool {
	return slices.Contains(s.Groups, group)
}

func categoryName(snap *catalog.Snapshot, key string) string {
	if c, ok := snap.Category(key); ok && c.Name != "" {
		return c.Name
	}
	return key
}

// BuildGroupSteps derives the steps of a build-your-own group: the base
// ingredients, one step per extra category, then toppings.
func BuildGroupSteps(snap *catalog.Snapshot, g catalog.MenuGroup) []Step {
	steps := []Step{{
		Kind:      BaseSelector,
		Name:      categoryName(snap, g.BaseGroup),
		Groups:    []string{g.BaseGroup},
		Exclusive: g.Mode == catalog.ModeExclusiveBase,
		Required:  true,
	}}

	for _, key := range g.ExtraGroups {
		c, _ := snap.Category(key)
		steps = append(steps, Step{
			Kind:      ModifierSelector,
			Name:      categoryName(snap, key),
			Groups:    []string{key},
			Exclusive: c.Exclusive,
			Required:  key == catalog.CategoryMilk,
		})
	}

	if len(g.ToppingGroups) == 0 {
		return steps
	}
	if !g.Dessert {
		return append(steps, Step{
			Kind:   ModifierSelector,
			Name:   "Toppings",
			Groups: slices.Clone(g.ToppingGroups),
		})
	}

	var sauces, dry []string
	for _, key := range g.ToppingGroups {
		if c, ok := snap.Category(key); ok && c.ToppingKind == catalog.ToppingSauce {
			sauces = append(sauces, key)
		} else {
			dry = append(dry, key)
		}
	}
	if len(sauces) > 0 {
		steps = append(steps, Step{Kind: ModifierSelector, Name: "Sauces", Groups: sauces, FreeHint: 1})
	}
	if len(dry) > 0 {
		steps = append(steps, Step{Kind: ModifierSelector, Name: "Toppings", Groups: dry, FreeHint: 1})
	}
	return steps
}

// BuildItemSteps derives the steps of a simple item: a required size step
// when it has variants, then one step per modifier group. Groups listed as
// exclusive are single-choice and required.
func BuildItemSteps(snap *catalog.Snapshot, it catalog.MenuItem) []Step {
	var steps []Step
	if len(it.Variants) > 0 {
		steps = append(steps, Step{
			Kind:      VariantSelector,
			Name:      "Size",
			Exclusive: true,
			Required:  true,
		})
	}
	for _, key := range it.ModifierGroups {
		exclusive := slices.Contains(it.ExclusiveGroups, key)
		steps = append(steps, Step{
			Kind:      ModifierSelector,
			Name:      categoryName(snap, key),
			Groups:    []string{key},
			Exclusive: exclusive,
			Required:  exclusive,
		})
	}
	return steps
}
