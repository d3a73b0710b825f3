package catalog

import (
	"slices"
	"strings"
)

// ModeHints lists the authoring conventions used to resolve a group's
// pricing mode once, when the menu is seeded or edited.
type ModeHints struct {
	// ExclusiveBaseGroups are single-choice flavor categories (frappé, malt,
	// soda flavors).
	ExclusiveBaseGroups []string
	// BlendedGroupPrefixes mark blended drink groups by id prefix. A group
	// id that also contains SimpleMarker is the one-ingredient variant.
	BlendedGroupPrefixes []string
	SimpleMarker         string
	// ScaledBaseGroups are the composite dessert base categories (sweet and
	// savory fillings).
	ScaledBaseGroups []string
}

// InferMode resolves the pricing mode of g. Cases are checked in priority
// order: exclusive base, blended drink, scaled ingredient, then fixed. The
// second return value is the blended "simple" flag.
func InferMode(g MenuGroup, h ModeHints) (PricingMode, bool) {
	if g.BaseGroup != "" && slices.Contains(h.ExclusiveBaseGroups, g.BaseGroup) {
		return ModeExclusiveBase, false
	}
	for _, p := range h.BlendedGroupPrefixes {
		if p != "" && strings.HasPrefix(g.ID, p) {
			simple := h.SimpleMarker != "" && strings.Contains(g.ID, h.SimpleMarker)
			return ModeBlendedDrink, simple
		}
	}
	if g.BaseGroup != "" && slices.Contains(h.ScaledBaseGroups, g.BaseGroup) {
		return ModeScaledIngredient, false
	}
	return ModeFixedGeneric, false
}
