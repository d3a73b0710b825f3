package catalog

import (
	"fmt"
	"slices"
)

// Snapshot is an immutable view of the catalog. A refresh builds a new
// Snapshot; an existing one is never mutated, so pricing and wizard code can
// hold on to it for the duration of a customization flow.
type Snapshot struct {
	groups     []MenuGroup
	items      []MenuItem
	modifiers  []Modifier
	rules      []PriceRule
	categories []ModifierCategory

	groupByID    map[string]int
	itemByID     map[string]int
	modifierByID map[string]int
	ruleByID     map[string]int
	categoryByID map[string]int
}

// NewSnapshot copies the given slices into a validated Snapshot. Group item
// lists are filled from each item's GroupID when the group does not declare
// them.
func NewSnapshot(groups []MenuGroup, items []MenuItem, modifiers []Modifier, rules []PriceRule, categories []ModifierCategory) (*Snapshot, error) {
	s := &Snapshot{
		groupByID:    make(map[string]int, len(groups)),
		itemByID:     make(map[string]int, len(items)),
		modifierByID: make(map[string]int, len(modifiers)),
		ruleByID:     make(map[string]int, len(rules)),
		categoryByID: make(map[string]int, len(categories)),
	}

	for _, c := range categories {
		if _, dup := s.categoryByID[c.Key]; dup {
			return nil, fmt.Errorf("duplicate modifier category %q", c.Key)
		}
		s.categoryByID[c.Key] = len(s.categories)
		s.categories = append(s.categories, c)
	}

	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.ruleByID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate price rule %q", r.ID)
		}
		r.Tiers = slices.Clone(r.Tiers)
		slices.SortFunc(r.Tiers, func(a, b PriceTier) int { return a.Count - b.Count })
		s.ruleByID[r.ID] = len(s.rules)
		s.rules = append(s.rules, r)
	}

	for _, m := range modifiers {
		if m.Price.IsNegative() {
			return nil, fmt.Errorf("modifier %q: negative price", m.ID)
		}
		if _, dup := s.modifierByID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate modifier %q", m.ID)
		}
		s.modifierByID[m.ID] = len(s.modifiers)
		s.modifiers = append(s.modifiers, m)
	}

	for _, it := range items {
		if _, dup := s.itemByID[it.ID]; dup {
			return nil, fmt.Errorf("duplicate menu item %q", it.ID)
		}
		s.itemByID[it.ID] = len(s.items)
		s.items = append(s.items, it.clone())
	}

	for _, g := range groups {
		if _, dup := s.groupByID[g.ID]; dup {
			return nil, fmt.Errorf("duplicate menu group %q", g.ID)
		}
		if g.Mode == "" {
			g.Mode = ModeFixedGeneric
		}
		if _, err := ParsePricingMode(string(g.Mode)); err != nil {
			return nil, fmt.Errorf("menu group %q: %w", g.ID, err)
		}
		if g.RulesRef != "" {
			if g.BaseGroup == "" {
				return nil, fmt.Errorf("menu group %q: customizable group has no base group", g.ID)
			}
			if _, ok := s.categoryByID[g.BaseGroup]; !ok {
				return nil, fmt.Errorf("menu group %q: unknown base group %q", g.ID, g.BaseGroup)
			}
		}
		g = g.clone()
		if len(g.ItemIDs) == 0 {
			for _, it := range s.items {
				if it.GroupID == g.ID {
					g.ItemIDs = append(g.ItemIDs, it.ID)
				}
			}
		}
		s.groupByID[g.ID] = len(s.groups)
		s.groups = append(s.groups, g)
	}

	return s, nil
}

func (s *Snapshot) Group(id string) (MenuGroup, bool) {
	i, ok := s.groupByID[id]
	if !ok {
		return MenuGroup{}, false
	}
	return s.groups[i].clone(), true
}

func (s *Snapshot) Item(id string) (MenuItem, bool) {
	i, ok := s.itemByID[id]
	if !ok {
		return MenuItem{}, false
	}
	return s.items[i].clone(), true
}

func (s *Snapshot) Modifier(id string) (Modifier, bool) {
	i, ok := s.modifierByID[id]
	if !ok {
		return Modifier{}, false
	}
	return s.modifiers[i], true
}

// Rule returns the price rule with the given id. A nil rule means the group
// has none configured.
func (s *Snapshot) Rule(id string) *PriceRule {
	i, ok := s.ruleByID[id]
	if !ok {
		return nil
	}
	r := s.rules[i]
	r.Tiers = slices.Clone(r.Tiers)
	return &r
}

func (s *Snapshot) Category(key string) (ModifierCategory, bool) {
	i, ok := s.categoryByID[key]
	if !ok {
		return ModifierCategory{}, false
	}
	return s.categories[i], true
}

// ModifiersIn returns the modifiers belonging to any of the given group keys
// in catalog order.
func (s *Snapshot) ModifiersIn(groups ...string) []Modifier {
	var out []Modifier
	for _, m := range s.modifiers {
		if slices.Contains(groups, m.Group) {
			out = append(out, m)
		}
	}
	return out
}

// Children returns the direct sub-groups of a navigation group.
func (s *Snapshot) Children(parentID string) []MenuGroup {
	var out []MenuGroup
	for _, g := range s.groups {
		if g.ParentID == parentID {
			out = append(out, g.clone())
		}
	}
	return out
}

func (s *Snapshot) Groups() []MenuGroup {
	out := make([]MenuGroup, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.clone()
	}
	return out
}

func (s *Snapshot) Items() []MenuItem {
	out := make([]MenuItem, len(s.items))
	for i, it := range s.items {
		out[i] = it.clone()
	}
	return out
}

func (s *Snapshot) Modifiers() []Modifier {
	return slices.Clone(s.modifiers)
}

func (s *Snapshot) PriceRules() []PriceRule {
	out := make([]PriceRule, len(s.rules))
	for i, r := range s.rules {
		r.Tiers = slices.Clone(r.Tiers)
		out[i] = r
	}
	return out
}

func (s *Snapshot) Categories() []ModifierCategory {
	return slices.Clone(s.categories)
}
