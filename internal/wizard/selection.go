package wizard

import (
	"slices"

	"github.com/creperia-pos/api/internal/catalog"
)

// Selections is the set of chosen modifiers, keyed by id and kept in the
// order they were picked, plus the chosen variant. Operations return a new
// value and never modify the receiver.
type Selections struct {
	modifiers []catalog.Modifier
	variant   string
}

func (s Selections) Has(id string) bool {
	return slices.ContainsFunc(s.modifiers, func(m catalog.Modifier) bool { return m.ID == id })
}

func (s Selections) Modifiers() []catalog.Modifier {
	return slices.Clone(s.modifiers)
}

func (s Selections) IDs() []string {
	ids := make([]string, len(s.modifiers))
	for i, m := range s.modifiers {
		ids[i] = m.ID
	}
	return ids
}

func (s Selections) Variant() string {
	return s.variant
}

func (s Selections) Len() int {
	return len(s.modifiers)
}

func (s Selections) without(keep func(catalog.Modifier) bool) Selections {
	out := Selections{variant: s.variant}
	for _, m := range s.modifiers {
		if keep(m) {
			out.modifiers = append(out.modifiers, m)
		}
	}
	return out
}

func (s Selections) with(m catalog.Modifier) Selections {
	return Selections{
		modifiers: append(slices.Clone(s.modifiers), m),
		variant:   s.variant,
	}
}

// IsStepValid reports whether the wizard may leave step.
func IsStepValid(step Step, sel Selections) bool {
	if !step.Required {
		return true
	}
	if step.Kind == VariantSelector {
		return sel.variant != ""
	}
	return slices.ContainsFunc(sel.modifiers, func(m catalog.Modifier) bool {
		return step.Accepts(m.Group)
	})
}

// SelectModifier applies a tap on m within step. In an exclusive step the
// new choice replaces whatever was chosen from the step's groups; tapping
// the current choice again deselects it only when the step is optional.
// In other steps the tap toggles m. A modifier from a group the step does
// not offer leaves sel unchanged.
func SelectModifier(step Step, m catalog.Modifier, sel Selections) Selections {
	if step.Kind == VariantSelector || !step.Accepts(m.Group) {
		return sel
	}
	if sel.Has(m.ID) {
		if step.Exclusive && step.Required {
			return sel
		}
		return sel.without(func(o catalog.Modifier) bool { return o.ID != m.ID })
	}
	if step.Exclusive {
		sel = sel.without(func(o catalog.Modifier) bool { return !step.Accepts(o.Group) })
	}
	return sel.with(m)
}

// SelectVariant picks the size variant on a variant step.
func SelectVariant(step Step, variantID string, sel Selections) Selections {
	if step.Kind != VariantSelector {
		return sel
	}
	return Selections{modifiers: sel.modifiers, variant: variantID}
}
