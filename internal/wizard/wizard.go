package wizard

import (
	"errors"
	"fmt"

	"github.com/creperia-pos/api/internal/catalog"
	"github.com/creperia-pos/api/internal/pricing"
	"github.com/creperia-pos/api/internal/ticket"
)

var (
	ErrGroupNotFound      = errors.New("menu group not found")
	ErrNotCustomizable    = errors.New("menu group is not customizable")
	ErrItemNotFound       = errors.New("menu item not found")
	ErrNothingToCustomize = errors.New("menu item has no options")
	ErrModifierNotFound   = errors.New("modifier not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrNotOffered         = errors.New("modifier not offered on this step")
)

// Wizard walks through the steps of one customization target. It is
// restartable: Finalize and Cancel both return it to the first step with an
// empty selection. A Wizard is not safe for concurrent use.
type Wizard struct {
	snap  *catalog.Snapshot
	group *catalog.MenuGroup
	rule  *catalog.PriceRule
	item  *catalog.MenuItem

	steps []Step
	idx   int
	sel   Selections
}

// NewGroupWizard starts a build-your-own flow for a customizable group.
func NewGroupWizard(snap *catalog.Snapshot, groupID string) (*Wizard, error) {
	g, ok := snap.Group(groupID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	if !g.Customizable() {
		return nil, fmt.Errorf("%w: %s", ErrNotCustomizable, groupID)
	}
	return &Wizard{
		snap:  snap,
		group: &g,
		rule:  snap.Rule(g.RulesRef),
		steps: BuildGroupSteps(snap, g),
	}, nil
}

// NewItemWizard starts a flow for a simple item with sizes or modifier
// groups. Items without either are added to the ticket directly.
func NewItemWizard(snap *catalog.Snapshot, itemID string) (*Wizard, error) {
	it, ok := snap.Item(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	steps := BuildItemSteps(snap, it)
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNothingToCustomize, itemID)
	}
	return &Wizard{snap: snap, item: &it, steps: steps}, nil
}

func (w *Wizard) Steps() []Step {
	out := make([]Step, len(w.steps))
	copy(out, w.steps)
	return out
}

func (w *Wizard) Index() int { return w.idx }

func (w *Wizard) Step() Step { return w.steps[w.idx] }

func (w *Wizard) Selections() Selections { return w.sel }

// Select taps a modifier on the current step.
func (w *Wizard) Select(modifierID string) error {
	m, ok := w.snap.Modifier(modifierID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModifierNotFound, modifierID)
	}
	step := w.Step()
	if !step.Accepts(m.Group) {
		return fmt.Errorf("%w: %s", ErrNotOffered, modifierID)
	}
	w.sel = SelectModifier(step, m, w.sel)
	return nil
}

// SelectVariant picks a size on the current step.
func (w *Wizard) SelectVariant(variantID string) error {
	step := w.Step()
	if w.item == nil || step.Kind != VariantSelector {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
	}
	if _, ok := w.item.Variant(variantID); !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
	}
	w.sel = SelectVariant(step, variantID, w.sel)
	return nil
}

func (w *Wizard) CanAdvance() bool {
	return IsStepValid(w.Step(), w.sel)
}

func (w *Wizard) IsLast() bool {
	return w.idx == len(w.steps)-1
}

// Next moves forward one step if the current step is valid and is not the
// last one.
func (w *Wizard) Next() bool {
	if w.IsLast() || !w.CanAdvance() {
		return false
	}
	w.idx++
	return true
}

// Back moves to the previous step, keeping selections.
func (w *Wizard) Back() bool {
	if w.idx == 0 {
		return false
	}
	w.idx--
	return true
}

// Quote prices the current selection.
func (w *Wizard) Quote() pricing.Result {
	if w.group != nil {
		return pricing.ComputePrice(*w.group, w.rule, w.sel.modifiers)
	}
	return pricing.ItemPrice(*w.item, w.variant(), w.sel.modifiers)
}

func (w *Wizard) variant() *catalog.Variant {
	if w.sel.variant == "" {
		return nil
	}
	v, ok := w.item.Variant(w.sel.variant)
	if !ok {
		return nil
	}
	return &v
}

func (w *Wizard) CanFinalize() bool {
	return w.IsLast() && w.CanAdvance() && w.Quote().IsValid
}

// Finalize freezes the current selection into a ticket item and resets the
// wizard. It does nothing and returns false when the selection is not
// complete.
func (w *Wizard) Finalize() (ticket.Item, bool) {
	if !w.CanFinalize() {
		return ticket.Item{}, false
	}
	res := w.Quote()
	var it ticket.Item
	if w.group != nil {
		it = ticket.NewCustomItem(*w.group, res, w.sel.modifiers)
	} else {
		it = ticket.NewVariantItem(*w.item, w.variant(), res, w.sel.modifiers)
	}
	w.Cancel()
	return it, true
}

// Cancel discards the selection and returns to the first step.
func (w *Wizard) Cancel() {
	w.idx = 0
	w.sel = Selections{}
}
