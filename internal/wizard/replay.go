package wizard

import (
	"errors"
	"fmt"

	"github.com/creperia-pos/api/internal/catalog"
	"github.com/creperia-pos/api/internal/pricing"
	"github.com/creperia-pos/api/internal/ticket"
)

var (
	ErrInvalidLine       = errors.New("line must name exactly one group or item")
	ErrIncomplete        = errors.New("selection incomplete")
	ErrDuplicateModifier = errors.New("modifier selected twice")
	ErrSingleChoice      = errors.New("step allows a single choice")
)

// Line is a configured sale line sent by a terminal: a customizable group
// or a menu item, with the chosen size and modifiers. The terminal's price
// is never trusted; the line is priced again against the catalog.
type Line struct {
	GroupID     string   `json:"group_id,omitempty"`
	ItemID      string   `json:"item_id,omitempty"`
	VariantID   string   `json:"variant_id,omitempty"`
	ModifierIDs []string `json:"modifier_ids,omitempty"`
}

func (l Line) resolve(snap *catalog.Snapshot) ([]catalog.Modifier, error) {
	if (l.GroupID == "") == (l.ItemID == "") {
		return nil, ErrInvalidLine
	}
	mods := make([]catalog.Modifier, 0, len(l.ModifierIDs))
	seen := make(map[string]bool, len(l.ModifierIDs))
	for _, id := range l.ModifierIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModifier, id)
		}
		seen[id] = true
		m, ok := snap.Modifier(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrModifierNotFound, id)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Replay walks a fresh wizard through the line's choices, picking on each
// step the modifiers it offers, and leaves it on the last step. It fails
// when a required step is left empty or a choice is offered on no step.
func Replay(snap *catalog.Snapshot, line Line) (*Wizard, error) {
	mods, err := line.resolve(snap)
	if err != nil {
		return nil, err
	}

	var w *Wizard
	if line.GroupID != "" {
		w, err = NewGroupWizard(snap, line.GroupID)
	} else {
		w, err = NewItemWizard(snap, line.ItemID)
	}
	if err != nil {
		return nil, err
	}

	variantUsed := line.VariantID == ""
	for {
		step := w.Step()
		if step.Kind == VariantSelector && !variantUsed {
			if err := w.SelectVariant(line.VariantID); err != nil {
				return nil, err
			}
			variantUsed = true
		}

		picked := 0
		rest := mods[:0:0]
		for _, m := range mods {
			if !step.Accepts(m.Group) {
				rest = append(rest, m)
				continue
			}
			if step.Exclusive && picked > 0 {
				return nil, fmt.Errorf("%w: %s", ErrSingleChoice, step.Name)
			}
			if err := w.Select(m.ID); err != nil {
				return nil, err
			}
			picked++
		}
		mods = rest

		if w.IsLast() {
			break
		}
		if !w.Next() {
			return nil, fmt.Errorf("%w: %s", ErrIncomplete, step.Name)
		}
	}

	if !variantUsed {
		return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, line.VariantID)
	}
	if len(mods) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotOffered, mods[0].ID)
	}
	return w, nil
}

// BuildItem turns a line into a frozen ticket item. Items without options
// are added as-is.
func BuildItem(snap *catalog.Snapshot, line Line) (ticket.Item, error) {
	if line.ItemID != "" && line.GroupID == "" {
		it, ok := snap.Item(line.ItemID)
		if !ok {
			return ticket.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, line.ItemID)
		}
		if it.Fixed() {
			if line.VariantID != "" || len(line.ModifierIDs) > 0 {
				return ticket.Item{}, fmt.Errorf("%w: %s", ErrNothingToCustomize, line.ItemID)
			}
			return ticket.NewFixedItem(it), nil
		}
	}

	w, err := Replay(snap, line)
	if err != nil {
		return ticket.Item{}, err
	}
	item, ok := w.Finalize()
	if !ok {
		return ticket.Item{}, fmt.Errorf("%w: %s", ErrIncomplete, w.Quote().Description)
	}
	return item, nil
}

// QuoteLine prices a possibly incomplete line without walking the steps,
// for live display while the customer is still choosing.
func QuoteLine(snap *catalog.Snapshot, line Line) (pricing.Result, error) {
	mods, err := line.resolve(snap)
	if err != nil {
		return pricing.Result{}, err
	}

	if line.GroupID != "" {
		g, ok := snap.Group(line.GroupID)
		if !ok {
			return pricing.Result{}, fmt.Errorf("%w: %s", ErrGroupNotFound, line.GroupID)
		}
		if !g.Customizable() {
			return pricing.Result{}, fmt.Errorf("%w: %s", ErrNotCustomizable, line.GroupID)
		}
		if err := checkOffered(BuildGroupSteps(snap, g), mods); err != nil {
			return pricing.Result{}, err
		}
		return pricing.ComputePrice(g, snap.Rule(g.RulesRef), mods), nil
	}

	it, ok := snap.Item(line.ItemID)
	if !ok {
		return pricing.Result{}, fmt.Errorf("%w: %s", ErrItemNotFound, line.ItemID)
	}
	if it.Fixed() && (line.VariantID != "" || len(mods) > 0) {
		return pricing.Result{}, fmt.Errorf("%w: %s", ErrNothingToCustomize, line.ItemID)
	}
	if err := checkOffered(BuildItemSteps(snap, it), mods); err != nil {
		return pricing.Result{}, err
	}
	var variant *catalog.Variant
	if line.VariantID != "" {
		v, ok := it.Variant(line.VariantID)
		if !ok {
			return pricing.Result{}, fmt.Errorf("%w: %s", ErrVariantNotFound, line.VariantID)
		}
		variant = &v
	}
	return pricing.ItemPrice(it, variant, mods), nil
}

// checkOffered applies the choice rules Replay enforces step by step: every
// modifier must be offered by some step and an exclusive step takes at most
// one of them.
func checkOffered(steps []Step, mods []catalog.Modifier) error {
	picked := make([]int, len(steps))
	for _, m := range mods {
		offered := false
		for i, step := range steps {
			if !step.Accepts(m.Group) {
				continue
			}
			if step.Exclusive && picked[i] > 0 {
				return fmt.Errorf("%w: %s", ErrSingleChoice, step.Name)
			}
			picked[i]++
			offered = true
			break
		}
		if !offered {
			return fmt.Errorf("%w: %s", ErrNotOffered, m.ID)
		}
	}
	return nil
}
