package catalog

import (
	"context"
	"fmt"

	"github.com/creperia-pos/api/internal/database"
)

// Reader is the catalog read interface consumed by the core.
type Reader interface {
	Groups(ctx context.Context) ([]MenuGroup, error)
	Items(ctx context.Context) ([]MenuItem, error)
	Modifiers(ctx context.Context) ([]Modifier, error)
	PriceRules(ctx context.Context) ([]PriceRule, error)
	Categories(ctx context.Context) ([]ModifierCategory, error)
}

// Load reads everything from r and builds a Snapshot.
func Load(ctx context.Context, r Reader) (*Snapshot, error) {
	cats, err := r.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	mods, err := r.Modifiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load modifiers: %w", err)
	}
	rules, err := r.PriceRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load price rules: %w", err)
	}
	items, err := r.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	groups, err := r.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	return NewSnapshot(groups, items, mods, rules, cats)
}

// Querier is the subset of database.Queries the store reader needs.
type Querier interface {
	ListModifierCategories(ctx context.Context) ([]database.ModifierCategory, error)
	ListModifiers(ctx context.Context) ([]database.Modifier, error)
	ListPriceRules(ctx context.Context) ([]database.PriceRule, error)
	ListPriceTiers(ctx context.Context) ([]database.PriceTier, error)
	ListMenuGroups(ctx context.Context) ([]database.MenuGroup, error)
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListItemVariants(ctx context.Context) ([]database.ItemVariant, error)
}

// StoreReader reads the catalog from PostgreSQL.
type StoreReader struct {
	q Querier
}

func NewStoreReader(q Querier) *StoreReader {
	return &StoreReader{q: q}
}

func (r *StoreReader) Categories(ctx context.Context) ([]ModifierCategory, error) {
	rows, err := r.q.ListModifierCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ModifierCategory, len(rows))
	for i, row := range rows {
		out[i] = ModifierCategory{
			Key:         row.Key,
			Name:        row.Name,
			Exclusive:   row.Exclusive,
			ToppingKind: row.ToppingKind.String,
		}
	}
	return out, nil
}

func (r *StoreReader) Modifiers(ctx context.Context) ([]Modifier, error) {
	rows, err := r.q.ListModifiers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Modifier, len(rows))
	for i, row := range rows {
		out[i] = Modifier{
			ID:           row.ID,
			Name:         row.Name,
			Price:        database.NumericToDecimal(row.Price),
			Group:        row.GroupKey,
			TrackStock:   row.TrackStock,
			CurrentStock: int(row.CurrentStock.Int32),
		}
	}
	return out, nil
}

func (r *StoreReader) PriceRules(ctx context.Context) ([]PriceRule, error) {
	rows, err := r.q.ListPriceRules(ctx)
	if err != nil {
		return nil, err
	}
	tiers, err := r.q.ListPriceTiers(ctx)
	if err != nil {
		return nil, err
	}
	byRule := make(map[string][]PriceTier)
	for _, t := range tiers {
		byRule[t.RuleID] = append(byRule[t.RuleID], PriceTier{
			Count: int(t.Count),
			Price: database.NumericToDecimal(t.Price),
		})
	}
	out := make([]PriceRule, len(rows))
	for i, row := range rows {
		out[i] = PriceRule{ID: row.ID, Name: row.Name, Tiers: byRule[row.ID]}
	}
	return out, nil
}

func (r *StoreReader) Items(ctx context.Context) ([]MenuItem, error) {
	rows, err := r.q.ListMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	variants, err := r.q.ListItemVariants(ctx)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string][]Variant)
	for _, v := range variants {
		byItem[v.ItemID] = append(byItem[v.ItemID], Variant{
			ID:              v.ID,
			Name:            v.Name,
			PriceAdjustment: database.NumericToDecimal(v.PriceAdjustment),
		})
	}
	out := make([]MenuItem, len(rows))
	for i, row := range rows {
		out[i] = MenuItem{
			ID:              row.ID,
			Name:            row.Name,
			GroupID:         row.GroupID,
			Price:           database.NumericToDecimal(row.Price),
			Cost:            database.NumericToNullDecimal(row.Cost),
			Variants:        byItem[row.ID],
			ModifierGroups:  row.ModifierGroups,
			ExclusiveGroups: row.ExclusiveGroups,
		}
	}
	return out, nil
}

func (r *StoreReader) Groups(ctx context.Context) ([]MenuGroup, error) {
	rows, err := r.q.ListMenuGroups(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MenuGroup, len(rows))
	for i, row := range rows {
		mode, err := ParsePricingMode(row.PricingMode)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", row.ID, err)
		}
		out[i] = MenuGroup{
			ID:            row.ID,
			Name:          row.Name,
			Level:         int(row.Level),
			ParentID:      row.ParentID.String,
			RulesRef:      row.RulesRef.String,
			BaseGroup:     row.BaseGroup.String,
			ExtraGroups:   row.ExtraGroups,
			ToppingGroups: row.ToppingGroups,
			Price:         database.NumericToDecimal(row.Price),
			Mode:          mode,
			BlendedSimple: row.BlendedSimple,
			Dessert:       row.Dessert,
		}
	}
	return out, nil
}
