package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listModifierCategories = `-- name: ListModifierCategories :many
SELECT key, name, exclusive, topping_kind, sort_order
FROM modifier_categories
ORDER BY sort_order, key
`

func (q *Queries) ListModifierCategories(ctx context.Context) ([]ModifierCategory, error) {
	rows, err := q.db.Query(ctx, listModifierCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ModifierCategory{}
	for rows.Next() {
		var i ModifierCategory
		if err := rows.Scan(
			&i.Key,
			&i.Name,
			&i.Exclusive,
			&i.ToppingKind,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listModifiers = `-- name: ListModifiers :many
SELECT id, name, price, group_key, track_stock, current_stock, is_active, sort_order, updated_at
FROM modifiers
WHERE is_active = true
ORDER BY group_key, sort_order, name
`

func (q *Queries) ListModifiers(ctx context.Context) ([]Modifier, error) {
	rows, err := q.db.Query(ctx, listModifiers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Modifier{}
	for rows.Next() {
		var i Modifier
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Price,
			&i.GroupKey,
			&i.TrackStock,
			&i.CurrentStock,
			&i.IsActive,
			&i.SortOrder,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPriceRules = `-- name: ListPriceRules :many
SELECT id, name FROM price_rules ORDER BY id
`

func (q *Queries) ListPriceRules(ctx context.Context) ([]PriceRule, error) {
	rows, err := q.db.Query(ctx, listPriceRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PriceRule{}
	for rows.Next() {
		var i PriceRule
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPriceTiers = `-- name: ListPriceTiers :many
SELECT rule_id, count, price FROM price_tiers ORDER BY rule_id, count
`

func (q *Queries) ListPriceTiers(ctx context.Context) ([]PriceTier, error) {
	rows, err := q.db.Query(ctx, listPriceTiers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PriceTier{}
	for rows.Next() {
		var i PriceTier
		if err := rows.Scan(&i.RuleID, &i.Count, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMenuGroups = `-- name: ListMenuGroups :many
SELECT id, name, level, parent_id, rules_ref, base_group, extra_groups, topping_groups,
       price, pricing_mode, blended_simple, dessert, sort_order
FROM menu_groups
ORDER BY level, sort_order, name
`

func (q *Queries) ListMenuGroups(ctx context.Context) ([]MenuGroup, error) {
	rows, err := q.db.Query(ctx, listMenuGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuGroup{}
	for rows.Next() {
		var i MenuGroup
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Level,
			&i.ParentID,
			&i.RulesRef,
			&i.BaseGroup,
			&i.ExtraGroups,
			&i.ToppingGroups,
			&i.Price,
			&i.PricingMode,
			&i.BlendedSimple,
			&i.Dessert,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT id, name, group_id, price, cost, modifier_groups, exclusive_groups, sort_order
FROM menu_items
ORDER BY group_id, sort_order, name
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.GroupID,
			&i.Price,
			&i.Cost,
			&i.ModifierGroups,
			&i.ExclusiveGroups,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listItemVariants = `-- name: ListItemVariants :many
SELECT id, item_id, name, price_adjustment, sort_order
FROM item_variants
ORDER BY item_id, sort_order, name
`

func (q *Queries) ListItemVariants(ctx context.Context) ([]ItemVariant, error) {
	rows, err := q.db.Query(ctx, listItemVariants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ItemVariant{}
	for rows.Next() {
		var i ItemVariant
		if err := rows.Scan(
			&i.ID,
			&i.ItemID,
			&i.Name,
			&i.PriceAdjustment,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertModifierCategory = `-- name: UpsertModifierCategory :exec
INSERT INTO modifier_categories (key, name, exclusive, topping_kind, sort_order)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (key) DO UPDATE
SET name = EXCLUDED.name, exclusive = EXCLUDED.exclusive,
    topping_kind = EXCLUDED.topping_kind, sort_order = EXCLUDED.sort_order
`

type UpsertModifierCategoryParams struct {
	Key         string
	Name        string
	Exclusive   bool
	ToppingKind pgtype.Text
	SortOrder   int32
}

func (q *Queries) UpsertModifierCategory(ctx context.Context, arg UpsertModifierCategoryParams) error {
	_, err := q.db.Exec(ctx, upsertModifierCategory,
		arg.Key,
		arg.Name,
		arg.Exclusive,
		arg.ToppingKind,
		arg.SortOrder,
	)
	return err
}

const upsertModifier = `-- name: UpsertModifier :exec
INSERT INTO modifiers (id, name, price, group_key, track_stock, current_stock, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, price = EXCLUDED.price, group_key = EXCLUDED.group_key,
    track_stock = EXCLUDED.track_stock, sort_order = EXCLUDED.sort_order,
    updated_at = now()
`

type UpsertModifierParams struct {
	ID           string
	Name         string
	Price        pgtype.Numeric
	GroupKey     string
	TrackStock   bool
	CurrentStock pgtype.Int4
	SortOrder    int32
}

// UpsertModifier never overwrites current_stock of an existing row; stock is
// only changed through SetModifierStock.
func (q *Queries) UpsertModifier(ctx context.Context, arg UpsertModifierParams) error {
	_, err := q.db.Exec(ctx, upsertModifier,
		arg.ID,
		arg.Name,
		arg.Price,
		arg.GroupKey,
		arg.TrackStock,
		arg.CurrentStock,
		arg.SortOrder,
	)
	return err
}

const upsertPriceRule = `-- name: UpsertPriceRule :exec
INSERT INTO price_rules (id, name) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
`

func (q *Queries) UpsertPriceRule(ctx context.Context, id, name string) error {
	_, err := q.db.Exec(ctx, upsertPriceRule, id, name)
	return err
}

const upsertPriceTier = `-- name: UpsertPriceTier :exec
INSERT INTO price_tiers (rule_id, count, price) VALUES ($1, $2, $3)
ON CONFLICT (rule_id, count) DO UPDATE SET price = EXCLUDED.price
`

type UpsertPriceTierParams struct {
	RuleID string
	Count  int32
	Price  pgtype.Numeric
}

func (q *Queries) UpsertPriceTier(ctx context.Context, arg UpsertPriceTierParams) error {
	_, err := q.db.Exec(ctx, upsertPriceTier, arg.RuleID, arg.Count, arg.Price)
	return err
}

const upsertMenuGroup = `-- name: UpsertMenuGroup :exec
INSERT INTO menu_groups (id, name, level, parent_id, rules_ref, base_group, extra_groups,
                         topping_groups, price, pricing_mode, blended_simple, dessert, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::text[], '{}'), COALESCE($8::text[], '{}'), $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, level = EXCLUDED.level, parent_id = EXCLUDED.parent_id,
    rules_ref = EXCLUDED.rules_ref, base_group = EXCLUDED.base_group,
    extra_groups = EXCLUDED.extra_groups, topping_groups = EXCLUDED.topping_groups,
    price = EXCLUDED.price, pricing_mode = EXCLUDED.pricing_mode,
    blended_simple = EXCLUDED.blended_simple, dessert = EXCLUDED.dessert,
    sort_order = EXCLUDED.sort_order
`

type UpsertMenuGroupParams struct {
	ID            string
	Name          string
	Level         int32
	ParentID      pgtype.Text
	RulesRef      pgtype.Text
	BaseGroup     pgtype.Text
	ExtraGroups   []string
	ToppingGroups []string
	Price         pgtype.Numeric
	PricingMode   string
	BlendedSimple bool
	Dessert       bool
	SortOrder     int32
}

func (q *Queries) UpsertMenuGroup(ctx context.Context, arg UpsertMenuGroupParams) error {
	_, err := q.db.Exec(ctx, upsertMenuGroup,
		arg.ID,
		arg.Name,
		arg.Level,
		arg.ParentID,
		arg.RulesRef,
		arg.BaseGroup,
		arg.ExtraGroups,
		arg.ToppingGroups,
		arg.Price,
		arg.PricingMode,
		arg.BlendedSimple,
		arg.Dessert,
		arg.SortOrder,
	)
	return err
}

const upsertMenuItem = `-- name: UpsertMenuItem :exec
INSERT INTO menu_items (id, name, group_id, price, cost, modifier_groups, exclusive_groups, sort_order)
VALUES ($1, $2, $3, $4, $5, COALESCE($6::text[], '{}'), COALESCE($7::text[], '{}'), $8)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, group_id = EXCLUDED.group_id, price = EXCLUDED.price,
    cost = EXCLUDED.cost, modifier_groups = EXCLUDED.modifier_groups,
    exclusive_groups = EXCLUDED.exclusive_groups, sort_order = EXCLUDED.sort_order
`

type UpsertMenuItemParams struct {
	ID              string
	Name            string
	GroupID         string
	Price           pgtype.Numeric
	Cost            pgtype.Numeric
	ModifierGroups  []string
	ExclusiveGroups []string
	SortOrder       int32
}

func (q *Queries) UpsertMenuItem(ctx context.Context, arg UpsertMenuItemParams) error {
	_, err := q.db.Exec(ctx, upsertMenuItem,
		arg.ID,
		arg.Name,
		arg.GroupID,
		arg.Price,
		arg.Cost,
		arg.ModifierGroups,
		arg.ExclusiveGroups,
		arg.SortOrder,
	)
	return err
}

const upsertItemVariant = `-- name: UpsertItemVariant :exec
INSERT INTO item_variants (id, item_id, name, price_adjustment, sort_order)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET item_id = EXCLUDED.item_id, name = EXCLUDED.name,
    price_adjustment = EXCLUDED.price_adjustment, sort_order = EXCLUDED.sort_order
`

type UpsertItemVariantParams struct {
	ID              string
	ItemID          string
	Name            string
	PriceAdjustment pgtype.Numeric
	SortOrder       int32
}

func (q *Queries) UpsertItemVariant(ctx context.Context, arg UpsertItemVariantParams) error {
	_, err := q.db.Exec(ctx, upsertItemVariant,
		arg.ID,
		arg.ItemID,
		arg.Name,
		arg.PriceAdjustment,
		arg.SortOrder,
	)
	return err
}
