package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderStatus string

const (
	OrderStatusPENDING   OrderStatus = "pending"
	OrderStatusPAID      OrderStatus = "paid"
	OrderStatusCANCELLED OrderStatus = "cancelled"
)

type ItemKind string

const (
	ItemKindFIXED   ItemKind = "FIXED"
	ItemKindVARIANT ItemKind = "VARIANT"
	ItemKindCUSTOM  ItemKind = "CUSTOM"
)

type PaymentMethod string

const (
	PaymentMethodCASH     PaymentMethod = "CASH"
	PaymentMethodCARD     PaymentMethod = "CARD"
	PaymentMethodTRANSFER PaymentMethod = "TRANSFER"
)

type NullPaymentMethod struct {
	PaymentMethod PaymentMethod
	Valid         bool
}

type ModifierCategory struct {
	Key         string
	Name        string
	Exclusive   bool
	ToppingKind pgtype.Text
	SortOrder   int32
}

type Modifier struct {
	ID           string
	Name         string
	Price        pgtype.Numeric
	GroupKey     string
	TrackStock   bool
	CurrentStock pgtype.Int4
	IsActive     bool
	SortOrder    int32
	UpdatedAt    time.Time
}

type PriceRule struct {
	ID   string
	Name string
}

type PriceTier struct {
	RuleID string
	Count  int32
	Price  pgtype.Numeric
}

type MenuGroup struct {
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

type MenuItem struct {
	ID              string
	Name            string
	GroupID         string
	Price           pgtype.Numeric
	Cost            pgtype.Numeric
	ModifierGroups  []string
	ExclusiveGroups []string
	SortOrder       int32
}

type ItemVariant struct {
	ID              string
	ItemID          string
	Name            string
	PriceAdjustment pgtype.Numeric
	SortOrder       int32
}

type Order struct {
	ID               uuid.UUID
	OrderNumber      int64
	Mode             string
	Status           OrderStatus
	Total            pgtype.Numeric
	CashierName      string
	CustomerName     pgtype.Text
	PaymentMethod    NullPaymentMethod
	AmountReceived   pgtype.Numeric
	ChangeAmount     pgtype.Numeric
	PaymentReference pgtype.Text
	CreatedBy        uuid.UUID
	CreatedAt        time.Time
	PaidAt           pgtype.Timestamptz
	UpdatedAt        time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Position   int32
	Kind       ItemKind
	Name       string
	FinalPrice pgtype.Numeric
	FinalCost  pgtype.Numeric
	Details    []byte
}

type StockMovement struct {
	ID         uuid.UUID
	ModifierID string
	Delta      int32
	StockAfter int32
	Reason     string
	OrderID    pgtype.UUID
	CreatedAt  time.Time
}
