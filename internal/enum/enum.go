package enum

// ── Group A: persisted labels (CHECK constrained or enum typed in DB) ──

const (
	StockReasonOrder      = "ORDER"
	StockReasonAdjustment = "ADJUSTMENT"
)

// ── Group B: token claims ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleCashier = "CASHIER"
	UserRoleKitchen = "KITCHEN"
)

// ── Group C: configurable labels (no DB constraint) ──

const (
	StockPolicyBlock = "block"
	StockPolicyAllow = "allow"
)

const (
	OrderModeTakeout = "TAKEOUT"
)

const (
	TopicOrders = "orders"
	TopicStock  = "stock"
)

const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventStockAdjusted  = "stock.adjusted"
)
