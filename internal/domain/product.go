package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product domain errors.
var (
	ErrProductNotFound    = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrProductUnavailable = &Error{Code: ECONFLICT, Message: "Product is no longer available"}
	ErrBatchNotFound      = &Error{Code: ENOTFOUND, Message: "Product batch not found"}
)

// Roast levels.
const (
	RoastLight  = "light"
	RoastMedium = "medium"
	RoastDark   = "dark"
)

// Grind keys accepted in cart lines and order items.
var GrindChoices = []string{"whole", "espresso", "filter", "french_press"}

// Product is a coffee catalog entity.
//
// Price is always a pure function of CostPrice and MarkupPercent; it is
// recomputed by the call site on every save (service.ComputeSalePrice) and
// never independently settable.
type Product struct {
	ID   uuid.UUID
	SKU  string
	Name string
	Slug string

	Origin       string
	RoastType    string
	TastingNotes string

	CostPrice     decimal.Decimal
	MarkupPercent decimal.Decimal
	Price         decimal.Decimal
	WeightGrams   int

	// Stock is a flat unit counter. When batches exist for the product it is
	// a derived projection of remaining batch grams, not an independent
	// source of truth.
	Stock    int
	IsActive bool

	AvailableGrinds string
	ImageURL        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InStock reports whether the product can be purchased right now.
func (p *Product) InStock() bool {
	return p.IsActive && p.Stock > 0
}

// ProductBatch is a FIFO inventory ledger entry: a green-coffee receipt
// consumed oldest-first. RemainingGrams only decreases, via consumption.
type ProductBatch struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	ReceivedAt     time.Time
	QuantityGrams  int
	RemainingGrams int
	UnitCostPerKg  decimal.Decimal
	Note           string
}
