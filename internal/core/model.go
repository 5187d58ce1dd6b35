package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a service customer. Phone is stored in normalized form.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryItem is a stocked part or supply.
// QuantityOnHand is only ever changed by RecordUsage and AdjustQuantity.
type InventoryItem struct {
	ID               int             `json:"id"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	Unit             string          `json:"unit"`
	QuantityOnHand   int             `json:"quantity_on_hand"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	ReorderThreshold int             `json:"reorder_threshold"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Appointment is a scheduled job at a customer site.
type Appointment struct {
	ID          int               `json:"id"`
	CustomerID  int               `json:"customer_id"`
	Technician  string            `json:"technician"`
	ServiceType string            `json:"service_type"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	Notes       string            `json:"notes,omitempty"`
	Status      AppointmentStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Invoice carries line items and a tax rate only. Totals are derived on read
// by InvoiceTotals and never persisted.
type Invoice struct {
	ID            int             `json:"id"`
	CustomerID    int             `json:"customer_id"`
	AppointmentID *int            `json:"appointment_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     time.Time       `json:"issue_date"`
	Notes         string          `json:"notes,omitempty"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Status        InvoiceStatus   `json:"status"`
	Lines         []InvoiceLine   `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceLine is one billed line. LineNumber is 1-based and assigned on write.
type InvoiceLine struct {
	LineNumber  int             `json:"line_number"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// UsageRecord is the immutable fact that Quantity units of an item were
// consumed by an appointment. Each row pairs with exactly one committed
// decrement of the item's quantity on hand.
type UsageRecord struct {
	ID            int       `json:"id"`
	ItemID        int       `json:"item_id"`
	AppointmentID int       `json:"appointment_id"`
	InvoiceID     *int      `json:"invoice_id,omitempty"`
	Quantity      int       `json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockAdjustment records a manual restock or correction.
type StockAdjustment struct {
	ID            int       `json:"id"`
	ItemID        int       `json:"item_id"`
	Delta         int       `json:"delta"`
	QuantityAfter int       `json:"quantity_after"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
