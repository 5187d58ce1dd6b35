package app

import (
	"time"

	"hvac-ledger/internal/core"
)

// StockResult is returned by ListItems.
type StockResult struct {
	Items         []core.InventoryItem `json:"items"`
	LowStockCount int                  `json:"low_stock_count"`
}

// AdjustResult is returned by AdjustStock.
type AdjustResult struct {
	ItemID         int `json:"item_id"`
	Delta          int `json:"delta"`
	QuantityOnHand int `json:"quantity_on_hand"`
}

// WorkloadResult is returned by TechnicianWorkload.
type WorkloadResult struct {
	Technician   string             `json:"technician"`
	Date         *time.Time         `json:"date,omitempty"`
	Appointments []core.Appointment `json:"appointments"`
}

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer `json:"customers"`
	Total     int             `json:"total"`
}
