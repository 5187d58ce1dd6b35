package app

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRequest is the input for creating or updating a customer.
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=40"`
	Email   string `json:"email" validate:"omitempty,email,max=200"`
	Address string `json:"address" validate:"max=500"`
}

// ItemRequest is the input for creating or updating an inventory item.
// InitialQuantity is only honoured on create.
type ItemRequest struct {
	SKU              string          `json:"sku" validate:"required,max=64"`
	Name             string          `json:"name" validate:"required,max=200"`
	Category         string          `json:"category" validate:"required"`
	Unit             string          `json:"unit" validate:"required"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	ReorderThreshold int             `json:"reorder_threshold" validate:"gte=0"`
	InitialQuantity  int             `json:"initial_quantity" validate:"gte=0"`
}

// AdjustRequest restocks (Delta > 0) or corrects (Delta < 0) an item.
type AdjustRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

// AppointmentRequest is the input for booking an appointment.
type AppointmentRequest struct {
	CustomerID  int       `json:"customer_id" validate:"required,gt=0"`
	Technician  string    `json:"technician" validate:"required,max=120"`
	ServiceType string    `json:"service_type" validate:"required,max=120"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Notes       string    `json:"notes" validate:"max=2000"`
}

// RescheduleRequest moves a scheduled appointment.
type RescheduleRequest struct {
	Technician  string    `json:"technician" validate:"required,max=120"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// TransitionRequest names the status the caller last observed and the
// status it wants.
type TransitionRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// LineRequest is a single invoice line.
type LineRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// InvoiceRequest is the input for creating a draft invoice.
// IssueDate is YYYY-MM-DD; empty means today.
type InvoiceRequest struct {
	CustomerID    int             `json:"customer_id" validate:"required,gt=0"`
	AppointmentID *int            `json:"appointment_id" validate:"omitempty,gt=0"`
	InvoiceNumber string          `json:"invoice_number" validate:"required,max=64"`
	IssueDate     string          `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	Notes         string          `json:"notes" validate:"max=2000"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Lines         []LineRequest   `json:"lines" validate:"required,min=1,dive"`
}

// DraftInvoiceRequest replaces the editable parts of a draft invoice.
type DraftInvoiceRequest struct {
	Notes   string          `json:"notes" validate:"max=2000"`
	TaxRate decimal.Decimal `json:"tax_rate"`
	Lines   []LineRequest   `json:"lines" validate:"required,min=1,dive"`
}

// UsageRequest records parts consumed on a job.
type UsageRequest struct {
	ItemID        int  `json:"item_id" validate:"required,gt=0"`
	AppointmentID int  `json:"appointment_id" validate:"required,gt=0"`
	InvoiceID     *int `json:"invoice_id" validate:"omitempty,gt=0"`
	Quantity      int  `json:"quantity" validate:"required,gt=0"`
}

// AppointmentQuery narrows ListAppointments. Date selects one UTC calendar day.
type AppointmentQuery struct {
	CustomerID *int
	Technician string
	Status     string
	Date       *time.Time
}

// InvoiceQuery narrows ListInvoices.
type InvoiceQuery struct {
	CustomerID *int
	Status     string
}
