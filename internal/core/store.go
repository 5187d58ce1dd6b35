package core

import (
	"context"
	"time"
)

// Store is the transactional ledger backend. Implementations must give
// WithTx all-or-nothing semantics and must report failures as *Error values
// (NotFound for missing rows and missing parents, Validation for uniqueness
// violations, Storage for everything else).
type Store interface {
	// WithTx runs fn in a read-write transaction. It commits when fn returns
	// nil and rolls back otherwise; a failed commit is a StorageError.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn in a read-only transaction that takes no row locks.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of statements available inside a store transaction.
// Lock* reads hold a row lock until the transaction ends and must only be
// used inside WithTx.
type Tx interface {
	InsertCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	LockCustomer(ctx context.Context, id int) (*Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) error
	DeleteCustomer(ctx context.Context, id int) error
	ListCustomers(ctx context.Context, f CustomerFilter) ([]Customer, error)
	CountCustomers(ctx context.Context) (int, error)

	InsertItem(ctx context.Context, item *InventoryItem) error
	GetItem(ctx context.Context, id int) (*InventoryItem, error)
	LockItem(ctx context.Context, id int) (*InventoryItem, error)
	// UpdateItem writes every column except quantity_on_hand.
	UpdateItem(ctx context.Context, item *InventoryItem) error
	SetItemQuantity(ctx context.Context, id, quantity int) error
	DeleteItem(ctx context.Context, id int) error
	ListItems(ctx context.Context, f ItemFilter) ([]InventoryItem, error)

	InsertAppointment(ctx context.Context, a *Appointment) error
	GetAppointment(ctx context.Context, id int) (*Appointment, error)
	LockAppointment(ctx context.Context, id int) (*Appointment, error)
	UpdateAppointmentSchedule(ctx context.Context, id int, technician string, scheduledAt time.Time) error
	SetAppointmentStatus(ctx context.Context, id int, status AppointmentStatus) error
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error)

	// InsertInvoice writes the header and its lines.
	InsertInvoice(ctx context.Context, inv *Invoice) error
	// GetInvoice returns the header with its lines.
	GetInvoice(ctx context.Context, id int) (*Invoice, error)
	// LockInvoice returns the header only; Lines is nil.
	LockInvoice(ctx context.Context, id int) (*Invoice, error)
	// UpdateInvoiceDraft replaces tax rate, notes and the full set of lines.
	UpdateInvoiceDraft(ctx context.Context, inv *Invoice) error
	SetInvoiceStatus(ctx context.Context, id int, status InvoiceStatus) error
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error)

	InsertUsage(ctx context.Context, u *UsageRecord) error
	ListUsage(ctx context.Context, f UsageFilter) ([]UsageRecord, error)
	InsertAdjustment(ctx context.Context, a *StockAdjustment) error
	ListAdjustments(ctx context.Context, itemID int) ([]StockAdjustment, error)

	CountInvoicesForCustomer(ctx context.Context, customerID int) (int, error)
	CountUsageForCustomer(ctx context.Context, customerID int) (int, error)
	CountUsageForItem(ctx context.Context, itemID int) (int, error)
}

// CustomerFilter narrows ListCustomers. Search is a case-insensitive
// substring match on name. Results are newest first.
type CustomerFilter struct {
	Search string
}

// ItemFilter narrows ListItems. Results are ordered by SKU.
type ItemFilter struct {
	Category string
}

// AppointmentFilter narrows ListAppointments. From/To bound ScheduledAt as a
// half-open interval [From, To). Results are ordered by ScheduledAt, then ID.
type AppointmentFilter struct {
	CustomerID *int
	Technician string
	Status     *AppointmentStatus
	From       *time.Time
	To         *time.Time
}

// InvoiceFilter narrows ListInvoices. Results are newest first and include lines.
type InvoiceFilter struct {
	CustomerID *int
	Status     *InvoiceStatus
}

// UsageFilter narrows ListUsage. Results are ordered by ID.
type UsageFilter struct {
	ItemID        *int
	AppointmentID *int
	InvoiceID     *int
}
