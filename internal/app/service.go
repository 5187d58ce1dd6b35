package app

import (
	"context"
	"time"

	"hvac-ledger/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from the ledger core. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// CreateCustomer registers a customer. The phone number is normalized.
	CreateCustomer(ctx context.Context, req CustomerRequest) (*core.Customer, error)

	// UpdateCustomer replaces a customer's contact details.
	UpdateCustomer(ctx context.Context, id int, req CustomerRequest) (*core.Customer, error)

	// GetCustomer returns a single customer.
	GetCustomer(ctx context.Context, id int) (*core.Customer, error)

	// ListCustomers returns customers newest first. A non-empty search narrows
	// by name; Total is always the unfiltered count.
	ListCustomers(ctx context.Context, search string) (*CustomerListResult, error)

	// DeleteCustomer removes a customer with no invoices and no billed usage.
	DeleteCustomer(ctx context.Context, id int) error

	// ListCustomerInvoices returns a customer's invoices with derived totals.
	ListCustomerInvoices(ctx context.Context, customerID int) ([]core.InvoiceSummary, error)

	// CreateItem adds a stocked part with its opening quantity.
	CreateItem(ctx context.Context, req ItemRequest) (*core.InventoryItem, error)

	// UpdateItem changes descriptive fields and cost; quantity is untouched.
	UpdateItem(ctx context.Context, id int, req ItemRequest) (*core.InventoryItem, error)

	// GetItem returns a single inventory item.
	GetItem(ctx context.Context, id int) (*core.InventoryItem, error)

	// ListItems returns items by SKU, optionally only those at or below their
	// reorder threshold.
	ListItems(ctx context.Context, category string, lowStockOnly bool) (*StockResult, error)

	// DeleteItem removes an item that no usage record references.
	DeleteItem(ctx context.Context, id int) error

	// AdjustStock applies a manual restock or correction.
	AdjustStock(ctx context.Context, itemID int, req AdjustRequest) (*AdjustResult, error)

	// ListAdjustments returns an item's adjustment history, oldest first.
	ListAdjustments(ctx context.Context, itemID int) ([]core.StockAdjustment, error)

	// CreateAppointment books a job in the scheduled state.
	CreateAppointment(ctx context.Context, req AppointmentRequest) (*core.Appointment, error)

	// RescheduleAppointment moves a still-scheduled job.
	RescheduleAppointment(ctx context.Context, id int, req RescheduleRequest) (*core.Appointment, error)

	// GetAppointment returns a single appointment.
	GetAppointment(ctx context.Context, id int) (*core.Appointment, error)

	// ListAppointments returns appointments in scheduled order.
	ListAppointments(ctx context.Context, q AppointmentQuery) ([]core.Appointment, error)

	// TransitionAppointment moves an appointment along its workflow. From must
	// match the stored status or the call fails with a conflict.
	TransitionAppointment(ctx context.Context, id int, req TransitionRequest) (*core.Transition, error)

	// CreateInvoice creates a draft invoice and returns it with its totals.
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*core.InvoiceSummary, error)

	// UpdateDraftInvoice replaces the lines, notes and tax rate of a draft.
	UpdateDraftInvoice(ctx context.Context, id int, req DraftInvoiceRequest) (*core.InvoiceSummary, error)

	// GetInvoice returns an invoice with its derived totals.
	GetInvoice(ctx context.Context, id int) (*core.InvoiceSummary, error)

	// ListInvoices returns invoices newest first with their derived totals.
	ListInvoices(ctx context.Context, q InvoiceQuery) ([]core.InvoiceSummary, error)

	// TransitionInvoice moves an invoice along its workflow with the same
	// optimistic check as TransitionAppointment.
	TransitionInvoice(ctx context.Context, id int, req TransitionRequest) (*core.Transition, error)

	// RecordUsage consumes stock for a job; the decrement and the usage record
	// commit together or not at all.
	RecordUsage(ctx context.Context, req UsageRequest) (*core.UsageRecord, error)

	// ListUsage returns usage records in creation order.
	ListUsage(ctx context.Context, f core.UsageFilter) ([]core.UsageRecord, error)

	// InventoryValue returns Σ quantity × unit cost over all items.
	InventoryValue(ctx context.Context) (*core.InventoryValuation, error)

	// TechnicianWorkload returns a technician's appointments in time order,
	// optionally for one UTC day.
	TechnicianWorkload(ctx context.Context, technician string, date *time.Time) (*WorkloadResult, error)
}
