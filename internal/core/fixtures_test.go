package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/core"
	"hvac-ledger/internal/store/memory"
)

type fixture struct {
	store        *memory.Store
	customers    core.CustomerService
	inventory    core.InventoryService
	appointments core.AppointmentService
	invoices     core.InvoiceService
	workflow     core.WorkflowEngine
	valuation    core.ValuationService
	guard        core.DeletionGuard
}

func newFixture(opts ...memory.Option) *fixture {
	s := memory.New(opts...)
	return &fixture{
		store:        s,
		customers:    core.NewCustomerService(s),
		inventory:    core.NewInventoryService(s),
		appointments: core.NewAppointmentService(s),
		invoices:     core.NewInvoiceService(s),
		workflow:     core.NewWorkflowEngine(s),
		valuation:    core.NewValuationService(s),
		guard:        core.NewDeletionGuard(s),
	}
}

func (f *fixture) customer(t *testing.T, name string) *core.Customer {
	t.Helper()
	c, err := f.customers.CreateCustomer(context.Background(), core.CustomerInput{Name: name, Phone: "555-123-4567"})
	require.NoError(t, err)
	return c
}

func (f *fixture) item(t *testing.T, sku string, qty int, cost string, threshold int) *core.InventoryItem {
	t.Helper()
	it, err := f.inventory.CreateItem(context.Background(), core.ItemInput{
		SKU:              sku,
		Name:             sku + " part",
		Category:         "parts",
		Unit:             "ea",
		UnitCost:         decimal.RequireFromString(cost),
		ReorderThreshold: threshold,
	}, qty)
	require.NoError(t, err)
	return it
}

func (f *fixture) appointment(t *testing.T, customerID int, technician string, at time.Time) *core.Appointment {
	t.Helper()
	a, err := f.appointments.CreateAppointment(context.Background(), core.AppointmentInput{
		CustomerID:  customerID,
		Technician:  technician,
		ServiceType: "maintenance",
		ScheduledAt: at,
	})
	require.NoError(t, err)
	return a
}

// exampleLines is the worked example: 1 × 100 labor and 2 × 12.50 filters.
func exampleLines() []core.LineInput {
	return []core.LineInput{
		{Description: "Labor", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
		{Description: "Filter", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("12.50")},
	}
}

func (f *fixture) invoice(t *testing.T, customerID int, number string) *core.Invoice {
	t.Helper()
	inv, err := f.invoices.CreateInvoice(context.Background(), core.InvoiceInput{
		CustomerID:    customerID,
		InvoiceNumber: number,
		TaxRate:       decimal.RequireFromString("0.08"),
		Lines:         exampleLines(),
	})
	require.NoError(t, err)
	return inv
}

var june3 = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
