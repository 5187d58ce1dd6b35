package core_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/core"
)

func TestCreateInvoice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)

	inv, err := f.invoices.CreateInvoice(ctx, core.InvoiceInput{
		CustomerID:    c.ID,
		AppointmentID: &a.ID,
		InvoiceNumber: " INV-7 ",
		IssueDate:     time.Date(2024, 6, 3, 17, 45, 0, 0, time.UTC),
		TaxRate:       dec("0.08"),
		Lines:         exampleLines(),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-7", inv.InvoiceNumber)
	assert.Equal(t, core.InvoiceDraft, inv.Status)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, 1, inv.Lines[0].LineNumber)
	assert.Equal(t, 2, inv.Lines[1].LineNumber)

	_, err = f.invoices.CreateInvoice(ctx, core.InvoiceInput{
		CustomerID: c.ID, InvoiceNumber: "INV-7", TaxRate: dec("0"), Lines: exampleLines(),
	})
	assert.ErrorIs(t, err, core.ErrValidation, "duplicate invoice number")
}

func TestCreateInvoiceRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	acme := f.customer(t, "Acme")
	other := f.customer(t, "Other")
	a := f.appointment(t, other.ID, "Dana", june3)

	valid := func() core.InvoiceInput {
		return core.InvoiceInput{CustomerID: acme.ID, InvoiceNumber: "INV-1", TaxRate: dec("0.08"), Lines: exampleLines()}
	}

	tests := []struct {
		name   string
		mutate func(*core.InvoiceInput)
		want   error
	}{
		{"missing number", func(in *core.InvoiceInput) { in.InvoiceNumber = "" }, core.ErrValidation},
		{"negative tax", func(in *core.InvoiceInput) { in.TaxRate = dec("-0.01") }, core.ErrValidation},
		{"tax above one", func(in *core.InvoiceInput) { in.TaxRate = dec("1.01") }, core.ErrValidation},
		{"no lines", func(in *core.InvoiceInput) { in.Lines = nil }, core.ErrValidation},
		{"blank description", func(in *core.InvoiceInput) { in.Lines[0].Description = " " }, core.ErrValidation},
		{"zero quantity", func(in *core.InvoiceInput) { in.Lines[1].Quantity = dec("0") }, core.ErrValidation},
		{"negative price", func(in *core.InvoiceInput) { in.Lines[0].UnitPrice = dec("-1") }, core.ErrValidation},
		{"unknown customer", func(in *core.InvoiceInput) { in.CustomerID = 999 }, core.ErrNotFound},
		{"foreign appointment", func(in *core.InvoiceInput) { in.AppointmentID = &a.ID }, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := f.invoices.CreateInvoice(ctx, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	invs, err := f.invoices.ListInvoices(ctx, core.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, invs)
}

func TestTaxRateBoundsAreInclusive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")

	for i, rate := range []string{"0", "1"} {
		_, err := f.invoices.CreateInvoice(ctx, core.InvoiceInput{
			CustomerID: c.ID, InvoiceNumber: "INV-" + rate, TaxRate: dec(rate), Lines: exampleLines(),
		})
		assert.NoError(t, err, "case %d", i)
	}
}

func TestOnlyDraftInvoicesAreEditable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	inv := f.invoice(t, c.ID, "INV-1")

	update := core.DraftUpdate{
		Notes:   "added coil cleaning",
		TaxRate: dec("0.05"),
		Lines:   []core.LineInput{{Description: "Coil cleaning", Quantity: dec("1"), UnitPrice: dec("80")}},
	}
	edited, err := f.invoices.UpdateDraftInvoice(ctx, inv.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "added coil cleaning", edited.Notes)

	got, err := f.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Coil cleaning", got.Lines[0].Description)

	_, err = f.workflow.TransitionInvoice(ctx, inv.ID, core.InvoiceDraft, core.InvoiceSent)
	require.NoError(t, err)

	_, err = f.invoices.UpdateDraftInvoice(ctx, inv.ID, update)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.invoices.UpdateDraftInvoice(ctx, 999, update)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListInvoices(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	acme := f.customer(t, "Acme")
	other := f.customer(t, "Other")
	first := f.invoice(t, acme.ID, "INV-1")
	f.invoice(t, acme.ID, "INV-2")
	f.invoice(t, other.ID, "INV-3")

	_, err := f.workflow.TransitionInvoice(ctx, first.ID, core.InvoiceDraft, core.InvoiceSent)
	require.NoError(t, err)

	sent := core.InvoiceSent
	invs, err := f.invoices.ListInvoices(ctx, core.InvoiceFilter{Status: &sent})
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, "INV-1", invs[0].InvoiceNumber)
	assert.Len(t, invs[0].Lines, 2)

	invs, err = f.invoices.ListCustomerInvoices(ctx, acme.ID)
	require.NoError(t, err)
	assert.Len(t, invs, 2)

	_, err = f.invoices.ListCustomerInvoices(ctx, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAmountsBeyondStoredPrecisionAreRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")

	labor := []core.LineInput{{Description: "Labor", Quantity: dec("1"), UnitPrice: dec("1000")}}
	tests := []struct {
		name  string
		rate  string
		lines []core.LineInput
	}{
		{"five-place tax rate", "0.08375", labor},
		{"five-place quantity", "0.08", []core.LineInput{{Description: "Refrigerant", Quantity: dec("2.37551"), UnitPrice: dec("12")}}},
		{"five-place price", "0.08", []core.LineInput{{Description: "Labor", Quantity: dec("1"), UnitPrice: dec("99.99999")}}},
		{"eleven-digit price", "0.08", []core.LineInput{{Description: "Labor", Quantity: dec("1"), UnitPrice: dec("12345678901")}}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.invoices.CreateInvoice(ctx, core.InvoiceInput{
				CustomerID: c.ID, InvoiceNumber: fmt.Sprintf("INV-%d", i), TaxRate: dec(tt.rate), Lines: tt.lines,
			})
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}

	// Trailing zeros past the fourth place do not change the value.
	inv, err := f.invoices.CreateInvoice(ctx, core.InvoiceInput{
		CustomerID: c.ID, InvoiceNumber: "INV-OK", TaxRate: dec("0.083800"), Lines: labor,
	})
	require.NoError(t, err)
	assert.Equal(t, "83.80", core.InvoiceTotals(*inv).TaxAmount.StringFixed(2))

	_, err = f.invoices.UpdateDraftInvoice(ctx, inv.ID, core.DraftUpdate{TaxRate: dec("0.08375"), Lines: labor})
	assert.ErrorIs(t, err, core.ErrValidation)
}
