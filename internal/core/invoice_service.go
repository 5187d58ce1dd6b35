package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceService creates and reads invoices. Only draft invoices can be
// edited; status changes go through WorkflowEngine.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, in InvoiceInput) (*Invoice, error)
	UpdateDraftInvoice(ctx context.Context, id int, in DraftUpdate) (*Invoice, error)
	GetInvoice(ctx context.Context, id int) (*Invoice, error)
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error)
	// ListCustomerInvoices returns NotFound when the customer does not exist.
	ListCustomerInvoices(ctx context.Context, customerID int) ([]Invoice, error)
}

type InvoiceInput struct {
	CustomerID    int
	AppointmentID *int
	InvoiceNumber string
	IssueDate     time.Time
	Notes         string
	TaxRate       decimal.Decimal
	Lines         []LineInput
}

type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// DraftUpdate replaces the editable parts of a draft invoice.
type DraftUpdate struct {
	Notes   string
	TaxRate decimal.Decimal
	Lines   []LineInput
}

type invoiceService struct {
	store Store
	now   func() time.Time
}

func NewInvoiceService(store Store) InvoiceService {
	return &invoiceService{store: store, now: time.Now}
}

func normalizeLines(in []LineInput) ([]InvoiceLine, error) {
	if len(in) == 0 {
		return nil, Validationf("invoice must have at least one line")
	}
	lines := make([]InvoiceLine, 0, len(in))
	for i, l := range in {
		desc := strings.TrimSpace(l.Description)
		if desc == "" {
			return nil, Validationf("line %d: description is required", i+1)
		}
		if !l.Quantity.IsPositive() {
			return nil, Validationf("line %d: quantity must be positive, got %s", i+1, l.Quantity)
		}
		if l.UnitPrice.IsNegative() {
			return nil, Validationf("line %d: unit price cannot be negative, got %s", i+1, l.UnitPrice)
		}
		if err := checkAmount(fmt.Sprintf("line %d: quantity", i+1), l.Quantity); err != nil {
			return nil, err
		}
		if err := checkAmount(fmt.Sprintf("line %d: unit price", i+1), l.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, InvoiceLine{
			LineNumber:  i + 1,
			Description: desc,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return lines, nil
}

func checkTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Validationf("tax rate must be between 0 and 1, got %s", rate)
	}
	return checkAmount("tax rate", rate)
}

func (s *invoiceService) CreateInvoice(ctx context.Context, in InvoiceInput) (*Invoice, error) {
	number, err := requireText("invoice number", in.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if err := checkTaxRate(in.TaxRate); err != nil {
		return nil, err
	}
	lines, err := normalizeLines(in.Lines)
	if err != nil {
		return nil, err
	}
	issued := in.IssueDate
	if issued.IsZero() {
		issued = s.now()
	}

	inv := &Invoice{
		CustomerID:    in.CustomerID,
		AppointmentID: in.AppointmentID,
		InvoiceNumber: number,
		IssueDate:     issued.UTC().Truncate(24 * time.Hour),
		Notes:         strings.TrimSpace(in.Notes),
		TaxRate:       in.TaxRate,
		Status:        InvoiceDraft,
		Lines:         lines,
	}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetCustomer(ctx, in.CustomerID); err != nil {
			return err
		}
		if in.AppointmentID != nil {
			appt, err := tx.GetAppointment(ctx, *in.AppointmentID)
			if err != nil {
				return err
			}
			if appt.CustomerID != in.CustomerID {
				return Validationf("appointment %d belongs to customer %d, not %d", appt.ID, appt.CustomerID, in.CustomerID)
			}
		}
		return tx.InsertInvoice(ctx, inv)
	})
	if err != nil {
		return nil, ensureKind(err, "failed to create invoice")
	}
	return inv, nil
}

func (s *invoiceService) UpdateDraftInvoice(ctx context.Context, id int, in DraftUpdate) (*Invoice, error) {
	if err := checkTaxRate(in.TaxRate); err != nil {
		return nil, err
	}
	lines, err := normalizeLines(in.Lines)
	if err != nil {
		return nil, err
	}

	var inv *Invoice
	err = s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != InvoiceDraft {
			return Validationf("invoice %s is %s; only draft invoices can be edited", current.InvoiceNumber, current.Status)
		}
		current.Notes = strings.TrimSpace(in.Notes)
		current.TaxRate = in.TaxRate
		current.Lines = lines
		if err := tx.UpdateInvoiceDraft(ctx, current); err != nil {
			return err
		}
		inv = current
		return nil
	})
	if err != nil {
		return nil, ensureKind(err, "failed to update invoice")
	}
	return inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	var inv *Invoice
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		inv, err = tx.GetInvoice(ctx, id)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to fetch invoice")
	}
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error) {
	var out []Invoice
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListInvoices(ctx, f)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list invoices")
	}
	return out, nil
}

func (s *invoiceService) ListCustomerInvoices(ctx context.Context, customerID int) ([]Invoice, error) {
	var out []Invoice
	err := s.store.View(ctx, func(tx Tx) error {
		if _, err := tx.GetCustomer(ctx, customerID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListInvoices(ctx, InvoiceFilter{CustomerID: &customerID})
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list customer invoices")
	}
	return out, nil
}
