package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the precision of every reported money figure.
const moneyPlaces = 2

// Totals are the derived money figures of an invoice. Each field is rounded
// once, half-to-even, from the exact sums; lines are never rounded.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// InvoiceTotals computes subtotal, tax and grand total from the invoice's
// current lines and tax rate.
func InvoiceTotals(inv Invoice) Totals {
	subtotal := decimal.Zero
	for _, l := range inv.Lines {
		subtotal = subtotal.Add(l.Quantity.Mul(l.UnitPrice))
	}
	tax := subtotal.Mul(inv.TaxRate)
	return Totals{
		Subtotal:   subtotal.RoundBank(moneyPlaces),
		TaxAmount:  tax.RoundBank(moneyPlaces),
		GrandTotal: subtotal.Add(tax).RoundBank(moneyPlaces),
	}
}

// InventoryValue is Σ quantity on hand × unit cost, rounded once.
func InventoryValue(items []InventoryItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromInt(int64(it.QuantityOnHand)).Mul(it.UnitCost))
	}
	return total.RoundBank(moneyPlaces)
}

// IsLowStock reports whether an item is at or below its reorder threshold.
func IsLowStock(item InventoryItem) bool {
	return item.QuantityOnHand <= item.ReorderThreshold
}

// SortWorkload orders appointments by scheduled time, ID breaking ties.
func SortWorkload(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		if !appts[i].ScheduledAt.Equal(appts[j].ScheduledAt) {
			return appts[i].ScheduledAt.Before(appts[j].ScheduledAt)
		}
		return appts[i].ID < appts[j].ID
	})
}

// InvoiceSummary is an invoice together with its derived totals and the
// billed customer's contact details.
type InvoiceSummary struct {
	Invoice
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Totals        Totals `json:"totals"`
}

// InventoryValuation is the aggregate value of stock on hand.
type InventoryValuation struct {
	ItemCount  int             `json:"item_count"`
	TotalValue decimal.Decimal `json:"total_value"`
	AsOf       time.Time       `json:"as_of"`
}

// ValuationService answers derived-figure queries from a read-only view of
// the store. It never writes and never takes row locks.
type ValuationService interface {
	InvoiceSummary(ctx context.Context, invoiceID int) (*InvoiceSummary, error)
	InvoiceSummaries(ctx context.Context, f InvoiceFilter) ([]InvoiceSummary, error)
	// CustomerInvoiceSummaries returns NotFound when the customer does not exist.
	CustomerInvoiceSummaries(ctx context.Context, customerID int) ([]InvoiceSummary, error)
	TotalInventoryValue(ctx context.Context) (*InventoryValuation, error)
	LowStockItems(ctx context.Context) ([]InventoryItem, error)
	// TechnicianWorkload lists a technician's appointments in scheduled order,
	// optionally limited to the UTC calendar day of date.
	TechnicianWorkload(ctx context.Context, technician string, date *time.Time) ([]Appointment, error)
}

type valuationService struct {
	store Store
	now   func() time.Time
}

func NewValuationService(store Store) ValuationService {
	return &valuationService{store: store, now: time.Now}
}

func (s *valuationService) InvoiceSummary(ctx context.Context, invoiceID int) (*InvoiceSummary, error) {
	var out []InvoiceSummary
	err := s.store.View(ctx, func(tx Tx) error {
		inv, err := tx.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		out, err = summarize(ctx, tx, []Invoice{*inv})
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to fetch invoice")
	}
	return &out[0], nil
}

func (s *valuationService) InvoiceSummaries(ctx context.Context, f InvoiceFilter) ([]InvoiceSummary, error) {
	var out []InvoiceSummary
	err := s.store.View(ctx, func(tx Tx) error {
		invs, err := tx.ListInvoices(ctx, f)
		if err != nil {
			return err
		}
		out, err = summarize(ctx, tx, invs)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list invoices")
	}
	return out, nil
}

func (s *valuationService) CustomerInvoiceSummaries(ctx context.Context, customerID int) ([]InvoiceSummary, error) {
	var out []InvoiceSummary
	err := s.store.View(ctx, func(tx Tx) error {
		if _, err := tx.GetCustomer(ctx, customerID); err != nil {
			return err
		}
		invs, err := tx.ListInvoices(ctx, InvoiceFilter{CustomerID: &customerID})
		if err != nil {
			return err
		}
		out, err = summarize(ctx, tx, invs)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list customer invoices")
	}
	return out, nil
}

// summarize derives totals and resolves each distinct customer once.
func summarize(ctx context.Context, tx Tx, invs []Invoice) ([]InvoiceSummary, error) {
	customers := make(map[int]*Customer)
	out := make([]InvoiceSummary, 0, len(invs))
	for _, inv := range invs {
		c, ok := customers[inv.CustomerID]
		if !ok {
			var err error
			if c, err = tx.GetCustomer(ctx, inv.CustomerID); err != nil {
				return nil, err
			}
			customers[inv.CustomerID] = c
		}
		out = append(out, InvoiceSummary{
			Invoice:       inv,
			CustomerName:  c.Name,
			CustomerPhone: c.Phone,
			Totals:        InvoiceTotals(inv),
		})
	}
	return out, nil
}

func (s *valuationService) TotalInventoryValue(ctx context.Context) (*InventoryValuation, error) {
	items, err := s.items(ctx)
	if err != nil {
		return nil, err
	}
	return &InventoryValuation{
		ItemCount:  len(items),
		TotalValue: InventoryValue(items),
		AsOf:       s.now().UTC(),
	}, nil
}

func (s *valuationService) LowStockItems(ctx context.Context) ([]InventoryItem, error) {
	items, err := s.items(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]InventoryItem, 0)
	for _, it := range items {
		if IsLowStock(it) {
			low = append(low, it)
		}
	}
	return low, nil
}

func (s *valuationService) TechnicianWorkload(ctx context.Context, technician string, date *time.Time) ([]Appointment, error) {
	technician = strings.TrimSpace(technician)
	if technician == "" {
		return nil, Validationf("technician is required")
	}
	f := AppointmentFilter{Technician: technician}
	if date != nil {
		d := date.UTC()
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 1)
		f.From, f.To = &from, &to
	}

	var appts []Appointment
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		appts, err = tx.ListAppointments(ctx, f)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to load workload")
	}
	SortWorkload(appts)
	return appts, nil
}

func (s *valuationService) items(ctx context.Context) ([]InventoryItem, error) {
	var items []InventoryItem
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		items, err = tx.ListItems(ctx, ItemFilter{})
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list inventory items")
	}
	return items, nil
}
