package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"hvac-ledger/internal/config"
	"hvac-ledger/internal/core"
	"hvac-ledger/internal/events"
	"hvac-ledger/internal/logger"
	"hvac-ledger/internal/metrics"
)

type appService struct {
	customers    core.CustomerService
	inventory    core.InventoryService
	appointments core.AppointmentService
	invoices     core.InvoiceService
	workflow     core.WorkflowEngine
	valuation    core.ValuationService
	guard        core.DeletionGuard

	publisher events.Publisher
	metrics   *metrics.OperationMetrics
	log       *logger.Logger
	retry     config.RetryConfig
}

// Deps are the collaborators of the application service. Nil Publisher,
// Metrics and Logger fall back to no-op implementations.
type Deps struct {
	Store     core.Store
	Publisher events.Publisher
	Metrics   *metrics.OperationMetrics
	Logger    *logger.Logger
	Retry     config.RetryConfig
}

// NewAppService wires the core services over one store.
func NewAppService(d Deps) ApplicationService {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Retry.MaxAttempts == 0 {
		d.Retry.MaxAttempts = 1
	}
	return &appService{
		customers:    core.NewCustomerService(d.Store),
		inventory:    core.NewInventoryService(d.Store),
		appointments: core.NewAppointmentService(d.Store),
		invoices:     core.NewInvoiceService(d.Store),
		workflow:     core.NewWorkflowEngine(d.Store),
		valuation:    core.NewValuationService(d.Store),
		guard:        core.NewDeletionGuard(d.Store),
		publisher:    d.Publisher,
		metrics:      d.Metrics,
		log:          d.Logger,
		retry:        d.Retry,
	}
}

// run executes one operation, retrying transient storage failures with
// exponential backoff, and records its outcome.
func (s *appService) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	backoff := retry.WithMaxRetries(s.retry.MaxAttempts-1, retry.NewExponential(s.baseDelay()))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.IncRetry(op)
		}
		err := fn(ctx)
		if core.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = string(core.KindOf(err))
	}
	s.metrics.Observe(op, outcome, time.Since(start))

	if err != nil {
		opCtx := s.log.WithFields(ctx, map[string]any{"operation": op, "attempts": attempt})
		if core.KindOf(err) == core.KindStorage {
			s.log.Error(opCtx, "ledger operation failed", err)
		} else {
			s.log.Event(opCtx, zerolog.DebugLevel).Err(err).Msg("ledger operation rejected")
		}
	}
	return err
}

func (s *appService) baseDelay() time.Duration {
	if s.retry.BaseDelay <= 0 {
		return 10 * time.Millisecond
	}
	return s.retry.BaseDelay
}

// emit publishes after commit. A failure is logged and swallowed; the write
// it describes has already happened.
func (s *appService) emit(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn(s.log.WithFields(ctx, map[string]any{"event_type": e.Type, "event_id": e.ID}), "event publish failed", err)
	}
}

// ── Customers ────────────────────────────────────────────────────────────────

func (r CustomerRequest) input() core.CustomerInput {
	return core.CustomerInput{Name: r.Name, Phone: r.Phone, Email: r.Email, Address: r.Address}
}

func (s *appService) CreateCustomer(ctx context.Context, req CustomerRequest) (*core.Customer, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var c *core.Customer
	err := s.run(ctx, "create_customer", func(ctx context.Context) error {
		var err error
		c, err = s.customers.CreateCustomer(ctx, req.input())
		return err
	})
	return c, err
}

func (s *appService) UpdateCustomer(ctx context.Context, id int, req CustomerRequest) (*core.Customer, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var c *core.Customer
	err := s.run(ctx, "update_customer", func(ctx context.Context) error {
		var err error
		c, err = s.customers.UpdateCustomer(ctx, id, req.input())
		return err
	})
	return c, err
}

func (s *appService) GetCustomer(ctx context.Context, id int) (*core.Customer, error) {
	var c *core.Customer
	err := s.run(ctx, "get_customer", func(ctx context.Context) error {
		var err error
		c, err = s.customers.GetCustomer(ctx, id)
		return err
	})
	return c, err
}

func (s *appService) ListCustomers(ctx context.Context, search string) (*CustomerListResult, error) {
	res := &CustomerListResult{}
	err := s.run(ctx, "list_customers", func(ctx context.Context) error {
		var err error
		if strings.TrimSpace(search) == "" {
			res.Customers, err = s.customers.ListCustomers(ctx)
		} else {
			res.Customers, err = s.customers.SearchCustomers(ctx, search)
		}
		if err != nil {
			return err
		}
		res.Total, err = s.customers.CountCustomers(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *appService) DeleteCustomer(ctx context.Context, id int) error {
	return s.run(ctx, "delete_customer", func(ctx context.Context) error {
		return s.guard.DeleteCustomer(ctx, id)
	})
}

func (s *appService) ListCustomerInvoices(ctx context.Context, customerID int) ([]core.InvoiceSummary, error) {
	var out []core.InvoiceSummary
	err := s.run(ctx, "list_customer_invoices", func(ctx context.Context) error {
		var err error
		out, err = s.valuation.CustomerInvoiceSummaries(ctx, customerID)
		return err
	})
	return out, err
}

// ── Inventory ────────────────────────────────────────────────────────────────

func (r ItemRequest) input() core.ItemInput {
	return core.ItemInput{
		SKU:              r.SKU,
		Name:             r.Name,
		Category:         r.Category,
		Unit:             r.Unit,
		UnitCost:         r.UnitCost,
		ReorderThreshold: r.ReorderThreshold,
	}
}

func (s *appService) CreateItem(ctx context.Context, req ItemRequest) (*core.InventoryItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var item *core.InventoryItem
	err := s.run(ctx, "create_item", func(ctx context.Context) error {
		var err error
		item, err = s.inventory.CreateItem(ctx, req.input(), req.InitialQuantity)
		return err
	})
	return item, err
}

func (s *appService) UpdateItem(ctx context.Context, id int, req ItemRequest) (*core.InventoryItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var item *core.InventoryItem
	err := s.run(ctx, "update_item", func(ctx context.Context) error {
		var err error
		item, err = s.inventory.UpdateItem(ctx, id, req.input())
		return err
	})
	return item, err
}

func (s *appService) GetItem(ctx context.Context, id int) (*core.InventoryItem, error) {
	var item *core.InventoryItem
	err := s.run(ctx, "get_item", func(ctx context.Context) error {
		var err error
		item, err = s.inventory.GetItem(ctx, id)
		return err
	})
	return item, err
}

func (s *appService) ListItems(ctx context.Context, category string, lowStockOnly bool) (*StockResult, error) {
	var items []core.InventoryItem
	err := s.run(ctx, "list_items", func(ctx context.Context) error {
		var err error
		if lowStockOnly && category == "" {
			items, err = s.valuation.LowStockItems(ctx)
			return err
		}
		items, err = s.inventory.ListItems(ctx, core.ItemFilter{Category: category})
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &StockResult{Items: make([]core.InventoryItem, 0, len(items))}
	for _, it := range items {
		low := core.IsLowStock(it)
		if low {
			res.LowStockCount++
		}
		if lowStockOnly && !low {
			continue
		}
		res.Items = append(res.Items, it)
	}
	return res, nil
}

func (s *appService) DeleteItem(ctx context.Context, id int) error {
	return s.run(ctx, "delete_item", func(ctx context.Context) error {
		return s.guard.DeleteItem(ctx, id)
	})
}

func (s *appService) AdjustStock(ctx context.Context, itemID int, req AdjustRequest) (*AdjustResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var qty int
	err := s.run(ctx, "adjust_stock", func(ctx context.Context) error {
		var err error
		qty, err = s.inventory.AdjustQuantity(ctx, itemID, req.Delta, strings.TrimSpace(req.Reason))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.InventoryAdjusted(events.AdjustmentPayload{
		ItemID: itemID, Delta: req.Delta, QuantityAfter: qty, Reason: strings.TrimSpace(req.Reason),
	}, time.Now()))
	return &AdjustResult{ItemID: itemID, Delta: req.Delta, QuantityOnHand: qty}, nil
}

func (s *appService) ListAdjustments(ctx context.Context, itemID int) ([]core.StockAdjustment, error) {
	var out []core.StockAdjustment
	err := s.run(ctx, "list_adjustments", func(ctx context.Context) error {
		var err error
		out, err = s.inventory.ListAdjustments(ctx, itemID)
		return err
	})
	return out, err
}

// ── Appointments ─────────────────────────────────────────────────────────────

func (s *appService) CreateAppointment(ctx context.Context, req AppointmentRequest) (*core.Appointment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var a *core.Appointment
	err := s.run(ctx, "create_appointment", func(ctx context.Context) error {
		var err error
		a, err = s.appointments.CreateAppointment(ctx, core.AppointmentInput{
			CustomerID:  req.CustomerID,
			Technician:  req.Technician,
			ServiceType: req.ServiceType,
			ScheduledAt: req.ScheduledAt,
			Notes:       req.Notes,
		})
		return err
	})
	return a, err
}

func (s *appService) RescheduleAppointment(ctx context.Context, id int, req RescheduleRequest) (*core.Appointment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var a *core.Appointment
	err := s.run(ctx, "reschedule_appointment", func(ctx context.Context) error {
		var err error
		a, err = s.appointments.RescheduleAppointment(ctx, id, req.Technician, req.ScheduledAt)
		return err
	})
	return a, err
}

func (s *appService) GetAppointment(ctx context.Context, id int) (*core.Appointment, error) {
	var a *core.Appointment
	err := s.run(ctx, "get_appointment", func(ctx context.Context) error {
		var err error
		a, err = s.appointments.GetAppointment(ctx, id)
		return err
	})
	return a, err
}

func (s *appService) ListAppointments(ctx context.Context, q AppointmentQuery) ([]core.Appointment, error) {
	f := core.AppointmentFilter{CustomerID: q.CustomerID, Technician: strings.TrimSpace(q.Technician)}
	if q.Status != "" {
		st, err := core.ParseAppointmentStatus(q.Status)
		if err != nil {
			return nil, err
		}
		f.Status = &st
	}
	if q.Date != nil {
		from, to := utcDay(*q.Date)
		f.From, f.To = &from, &to
	}

	var out []core.Appointment
	err := s.run(ctx, "list_appointments", func(ctx context.Context) error {
		var err error
		out, err = s.appointments.ListAppointments(ctx, f)
		return err
	})
	return out, err
}

func (s *appService) TransitionAppointment(ctx context.Context, id int, req TransitionRequest) (*core.Transition, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	from, err := core.ParseAppointmentStatus(req.From)
	if err != nil {
		return nil, err
	}
	to, err := core.ParseAppointmentStatus(req.To)
	if err != nil {
		return nil, err
	}

	var tr *core.Transition
	err = s.run(ctx, "transition_appointment", func(ctx context.Context) error {
		var err error
		tr, err = s.workflow.TransitionAppointment(ctx, id, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.StatusChanged(*tr))
	return tr, nil
}

// ── Invoices ─────────────────────────────────────────────────────────────────

func lineInputs(in []LineRequest) []core.LineInput {
	out := make([]core.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, core.LineInput{Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}

func (s *appService) CreateInvoice(ctx context.Context, req InvoiceRequest) (*core.InvoiceSummary, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var issued time.Time
	if req.IssueDate != "" {
		d, err := time.Parse("2006-01-02", req.IssueDate)
		if err != nil {
			return nil, core.Validationf("issue_date must be YYYY-MM-DD, got %q", req.IssueDate)
		}
		issued = d
	}

	var inv *core.Invoice
	err := s.run(ctx, "create_invoice", func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.CreateInvoice(ctx, core.InvoiceInput{
			CustomerID:    req.CustomerID,
			AppointmentID: req.AppointmentID,
			InvoiceNumber: req.InvoiceNumber,
			IssueDate:     issued,
			Notes:         req.Notes,
			TaxRate:       req.TaxRate,
			Lines:         lineInputs(req.Lines),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &core.InvoiceSummary{Invoice: *inv, Totals: core.InvoiceTotals(*inv)}, nil
}

func (s *appService) UpdateDraftInvoice(ctx context.Context, id int, req DraftInvoiceRequest) (*core.InvoiceSummary, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var inv *core.Invoice
	err := s.run(ctx, "update_draft_invoice", func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.UpdateDraftInvoice(ctx, id, core.DraftUpdate{
			Notes:   req.Notes,
			TaxRate: req.TaxRate,
			Lines:   lineInputs(req.Lines),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &core.InvoiceSummary{Invoice: *inv, Totals: core.InvoiceTotals(*inv)}, nil
}

func (s *appService) GetInvoice(ctx context.Context, id int) (*core.InvoiceSummary, error) {
	var sum *core.InvoiceSummary
	err := s.run(ctx, "get_invoice", func(ctx context.Context) error {
		var err error
		sum, err = s.valuation.InvoiceSummary(ctx, id)
		return err
	})
	return sum, err
}

func (s *appService) ListInvoices(ctx context.Context, q InvoiceQuery) ([]core.InvoiceSummary, error) {
	f := core.InvoiceFilter{CustomerID: q.CustomerID}
	if q.Status != "" {
		st, err := core.ParseInvoiceStatus(q.Status)
		if err != nil {
			return nil, err
		}
		f.Status = &st
	}

	var out []core.InvoiceSummary
	err := s.run(ctx, "list_invoices", func(ctx context.Context) error {
		var err error
		out, err = s.valuation.InvoiceSummaries(ctx, f)
		return err
	})
	return out, err
}

func (s *appService) TransitionInvoice(ctx context.Context, id int, req TransitionRequest) (*core.Transition, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	from, err := core.ParseInvoiceStatus(req.From)
	if err != nil {
		return nil, err
	}
	to, err := core.ParseInvoiceStatus(req.To)
	if err != nil {
		return nil, err
	}

	var tr *core.Transition
	err = s.run(ctx, "transition_invoice", func(ctx context.Context) error {
		var err error
		tr, err = s.workflow.TransitionInvoice(ctx, id, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.StatusChanged(*tr))
	return tr, nil
}

// ── Usage & reports ──────────────────────────────────────────────────────────

func (s *appService) RecordUsage(ctx context.Context, req UsageRequest) (*core.UsageRecord, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var rec *core.UsageRecord
	err := s.run(ctx, "record_usage", func(ctx context.Context) error {
		var err error
		rec, err = s.inventory.RecordUsage(ctx, core.UsageInput{
			ItemID:        req.ItemID,
			AppointmentID: req.AppointmentID,
			InvoiceID:     req.InvoiceID,
			Quantity:      req.Quantity,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.UsageRecorded(*rec))
	return rec, nil
}

func (s *appService) ListUsage(ctx context.Context, f core.UsageFilter) ([]core.UsageRecord, error) {
	var out []core.UsageRecord
	err := s.run(ctx, "list_usage", func(ctx context.Context) error {
		var err error
		out, err = s.inventory.ListUsage(ctx, f)
		return err
	})
	return out, err
}

func (s *appService) InventoryValue(ctx context.Context) (*core.InventoryValuation, error) {
	var v *core.InventoryValuation
	err := s.run(ctx, "inventory_value", func(ctx context.Context) error {
		var err error
		v, err = s.valuation.TotalInventoryValue(ctx)
		return err
	})
	return v, err
}

func (s *appService) TechnicianWorkload(ctx context.Context, technician string, date *time.Time) (*WorkloadResult, error) {
	var appts []core.Appointment
	err := s.run(ctx, "technician_workload", func(ctx context.Context) error {
		var err error
		appts, err = s.valuation.TechnicianWorkload(ctx, technician, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	res := &WorkloadResult{Technician: strings.TrimSpace(technician), Appointments: appts}
	if date != nil {
		day, _ := utcDay(*date)
		res.Date = &day
	}
	return res, nil
}

func utcDay(t time.Time) (from, to time.Time) {
	t = t.UTC()
	from = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}
