// Package memory provides an in-process implementation of core.Store used by
// tests, the seed tool and ephemeral environments.
//
// Write transactions are serialized on one mutex and operate on a private copy
// of the state that replaces the live state only when the transaction commits,
// so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"hvac-ledger/internal/core"
)

var _ core.Store = (*Store)(nil)

var errReadOnly = errors.New("write attempted in read-only transaction")

type state struct {
	nextID       int
	customers    map[int]core.Customer
	items        map[int]core.InventoryItem
	appointments map[int]core.Appointment
	invoices     map[int]core.Invoice
	usage        map[int]core.UsageRecord
	adjustments  map[int]core.StockAdjustment
}

func newState() state {
	return state{
		customers:    map[int]core.Customer{},
		items:        map[int]core.InventoryItem{},
		appointments: map[int]core.Appointment{},
		invoices:     map[int]core.Invoice{},
		usage:        map[int]core.UsageRecord{},
		adjustments:  map[int]core.StockAdjustment{},
	}
}

func (s state) clone() state {
	c := newState()
	c.nextID = s.nextID
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.invoices {
		c.invoices[k] = cloneInvoice(v)
	}
	for k, v := range s.usage {
		v.InvoiceID = cloneIntPtr(v.InvoiceID)
		c.usage[k] = v
	}
	for k, v := range s.adjustments {
		c.adjustments[k] = v
	}
	return c
}

func cloneInvoice(inv core.Invoice) core.Invoice {
	inv.AppointmentID = cloneIntPtr(inv.AppointmentID)
	inv.Lines = append([]core.InvoiceLine(nil), inv.Lines...)
	return inv
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBeforeCommit installs a hook that runs after a transaction's function
// succeeds and before its writes are published. A non-nil error aborts the
// commit and is reported as a storage failure.
func WithBeforeCommit(hook func() error) Option {
	return func(s *Store) { s.beforeCommit = hook }
}

// Store is a core.Store kept entirely in memory.
type Store struct {
	mu           sync.RWMutex
	state        state
	now          func() time.Time
	beforeCommit func() error
}

func New(opts ...Option) *Store {
	s := &Store{state: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return core.StorageError(err, false, "transaction not started")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &tx{state: s.state.clone(), now: s.now().UTC()}
	if err := fn(tx); err != nil {
		return err
	}
	if s.beforeCommit != nil {
		if err := s.beforeCommit(); err != nil {
			return core.StorageError(err, false, "commit failed")
		}
	}
	s.state = tx.state
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx core.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return core.StorageError(err, false, "transaction not started")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&tx{state: s.state, readOnly: true, now: s.now().UTC()})
}

// Ping always succeeds; it lets the memory store stand in wherever a health
// check expects one.
func (s *Store) Ping(context.Context) error { return nil }

type tx struct {
	state    state
	readOnly bool
	now      time.Time
}

func (t *tx) writable() error {
	if t.readOnly {
		return core.StorageError(errReadOnly, false, "read-only transaction")
	}
	return nil
}

func (t *tx) lockable() error {
	if t.readOnly {
		return core.StorageError(errReadOnly, false, "row locks are not available in a read-only transaction")
	}
	return nil
}

func (t *tx) id() int {
	t.state.nextID++
	return t.state.nextID
}

// ── Customers ────────────────────────────────────────────────────────────────

func (t *tx) InsertCustomer(_ context.Context, c *core.Customer) error {
	if err := t.writable(); err != nil {
		return err
	}
	c.ID = t.id()
	c.CreatedAt, c.UpdatedAt = t.now, t.now
	t.state.customers[c.ID] = *c
	return nil
}

func (t *tx) GetCustomer(_ context.Context, id int) (*core.Customer, error) {
	c, ok := t.state.customers[id]
	if !ok {
		return nil, core.NotFoundf("customer %d not found", id)
	}
	return &c, nil
}

func (t *tx) LockCustomer(ctx context.Context, id int) (*core.Customer, error) {
	if err := t.lockable(); err != nil {
		return nil, err
	}
	return t.GetCustomer(ctx, id)
}

func (t *tx) UpdateCustomer(_ context.Context, c *core.Customer) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.customers[c.ID]; !ok {
		return core.NotFoundf("customer %d not found", c.ID)
	}
	c.UpdatedAt = t.now
	t.state.customers[c.ID] = *c
	return nil
}

// DeleteCustomer cascades to appointments. Invoices and usage records
// restrict the delete.
func (t *tx) DeleteCustomer(_ context.Context, id int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.customers[id]; !ok {
		return core.NotFoundf("customer %d not found", id)
	}
	for _, inv := range t.state.invoices {
		if inv.CustomerID == id {
			return core.ReferentialIntegrityf("customer %d is referenced by invoice %s", id, inv.InvoiceNumber)
		}
	}
	for _, u := range t.state.usage {
		if a, ok := t.state.appointments[u.AppointmentID]; ok && a.CustomerID == id {
			return core.ReferentialIntegrityf("appointment %d of customer %d is referenced by usage record %d", a.ID, id, u.ID)
		}
	}
	for aid, a := range t.state.appointments {
		if a.CustomerID == id {
			delete(t.state.appointments, aid)
		}
	}
	delete(t.state.customers, id)
	return nil
}

func (t *tx) ListCustomers(_ context.Context, f core.CustomerFilter) ([]core.Customer, error) {
	term := strings.ToLower(f.Search)
	out := make([]core.Customer, 0, len(t.state.customers))
	for _, c := range t.state.customers {
		if term != "" && !strings.Contains(strings.ToLower(c.Name), term) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *tx) CountCustomers(_ context.Context) (int, error) {
	return len(t.state.customers), nil
}

// ── Inventory ────────────────────────────────────────────────────────────────

func (t *tx) skuTaken(sku string, exceptID int) bool {
	for _, it := range t.state.items {
		if it.SKU == sku && it.ID != exceptID {
			return true
		}
	}
	return false
}

func (t *tx) InsertItem(_ context.Context, item *core.InventoryItem) error {
	if err := t.writable(); err != nil {
		return err
	}
	if item.QuantityOnHand < 0 {
		return core.Validationf("quantity on hand cannot be negative")
	}
	if t.skuTaken(item.SKU, 0) {
		return core.Validationf("sku %s already exists", item.SKU)
	}
	item.ID = t.id()
	item.CreatedAt, item.UpdatedAt = t.now, t.now
	t.state.items[item.ID] = *item
	return nil
}

func (t *tx) GetItem(_ context.Context, id int) (*core.InventoryItem, error) {
	it, ok := t.state.items[id]
	if !ok {
		return nil, core.NotFoundf("inventory item %d not found", id)
	}
	return &it, nil
}

func (t *tx) LockItem(ctx context.Context, id int) (*core.InventoryItem, error) {
	if err := t.lockable(); err != nil {
		return nil, err
	}
	return t.GetItem(ctx, id)
}

func (t *tx) UpdateItem(_ context.Context, item *core.InventoryItem) error {
	if err := t.writable(); err != nil {
		return err
	}
	current, ok := t.state.items[item.ID]
	if !ok {
		return core.NotFoundf("inventory item %d not found", item.ID)
	}
	if t.skuTaken(item.SKU, item.ID) {
		return core.Validationf("sku %s already exists", item.SKU)
	}
	item.QuantityOnHand = current.QuantityOnHand
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = t.now
	t.state.items[item.ID] = *item
	return nil
}

func (t *tx) SetItemQuantity(_ context.Context, id, quantity int) error {
	if err := t.writable(); err != nil {
		return err
	}
	it, ok := t.state.items[id]
	if !ok {
		return core.NotFoundf("inventory item %d not found", id)
	}
	if quantity < 0 {
		return core.Validationf("quantity on hand cannot be negative, got %d", quantity)
	}
	it.QuantityOnHand = quantity
	it.UpdatedAt = t.now
	t.state.items[id] = it
	return nil
}

// DeleteItem cascades to adjustments. Usage records restrict the delete.
func (t *tx) DeleteItem(_ context.Context, id int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.items[id]; !ok {
		return core.NotFoundf("inventory item %d not found", id)
	}
	for _, u := range t.state.usage {
		if u.ItemID == id {
			return core.ReferentialIntegrityf("inventory item %d is referenced by usage record %d", id, u.ID)
		}
	}
	for aid, a := range t.state.adjustments {
		if a.ItemID == id {
			delete(t.state.adjustments, aid)
		}
	}
	delete(t.state.items, id)
	return nil
}

func (t *tx) ListItems(_ context.Context, f core.ItemFilter) ([]core.InventoryItem, error) {
	out := make([]core.InventoryItem, 0, len(t.state.items))
	for _, it := range t.state.items {
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// ── Appointments ─────────────────────────────────────────────────────────────

func (t *tx) InsertAppointment(_ context.Context, a *core.Appointment) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.customers[a.CustomerID]; !ok {
		return core.NotFoundf("customer %d not found", a.CustomerID)
	}
	a.ID = t.id()
	a.CreatedAt, a.UpdatedAt = t.now, t.now
	t.state.appointments[a.ID] = *a
	return nil
}

func (t *tx) GetAppointment(_ context.Context, id int) (*core.Appointment, error) {
	a, ok := t.state.appointments[id]
	if !ok {
		return nil, core.NotFoundf("appointment %d not found", id)
	}
	return &a, nil
}

func (t *tx) LockAppointment(ctx context.Context, id int) (*core.Appointment, error) {
	if err := t.lockable(); err != nil {
		return nil, err
	}
	return t.GetAppointment(ctx, id)
}

func (t *tx) UpdateAppointmentSchedule(_ context.Context, id int, technician string, scheduledAt time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	a, ok := t.state.appointments[id]
	if !ok {
		return core.NotFoundf("appointment %d not found", id)
	}
	a.Technician = technician
	a.ScheduledAt = scheduledAt
	a.UpdatedAt = t.now
	t.state.appointments[id] = a
	return nil
}

func (t *tx) SetAppointmentStatus(_ context.Context, id int, status core.AppointmentStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	a, ok := t.state.appointments[id]
	if !ok {
		return core.NotFoundf("appointment %d not found", id)
	}
	a.Status = status
	a.UpdatedAt = t.now
	t.state.appointments[id] = a
	return nil
}

func (t *tx) ListAppointments(_ context.Context, f core.AppointmentFilter) ([]core.Appointment, error) {
	out := make([]core.Appointment, 0)
	for _, a := range t.state.appointments {
		if f.CustomerID != nil && a.CustomerID != *f.CustomerID {
			continue
		}
		if f.Technician != "" && a.Technician != f.Technician {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.From != nil && a.ScheduledAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !a.ScheduledAt.Before(*f.To) {
			continue
		}
		out = append(out, a)
	}
	core.SortWorkload(out)
	return out, nil
}

// ── Invoices ─────────────────────────────────────────────────────────────────

func (t *tx) InsertInvoice(_ context.Context, inv *core.Invoice) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.customers[inv.CustomerID]; !ok {
		return core.NotFoundf("customer %d not found", inv.CustomerID)
	}
	if inv.AppointmentID != nil {
		if _, ok := t.state.appointments[*inv.AppointmentID]; !ok {
			return core.NotFoundf("appointment %d not found", *inv.AppointmentID)
		}
	}
	for _, other := range t.state.invoices {
		if other.InvoiceNumber == inv.InvoiceNumber {
			return core.Validationf("invoice number %s already exists", inv.InvoiceNumber)
		}
	}
	inv.ID = t.id()
	inv.CreatedAt, inv.UpdatedAt = t.now, t.now
	t.state.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (t *tx) GetInvoice(_ context.Context, id int) (*core.Invoice, error) {
	inv, ok := t.state.invoices[id]
	if !ok {
		return nil, core.NotFoundf("invoice %d not found", id)
	}
	inv = cloneInvoice(inv)
	return &inv, nil
}

func (t *tx) LockInvoice(ctx context.Context, id int) (*core.Invoice, error) {
	if err := t.lockable(); err != nil {
		return nil, err
	}
	inv, err := t.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = nil
	return inv, nil
}

func (t *tx) UpdateInvoiceDraft(_ context.Context, inv *core.Invoice) error {
	if err := t.writable(); err != nil {
		return err
	}
	current, ok := t.state.invoices[inv.ID]
	if !ok {
		return core.NotFoundf("invoice %d not found", inv.ID)
	}
	current.Notes = inv.Notes
	current.TaxRate = inv.TaxRate
	current.Lines = append([]core.InvoiceLine(nil), inv.Lines...)
	current.UpdatedAt = t.now
	t.state.invoices[inv.ID] = current
	inv.UpdatedAt = t.now
	return nil
}

func (t *tx) SetInvoiceStatus(_ context.Context, id int, status core.InvoiceStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	inv, ok := t.state.invoices[id]
	if !ok {
		return core.NotFoundf("invoice %d not found", id)
	}
	inv.Status = status
	inv.UpdatedAt = t.now
	t.state.invoices[id] = inv
	return nil
}

func (t *tx) ListInvoices(_ context.Context, f core.InvoiceFilter) ([]core.Invoice, error) {
	out := make([]core.Invoice, 0)
	for _, inv := range t.state.invoices {
		if f.CustomerID != nil && inv.CustomerID != *f.CustomerID {
			continue
		}
		if f.Status != nil && inv.Status != *f.Status {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ── Usage & adjustments ──────────────────────────────────────────────────────

func (t *tx) InsertUsage(_ context.Context, u *core.UsageRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.items[u.ItemID]; !ok {
		return core.NotFoundf("inventory item %d not found", u.ItemID)
	}
	if _, ok := t.state.appointments[u.AppointmentID]; !ok {
		return core.NotFoundf("appointment %d not found", u.AppointmentID)
	}
	if u.InvoiceID != nil {
		if _, ok := t.state.invoices[*u.InvoiceID]; !ok {
			return core.NotFoundf("invoice %d not found", *u.InvoiceID)
		}
	}
	u.ID = t.id()
	u.CreatedAt = t.now
	rec := *u
	rec.InvoiceID = cloneIntPtr(u.InvoiceID)
	t.state.usage[u.ID] = rec
	return nil
}

func (t *tx) ListUsage(_ context.Context, f core.UsageFilter) ([]core.UsageRecord, error) {
	out := make([]core.UsageRecord, 0)
	for _, u := range t.state.usage {
		if f.ItemID != nil && u.ItemID != *f.ItemID {
			continue
		}
		if f.AppointmentID != nil && u.AppointmentID != *f.AppointmentID {
			continue
		}
		if f.InvoiceID != nil && (u.InvoiceID == nil || *u.InvoiceID != *f.InvoiceID) {
			continue
		}
		u.InvoiceID = cloneIntPtr(u.InvoiceID)
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) InsertAdjustment(_ context.Context, a *core.StockAdjustment) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.items[a.ItemID]; !ok {
		return core.NotFoundf("inventory item %d not found", a.ItemID)
	}
	a.ID = t.id()
	a.CreatedAt = t.now
	t.state.adjustments[a.ID] = *a
	return nil
}

func (t *tx) ListAdjustments(_ context.Context, itemID int) ([]core.StockAdjustment, error) {
	out := make([]core.StockAdjustment, 0)
	for _, a := range t.state.adjustments {
		if a.ItemID == itemID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── Dependency counts ────────────────────────────────────────────────────────

func (t *tx) CountInvoicesForCustomer(_ context.Context, customerID int) (int, error) {
	n := 0
	for _, inv := range t.state.invoices {
		if inv.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (t *tx) CountUsageForCustomer(_ context.Context, customerID int) (int, error) {
	n := 0
	for _, u := range t.state.usage {
		if a, ok := t.state.appointments[u.AppointmentID]; ok && a.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (t *tx) CountUsageForItem(_ context.Context, itemID int) (int, error) {
	n := 0
	for _, u := range t.state.usage {
		if u.ItemID == itemID {
			n++
		}
	}
	return n, nil
}
