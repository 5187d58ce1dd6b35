package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hvac-ledger/internal/core"
)

// txn implements core.Tx over one pgx transaction.
type txn struct {
	q pgx.Tx
}

type filter struct {
	conds []string
	args  []any
}

func (f *filter) add(cond string, v any) {
	f.args = append(f.args, v)
	f.conds = append(f.conds, fmt.Sprintf(cond, len(f.args)))
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ── Customers ────────────────────────────────────────────────────────────────

const customerCols = "id, name, phone, email, address, created_at, updated_at"

func scanCustomer(row pgx.Row) (*core.Customer, error) {
	var c core.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return &c, nil
}

func (t *txn) InsertCustomer(ctx context.Context, c *core.Customer) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO customers (name, phone, email, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Phone, c.Email, c.Address,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return mapError(err, "failed to insert customer")
	}
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return nil
}

func (t *txn) getCustomer(ctx context.Context, id int, lock string) (*core.Customer, error) {
	c, err := scanCustomer(t.q.QueryRow(ctx, "SELECT "+customerCols+" FROM customers WHERE id = $1"+lock, id))
	if err != nil {
		return nil, notFoundOr(err, core.NotFoundf("customer %d not found", id), "failed to fetch customer")
	}
	return c, nil
}

func (t *txn) GetCustomer(ctx context.Context, id int) (*core.Customer, error) {
	return t.getCustomer(ctx, id, "")
}

func (t *txn) LockCustomer(ctx context.Context, id int) (*core.Customer, error) {
	return t.getCustomer(ctx, id, " FOR UPDATE")
}

func (t *txn) UpdateCustomer(ctx context.Context, c *core.Customer) error {
	err := t.q.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, phone = $3, email = $4, address = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Phone, c.Email, c.Address,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return notFoundOr(err, core.NotFoundf("customer %d not found", c.ID), "failed to update customer")
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return nil
}

func (t *txn) DeleteCustomer(ctx context.Context, id int) error {
	tag, err := t.q.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return mapDeleteError(err, "failed to delete customer")
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("customer %d not found", id)
	}
	return nil
}

func (t *txn) ListCustomers(ctx context.Context, f core.CustomerFilter) ([]core.Customer, error) {
	var fl filter
	if f.Search != "" {
		fl.add("name ILIKE '%%' || $%d || '%%'", likeEscaper.Replace(f.Search))
	}
	rows, err := t.q.Query(ctx, "SELECT "+customerCols+" FROM customers"+fl.where()+" ORDER BY created_at DESC, id DESC", fl.args...)
	if err != nil {
		return nil, mapError(err, "failed to list customers")
	}
	defer rows.Close()

	out := make([]core.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan customer")
		}
		out = append(out, *c)
	}
	return out, mapError(rows.Err(), "failed to list customers")
}

func (t *txn) CountCustomers(ctx context.Context) (int, error) {
	var n int
	if err := t.q.QueryRow(ctx, "SELECT count(*) FROM customers").Scan(&n); err != nil {
		return 0, mapError(err, "failed to count customers")
	}
	return n, nil
}

// ── Inventory ────────────────────────────────────────────────────────────────

const itemCols = "id, sku, name, category, unit, quantity_on_hand, unit_cost, reorder_threshold, created_at, updated_at"

func scanItem(row pgx.Row) (*core.InventoryItem, error) {
	var it core.InventoryItem
	err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.Category, &it.Unit,
		&it.QuantityOnHand, &it.UnitCost, &it.ReorderThreshold, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.CreatedAt, it.UpdatedAt = it.CreatedAt.UTC(), it.UpdatedAt.UTC()
	return &it, nil
}

func (t *txn) InsertItem(ctx context.Context, item *core.InventoryItem) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO inventory_items (sku, name, category, unit, quantity_on_hand, unit_cost, reorder_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		item.SKU, item.Name, item.Category, item.Unit, item.QuantityOnHand, item.UnitCost, item.ReorderThreshold,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Wrap(core.KindValidation, err, fmt.Sprintf("sku %s already exists", item.SKU))
		}
		return mapError(err, "failed to insert inventory item")
	}
	item.CreatedAt, item.UpdatedAt = item.CreatedAt.UTC(), item.UpdatedAt.UTC()
	return nil
}

func (t *txn) getItem(ctx context.Context, id int, lock string) (*core.InventoryItem, error) {
	it, err := scanItem(t.q.QueryRow(ctx, "SELECT "+itemCols+" FROM inventory_items WHERE id = $1"+lock, id))
	if err != nil {
		return nil, notFoundOr(err, core.NotFoundf("inventory item %d not found", id), "failed to fetch inventory item")
	}
	return it, nil
}

func (t *txn) GetItem(ctx context.Context, id int) (*core.InventoryItem, error) {
	return t.getItem(ctx, id, "")
}

func (t *txn) LockItem(ctx context.Context, id int) (*core.InventoryItem, error) {
	return t.getItem(ctx, id, " FOR UPDATE")
}

func (t *txn) UpdateItem(ctx context.Context, item *core.InventoryItem) error {
	err := t.q.QueryRow(ctx, `
		UPDATE inventory_items
		SET sku = $2, name = $3, category = $4, unit = $5, unit_cost = $6, reorder_threshold = $7, updated_at = now()
		WHERE id = $1
		RETURNING quantity_on_hand, created_at, updated_at`,
		item.ID, item.SKU, item.Name, item.Category, item.Unit, item.UnitCost, item.ReorderThreshold,
	).Scan(&item.QuantityOnHand, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Wrap(core.KindValidation, err, fmt.Sprintf("sku %s already exists", item.SKU))
		}
		return notFoundOr(err, core.NotFoundf("inventory item %d not found", item.ID), "failed to update inventory item")
	}
	item.CreatedAt, item.UpdatedAt = item.CreatedAt.UTC(), item.UpdatedAt.UTC()
	return nil
}

func (t *txn) SetItemQuantity(ctx context.Context, id, quantity int) error {
	tag, err := t.q.Exec(ctx,
		"UPDATE inventory_items SET quantity_on_hand = $2, updated_at = now() WHERE id = $1",
		id, quantity)
	if err != nil {
		return mapError(err, "failed to update quantity on hand")
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("inventory item %d not found", id)
	}
	return nil
}

func (t *txn) DeleteItem(ctx context.Context, id int) error {
	tag, err := t.q.Exec(ctx, "DELETE FROM inventory_items WHERE id = $1", id)
	if err != nil {
		return mapDeleteError(err, "failed to delete inventory item")
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("inventory item %d not found", id)
	}
	return nil
}

func (t *txn) ListItems(ctx context.Context, f core.ItemFilter) ([]core.InventoryItem, error) {
	var fl filter
	if f.Category != "" {
		fl.add("category = $%d", f.Category)
	}
	rows, err := t.q.Query(ctx, "SELECT "+itemCols+" FROM inventory_items"+fl.where()+" ORDER BY sku", fl.args...)
	if err != nil {
		return nil, mapError(err, "failed to list inventory items")
	}
	defer rows.Close()

	out := make([]core.InventoryItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan inventory item")
		}
		out = append(out, *it)
	}
	return out, mapError(rows.Err(), "failed to list inventory items")
}

// ── Appointments ─────────────────────────────────────────────────────────────

const appointmentCols = "id, customer_id, technician, service_type, scheduled_at, notes, status, created_at, updated_at"

func scanAppointment(row pgx.Row) (*core.Appointment, error) {
	var (
		a      core.Appointment
		status string
	)
	err := row.Scan(&a.ID, &a.CustomerID, &a.Technician, &a.ServiceType, &a.ScheduledAt,
		&a.Notes, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = core.AppointmentStatus(status)
	a.ScheduledAt = a.ScheduledAt.UTC()
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return &a, nil
}

func (t *txn) InsertAppointment(ctx context.Context, a *core.Appointment) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO appointments (customer_id, technician, service_type, scheduled_at, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		a.CustomerID, a.Technician, a.ServiceType, a.ScheduledAt, a.Notes, string(a.Status),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapError(err, "failed to insert appointment")
	}
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return nil
}

func (t *txn) getAppointment(ctx context.Context, id int, lock string) (*core.Appointment, error) {
	a, err := scanAppointment(t.q.QueryRow(ctx, "SELECT "+appointmentCols+" FROM appointments WHERE id = $1"+lock, id))
	if err != nil {
		return nil, notFoundOr(err, core.NotFoundf("appointment %d not found", id), "failed to fetch appointment")
	}
	return a, nil
}

func (t *txn) GetAppointment(ctx context.Context, id int) (*core.Appointment, error) {
	return t.getAppointment(ctx, id, "")
}

func (t *txn) LockAppointment(ctx context.Context, id int) (*core.Appointment, error) {
	return t.getAppointment(ctx, id, " FOR UPDATE")
}

func (t *txn) UpdateAppointmentSchedule(ctx context.Context, id int, technician string, scheduledAt time.Time) error {
	tag, err := t.q.Exec(ctx,
		"UPDATE appointments SET technician = $2, scheduled_at = $3, updated_at = now() WHERE id = $1",
		id, technician, scheduledAt)
	if err != nil {
		return mapError(err, "failed to reschedule appointment")
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("appointment %d not found", id)
	}
	return nil
}

func (t *txn) SetAppointmentStatus(ctx context.Context, id int, status core.AppointmentStatus) error {
	tag, err := t.q.Exec(ctx,
		"UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1",
		id, string(status))
	if err != nil {
		return mapError(err, "failed to update appointment status")
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("appointment %d not found", id)
	}
	return nil
}

func (t *txn) ListAppointments(ctx context.Context, f core.AppointmentFilter) ([]core.Appointment, error) {
	var fl filter
	if f.CustomerID != nil {
		fl.add("customer_id = $%d", *f.CustomerID)
	}
	if f.Technician != "" {
		fl.add("technician = $%d", f.Technician)
	}
	if f.Status != nil {
		fl.add("status = $%d", string(*f.Status))
	}
	if f.From != nil {
		fl.add("scheduled_at >= $%d", *f.From)
	}
	if f.To != nil {
		fl.add("scheduled_at < $%d", *f.To)
	}
	rows, err := t.q.Query(ctx, "SELECT "+appointmentCols+" FROM appointments"+fl.where()+" ORDER BY scheduled_at, id", fl.args...)
	if err != nil {
		return nil, mapError(err, "failed to list appointments")
	}
	defer rows.Close()

	out := make([]core.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan appointment")
		}
		out = append(out, *a)
	}
	return out, mapError(rows.Err(), "failed to list appointments")
}

// ── Invoices ─────────────────────────────────────────────────────────────────

const invoiceCols = "id, customer_id, appointment_id, invoice_number, issue_date, notes, tax_rate, status, created_at, updated_at"

func scanInvoice(row pgx.Row) (*core.Invoice, error) {
	var (
		inv    core.Invoice
		status string
	)
	err := row.Scan(&inv.ID, &inv.CustomerID, &inv.AppointmentID, &inv.InvoiceNumber, &inv.IssueDate,
		&inv.Notes, &inv.TaxRate, &status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.Status = core.InvoiceStatus(status)
	inv.CreatedAt, inv.UpdatedAt = inv.CreatedAt.UTC(), inv.UpdatedAt.UTC()
	return &inv, nil
}

func (t *txn) insertLines(ctx context.Context, invoiceID int, lines []core.InvoiceLine) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO invoice_lines (invoice_id, line_number, description, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			invoiceID, l.LineNumber, l.Description, l.Quantity, l.UnitPrice)
	}
	br := t.q.SendBatch(ctx, batch)
	for range lines {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return mapError(err, "failed to insert invoice line")
		}
	}
	return mapError(br.Close(), "failed to insert invoice lines")
}

func (t *txn) InsertInvoice(ctx context.Context, inv *core.Invoice) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO invoices (customer_id, appointment_id, invoice_number, issue_date, notes, tax_rate, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		inv.CustomerID, inv.AppointmentID, inv.InvoiceNumber, inv.IssueDate, inv.Notes, inv.TaxRate, string(inv.Status),
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Wrap(core.KindValidation, err, fmt.Sprintf("invoice number %s already exists", inv.InvoiceNumber))
		}
		return mapError(err, "failed to insert invoice")
	}
	inv.CreatedAt, inv.UpdatedAt = inv.CreatedAt.UTC(), inv.UpdatedAt.UTC()
	return t.insertLines(ctx, inv.ID, inv.Lines)
}

func (t *txn) loadLines(ctx context.Context, invoices []*core.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	byID := make(map[int]*core.Invoice, len(invoices))
	ids := make([]int, 0, len(invoices))
	for _, inv := range invoices {
		inv.Lines = make([]core.InvoiceLine, 0)
		byID[inv.ID] = inv
		ids = append(ids, inv.ID)
	}

	rows, err := t.q.Query(ctx, `
		SELECT invoice_id, line_number, description, quantity, unit_price
		FROM invoice_lines
		WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, line_number`, ids)
	if err != nil {
		return mapError(err, "failed to load invoice lines")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			invoiceID int
			l         core.InvoiceLine
		)
		if err := rows.Scan(&invoiceID, &l.LineNumber, &l.Description, &l.Quantity, &l.UnitPrice); err != nil {
			return mapError(err, "failed to scan invoice line")
		}
		if inv, ok := byID[invoiceID]; ok {
			inv.Lines = append(inv.Lines, l)
		}
	}
	return mapError(rows.Err(), "failed to load invoice lines")
}

func (t *txn) GetInvoice(ctx context.Context, id int) (*core.Invoice, error) {
	inv, err := scanInvoice(t.q.QueryRow(ctx, "SELECT "+invoiceCols+" FROM invoices WHERE id = $1", id))
	if err != nil {
		return nil, notFoundOr(err, core.NotFoundf("invoice %d not found", id), "failed to fetch invoice")
	}
	if err := t.loadLines(ctx, []*core.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

func (t *txn) LockInvoice(ctx context.Context, id int) (*core.Invoice, error) {
	inv, err := scanInvoice(t.q.QueryRow(ctx, "SELECT "+invoiceCols+" FROM invoices WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, notFoundOr(err, core.NotFoundf("invoice %d not found", id), "failed to lock invoice")
	}
	return inv, nil
}

func (t *txn) UpdateInvoiceDraft(ctx context.Context, inv *core.Invoice) error {
	err := t.q.QueryRow(ctx, `
		UPDATE invoices SET notes = $2, tax_rate = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		inv.ID, inv.Notes, inv.TaxRate,
	).Scan(&inv.UpdatedAt)
	if err != nil {
		return notFoundOr(err, core.NotFoundf("invoice %d not found", inv.ID), "failed to update invoice")
	}
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	if _, err := t.q.Exec(ctx, "DELETE FROM invoice_lines WHERE invoice_id = $1", inv.ID); err != nil {
		return mapError(err, "failed to replace invoice lines")
	}
	return t.insertLines(ctx, inv.ID, inv.Lines)
}

func (t *txn) SetInvoiceStatus(ctx context.Context, id int, status core.InvoiceStatus) error {
	tag, err := t.q.Exec(ctx,
		"UPDATE invoices SET status = $2, updated_at = now() WHERE id = $1",
		id, string(status))
	if err != nil {
		return mapError(err, "failed to update invoice status")
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("invoice %d not found", id)
	}
	return nil
}

func (t *txn) ListInvoices(ctx context.Context, f core.InvoiceFilter) ([]core.Invoice, error) {
	var fl filter
	if f.CustomerID != nil {
		fl.add("customer_id = $%d", *f.CustomerID)
	}
	if f.Status != nil {
		fl.add("status = $%d", string(*f.Status))
	}
	rows, err := t.q.Query(ctx, "SELECT "+invoiceCols+" FROM invoices"+fl.where()+" ORDER BY id DESC", fl.args...)
	if err != nil {
		return nil, mapError(err, "failed to list invoices")
	}

	var headers []*core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, mapError(err, "failed to scan invoice")
		}
		headers = append(headers, inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to list invoices")
	}

	if err := t.loadLines(ctx, headers); err != nil {
		return nil, err
	}
	out := make([]core.Invoice, 0, len(headers))
	for _, inv := range headers {
		out = append(out, *inv)
	}
	return out, nil
}

// ── Usage & adjustments ──────────────────────────────────────────────────────

const usageCols = "id, item_id, appointment_id, invoice_id, quantity, created_at"

func (t *txn) InsertUsage(ctx context.Context, u *core.UsageRecord) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO inventory_usage (item_id, appointment_id, invoice_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.ItemID, u.AppointmentID, u.InvoiceID, u.Quantity,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return mapError(err, "failed to insert usage record")
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return nil
}

func (t *txn) ListUsage(ctx context.Context, f core.UsageFilter) ([]core.UsageRecord, error) {
	var fl filter
	if f.ItemID != nil {
		fl.add("item_id = $%d", *f.ItemID)
	}
	if f.AppointmentID != nil {
		fl.add("appointment_id = $%d", *f.AppointmentID)
	}
	if f.InvoiceID != nil {
		fl.add("invoice_id = $%d", *f.InvoiceID)
	}
	rows, err := t.q.Query(ctx, "SELECT "+usageCols+" FROM inventory_usage"+fl.where()+" ORDER BY id", fl.args...)
	if err != nil {
		return nil, mapError(err, "failed to list usage")
	}
	defer rows.Close()

	out := make([]core.UsageRecord, 0)
	for rows.Next() {
		var u core.UsageRecord
		if err := rows.Scan(&u.ID, &u.ItemID, &u.AppointmentID, &u.InvoiceID, &u.Quantity, &u.CreatedAt); err != nil {
			return nil, mapError(err, "failed to scan usage record")
		}
		u.CreatedAt = u.CreatedAt.UTC()
		out = append(out, u)
	}
	return out, mapError(rows.Err(), "failed to list usage")
}

func (t *txn) InsertAdjustment(ctx context.Context, a *core.StockAdjustment) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO stock_adjustments (item_id, delta, quantity_after, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.ItemID, a.Delta, a.QuantityAfter, a.Reason,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return mapError(err, "failed to insert stock adjustment")
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return nil
}

func (t *txn) ListAdjustments(ctx context.Context, itemID int) ([]core.StockAdjustment, error) {
	rows, err := t.q.Query(ctx, `
		SELECT id, item_id, delta, quantity_after, reason, created_at
		FROM stock_adjustments
		WHERE item_id = $1
		ORDER BY id`, itemID)
	if err != nil {
		return nil, mapError(err, "failed to list adjustments")
	}
	defer rows.Close()

	out := make([]core.StockAdjustment, 0)
	for rows.Next() {
		var a core.StockAdjustment
		if err := rows.Scan(&a.ID, &a.ItemID, &a.Delta, &a.QuantityAfter, &a.Reason, &a.CreatedAt); err != nil {
			return nil, mapError(err, "failed to scan adjustment")
		}
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, a)
	}
	return out, mapError(rows.Err(), "failed to list adjustments")
}

// ── Dependency counts ────────────────────────────────────────────────────────

func (t *txn) count(ctx context.Context, query string, arg int, what string) (int, error) {
	var n int
	if err := t.q.QueryRow(ctx, query, arg).Scan(&n); err != nil {
		return 0, mapError(err, "failed to count "+what)
	}
	return n, nil
}

func (t *txn) CountInvoicesForCustomer(ctx context.Context, customerID int) (int, error) {
	return t.count(ctx, "SELECT count(*) FROM invoices WHERE customer_id = $1", customerID, "invoices")
}

func (t *txn) CountUsageForCustomer(ctx context.Context, customerID int) (int, error) {
	return t.count(ctx, `
		SELECT count(*)
		FROM inventory_usage u
		JOIN appointments a ON a.id = u.appointment_id
		WHERE a.customer_id = $1`, customerID, "usage records")
}

func (t *txn) CountUsageForItem(ctx context.Context, itemID int) (int, error) {
	return t.count(ctx, "SELECT count(*) FROM inventory_usage WHERE item_id = $1", itemID, "usage records")
}
