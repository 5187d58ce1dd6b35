package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/core"
	"hvac-ledger/internal/store/postgres"
	"hvac-ledger/migrations"
)

// setupTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every ledger table. Tests are skipped when the variable is not set.
func setupTestDB(t *testing.T) (*postgres.Store, context.Context) {
	t.Helper()
	_ = godotenv.Load("../../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = migrations.Up(ctx, pool)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		TRUNCATE stock_adjustments, inventory_usage, invoice_lines, invoices,
		         appointments, inventory_items, customers
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return postgres.New(pool, postgres.WithLockTimeout(2*time.Second)), ctx
}

func seedJob(t *testing.T, ctx context.Context, store core.Store, onHand int) (item *core.InventoryItem, appt *core.Appointment) {
	t.Helper()
	cust, err := core.NewCustomerService(store).CreateCustomer(ctx, core.CustomerInput{Name: "Acme HVAC", Phone: "555-123-4567"})
	require.NoError(t, err)
	item, err = core.NewInventoryService(store).CreateItem(ctx, core.ItemInput{
		SKU: "flt-100", Name: "Furnace filter", Category: "parts", Unit: "ea", UnitCost: decimal.RequireFromString("4.25"),
	}, onHand)
	require.NoError(t, err)
	appt, err = core.NewAppointmentService(store).CreateAppointment(ctx, core.AppointmentInput{
		CustomerID: cust.ID, Technician: "Dana", ServiceType: "maintenance", ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return item, appt
}

func TestConcurrentUsageNeverOversells(t *testing.T) {
	store, ctx := setupTestDB(t)
	item, appt := seedJob(t, ctx, store, 5)
	inv := core.NewInventoryService(store)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.RecordUsage(ctx, core.UsageInput{ItemID: item.ID, AppointmentID: appt.ID, Quantity: 2})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, core.ErrInsufficientStock)
			fail++
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, 3, fail)

	got, err := inv.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuantityOnHand)

	usage, err := inv.ListUsage(ctx, core.UsageFilter{ItemID: &item.ID})
	require.NoError(t, err)
	assert.Len(t, usage, 2)
}

func TestConcurrentTransitionsOneWinner(t *testing.T) {
	store, ctx := setupTestDB(t)
	_, appt := seedJob(t, ctx, store, 1)
	engine := core.NewWorkflowEngine(store)

	results := make(chan error, 2)
	for _, to := range []core.AppointmentStatus{core.AppointmentInProgress, core.AppointmentCancelled} {
		go func(to core.AppointmentStatus) {
			_, err := engine.TransitionAppointment(ctx, appt.ID, core.AppointmentScheduled, to)
			results <- err
		}(to)
	}

	var wins, conflicts int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			wins++
		case core.KindOf(err) == core.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
}

func TestInvoiceRoundTripKeepsLinesAndTotals(t *testing.T) {
	store, ctx := setupTestDB(t)
	_, appt := seedJob(t, ctx, store, 1)

	invSvc := core.NewInvoiceService(store)
	created, err := invSvc.CreateInvoice(ctx, core.InvoiceInput{
		CustomerID:    appt.CustomerID,
		AppointmentID: &appt.ID,
		InvoiceNumber: "INV-1001",
		TaxRate:       decimal.RequireFromString("0.08"),
		Lines: []core.LineInput{
			{Description: "Labor", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
			{Description: "Filter", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("12.50")},
		},
	})
	require.NoError(t, err)

	summary, err := core.NewValuationService(store).InvoiceSummary(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)
	assert.Equal(t, "Filter", summary.Lines[1].Description)
	assert.True(t, summary.Totals.Subtotal.Equal(decimal.NewFromInt(125)))
	assert.True(t, summary.Totals.TaxAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, summary.Totals.GrandTotal.Equal(decimal.NewFromInt(135)))

	_, err = invSvc.CreateInvoice(ctx, core.InvoiceInput{
		CustomerID: appt.CustomerID, InvoiceNumber: "INV-1001",
		Lines: []core.LineInput{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.Zero}},
	})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestStoredAmountsKeepTheirTotals(t *testing.T) {
	store, ctx := setupTestDB(t)
	_, appt := seedJob(t, ctx, store, 1)

	invSvc := core.NewInvoiceService(store)
	created, err := invSvc.CreateInvoice(ctx, core.InvoiceInput{
		CustomerID:    appt.CustomerID,
		InvoiceNumber: "INV-2001",
		TaxRate:       decimal.RequireFromString("0.0838"),
		Lines: []core.LineInput{
			{Description: "Refrigerant", Quantity: decimal.RequireFromString("2.3755"), UnitPrice: decimal.RequireFromString("12.4075")},
			{Description: "Labor", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000)},
		},
	})
	require.NoError(t, err)
	atCreate := core.InvoiceTotals(*created)

	summary, err := core.NewValuationService(store).InvoiceSummary(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, summary.Totals.Subtotal.Equal(atCreate.Subtotal))
	assert.True(t, summary.Totals.TaxAmount.Equal(atCreate.TaxAmount))
	assert.True(t, summary.Totals.GrandTotal.Equal(atCreate.GrandTotal))
	assert.Equal(t, "Acme HVAC", summary.CustomerName)

	_, err = invSvc.CreateInvoice(ctx, core.InvoiceInput{
		CustomerID:    appt.CustomerID,
		InvoiceNumber: "INV-2002",
		TaxRate:       decimal.RequireFromString("0.08375"),
		Lines:         []core.LineInput{{Description: "Labor", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000)}},
	})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestDeletionGuardAgainstPostgres(t *testing.T) {
	store, ctx := setupTestDB(t)
	item, appt := seedJob(t, ctx, store, 3)
	guard := core.NewDeletionGuard(store)

	_, err := core.NewInventoryService(store).RecordUsage(ctx, core.UsageInput{ItemID: item.ID, AppointmentID: appt.ID, Quantity: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, guard.DeleteItem(ctx, item.ID), core.ErrReferentialIntegrity)
	assert.ErrorIs(t, guard.DeleteCustomer(ctx, appt.CustomerID), core.ErrReferentialIntegrity)

	other, err := core.NewInventoryService(store).CreateItem(ctx, core.ItemInput{
		SKU: "CAP-45", Name: "Capacitor", Category: "parts", Unit: "ea", UnitCost: decimal.NewFromInt(9),
	}, 2)
	require.NoError(t, err)
	require.NoError(t, guard.DeleteItem(ctx, other.ID))
	assert.ErrorIs(t, guard.DeleteItem(ctx, other.ID), core.ErrNotFound)
}

func TestViewRejectsRowLocks(t *testing.T) {
	store, ctx := setupTestDB(t)
	item, _ := seedJob(t, ctx, store, 1)

	err := store.View(ctx, func(tx core.Tx) error {
		_, err := tx.LockItem(ctx, item.ID)
		return err
	})
	assert.ErrorIs(t, err, core.ErrStorage)
}
