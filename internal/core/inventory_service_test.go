package core_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/core"
	"hvac-ledger/internal/store/memory"
)

func TestRecordUsageDecrementsAndLogs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)
	it := f.item(t, "flt-100", 5, "4.25", 2)
	assert.Equal(t, "FLT-100", it.SKU)

	rec, err := f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: a.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Quantity)

	got, err := f.inventory.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuantityOnHand)

	_, err = f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: a.ID, Quantity: 4})
	assert.ErrorIs(t, err, core.ErrInsufficientStock)

	recs, err := f.inventory.ListUsage(ctx, core.UsageFilter{ItemID: &it.ID})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	got, err = f.inventory.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuantityOnHand)
}

func TestFilterStockAcrossTwoJobs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	first := f.appointment(t, c.ID, "Dana", june3)
	second := f.appointment(t, c.ID, "Sam", june3)
	it := f.item(t, "FLT-100", 10, "4.25", 2)

	_, err := f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: first.ID, Quantity: 4})
	require.NoError(t, err)
	got, err := f.inventory.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.QuantityOnHand)

	_, err = f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: second.ID, Quantity: 7})
	assert.ErrorIs(t, err, core.ErrInsufficientStock)

	got, err = f.inventory.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.QuantityOnHand)
	recs, err := f.inventory.ListUsage(ctx, core.UsageFilter{ItemID: &it.ID})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, first.ID, recs[0].AppointmentID)
}

func TestRecordUsageRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)
	it := f.item(t, "FLT-100", 5, "4.25", 2)

	_, err := f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: a.ID, Quantity: 0})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: 999, AppointmentID: a.ID, Quantity: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: 999, Quantity: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	missing := 999
	_, err = f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: a.ID, InvoiceID: &missing, Quantity: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	got, err := f.inventory.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.QuantityOnHand)
}

// Five technicians each try to use 2 of the 5 filters on hand.
func TestConcurrentUsageNeverOversells(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	it := f.item(t, "FLT-100", 5, "4.25", 2)

	appts := make([]*core.Appointment, 5)
	for i := range appts {
		appts[i] = f.appointment(t, c.ID, "Dana", june3)
	}

	var ok, short atomic.Int32
	var wg sync.WaitGroup
	for _, a := range appts {
		wg.Add(1)
		go func(apptID int) {
			defer wg.Done()
			_, err := f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: apptID, Quantity: 2})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, core.ErrInsufficientStock):
				short.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(a.ID)
	}
	wg.Wait()

	assert.Equal(t, int32(2), ok.Load())
	assert.Equal(t, int32(3), short.Load())

	got, err := f.inventory.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuantityOnHand)

	recs, err := f.inventory.ListUsage(ctx, core.UsageFilter{ItemID: &it.ID})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestFailedCommitLeavesNoPartialUsage(t *testing.T) {
	var fail atomic.Bool
	f := newFixture(memory.WithBeforeCommit(func() error {
		if fail.Load() {
			return errors.New("disk full")
		}
		return nil
	}))
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)
	it := f.item(t, "FLT-100", 5, "4.25", 2)

	fail.Store(true)
	_, err := f.inventory.RecordUsage(ctx, core.UsageInput{ItemID: it.ID, AppointmentID: a.ID, Quantity: 2})
	require.ErrorIs(t, err, core.ErrStorage)
	assert.False(t, core.IsRetryable(err))

	got, err := f.inventory.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.QuantityOnHand)
	recs, err := f.inventory.ListUsage(ctx, core.UsageFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAdjustQuantity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	it := f.item(t, "CAP-45", 3, "18.90", 2)

	qty, err := f.inventory.AdjustQuantity(ctx, it.ID, 7, "truck restock")
	require.NoError(t, err)
	assert.Equal(t, 10, qty)

	_, err = f.inventory.AdjustQuantity(ctx, it.ID, -11, "count correction")
	assert.ErrorIs(t, err, core.ErrInsufficientStock)

	_, err = f.inventory.AdjustQuantity(ctx, it.ID, 0, "")
	assert.ErrorIs(t, err, core.ErrValidation)

	qty, err = f.inventory.AdjustQuantity(ctx, it.ID, -10, "scrapped")
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	adjs, err := f.inventory.ListAdjustments(ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, adjs, 2)
	assert.Equal(t, 10, adjs[0].QuantityAfter)
	assert.Equal(t, 0, adjs[1].QuantityAfter)
	assert.Equal(t, "scrapped", adjs[1].Reason)
}

func TestUpdateItemLeavesQuantityAlone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	it := f.item(t, "FLT-100", 5, "4.25", 2)

	updated, err := f.inventory.UpdateItem(ctx, it.ID, core.ItemInput{
		SKU: "FLT-100", Name: "Pleated filter", Category: "Parts", Unit: "EA",
		UnitCost: decimal.RequireFromString("4.75"), ReorderThreshold: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.QuantityOnHand)
	assert.Equal(t, "parts", updated.Category)
	assert.Equal(t, "ea", updated.Unit)
	assert.True(t, updated.UnitCost.Equal(decimal.RequireFromString("4.75")))
}

func TestItemValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	base := core.ItemInput{SKU: "X-1", Name: "Thing", Category: "parts", Unit: "ea"}

	cases := map[string]func(in core.ItemInput) core.ItemInput{
		"blank sku":          func(in core.ItemInput) core.ItemInput { in.SKU = "  "; return in },
		"unknown category":   func(in core.ItemInput) core.ItemInput { in.Category = "widgets"; return in },
		"unknown unit":       func(in core.ItemInput) core.ItemInput { in.Unit = "crate"; return in },
		"negative cost":      func(in core.ItemInput) core.ItemInput { in.UnitCost = decimal.NewFromInt(-1); return in },
		"negative threshold": func(in core.ItemInput) core.ItemInput { in.ReorderThreshold = -1; return in },
		"five-place cost":    func(in core.ItemInput) core.ItemInput { in.UnitCost = decimal.RequireFromString("4.12345"); return in },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.inventory.CreateItem(ctx, mutate(base), 0)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}

	_, err := f.inventory.CreateItem(ctx, base, -1)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.inventory.CreateItem(ctx, base, 1)
	require.NoError(t, err)
	base.SKU = "x-1"
	_, err = f.inventory.CreateItem(ctx, base, 1)
	assert.ErrorIs(t, err, core.ErrValidation)
}
