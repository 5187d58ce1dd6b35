package core_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/core"
)

func TestAppointmentGraph(t *testing.T) {
	w := core.AppointmentWorkflow
	allowed := map[[2]core.AppointmentStatus]bool{
		{core.AppointmentScheduled, core.AppointmentInProgress}: true,
		{core.AppointmentInProgress, core.AppointmentCompleted}: true,
		{core.AppointmentScheduled, core.AppointmentCancelled}:  true,
		{core.AppointmentInProgress, core.AppointmentCancelled}: true,
	}
	for _, from := range w.States() {
		for _, to := range w.States() {
			assert.Equal(t, allowed[[2]core.AppointmentStatus{from, to}], w.Allows(from, to), "%s → %s", from, to)
		}
	}
	assert.True(t, w.Terminal(core.AppointmentCompleted))
	assert.True(t, w.Terminal(core.AppointmentCancelled))
	assert.False(t, w.Terminal(core.AppointmentScheduled))
}

func TestInvoiceGraph(t *testing.T) {
	w := core.InvoiceWorkflow
	assert.Equal(t, []core.InvoiceStatus{core.InvoiceCancelled, core.InvoiceSent}, w.Targets(core.InvoiceDraft))
	assert.Equal(t, []core.InvoiceStatus{core.InvoiceCancelled, core.InvoiceOverdue, core.InvoicePaid}, w.Targets(core.InvoiceSent))
	for _, s := range []core.InvoiceStatus{core.InvoicePaid, core.InvoiceOverdue, core.InvoiceCancelled} {
		assert.True(t, w.Terminal(s), s)
	}
	assert.False(t, w.Allows(core.InvoiceDraft, core.InvoicePaid))
	assert.False(t, w.Allows(core.InvoiceOverdue, core.InvoicePaid))
}

func TestNewWorkflowRejectsUnknownStates(t *testing.T) {
	assert.Panics(t, func() {
		core.NewWorkflow("broken", []string{"a"}, [][2]string{{"a", "b"}})
	})
}

func TestTransitionAppointment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)

	tr, err := f.workflow.TransitionAppointment(ctx, a.ID, core.AppointmentScheduled, core.AppointmentInProgress)
	require.NoError(t, err)
	assert.Equal(t, "appointment", tr.Entity)
	assert.Equal(t, "scheduled", tr.From)
	assert.Equal(t, "in-progress", tr.To)

	got, err := f.appointments.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, core.AppointmentInProgress, got.Status)

	_, err = f.workflow.TransitionAppointment(ctx, a.ID, core.AppointmentInProgress, core.AppointmentCompleted)
	require.NoError(t, err)

	_, err = f.workflow.TransitionAppointment(ctx, a.ID, core.AppointmentCompleted, core.AppointmentCancelled)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestFinishedAppointmentsStayFinished(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	done := f.appointment(t, c.ID, "Dana", june3)
	dropped := f.appointment(t, c.ID, "Dana", june3)

	_, err := f.workflow.TransitionAppointment(ctx, done.ID, core.AppointmentScheduled, core.AppointmentInProgress)
	require.NoError(t, err)
	_, err = f.workflow.TransitionAppointment(ctx, done.ID, core.AppointmentInProgress, core.AppointmentCompleted)
	require.NoError(t, err)
	_, err = f.workflow.TransitionAppointment(ctx, done.ID, core.AppointmentCompleted, core.AppointmentScheduled)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = f.workflow.TransitionAppointment(ctx, dropped.ID, core.AppointmentScheduled, core.AppointmentCancelled)
	require.NoError(t, err)
	for _, to := range []core.AppointmentStatus{core.AppointmentScheduled, core.AppointmentInProgress, core.AppointmentCompleted} {
		_, err = f.workflow.TransitionAppointment(ctx, dropped.ID, core.AppointmentCancelled, to)
		assert.ErrorIs(t, err, core.ErrInvalidTransition, "cancelled → %s", to)
	}

	got, err := f.appointments.GetAppointment(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, core.AppointmentCompleted, got.Status)
	got, err = f.appointments.GetAppointment(ctx, dropped.ID)
	require.NoError(t, err)
	assert.Equal(t, core.AppointmentCancelled, got.Status)

	inv := f.invoice(t, c.ID, "INV-1")
	_, err = f.workflow.TransitionInvoice(ctx, inv.ID, core.InvoiceDraft, core.InvoiceCancelled)
	require.NoError(t, err)
	_, err = f.workflow.TransitionInvoice(ctx, inv.ID, core.InvoiceCancelled, core.InvoiceDraft)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestTransitionRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)

	_, err := f.workflow.TransitionAppointment(ctx, 999, core.AppointmentScheduled, core.AppointmentInProgress)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.workflow.TransitionAppointment(ctx, a.ID, "done", core.AppointmentInProgress)
	assert.ErrorIs(t, err, core.ErrValidation)

	// A stale expectation is a conflict even when the requested edge is also illegal.
	_, err = f.workflow.TransitionAppointment(ctx, a.ID, core.AppointmentInProgress, core.AppointmentScheduled)
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = f.workflow.TransitionAppointment(ctx, a.ID, core.AppointmentScheduled, core.AppointmentCompleted)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	got, err := f.appointments.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, core.AppointmentScheduled, got.Status)
}

func TestTransitionInvoice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	inv := f.invoice(t, c.ID, "INV-1")

	tr, err := f.workflow.TransitionInvoice(ctx, inv.ID, core.InvoiceDraft, core.InvoiceSent)
	require.NoError(t, err)
	assert.Equal(t, "invoice", tr.Entity)

	_, err = f.workflow.TransitionInvoice(ctx, inv.ID, core.InvoiceSent, core.InvoiceOverdue)
	require.NoError(t, err)

	_, err = f.workflow.TransitionInvoice(ctx, inv.ID, core.InvoiceOverdue, core.InvoicePaid)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)

	targets := []core.AppointmentStatus{core.AppointmentInProgress, core.AppointmentCancelled}
	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.workflow.TransitionAppointment(ctx, a.ID, core.AppointmentScheduled, targets[i%2])
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, core.ErrConflict)
	}
	assert.Equal(t, 1, wins)
}
