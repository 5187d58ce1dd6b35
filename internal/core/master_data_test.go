package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/core"
)

func TestRescheduleOnlyWhileScheduled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)

	later := june3.Add(48 * time.Hour)
	moved, err := f.appointments.RescheduleAppointment(ctx, a.ID, "Sam", later)
	require.NoError(t, err)
	assert.Equal(t, "Sam", moved.Technician)
	assert.True(t, moved.ScheduledAt.Equal(later))

	got, err := f.appointments.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", got.Technician)

	_, err = f.appointments.RescheduleAppointment(ctx, a.ID, "", later)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.workflow.TransitionAppointment(ctx, a.ID, core.AppointmentScheduled, core.AppointmentInProgress)
	require.NoError(t, err)
	_, err = f.appointments.RescheduleAppointment(ctx, a.ID, "Dana", june3)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCreateAppointmentRequiresCustomer(t *testing.T) {
	f := newFixture()
	_, err := f.appointments.CreateAppointment(context.Background(), core.AppointmentInput{
		CustomerID: 42, Technician: "Dana", ServiceType: "repair", ScheduledAt: june3,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListAppointmentsByStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")
	a := f.appointment(t, c.ID, "Dana", june3)
	f.appointment(t, c.ID, "Dana", june3.Add(time.Hour))

	_, err := f.workflow.TransitionAppointment(ctx, a.ID, core.AppointmentScheduled, core.AppointmentCancelled)
	require.NoError(t, err)

	cancelled := core.AppointmentCancelled
	appts, err := f.appointments.ListAppointments(ctx, core.AppointmentFilter{Status: &cancelled})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, a.ID, appts[0].ID)
}

func TestSearchAndCountCustomers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.customer(t, "Riverside Dental")
	f.customer(t, "Hillside Bakery")
	f.customer(t, "riverbend farms")

	found, err := f.customers.SearchCustomers(ctx, "RIVER")
	require.NoError(t, err)
	names := make([]string, 0, len(found))
	for _, c := range found {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Riverside Dental", "riverbend farms"}, names)

	n, err := f.customers.CountCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUpdateCustomerNormalizesPhone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t, "Acme")

	updated, err := f.customers.UpdateCustomer(ctx, c.ID, core.CustomerInput{Name: "Acme HVAC", Phone: "555.987.6543"})
	require.NoError(t, err)
	assert.Equal(t, "(555) 987-6543", updated.Phone)

	_, err = f.customers.UpdateCustomer(ctx, c.ID, core.CustomerInput{Name: "Acme", Phone: "12345"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.customers.UpdateCustomer(ctx, 999, core.CustomerInput{Name: "Ghost", Phone: "5551234567"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
