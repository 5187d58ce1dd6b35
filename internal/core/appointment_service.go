package core

import (
	"context"
	"strings"
	"time"
)

// AppointmentService creates and reads appointments. Status changes go
// through WorkflowEngine only.
type AppointmentService interface {
	CreateAppointment(ctx context.Context, in AppointmentInput) (*Appointment, error)
	// RescheduleAppointment changes technician and time while the appointment
	// is still scheduled.
	RescheduleAppointment(ctx context.Context, id int, technician string, scheduledAt time.Time) (*Appointment, error)
	GetAppointment(ctx context.Context, id int) (*Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error)
}

type AppointmentInput struct {
	CustomerID  int
	Technician  string
	ServiceType string
	ScheduledAt time.Time
	Notes       string
}

type appointmentService struct {
	store Store
}

func NewAppointmentService(store Store) AppointmentService {
	return &appointmentService{store: store}
}

func (s *appointmentService) CreateAppointment(ctx context.Context, in AppointmentInput) (*Appointment, error) {
	technician, err := requireText("technician", in.Technician)
	if err != nil {
		return nil, err
	}
	serviceType, err := requireText("service type", in.ServiceType)
	if err != nil {
		return nil, err
	}
	if in.ScheduledAt.IsZero() {
		return nil, Validationf("scheduled time is required")
	}

	a := &Appointment{
		CustomerID:  in.CustomerID,
		Technician:  technician,
		ServiceType: serviceType,
		ScheduledAt: in.ScheduledAt.UTC(),
		Notes:       strings.TrimSpace(in.Notes),
		Status:      AppointmentScheduled,
	}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetCustomer(ctx, in.CustomerID); err != nil {
			return err
		}
		return tx.InsertAppointment(ctx, a)
	})
	if err != nil {
		return nil, ensureKind(err, "failed to create appointment")
	}
	return a, nil
}

func (s *appointmentService) RescheduleAppointment(ctx context.Context, id int, technician string, scheduledAt time.Time) (*Appointment, error) {
	technician, err := requireText("technician", technician)
	if err != nil {
		return nil, err
	}
	if scheduledAt.IsZero() {
		return nil, Validationf("scheduled time is required")
	}

	var a *Appointment
	err = s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockAppointment(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != AppointmentScheduled {
			return Validationf("appointment %d is %s; only scheduled appointments can be rescheduled", id, current.Status)
		}
		if err := tx.UpdateAppointmentSchedule(ctx, id, technician, scheduledAt.UTC()); err != nil {
			return err
		}
		current.Technician = technician
		current.ScheduledAt = scheduledAt.UTC()
		a = current
		return nil
	})
	if err != nil {
		return nil, ensureKind(err, "failed to reschedule appointment")
	}
	return a, nil
}

func (s *appointmentService) GetAppointment(ctx context.Context, id int) (*Appointment, error) {
	var a *Appointment
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		a, err = tx.GetAppointment(ctx, id)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to fetch appointment")
	}
	return a, nil
}

func (s *appointmentService) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	var out []Appointment
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListAppointments(ctx, f)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list appointments")
	}
	return out, nil
}
