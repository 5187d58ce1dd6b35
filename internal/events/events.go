// Package events carries domain events emitted after a ledger transaction
// commits. Delivery is best effort: a publish failure never undoes the write
// that produced the event.
package events

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"hvac-ledger/internal/core"
)

const (
	TypeAppointmentStatusChanged = "appointment.status_changed"
	TypeInvoiceStatusChanged     = "invoice.status_changed"
	TypeUsageRecorded            = "inventory.usage_recorded"
	TypeInventoryAdjusted        = "inventory.adjusted"
)

// Event is the envelope written to the bus. Key groups events of one entity
// onto one partition.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

func newEvent(typ, key string, at time.Time, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Key:        key,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
}

// StatusChanged builds the event for a committed workflow transition.
func StatusChanged(tr core.Transition) Event {
	typ := TypeAppointmentStatusChanged
	if tr.Entity == core.InvoiceWorkflow.Name() {
		typ = TypeInvoiceStatusChanged
	}
	return newEvent(typ, tr.Entity+":"+strconv.Itoa(tr.ID), tr.At, tr)
}

func UsageRecorded(rec core.UsageRecord) Event {
	return newEvent(TypeUsageRecorded, itemKey(rec.ItemID), rec.CreatedAt, rec)
}

// AdjustmentPayload is the body of an inventory.adjusted event.
type AdjustmentPayload struct {
	ItemID        int    `json:"item_id"`
	Delta         int    `json:"delta"`
	QuantityAfter int    `json:"quantity_after"`
	Reason        string `json:"reason,omitempty"`
}

func InventoryAdjusted(p AdjustmentPayload, at time.Time) Event {
	return newEvent(TypeInventoryAdjusted, itemKey(p.ItemID), at, p)
}

func itemKey(id int) string {
	return "item:" + strconv.Itoa(id)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory. It backs tests and the
// memory-store development mode.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
