package core

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// AppointmentStatus is the lifecycle state of an Appointment.
//
//	scheduled → in-progress → completed
//	scheduled → cancelled
//	in-progress → cancelled
type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "scheduled"
	AppointmentInProgress AppointmentStatus = "in-progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
)

// InvoiceStatus is the lifecycle state of an Invoice.
//
//	draft → sent → paid
//	sent → overdue
//	draft → cancelled
//	sent → cancelled
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Workflow is a transition graph held as data: a set of known states and an
// adjacency set of legal edges. A state with no outgoing edge is terminal.
type Workflow[S ~string] struct {
	name   string
	states map[S]struct{}
	edges  map[S]map[S]struct{}
}

// NewWorkflow builds a graph from its states and edges. Edges must reference
// declared states.
func NewWorkflow[S ~string](name string, states []S, edges [][2]S) Workflow[S] {
	w := Workflow[S]{
		name:   name,
		states: make(map[S]struct{}, len(states)),
		edges:  make(map[S]map[S]struct{}, len(states)),
	}
	for _, s := range states {
		w.states[s] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := w.states[e[0]]; !ok {
			panic(fmt.Sprintf("workflow %s: unknown state %q", name, e[0]))
		}
		if _, ok := w.states[e[1]]; !ok {
			panic(fmt.Sprintf("workflow %s: unknown state %q", name, e[1]))
		}
		if w.edges[e[0]] == nil {
			w.edges[e[0]] = make(map[S]struct{})
		}
		w.edges[e[0]][e[1]] = struct{}{}
	}
	return w
}

func (w Workflow[S]) Name() string { return w.name }

// Valid reports whether s is a declared state.
func (w Workflow[S]) Valid(s S) bool {
	_, ok := w.states[s]
	return ok
}

// Allows reports whether from → to is an edge of the graph.
func (w Workflow[S]) Allows(from, to S) bool {
	_, ok := w.edges[from][to]
	return ok
}

// Terminal reports whether s has no outgoing edges.
func (w Workflow[S]) Terminal(s S) bool {
	return len(w.edges[s]) == 0
}

// Targets lists the states reachable from s in one step, sorted.
func (w Workflow[S]) Targets(s S) []S {
	out := make([]S, 0, len(w.edges[s]))
	for to := range w.edges[s] {
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// States lists every declared state, sorted.
func (w Workflow[S]) States() []S {
	out := make([]S, 0, len(w.states))
	for s := range w.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var AppointmentWorkflow = NewWorkflow("appointment",
	[]AppointmentStatus{AppointmentScheduled, AppointmentInProgress, AppointmentCompleted, AppointmentCancelled},
	[][2]AppointmentStatus{
		{AppointmentScheduled, AppointmentInProgress},
		{AppointmentInProgress, AppointmentCompleted},
		{AppointmentScheduled, AppointmentCancelled},
		{AppointmentInProgress, AppointmentCancelled},
	},
)

// InvoiceWorkflow accepts sent → overdue as an ordinary caller-supplied
// transition; nothing in the core decides when an invoice is overdue.
var InvoiceWorkflow = NewWorkflow("invoice",
	[]InvoiceStatus{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	[][2]InvoiceStatus{
		{InvoiceDraft, InvoiceSent},
		{InvoiceSent, InvoicePaid},
		{InvoiceSent, InvoiceOverdue},
		{InvoiceDraft, InvoiceCancelled},
		{InvoiceSent, InvoiceCancelled},
	},
)

// Transition is the audit pair produced by a successful status change.
type Transition struct {
	Entity string    `json:"entity"`
	ID     int       `json:"id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
}

// WorkflowEngine applies status transitions with optimistic concurrency: the
// caller names the status it last observed and the engine rejects the change
// if the stored status differs.
type WorkflowEngine interface {
	TransitionAppointment(ctx context.Context, id int, expected, requested AppointmentStatus) (*Transition, error)
	TransitionInvoice(ctx context.Context, id int, expected, requested InvoiceStatus) (*Transition, error)
}

type workflowEngine struct {
	store Store
	now   func() time.Time
}

func NewWorkflowEngine(store Store) WorkflowEngine {
	return &workflowEngine{store: store, now: time.Now}
}

func (e *workflowEngine) TransitionAppointment(ctx context.Context, id int, expected, requested AppointmentStatus) (*Transition, error) {
	if err := checkStatuses(AppointmentWorkflow, expected, requested); err != nil {
		return nil, err
	}

	var tr *Transition
	err := e.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockAppointment(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != expected {
			return Conflictf("appointment %d is %s, caller expected %s", id, current.Status, expected)
		}
		if !AppointmentWorkflow.Allows(current.Status, requested) {
			return InvalidTransitionf("appointment %d cannot move from %s to %s", id, current.Status, requested)
		}
		if err := tx.SetAppointmentStatus(ctx, id, requested); err != nil {
			return err
		}
		tr = &Transition{Entity: AppointmentWorkflow.Name(), ID: id, From: string(current.Status), To: string(requested), At: e.now().UTC()}
		return nil
	})
	if err != nil {
		return nil, ensureKind(err, "appointment transition failed")
	}
	return tr, nil
}

func (e *workflowEngine) TransitionInvoice(ctx context.Context, id int, expected, requested InvoiceStatus) (*Transition, error) {
	if err := checkStatuses(InvoiceWorkflow, expected, requested); err != nil {
		return nil, err
	}

	var tr *Transition
	err := e.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != expected {
			return Conflictf("invoice %s is %s, caller expected %s", current.InvoiceNumber, current.Status, expected)
		}
		if !InvoiceWorkflow.Allows(current.Status, requested) {
			return InvalidTransitionf("invoice %s cannot move from %s to %s", current.InvoiceNumber, current.Status, requested)
		}
		if err := tx.SetInvoiceStatus(ctx, id, requested); err != nil {
			return err
		}
		tr = &Transition{Entity: InvoiceWorkflow.Name(), ID: id, From: string(current.Status), To: string(requested), At: e.now().UTC()}
		return nil
	})
	if err != nil {
		return nil, ensureKind(err, "invoice transition failed")
	}
	return tr, nil
}

func checkStatuses[S ~string](w Workflow[S], expected, requested S) error {
	if !w.Valid(expected) {
		return Validationf("unknown %s status %q", w.Name(), expected)
	}
	if !w.Valid(requested) {
		return Validationf("unknown %s status %q", w.Name(), requested)
	}
	return nil
}

// ParseAppointmentStatus validates a raw status string.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(s)
	if !AppointmentWorkflow.Valid(st) {
		return "", Validationf("unknown appointment status %q", s)
	}
	return st, nil
}

// ParseInvoiceStatus validates a raw status string.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	st := InvoiceStatus(s)
	if !InvoiceWorkflow.Valid(st) {
		return "", Validationf("unknown invoice status %q", s)
	}
	return st, nil
}
