package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvac-ledger/internal/core"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestStatusChangedPicksTypeFromEntity(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	appt := StatusChanged(core.Transition{Entity: "appointment", ID: 7, From: "scheduled", To: "in-progress", At: at})
	assert.Equal(t, TypeAppointmentStatusChanged, appt.Type)
	assert.Equal(t, "appointment:7", appt.Key)
	assert.Equal(t, at, appt.OccurredAt)
	assert.NotEmpty(t, appt.ID)

	inv := StatusChanged(core.Transition{Entity: "invoice", ID: 3, From: "draft", To: "sent", At: at})
	assert.Equal(t, TypeInvoiceStatusChanged, inv.Type)
	assert.Equal(t, "invoice:3", inv.Key)
}

func TestKafkaPublisherWritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	e := InventoryAdjusted(AdjustmentPayload{ItemID: 4, Delta: 10, QuantityAfter: 12, Reason: "restock"}, time.Now())
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "item:4", string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, TypeInventoryAdjusted, string(msg.Headers[0].Value))

	var decoded struct {
		Type    string            `json:"type"`
		Payload AdjustmentPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, TypeInventoryAdjusted, decoded.Type)
	assert.Equal(t, 12, decoded.Payload.QuantityAfter)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), UsageRecorded(core.UsageRecord{ID: 1, ItemID: 2, Quantity: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestRecorderKeepsOrder(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()
	require.NoError(t, r.Publish(ctx, Event{Type: "a"}))
	require.NoError(t, r.Publish(ctx, Event{Type: "b"}))

	got := r.Events()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Type)
	assert.Equal(t, "b", got[1].Type)
}
