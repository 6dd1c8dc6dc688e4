package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/order"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEventSource struct {
	events    []*order.OutboxEvent
	fetchErr  error
	markErr   error
	processed []int64
}

func (m *mockEventSource) GetUnprocessedEvents(_ context.Context, _ int) ([]*order.OutboxEvent, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.events, nil
}

func (m *mockEventSource) MarkEventAsProcessed(_ context.Context, id int64) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.processed = append(m.processed, id)
	return nil
}

type mockClearer struct {
	cleared  []string
	cutoffs  []time.Time
	clearErr error
}

func (m *mockClearer) ClearIfUntouchedSince(_ context.Context, sessionID string, cutoff time.Time) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = append(m.cleared, sessionID)
	m.cutoffs = append(m.cutoffs, cutoff)
	return nil
}

type mockWriter struct {
	messages []kafka.Message
	writeErr error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

var testPaidAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func paymentEvent(t *testing.T, id int64, orderID, sessionID string) *order.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(order.PaymentSucceededPayload{
		OrderID:      orderID,
		SessionID:    sessionID,
		Amount:       2500,
		Currency:     "INR",
		GatewayTxnID: "txn_1",
		PaidAt:       testPaidAt,
	})
	require.NoError(t, err)
	return &order.OutboxEvent{
		ID:          id,
		AggregateID: orderID,
		EventType:   order.EventPaymentSucceeded,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
}

func newTestPoller(source *mockEventSource, carts *mockClearer, writer *mockWriter) *OutboxPoller {
	return &OutboxPoller{
		tick:   time.Millisecond,
		source: source,
		carts:  carts,
		writer: writer,
		logger: zap.NewNop(),
	}
}

func TestProcessEvents_PublishesClearsAndMarks(t *testing.T) {
	source := &mockEventSource{events: []*order.OutboxEvent{paymentEvent(t, 1, "order-1", "sess-1")}}
	carts := &mockClearer{}
	writer := &mockWriter{}
	poller := newTestPoller(source, carts, writer)

	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.messages, 1)
	assert.Equal(t, []byte("order-1"), writer.messages[0].Key)
	require.Len(t, writer.messages[0].Headers, 1)
	assert.Equal(t, "event_type", writer.messages[0].Headers[0].Key)
	assert.Equal(t, []byte(order.EventPaymentSucceeded), writer.messages[0].Headers[0].Value)

	assert.Equal(t, []string{"sess-1"}, carts.cleared)
	// The clear is bounded by the payment time, so a cart the shopper has
	// touched since is never wiped twice.
	require.Len(t, carts.cutoffs, 1)
	assert.True(t, carts.cutoffs[0].Equal(testPaidAt))
	assert.Equal(t, []int64{1}, source.processed)
}

func TestProcessEvents_PublishFailureLeavesEventUnprocessed(t *testing.T) {
	source := &mockEventSource{events: []*order.OutboxEvent{paymentEvent(t, 1, "order-1", "sess-1")}}
	carts := &mockClearer{}
	writer := &mockWriter{writeErr: errors.New("broker down")}
	poller := newTestPoller(source, carts, writer)

	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, carts.cleared)
	assert.Empty(t, source.processed)
}

func TestProcessEvents_ClearFailureLeavesEventUnprocessed(t *testing.T) {
	source := &mockEventSource{events: []*order.OutboxEvent{paymentEvent(t, 1, "order-1", "sess-1")}}
	carts := &mockClearer{clearErr: errors.New("mongo down")}
	writer := &mockWriter{}
	poller := newTestPoller(source, carts, writer)

	poller.processUnpublishedEvents(context.Background())

	// Published but the clear failed; the event stays for the next tick.
	assert.Len(t, writer.messages, 1)
	assert.Empty(t, source.processed)
}

func TestProcessEvents_OtherEventTypesSkipClear(t *testing.T) {
	ev := &order.OutboxEvent{
		ID:          2,
		AggregateID: "order-2",
		EventType:   "order.failed",
		Payload:     []byte(`{}`),
		CreatedAt:   time.Now(),
	}
	source := &mockEventSource{events: []*order.OutboxEvent{ev}}
	carts := &mockClearer{}
	writer := &mockWriter{}
	poller := newTestPoller(source, carts, writer)

	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, carts.cleared)
	assert.Equal(t, []int64{2}, source.processed)
}

func TestProcessEvents_ContinuesPastFailedEvent(t *testing.T) {
	bad := &order.OutboxEvent{
		ID:          1,
		AggregateID: "order-1",
		EventType:   order.EventPaymentSucceeded,
		Payload:     []byte(`not-json`),
		CreatedAt:   time.Now(),
	}
	good := paymentEvent(t, 2, "order-2", "sess-2")
	source := &mockEventSource{events: []*order.OutboxEvent{bad, good}}
	carts := &mockClearer{}
	writer := &mockWriter{}
	poller := newTestPoller(source, carts, writer)

	poller.processUnpublishedEvents(context.Background())

	assert.Equal(t, []string{"sess-2"}, carts.cleared)
	assert.Equal(t, []int64{2}, source.processed)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	source := &mockEventSource{}
	poller := newTestPoller(source, &mockClearer{}, &mockWriter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on context cancel")
	}
}
