package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"spendview/internal/log"
)

type ackResult struct {
	tag     uint64
	acked   bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	results []ackResult
	done    chan struct{}
	want    int
}

func (a *fakeAcknowledger) record(r ackResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, r)
	if len(a.results) == a.want {
		close(a.done)
	}
	return nil
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	return a.record(ackResult{tag: tag, acked: true})
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	return a.record(ackResult{tag: tag, requeue: requeue})
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.record(ackResult{tag: tag, requeue: requeue})
}

func TestConsumeAcksAndNacks(t *testing.T) {
	ack := &fakeAcknowledger{done: make(chan struct{}), want: 4}
	msgs := make(chan amqp091.Delivery, 4)

	body := func(slug string) []byte {
		return fmt.Appendf(nil, `{"event":"query.executed","label":"L","slug":%q,"success":true}`, slug)
	}
	msgs <- amqp091.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body("ok")}
	msgs <- amqp091.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("not json")}
	msgs <- amqp091.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: body("retry")}
	msgs <- amqp091.Delivery{Acknowledger: ack, DeliveryTag: 4, Body: body("drop")}

	handler := func(_ context.Context, msg *QueryExecutedMessage) error {
		switch msg.Slug {
		case "retry":
			return errors.New("store unavailable")
		case "drop":
			return fmt.Errorf("bad event: %w", ErrDiscard)
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- consume(ctx, msgs, handler, log.Discard()) }()

	select {
	case <-ack.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deliveries to settle")
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("consume() = %v, want context.Canceled", err)
	}

	want := []ackResult{
		{tag: 1, acked: true},
		{tag: 2, requeue: false},
		{tag: 3, requeue: true},
		{tag: 4, requeue: false},
	}
	for i, w := range want {
		if ack.results[i] != w {
			t.Errorf("delivery %d = %+v, want %+v", i+1, ack.results[i], w)
		}
	}
}

func TestConsumeClosedChannel(t *testing.T) {
	msgs := make(chan amqp091.Delivery)
	close(msgs)
	err := consume(context.Background(), msgs, func(context.Context, *QueryExecutedMessage) error { return nil }, log.Discard())
	if err == nil {
		t.Fatal("expected error when the delivery channel closes")
	}
}
