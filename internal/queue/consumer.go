package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"parkwise/internal/domain"
	"parkwise/internal/service"
)

const (
	sensorQueue    = "parking.slot.events"
	reconnectDelay = 5 * time.Second
)

// Consumer drains sensor events from the broker and applies them to
// the slot ledger. The connection is re-established with a fixed
// backoff whenever it drops.
type Consumer struct {
	url    string
	ledger *service.SlotLedger
}

// NewConsumer creates a Consumer bound to the ledger.
func NewConsumer(url string, ledger *service.SlotLedger) *Consumer {
	return &Consumer{url: url, ledger: ledger}
}

// Run consumes until the context is cancelled. Connection failures are
// logged and retried; Run only returns on cancellation.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			log.Printf("queue: consume: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(sensorQueue, true, false, false, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.Consume(sensorQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	log.Printf("queue: consuming %s", sensorQueue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var event SlotStatusEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		log.Printf("queue: malformed event: %v", err)
		// Broken payloads never become valid; drop without requeue.
		d.Nack(false, false)
		return
	}

	err := c.ledger.ApplyExternal(ctx, event.SlotID, domain.SlotStatus(event.Status))
	switch {
	case err == nil:
		d.Ack(false)
	case errors.Is(err, service.ErrInvalidTransition):
		// Rejected pushes (active reservation, unknown status) are
		// final; redelivery would not change the outcome.
		log.Printf("queue: slot %d push %q rejected", event.SlotID, event.Status)
		d.Nack(false, false)
	default:
		log.Printf("queue: apply slot %d: %v", event.SlotID, err)
		d.Nack(false, true)
	}
}
