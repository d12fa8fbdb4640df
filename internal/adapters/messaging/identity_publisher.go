package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

var _ ports.IdentityEventPublisher = (*RabbitMQBroker)(nil)

// envelope wraps every identity event with its type so consumers on
// the shared queue can dispatch without inspecting the payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (rmq *RabbitMQBroker) PublishAccountRegistered(ctx context.Context, evt ports.AccountRegisteredEvent) error {
	return rmq.publish(ctx, ports.EventAccountRegistered, evt)
}

func (rmq *RabbitMQBroker) PublishAdminPromoted(ctx context.Context, evt ports.AdminPromotedEvent) error {
	return rmq.publish(ctx, ports.EventAdminPromoted, evt)
}

func (rmq *RabbitMQBroker) publish(ctx context.Context, eventType string, evt any) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope{Type: eventType, Data: data})
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= 0 {
		return ctx.Err()
	}

	_, err = rmq.cb.Execute(func() (interface{}, error) {
		err := rmq.ch.PublishWithContext(
			ctx,
			"",            // default exchange
			rmq.queueName, // routing key == queue name
			false,         // mandatory
			false,         // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				Body:         body,
			},
		)
		return nil, err
	})
	return err
}
