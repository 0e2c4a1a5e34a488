package moderation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/toolgrid/gotoolgrid/util"
)

const (
	EventActionCreated  = "action_created"
	EventActionReverted = "action_reverted"
	EventAppealResolved = "appeal_resolved"
)

// Event is the message published for downstream consumers (notification
// fan-out, frontend cache invalidation). ID lets consumers deduplicate
// redelivered messages.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ActionID  int64     `json:"action_id"`
	ActorID   int64     `json:"actor_id"`
	AppealID  *int64    `json:"appeal_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// AMQPPublisher publishes moderation events to a queue.
type AMQPPublisher struct {
	conn  *amqp.Connection
	queue string
}

func NewAMQPPublisher(conn *amqp.Connection, queue string) *AMQPPublisher {
	return &AMQPPublisher{
		conn:  conn,
		queue: queue,
	}
}

func (s *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	ch, err := s.conn.Channel()
	if err != nil {
		return err
	}
	defer util.Close(ch)

	_, err = ch.QueueDeclare(
		s.queue, // name
		false,   // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   event.ID,
		Body:        body,
	})
}
