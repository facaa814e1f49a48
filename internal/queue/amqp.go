package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/streadway/amqp"

	"github.com/textloop/campaign-dispatch/internal/model"
)

const (
	workQueue = "campaign_dispatch"
	waitQueue = "campaign_dispatch_wait"
)

// AMQPQueue publishes dispatch tasks to RabbitMQ. Delayed tasks go
// through a wait queue with a per-message TTL whose dead-letter
// exchange routes them back to the work queue once the delay elapses.
type AMQPQueue struct {
	ch  *amqp.Channel
	now func() time.Time
}

func NewAMQPQueue(ch *amqp.Channel) (*AMQPQueue, error) {
	_, err := ch.QueueDeclare(
		workQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		waitQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": workQueue,
		},
	)
	if err != nil {
		return nil, err
	}

	return &AMQPQueue{ch: ch, now: time.Now}, nil
}

func (q *AMQPQueue) Enqueue(_ context.Context, task model.DispatchTask, notBefore time.Time) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}

	delay := notBefore.Sub(q.now())
	if delay <= 0 {
		// Past timestamps run immediately, which is what the scheduler
		// wants for today's batch when the window already opened.
		return q.ch.Publish("", workQueue, false, false, pub)
	}

	pub.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)
	return q.ch.Publish("", waitQueue, false, false, pub)
}

// Consume hands back the work queue's delivery stream for the worker
// binary.
func (q *AMQPQueue) Consume() (<-chan amqp.Delivery, error) {
	return q.ch.Consume(
		workQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
}

var _ Queue = (*AMQPQueue)(nil)
