package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Exchange имя exchange для уведомлений.
const Exchange = "notifications"

// Ключи маршрутизации событий.
const (
	RoutingSubscriptionActivated = "subscription.activated"
	RoutingPaymentFailed         = "payment.failed"
	RoutingSubscriptionChanged   = "subscription.changed"
	RoutingAutoReset             = "orders.auto_reset"
)

// QueueConfig очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues очереди, которые читает внешний нотификатор.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.subscription_activated", RoutingKey: RoutingSubscriptionActivated},
		{QueueName: "notifications.payment_failed", RoutingKey: RoutingPaymentFailed},
		{QueueName: "notifications.subscription_changed", RoutingKey: RoutingSubscriptionChanged},
		{QueueName: "notifications.auto_reset", RoutingKey: RoutingAutoReset},
	}
}

// SetupChannel открывает канал, объявляет exchange и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			Exchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
