package outbox

import (
	"time"
)

// OutboxMessage represents an order event waiting to be published to RabbitMQ.
// Rows are inserted in the same transaction as the order change they describe
// and removed by the outbox worker once the publish succeeds.
type OutboxMessage struct {
	ID           int64
	MessageID    string
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}
