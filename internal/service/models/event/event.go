package event

import (
	"time"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published for order lifecycle changes.
// MessageID lets consumers deduplicate redelivered events.
type OrderEvent struct {
	MessageID    string    `json:"messageId"`
	Type         string    `json:"type"`
	OrderID      int64     `json:"orderId"`
	UserID       string    `json:"userId"`
	MedicineID   int64     `json:"medicineId"`
	MedicineName string    `json:"medicineName,omitempty"`
	Quantity     int64     `json:"quantity"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurredAt"`
}
