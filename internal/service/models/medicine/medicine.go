package medicine

import (
	"errors"
	"time"
)

var (
	ErrMedicineNotFound  = errors.New("medicine not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrMedicineExpired   = errors.New("medicine expired")
)

// Medicine represents a single position of the pharmacy catalog.
type Medicine struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Stock      int64     `json:"stock"`
	ExpiryDate time.Time `json:"expiryDate"`
}

// IsExpired reports whether the medicine is past its expiry date.
// A medicine stays orderable through the expiry day itself.
func (m *Medicine) IsExpired(now time.Time) bool {
	return m.ExpiryDate.Before(now.UTC().Truncate(24 * time.Hour))
}
