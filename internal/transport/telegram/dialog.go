package telegram

import (
	"sync"
)

// Dialog states for multi step conversations, keyed by chat id.

// writeToPharmacist forwards the next text message to the pharmacist
// whose chat id came in through a /start deep link.
type writeToPharmacist struct {
	pharmacistChatID int64
}

// awaitingOrderDetails waits for "<medicine-id> <quantity>" after /order.
type awaitingOrderDetails struct{}

// awaitingOrderConfirm waits for a yes or no on the summarized order.
type awaitingOrderConfirm struct {
	medicineID   int64
	medicineName string
	quantity     int64
}

type dialogStore struct {
	mu     sync.RWMutex
	states map[int64]any
}

func newDialogStore() *dialogStore {
	return &dialogStore{
		states: make(map[int64]any),
	}
}

func (s *dialogStore) Get(chatID int64) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[chatID]

	return state, ok
}

func (s *dialogStore) Set(chatID int64, state any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[chatID] = state
}

func (s *dialogStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, chatID)
}
