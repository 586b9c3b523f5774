package expiry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(inventory *fakeInventory, notifier *fakeNotifier) *Worker {
	return &Worker{
		inventory:     inventory,
		notifier:      notifier,
		checkInterval: time.Hour,
		window:        180 * 24 * time.Hour,
		stopCh:        make(chan struct{}),
	}
}

func TestCheckExpiringMedicinesNotifiesEach(t *testing.T) {
	inventory := &fakeInventory{
		expiring: []medicine.Medicine{
			{ID: 20, Name: "Azithromycin 250mg", Stock: 220},
			{ID: 10, Name: "Metoprolol 50mg", Stock: 275},
		},
	}
	notifier := &fakeNotifier{}
	w := newTestWorker(inventory, notifier)

	w.checkExpiringMedicines(context.Background())

	assert.Equal(t, w.window, inventory.lastWindow)
	require.Len(t, notifier.notified(), 2)
	assert.ElementsMatch(t, []int64{20, 10}, notifier.notifiedIDs())
}

func TestCheckExpiringMedicinesListFailure(t *testing.T) {
	inventory := &fakeInventory{err: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	w := newTestWorker(inventory, notifier)

	w.checkExpiringMedicines(context.Background())

	assert.Empty(t, notifier.notified())
}

func TestCheckExpiringMedicinesSurvivesNotifyFailure(t *testing.T) {
	inventory := &fakeInventory{
		expiring: []medicine.Medicine{
			{ID: 1, Name: "Aspirin 500mg"},
			{ID: 2, Name: "Paracetamol 500mg"},
		},
	}
	notifier := &fakeNotifier{err: errors.New("chat not found")}
	w := newTestWorker(inventory, notifier)

	w.checkExpiringMedicines(context.Background())

	// Both sends were attempted even though they failed.
	assert.Len(t, notifier.notified(), 2)
}

func TestStartRunsInitialCheck(t *testing.T) {
	inventory := &fakeInventory{
		expiring: []medicine.Medicine{{ID: 1, Name: "Aspirin 500mg"}},
	}
	notifier := &fakeNotifier{done: make(chan struct{}, 1)}
	w := newTestWorker(inventory, notifier)

	go w.Start(context.Background())
	defer w.Stop()

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("initial check did not run")
	}
}

type fakeInventory struct {
	expiring   []medicine.Medicine
	err        error
	lastWindow time.Duration
}

func (f *fakeInventory) ListExpiring(_ context.Context, window time.Duration) ([]medicine.Medicine, error) {
	f.lastWindow = window
	if f.err != nil {
		return nil, f.err
	}

	return f.expiring, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	meds []medicine.Medicine
	err  error
	done chan struct{}
}

func (f *fakeNotifier) NotifyExpiringMedicine(_ context.Context, med medicine.Medicine) error {
	f.mu.Lock()
	f.meds = append(f.meds, med)
	f.mu.Unlock()

	if f.done != nil {
		select {
		case f.done <- struct{}{}:
		default:
		}
	}

	return f.err
}

func (f *fakeNotifier) notified() []medicine.Medicine {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]medicine.Medicine(nil), f.meds...)
}

func (f *fakeNotifier) notifiedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.meds))
	for _, med := range f.meds {
		ids = append(ids, med.ID)
	}

	return ids
}
