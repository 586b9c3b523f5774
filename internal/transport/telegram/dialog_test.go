package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialogStore(t *testing.T) {
	store := newDialogStore()

	_, ok := store.Get(1)
	assert.False(t, ok)

	store.Set(1, awaitingOrderDetails{})
	state, ok := store.Get(1)
	require.True(t, ok)
	_, ok = state.(awaitingOrderDetails)
	assert.True(t, ok)

	store.Set(1, awaitingOrderConfirm{medicineID: 3, medicineName: "Amoxicillin 250mg", quantity: 2})
	state, _ = store.Get(1)
	confirm, ok := state.(awaitingOrderConfirm)
	require.True(t, ok)
	assert.Equal(t, int64(3), confirm.medicineID)
	assert.Equal(t, int64(2), confirm.quantity)

	store.Clear(1)
	_, ok = store.Get(1)
	assert.False(t, ok)

	// Clearing an unknown chat is a no-op.
	store.Clear(42)
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, "Welcome to the pharmacy bot!", translate("en", "welcome"))
	assert.Equal(t, "¡Bienvenido al bot de farmacia!", translate("es", "welcome"))
	assert.Equal(t, "Welcome to the pharmacy bot!", translate("de", "welcome"))
	assert.Equal(t, "unknown_key", translate("en", "unknown_key"))
}
