package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentMethod(t *testing.T) {
	// Persisted values; renaming one silently orphans stored rows.
	assert.Equal(t, "cash", string(PaymentMethodCash))
	assert.Equal(t, "qr-transfer", string(PaymentMethodQRTransfer))

	assert.True(t, PaymentMethodCash.Valid())
	assert.True(t, PaymentMethodQRTransfer.Valid())
	assert.False(t, PaymentMethod("gcash").Valid())
	assert.False(t, PaymentMethod("").Valid())
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.Terminal())
	assert.True(t, PaymentStatusConfirmed.Terminal())
	assert.True(t, PaymentStatusRejected.Terminal())
}
