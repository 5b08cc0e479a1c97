package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("out_for_delivery")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusOutForDelivery, status)

	_, err = ParseOrderStatus("teleporting")
	assert.Error(t, err)
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("refunded")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusRefunded, status)

	_, err = ParsePaymentStatus("PAID")
	assert.Error(t, err, "parsing is case sensitive")
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("cash_on_delivery")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCashOnDelivery, method)

	_, err = ParsePaymentMethod("barter")
	assert.Error(t, err)
}

func TestPaymentMethodRequiresGateway(t *testing.T) {
	assert.True(t, PaymentMethodStripe.RequiresGateway())
	assert.True(t, PaymentMethodChapa.RequiresGateway())
	assert.False(t, PaymentMethodCashOnDelivery.RequiresGateway())
}

func TestCartStatusIsValid(t *testing.T) {
	assert.True(t, CartStatusActive.IsValid())
	assert.True(t, CartStatusConverted.IsValid())
	assert.False(t, CartStatus("stale").IsValid())
}

func TestMemberRoleIsValid(t *testing.T) {
	for _, role := range []MemberRole{MemberRoleCustomer, MemberRoleShopper, MemberRoleAdmin} {
		assert.True(t, role.IsValid(), role)
	}
	assert.False(t, MemberRole("superuser").IsValid())
}
