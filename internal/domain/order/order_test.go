package order

import (
	"testing"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() ShippingAddress {
	return ShippingAddress{
		FullName:     "Ada Lovelace",
		AddressLine1: "1 Gem Street",
		City:         "London",
		State:        "LDN",
		PostalCode:   "N1 9GU",
		Country:      "UK",
		PhoneNumber:  "+44 20 7946 0000",
	}
}

func newOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New(Draft{
		ID:     "o1",
		UserID: "u1",
		Items: []LineItem{
			{ProductID: "ring-1", Name: "Ring", UnitPrice: decimal.RequireFromString("50.00"), Quantity: 2},
		},
		Shipping: validAddress(),
		Payment:  payment.Method{Kind: payment.KindCard},
	}, pricing.DefaultPolicy())
	require.NoError(t, err)
	return o
}

func TestNew_PricesDraft(t *testing.T) {
	o := newOrder(t)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "100.00", o.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "100.00", o.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", o.Totals.Tax.StringFixed(2))
	assert.Equal(t, "110.00", o.Totals.Total.StringFixed(2))
}

func TestNew_RequiresItems(t *testing.T) {
	_, err := New(Draft{ID: "o1", UserID: "u1"}, pricing.DefaultPolicy())
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
}

func TestShippingAddress_Validate(t *testing.T) {
	require.NoError(t, validAddress().Validate())

	a := validAddress()
	a.City, a.PhoneNumber = "", " "
	err := a.Validate()
	require.ErrorIs(t, err, apperr.ErrInvalidShippingAddress)
	assert.Contains(t, err.Error(), "city, phoneNumber")
}

func TestTransitions_HappyPath(t *testing.T) {
	o := newOrder(t)
	for _, s := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
		require.NoError(t, o.TransitionTo(s))
		assert.Equal(t, s, o.Status)
	}
}

func TestTransitions_Rejected(t *testing.T) {
	cases := []struct {
		path []Status
		to   Status
	}{
		{nil, StatusShipped},
		{nil, StatusDelivered},
		{nil, StatusPending},
		{[]Status{StatusProcessing}, StatusPending},
		{[]Status{StatusProcessing, StatusShipped, StatusDelivered}, StatusCancelled},
		{[]Status{StatusCancelled}, StatusProcessing},
	}
	for _, tc := range cases {
		o := newOrder(t)
		for _, s := range tc.path {
			require.NoError(t, o.TransitionTo(s))
		}
		before := o.Status
		err := o.TransitionTo(tc.to)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "%v -> %s", tc.path, tc.to)
		assert.Equal(t, before, o.Status)
	}
}

func TestTransitions_CancelFromNonTerminal(t *testing.T) {
	for _, path := range [][]Status{nil, {StatusProcessing}, {StatusProcessing, StatusShipped}} {
		o := newOrder(t)
		for _, s := range path {
			require.NoError(t, o.TransitionTo(s))
		}
		require.NoError(t, o.TransitionTo(StatusCancelled))
	}
}

func TestTransitions_TerminalStatesRefuseCancel(t *testing.T) {
	for status, st := range states {
		o := &Order{ID: "o1", Status: status}
		err := o.TransitionTo(StatusCancelled)
		if st.Terminal() {
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "%s", status)
			assert.Equal(t, status, o.Status)
			continue
		}
		require.NoError(t, err, "%s", status)
		assert.Equal(t, StatusCancelled, o.Status)
	}
	assert.True(t, states[StatusDelivered].Terminal())
	assert.True(t, states[StatusCancelled].Terminal())
}

func TestTransitions_FromLoadedStatus(t *testing.T) {
	o := &Order{ID: "o1", Status: StatusShipped}
	require.NoError(t, o.TransitionTo(StatusDelivered))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("refunded")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
