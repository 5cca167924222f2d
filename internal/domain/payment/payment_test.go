package payment

import (
	"testing"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DefaultsToCard(t *testing.T) {
	m, err := Method{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, KindCard, m.Kind)
}

func TestNormalize_CashDropsCardDetails(t *testing.T) {
	m, err := Method{Kind: KindCashOnDelivery, LastFourDigits: "4242"}.Normalize()
	require.NoError(t, err)
	assert.Empty(t, m.LastFourDigits)
}

func TestNormalize_Rejects(t *testing.T) {
	cases := map[string]Method{
		"unknown kind":    {Kind: "crypto"},
		"short digits":    {Kind: KindCard, LastFourDigits: "424"},
		"non digit chars": {Kind: KindCard, LastFourDigits: "42a2"},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Normalize()
			assert.ErrorIs(t, err, apperr.ErrInvalidPaymentMethod)
		})
	}
}
