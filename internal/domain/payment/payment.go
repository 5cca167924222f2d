// Package payment describes how an order will be paid. Nothing here captures
// funds; the descriptor is stored with the order as opaque metadata.
package payment

import (
	"fmt"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
)

type Kind string

const (
	KindCard           Kind = "card"
	KindCashOnDelivery Kind = "cash_on_delivery"
)

type Method struct {
	Kind           Kind   `json:"kind"`
	LastFourDigits string `json:"lastFourDigits,omitempty"`
	CardHolder     string `json:"cardHolder,omitempty"`
}

// Normalize defaults an empty kind to card and validates the descriptor.
func (m Method) Normalize() (Method, error) {
	if m.Kind == "" {
		m.Kind = KindCard
	}
	switch m.Kind {
	case KindCard:
	case KindCashOnDelivery:
		m.LastFourDigits, m.CardHolder = "", ""
	default:
		return Method{}, apperr.WithCode(apperr.KindValidation, apperr.CodeInvalidPaymentMethod,
			fmt.Sprintf("unsupported payment method %q", m.Kind))
	}
	if m.LastFourDigits != "" && !fourDigits(m.LastFourDigits) {
		return Method{}, apperr.WithCode(apperr.KindValidation, apperr.CodeInvalidPaymentMethod,
			"lastFourDigits must be exactly 4 digits")
	}
	return m, nil
}

func fourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
