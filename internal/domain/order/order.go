package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = apperr.WithCode(apperr.KindNotFound, apperr.CodeOrderNotFound, "order: not found")
	ErrConflict               = apperr.WithCode(apperr.KindConflict, apperr.CodeOrderConflict, "order: already exists")
	ErrInvalidStateTransition = apperr.New(apperr.KindInvalidTransition, "order: invalid status transition")
	ErrNoItems                = apperr.ErrEmptyCart
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := states[st]; !ok {
		return "", apperr.Validation(fmt.Sprintf("order: unknown status %q", s))
	}
	return st, nil
}

type LineItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

type ShippingAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	PhoneNumber  string `json:"phoneNumber"`
}

// Validate reports every missing required field at once.
func (a ShippingAddress) Validate() error {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"fullName", a.FullName},
		{"addressLine1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
		{"phoneNumber", a.PhoneNumber},
	} {
		if strings.TrimSpace(f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperr.WithCode(apperr.KindValidation, apperr.CodeInvalidShippingAddress,
			"shipping address is missing "+strings.Join(missing, ", "))
	}
	return nil
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Order is immutable once placed, apart from its status.
type Order struct {
	ID             string
	UserID         string
	UserEmail      string
	CartID         string
	IdempotencyKey string
	Items          []LineItem
	Shipping       ShippingAddress
	Payment        payment.Method
	Totals         Totals
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time

	state OrderState
}

type Draft struct {
	ID             string
	UserID         string
	UserEmail      string
	CartID         string
	IdempotencyKey string
	Items          []LineItem
	Shipping       ShippingAddress
	Payment        payment.Method
}

// New prices the draft under policy and returns a pending order.
func New(d Draft, policy pricing.Policy) (*Order, error) {
	if len(d.Items) == 0 {
		return nil, ErrNoItems
	}
	lines := make([]pricing.Line, 0, len(d.Items))
	items := make([]LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		if it.Quantity < 1 {
			return nil, apperr.ErrInvalidQuantity
		}
		l := pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
		it.LineTotal = pricing.Round(l.Subtotal())
		lines = append(lines, l)
		items = append(items, it)
	}
	q := policy.Quote(lines)

	now := time.Now().UTC()
	o := &Order{
		ID:             d.ID,
		UserID:         d.UserID,
		UserEmail:      d.UserEmail,
		CartID:         d.CartID,
		IdempotencyKey: d.IdempotencyKey,
		Items:          items,
		Shipping:       d.Shipping,
		Payment:        d.Payment,
		Totals: Totals{
			Subtotal: q.Subtotal,
			Tax:      q.Tax,
			Shipping: q.Shipping,
			Total:    q.Total,
		},
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.state = pendingState{}
	return o, nil
}

func (o *Order) OwnedBy(userID string) bool { return o.UserID == userID }

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
