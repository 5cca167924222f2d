package httppresentation

import (
	"time"

	appinventory "github.com/Zhima-Mochi/jewelry-checkout/internal/application/inventory"
	domcart "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// money renders as a JSON number with exactly two decimals.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

type cartItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice money  `json:"unitPrice"`
	LineTotal money  `json:"lineTotal"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Status    domcart.Status     `json:"status"`
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"itemCount"`
	Total     money              `json:"total"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func toCartResponse(c *domcart.Cart) cartResponse {
	out := cartResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Status:    c.Status,
		Items:     make([]cartItemResponse, 0, len(c.Items)),
		Total:     money(c.Total()),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, it := range c.Items {
		line := pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
		out.Items = append(out.Items, cartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: money(it.UnitPrice),
			LineTotal: money(pricing.Round(line.Subtotal())),
		})
		out.ItemCount += it.Quantity
	}
	return out
}

type orderItemResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice money  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal money  `json:"lineTotal"`
}

type orderResponse struct {
	ID              string                   `json:"id"`
	UserID          string                   `json:"userId"`
	UserEmail       string                   `json:"userEmail,omitempty"`
	CartID          string                   `json:"cartId"`
	Status          domorder.Status          `json:"status"`
	Items           []orderItemResponse      `json:"items"`
	ShippingAddress domorder.ShippingAddress `json:"shippingAddress"`
	Payment         payment.Method           `json:"payment"`
	Subtotal        money                    `json:"subtotal"`
	Tax             money                    `json:"tax"`
	Shipping        money                    `json:"shipping"`
	Total           money                    `json:"total"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	out := orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		UserEmail:       o.UserEmail,
		CartID:          o.CartID,
		Status:          o.Status,
		Items:           make([]orderItemResponse, 0, len(o.Items)),
		ShippingAddress: o.Shipping,
		Payment:         o.Payment,
		Subtotal:        money(o.Totals.Subtotal),
		Tax:             money(o.Totals.Tax),
		Shipping:        money(o.Totals.Shipping),
		Total:           money(o.Totals.Total),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: money(it.UnitPrice),
			Quantity:  it.Quantity,
			LineTotal: money(it.LineTotal),
		})
	}
	return out
}

func toOrderList(orders []*domorder.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

type stockResponse struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
}

func toStockResponse(s appinventory.StockLevel) stockResponse {
	return stockResponse{ProductID: s.ProductID, Available: s.Available}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

type orderLineHint struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type paymentDetails struct {
	LastFourDigits string `json:"lastFourDigits,omitempty"`
	CardHolder     string `json:"cardHolder,omitempty"`
}

// placeOrderRequest mirrors the storefront checkout form. Items and Total
// are what the client saw; the server cart is what gets ordered.
type placeOrderRequest struct {
	Items           []orderLineHint          `json:"items,omitempty"`
	ShippingAddress domorder.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   payment.Kind             `json:"paymentMethod"`
	PaymentDetails  *paymentDetails          `json:"paymentDetails,omitempty"`
	Total           *decimal.Decimal         `json:"total,omitempty"`
}

func (r placeOrderRequest) method() payment.Method {
	m := payment.Method{Kind: r.PaymentMethod}
	if r.PaymentDetails != nil {
		m.LastFourDigits = r.PaymentDetails.LastFourDigits
		m.CardHolder = r.PaymentDetails.CardHolder
	}
	return m
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}
