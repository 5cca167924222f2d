// Package apperr defines the error taxonomy shared by every core component.
// Errors carry a Kind (the taxonomy bucket the transport maps to a status),
// an optional Code refining it and, for stock failures, the product id.
package apperr

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindOutOfStock        Kind = "OutOfStock"
	KindNotFound          Kind = "NotFound"
	KindInvalidTransition Kind = "InvalidTransition"
	KindInsufficientStock Kind = "InsufficientStock"
	KindConflict          Kind = "Conflict"
	KindForbidden         Kind = "Forbidden"
	KindUnauthorized      Kind = "Unauthorized"
)

const (
	CodeInvalidQuantity        = "InvalidQuantity"
	CodeEmptyCart              = "EmptyCart"
	CodeInvalidShippingAddress = "InvalidShippingAddress"
	CodeInvalidPaymentMethod   = "InvalidPaymentMethod"
	CodeMissingProductID       = "MissingProductID"
)

// Codes that tell apart the NotFound and Conflict sentinels of each store.
const (
	CodeProductNotFound  = "ProductNotFound"
	CodeStockNotFound    = "StockNotFound"
	CodeCartNotFound     = "CartNotFound"
	CodeCartItemNotFound = "CartItemNotFound"
	CodeCartNotActive    = "CartNotActive"
	CodeOrderNotFound    = "OrderNotFound"
	CodeOrderConflict    = "OrderConflict"
)

// Error is the typed error surfaced by the core.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	ProductID string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.ProductID != "" {
		b.WriteString(" (product ")
		b.WriteString(e.ProductID)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind. A target that sets Code or ProductID must match those as well,
// which lets sentinels such as ErrOutOfStock match every product while
// OutOfStock("ring-1") only matches that product.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	if t.ProductID != "" && t.ProductID != e.ProductID {
		return false
	}
	return true
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrOutOfStock        = &Error{Kind: KindOutOfStock}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}

	ErrEmptyCart              = &Error{Kind: KindValidation, Code: CodeEmptyCart}
	ErrInvalidQuantity        = &Error{Kind: KindValidation, Code: CodeInvalidQuantity}
	ErrInvalidShippingAddress = &Error{Kind: KindValidation, Code: CodeInvalidShippingAddress}
	ErrInvalidPaymentMethod   = &Error{Kind: KindValidation, Code: CodeInvalidPaymentMethod}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func WithCode(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// OutOfStock reports that the requested quantity of productID exceeds live availability.
func OutOfStock(productID string) *Error {
	return &Error{Kind: KindOutOfStock, Message: "out of stock", ProductID: productID}
}

// Wrap attaches cause to a copy of e so callers can keep errors.Is on both.
func Wrap(e *Error, cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}
