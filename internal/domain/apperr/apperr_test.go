package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesKind(t *testing.T) {
	err := fmt.Errorf("checkout: %w", OutOfStock("ring-1"))

	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.ErrorIs(t, err, OutOfStock("ring-1"))
	assert.NotErrorIs(t, err, OutOfStock("ring-2"))
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestIs_MatchesCode(t *testing.T) {
	err := WithCode(KindValidation, CodeEmptyCart, "cart is empty")

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.NotErrorIs(t, err, ErrInvalidQuantity)
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrConflict, cause)

	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Conflict: connection reset", err.Error())
	assert.Nil(t, ErrConflict.Err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("x: %w", NotFound("order: not found"))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestError_MessageIncludesProduct(t *testing.T) {
	assert.Equal(t, "out of stock (product ring-1)", OutOfStock("ring-1").Error())
}
