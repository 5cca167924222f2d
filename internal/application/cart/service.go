package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	domcart "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/pkg/keylock"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService = "cart-service"

	useCaseGet        = "cart.get"
	useCaseAddItem    = "cart.add_item"
	useCaseUpdateItem = "cart.update_item"
	useCaseRemoveItem = "cart.remove_item"
	useCaseClear      = "cart.clear"
)

var ErrMissingProductID = apperr.WithCode(apperr.KindValidation, apperr.CodeMissingProductID, "product id is required")

type IDGenerator interface {
	NewID() string
}

type Deps struct {
	Carts   domcart.Repository
	Catalog catalog.Reader
	Ledger  inventory.Ledger
	IDs     IDGenerator
	// Locks is shared with checkout so a cart never changes under an
	// in-flight order for the same user.
	Locks *keylock.Locker
}

// Service owns every cart mutation. Mutations run on a copy of the stored
// cart and are saved only when they fully succeed.
type Service struct {
	carts   domcart.Repository
	catalog catalog.Reader
	ledger  inventory.Ledger
	ids     IDGenerator
	locks   *keylock.Locker
	ins     application.Instrumentation
}

func NewService(deps Deps, tel observability.Observability) *Service {
	locks := deps.Locks
	if locks == nil {
		locks = keylock.New()
	}
	return &Service{
		carts:   deps.Carts,
		catalog: deps.Catalog,
		ledger:  deps.Ledger,
		ids:     deps.IDs,
		locks:   locks,
		ins:     application.NewInstrumentation(tel, cartService),
	}
}

type AddItemInput struct {
	UserID    string
	ProductID string
	Quantity  int
}

type UpdateItemInput struct {
	UserID   string
	ItemID   string
	Quantity int
}

// GetCart returns the user's active cart, creating an empty one on first use.
func (s *Service) GetCart(ctx context.Context, userID string) (_ *domcart.Cart, err error) {
	ctx, run := s.ins.Start(ctx, useCaseGet, "GetCart", attribute.String("cart.user_id", userID))
	defer func() { run.End(err) }()

	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	c, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	run.Annotate(observability.F("cart_id", c.ID), observability.F("items", len(c.Items)))
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, in AddItemInput) (_ *domcart.Cart, err error) {
	ctx, run := s.ins.Start(ctx, useCaseAddItem, "AddItem",
		attribute.String("cart.user_id", in.UserID),
		attribute.String("cart.product_id", in.ProductID),
		attribute.Int("cart.quantity", in.Quantity),
	)
	defer func() { run.End(err) }()

	switch {
	case in.UserID == "":
		return nil, apperr.ErrUnauthorized
	case in.ProductID == "":
		return nil, ErrMissingProductID
	case in.Quantity < 1:
		return nil, invalidQuantity()
	}

	unlock, err := s.locks.Lock(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	product, err := s.catalog.Product(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("cart: product %s: %w", in.ProductID, err)
	}
	current, err := s.active(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	item, err := next.AddItem(s.ids.NewID(), product.ID, in.Quantity, product.Price)
	if err != nil {
		return nil, err
	}
	if err := s.ensureStock(ctx, item.ProductID, item.Quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}

	run.Annotate(observability.F("cart_id", next.ID), observability.F("line_quantity", item.Quantity))
	return next, nil
}

// UpdateItemQuantity sets an absolute quantity and refreshes the captured
// price to the live catalog price.
func (s *Service) UpdateItemQuantity(ctx context.Context, in UpdateItemInput) (_ *domcart.Cart, err error) {
	ctx, run := s.ins.Start(ctx, useCaseUpdateItem, "UpdateItemQuantity",
		attribute.String("cart.user_id", in.UserID),
		attribute.String("cart.item_id", in.ItemID),
		attribute.Int("cart.quantity", in.Quantity),
	)
	defer func() { run.End(err) }()

	if in.UserID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if in.Quantity < 1 {
		return nil, invalidQuantity()
	}

	unlock, err := s.locks.Lock(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.findActive(ctx, in.UserID, domcart.ErrItemNotFound)
	if err != nil {
		return nil, err
	}
	existing, ok := current.Item(in.ItemID)
	if !ok {
		return nil, domcart.ErrItemNotFound
	}
	product, err := s.catalog.Product(ctx, existing.ProductID)
	if err != nil {
		return nil, fmt.Errorf("cart: product %s: %w", existing.ProductID, err)
	}
	if err := s.ensureStock(ctx, existing.ProductID, in.Quantity); err != nil {
		return nil, err
	}

	next := current.Clone()
	if _, err := next.UpdateQuantity(in.ItemID, in.Quantity, product.Price); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}
	return next, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (_ *domcart.Cart, err error) {
	ctx, run := s.ins.Start(ctx, useCaseRemoveItem, "RemoveItem",
		attribute.String("cart.user_id", userID),
		attribute.String("cart.item_id", itemID),
	)
	defer func() { run.End(err) }()

	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.findActive(ctx, userID, domcart.ErrItemNotFound)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := next.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}
	return next, nil
}

// Clear empties the active cart. A user without one gets cart.ErrNotFound.
func (s *Service) Clear(ctx context.Context, userID string) (_ *domcart.Cart, err error) {
	ctx, run := s.ins.Start(ctx, useCaseClear, "Clear", attribute.String("cart.user_id", userID))
	defer func() { run.End(err) }()

	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.findActive(ctx, userID, domcart.ErrNotFound)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := next.Clear(); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}
	return next, nil
}

func (s *Service) active(ctx context.Context, userID string) (*domcart.Cart, error) {
	c, err := s.carts.GetOrCreateActive(ctx, domcart.New(s.ids.NewID(), userID))
	if err != nil {
		return nil, fmt.Errorf("cart: load active: %w", err)
	}
	return c, nil
}

// findActive loads the active cart, reporting missing as notFound.
func (s *Service) findActive(ctx context.Context, userID string, notFound error) (*domcart.Cart, error) {
	c, err := s.carts.FindActive(ctx, userID)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, domcart.ErrNotFound):
		return nil, notFound
	default:
		return nil, fmt.Errorf("cart: load active: %w", err)
	}
}

func (s *Service) ensureStock(ctx context.Context, productID string, quantity int) error {
	ok, err := s.ledger.CheckAvailable(ctx, productID, quantity)
	if err != nil {
		return fmt.Errorf("cart: stock %s: %w", productID, err)
	}
	if !ok {
		return apperr.OutOfStock(productID)
	}
	return nil
}

func invalidQuantity() error {
	return apperr.WithCode(apperr.KindValidation, apperr.CodeInvalidQuantity, "quantity must be at least 1")
}
