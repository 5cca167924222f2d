package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	domcart "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/identity"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/pricing"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/pkg/keylock"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	checkoutService     = "checkout-service"
	useCasePlaceOrder   = "checkout.place_order"
	defaultCommitWindow = 5 * time.Second
	defaultValidateFan  = 8
)

var ErrCommitTimeout = errors.New("checkout: commit deadline exceeded")

type Deps struct {
	Carts     domcart.Repository
	Orders    domorder.Repository
	Catalog   catalog.Reader
	Ledger    inventory.Ledger
	Work      UnitOfWork
	IDs       IDGenerator
	Locks     *keylock.Locker
	Publisher domoutbox.Publisher
}

type Options struct {
	Policy        pricing.Policy
	CommitTimeout time.Duration
	// ValidateConcurrency bounds parallel stock checks per checkout.
	ValidateConcurrency int
}

type PlaceOrderInput struct {
	Principal      identity.Principal
	IdempotencyKey string
	Shipping       domorder.ShippingAddress
	Payment        payment.Method
	// ClientTotal is what the client believes the cart costs. It is only
	// compared and logged; the stored cart decides the price.
	ClientTotal *decimal.Decimal
}

type PlaceOrderResult struct {
	Order    *domorder.Order
	Replayed bool
}

// PlaceOrderUseCase turns the caller's active cart into an order. Stock
// decrements, the order insert and the cart conversion commit together or
// not at all; any failure leaves the cart active.
type PlaceOrderUseCase struct {
	carts     domcart.Repository
	orders    domorder.Repository
	catalog   catalog.Reader
	ledger    inventory.Ledger
	work      UnitOfWork
	ids       IDGenerator
	locks     *keylock.Locker
	publisher domoutbox.Publisher

	policy        pricing.Policy
	commitTimeout time.Duration
	fan           int

	ins       application.Instrumentation
	rollbacks observability.Counter // checkout_rollbacks_total{reason}
}

var _ application.UseCase[PlaceOrderInput, *PlaceOrderResult] = (*PlaceOrderUseCase)(nil)

func NewPlaceOrderUseCase(deps Deps, opts Options, tel observability.Observability) *PlaceOrderUseCase {
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaultCommitWindow
	}
	if opts.ValidateConcurrency <= 0 {
		opts.ValidateConcurrency = defaultValidateFan
	}
	locks := deps.Locks
	if locks == nil {
		locks = keylock.New()
	}
	ins := application.NewInstrumentation(tel, checkoutService)
	return &PlaceOrderUseCase{
		carts:         deps.Carts,
		orders:        deps.Orders,
		catalog:       deps.Catalog,
		ledger:        deps.Ledger,
		work:          deps.Work,
		ids:           deps.IDs,
		locks:         locks,
		publisher:     deps.Publisher,
		policy:        opts.Policy,
		commitTimeout: opts.CommitTimeout,
		fan:           opts.ValidateConcurrency,
		ins:           ins,
		rollbacks:     ins.Metrics().Counter(observability.MCheckoutRollbacks),
	}
}

func (uc *PlaceOrderUseCase) Execute(ctx context.Context, in PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	userID := in.Principal.UserID
	ctx, run := uc.ins.Start(ctx, useCasePlaceOrder, "PlaceOrder",
		attribute.String("checkout.user_id", userID),
		attribute.Bool("checkout.idempotent", in.IdempotencyKey != ""),
	)
	defer func() { run.End(err) }()

	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if err := in.Shipping.Validate(); err != nil {
		return nil, err
	}
	method, err := in.Payment.Normalize()
	if err != nil {
		return nil, err
	}

	unlock, err := uc.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if replay, err := uc.replay(ctx, run, userID, in.IdempotencyKey); replay != nil || err != nil {
		return replay, err
	}

	c, err := uc.carts.FindActive(ctx, userID)
	switch {
	case errors.Is(err, domcart.ErrNotFound):
		return nil, apperr.ErrEmptyCart
	case err != nil:
		return nil, fmt.Errorf("checkout: load cart: %w", err)
	case c.IsEmpty():
		return nil, apperr.ErrEmptyCart
	}
	run.Annotate(observability.F("cart_id", c.ID))

	names, err := uc.validate(ctx, c)
	if err != nil {
		return nil, err
	}

	draft := domorder.Draft{
		ID:             uc.ids.NewID(),
		UserID:         userID,
		UserEmail:      in.Principal.Email,
		CartID:         c.ID,
		IdempotencyKey: in.IdempotencyKey,
		Shipping:       in.Shipping,
		Payment:        method,
	}
	for i, it := range c.Items {
		draft.Items = append(draft.Items, domorder.LineItem{
			ProductID: it.ProductID,
			Name:      names[i],
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	o, err := domorder.New(draft, uc.policy)
	if err != nil {
		return nil, fmt.Errorf("checkout: build order: %w", err)
	}
	if in.ClientTotal != nil && !in.ClientTotal.Equal(o.Totals.Total) {
		run.Logger().Warn("client_total_mismatch",
			observability.F("client_total", in.ClientTotal.StringFixed(2)),
			observability.F("server_total", o.Totals.Total.StringFixed(2)),
		)
	}

	if err := uc.commit(ctx, o); err != nil {
		reason := rollbackReason(err)
		uc.rollbacks.Add(1, observability.L("reason", reason))
		run.Annotate(observability.F("rollback_reason", reason))

		if errors.Is(err, domorder.ErrConflict) && in.IdempotencyKey != "" {
			if replay, rerr := uc.replay(ctx, run, userID, in.IdempotencyKey); replay != nil && rerr == nil {
				return replay, nil
			}
		}
		return nil, err
	}

	run.Span().SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.String("order.total", o.Totals.Total.StringFixed(2)),
	)
	run.Annotate(
		observability.F("order_id", o.ID),
		observability.F("total", o.Totals.Total.StringFixed(2)),
		observability.F("payment_method", string(o.Payment.Kind)),
	)
	_ = run.Publish(ctx, uc.publisher, domorder.NewOrderPlacedEvent(o))

	return &PlaceOrderResult{Order: o}, nil
}

// replay returns the order previously placed under key, or nil when there
// is none.
func (uc *PlaceOrderUseCase) replay(ctx context.Context, run *application.Run, userID, key string) (*PlaceOrderResult, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := uc.orders.FindByIdempotency(ctx, userID, key)
	switch {
	case errors.Is(err, domorder.ErrNotFound):
		return nil, nil
	case err != nil:
		run.Fail("IDEMPOTENCY_LOOKUP_FAILED")
		return nil, fmt.Errorf("checkout: idempotency lookup: %w", err)
	}
	run.Status("IDEMPOTENT_REPLAY")
	run.Span().AddEvent("order.idempotent_replay",
		trace.WithAttributes(attribute.String("order.id", existing.ID)),
	)
	return &PlaceOrderResult{Order: existing, Replayed: true}, nil
}

// validate re-checks live stock for every line and loads its display
// name. names[i] belongs to c.Items[i].
func (uc *PlaceOrderUseCase) validate(ctx context.Context, c *domcart.Cart) ([]string, error) {
	names := make([]string, len(c.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.fan)
	for i, it := range c.Items {
		g.Go(func() error {
			ok, err := uc.ledger.CheckAvailable(gctx, it.ProductID, it.Quantity)
			if err != nil {
				return unavailable(it.ProductID, err)
			}
			if !ok {
				return apperr.OutOfStock(it.ProductID)
			}
			p, err := uc.catalog.Product(gctx, it.ProductID)
			if err != nil {
				return unavailable(it.ProductID, err)
			}
			names[i] = p.Name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

func (uc *PlaceOrderUseCase) commit(ctx context.Context, o *domorder.Order) error {
	cctx, cancel := context.WithTimeout(ctx, uc.commitTimeout)
	defer cancel()

	lines := append([]domorder.LineItem(nil), o.Items...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	err := uc.work.Do(cctx, func(ctx context.Context, tx Tx) error {
		for _, it := range lines {
			if err := tx.Decrement(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, inventory.ErrInsufficientStock) {
					return apperr.Wrap(apperr.OutOfStock(it.ProductID), err)
				}
				return unavailable(it.ProductID, err)
			}
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("checkout: insert order: %w", err)
		}
		if err := tx.ConvertCart(ctx, o.CartID); err != nil {
			return fmt.Errorf("checkout: convert cart: %w", err)
		}
		return nil
	})
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %w", ErrCommitTimeout, err)
	}
	return err
}

// unavailable reports a product the ledger or catalog no longer knows as
// out of stock; any other failure passes through wrapped.
func unavailable(productID string, err error) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.Wrap(apperr.OutOfStock(productID), err)
	}
	return fmt.Errorf("checkout: product %s: %w", productID, err)
}

func rollbackReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ErrCommitTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
