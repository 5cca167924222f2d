package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/identity"
	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	orderService = "order-service"

	useCaseGet          = "order.get"
	useCaseListForUser  = "order.list_for_user"
	useCaseListAll      = "order.list_all"
	useCaseUpdateStatus = "order.update_status"
)

var ErrAdminOnly = apperr.New(apperr.KindForbidden, "order: admin role required")

// Service reads orders on behalf of a principal and applies admin status
// changes.
type Service struct {
	repo      domain.Repository
	publisher domoutbox.Publisher
	ins       application.Instrumentation
}

func NewService(repo domain.Repository, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		ins:       application.NewInstrumentation(tel, orderService),
	}
}

// Get returns the order if requester owns it or is an admin. Anyone else
// sees ErrNotFound, so order ids cannot be probed.
func (s *Service) Get(ctx context.Context, requester identity.Principal, id string) (_ *domain.Order, err error) {
	ctx, run := s.ins.Start(ctx, useCaseGet, "GetOrder", attribute.String("order.id", id))
	defer func() { run.End(err) }()

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	if !o.OwnedBy(requester.UserID) && !requester.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, requester identity.Principal) (_ []*domain.Order, err error) {
	ctx, run := s.ins.Start(ctx, useCaseListForUser, "ListOrders", attribute.String("order.user_id", requester.UserID))
	defer func() { run.End(err) }()

	if requester.UserID == "" {
		return nil, apperr.ErrUnauthorized
	}
	orders, err := s.repo.ListByUser(ctx, requester.UserID)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	run.Annotate(observability.F("count", len(orders)))
	return orders, nil
}

// ListAll is the admin view over every order, optionally filtered by status.
func (s *Service) ListAll(ctx context.Context, requester identity.Principal, filter domain.ListFilter) (_ []*domain.Order, err error) {
	ctx, run := s.ins.Start(ctx, useCaseListAll, "ListAllOrders", attribute.String("order.status_filter", string(filter.Status)))
	defer func() { run.End(err) }()

	if !requester.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListLimit
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	run.Annotate(observability.F("count", len(orders)))
	return orders, nil
}

type UpdateStatusInput struct {
	Requester identity.Principal
	OrderID   string
	Status    string
}

// UpdateStatus moves an order through its lifecycle. The write is a
// compare-and-set on the status read here, so two admins racing on the
// same order cannot skip a state.
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (_ *domain.Order, err error) {
	ctx, run := s.ins.Start(ctx, useCaseUpdateStatus, "UpdateOrderStatus",
		attribute.String("order.id", in.OrderID),
		attribute.String("order.target_status", in.Status),
	)
	defer func() { run.End(err) }()

	if !in.Requester.IsAdmin() {
		return nil, ErrAdminOnly
	}
	to, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.Get(ctx, in.OrderID)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	from := o.Status
	if err := o.TransitionTo(to); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, o.ID, from, o.Status, o.UpdatedAt); err != nil {
		return nil, wrapRepositoryError(err)
	}

	run.Annotate(
		observability.F("from", string(from)),
		observability.F("to", string(o.Status)),
	)
	_ = run.Publish(ctx, s.publisher, domain.NewOrderStatusChangedEvent(o, from, in.Requester.UserID))
	return o, nil
}

func wrapRepositoryError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrConflict):
		return err
	default:
		return fmt.Errorf("order: repository: %w", err)
	}
}
