package inventory

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/identity"
	dominv "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService  = "inventory-service"
	useCaseRestock    = "inventory.restock"
	useCaseStockLevel = "inventory.stock_level"
)

var ErrAdminOnly = apperr.New(apperr.KindForbidden, "inventory: admin role required")

type StockLevel struct {
	ProductID string
	Available int
}

type Service struct {
	ledger    dominv.Ledger
	publisher domoutbox.Publisher
	ins       application.Instrumentation
}

func NewService(ledger dominv.Ledger, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	return &Service{
		ledger:    ledger,
		publisher: publisher,
		ins:       application.NewInstrumentation(tel, inventoryService),
	}
}

type RestockInput struct {
	Requester identity.Principal
	ProductID string
	Quantity  int
}

// Restock adds units to a product's stock. There is no upper bound.
func (s *Service) Restock(ctx context.Context, in RestockInput) (_ StockLevel, err error) {
	ctx, run := s.ins.Start(ctx, useCaseRestock, "Restock",
		attribute.String("inventory.product_id", in.ProductID),
		attribute.Int("inventory.quantity", in.Quantity),
	)
	defer func() { run.End(err) }()

	if !in.Requester.IsAdmin() {
		return StockLevel{}, ErrAdminOnly
	}
	if in.ProductID == "" {
		return StockLevel{}, apperr.WithCode(apperr.KindValidation, apperr.CodeMissingProductID, "product id is required")
	}
	if in.Quantity < 1 {
		return StockLevel{}, dominv.ErrInvalidQuantity
	}

	if err := s.ledger.Restock(ctx, in.ProductID, in.Quantity); err != nil {
		return StockLevel{}, fmt.Errorf("inventory: restock %s: %w", in.ProductID, err)
	}
	available, err := s.ledger.Available(ctx, in.ProductID)
	if err != nil {
		return StockLevel{}, fmt.Errorf("inventory: read %s: %w", in.ProductID, err)
	}

	run.Annotate(observability.F("available", available))
	_ = run.Publish(ctx, s.publisher, dominv.NewStockRestockedEvent(in.ProductID, in.Quantity, available, in.Requester.UserID))
	return StockLevel{ProductID: in.ProductID, Available: available}, nil
}

func (s *Service) StockLevel(ctx context.Context, productID string) (_ StockLevel, err error) {
	ctx, run := s.ins.Start(ctx, useCaseStockLevel, "StockLevel", attribute.String("inventory.product_id", productID))
	defer func() { run.End(err) }()

	available, err := s.ledger.Available(ctx, productID)
	if err != nil {
		return StockLevel{}, err
	}
	return StockLevel{ProductID: productID, Available: available}, nil
}
