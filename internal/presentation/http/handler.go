package httppresentation

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application"
	appcart "github.com/Zhima-Mochi/jewelry-checkout/internal/application/cart"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/application/checkout"
	appinventory "github.com/Zhima-Mochi/jewelry-checkout/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/jewelry-checkout/internal/application/order"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	domcart "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/identity"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domcart.Cart, error)
	AddItem(ctx context.Context, in appcart.AddItemInput) (*domcart.Cart, error)
	UpdateItemQuantity(ctx context.Context, in appcart.UpdateItemInput) (*domcart.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*domcart.Cart, error)
	Clear(ctx context.Context, userID string) (*domcart.Cart, error)
}

type OrderService interface {
	Get(ctx context.Context, requester identity.Principal, id string) (*domorder.Order, error)
	ListForUser(ctx context.Context, requester identity.Principal) ([]*domorder.Order, error)
	ListAll(ctx context.Context, requester identity.Principal, filter domorder.ListFilter) ([]*domorder.Order, error)
	UpdateStatus(ctx context.Context, in apporder.UpdateStatusInput) (*domorder.Order, error)
}

type InventoryService interface {
	Restock(ctx context.Context, in appinventory.RestockInput) (appinventory.StockLevel, error)
	StockLevel(ctx context.Context, productID string) (appinventory.StockLevel, error)
}

type Options struct {
	ServiceName string
	Cart        CartService
	Checkout    application.UseCase[checkout.PlaceOrderInput, *checkout.PlaceOrderResult]
	Orders      OrderService
	Inventory   InventoryService
	Auth        Authenticator
	// Metrics serves GET /metrics when set.
	Metrics        http.Handler
	RateLimitRPS   float64
	RateLimitBurst int
}

type Handler struct {
	service   string
	cart      CartService
	checkout  application.UseCase[checkout.PlaceOrderInput, *checkout.PlaceOrderResult]
	orders    OrderService
	inventory InventoryService
	auth      Authenticator
	metrics   http.Handler
	limiter   *userLimiter

	log      observability.Logger
	requests observability.Counter   // http_requests_total{method,route,status}
	duration observability.Histogram // http_request_duration_seconds{method,route,status}
}

func NewHandler(opts Options, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "jewelry-checkout"
	}
	return &Handler{
		service:   opts.ServiceName,
		cart:      opts.Cart,
		checkout:  opts.Checkout,
		orders:    opts.Orders,
		inventory: opts.Inventory,
		auth:      opts.Auth,
		metrics:   opts.Metrics,
		limiter:   newUserLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		log:       tel.Logger().With(observability.F("component", componentHTTPHandler)),
		requests:  tel.Metrics().Counter(observability.MHTTPRequests),
		duration:  tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

type access int

const (
	public access = iota
	authenticated
)

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, "GET /health", public, h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	h.muxHandle(mux, "GET /cart", authenticated, h.handleGetCart)
	h.muxHandle(mux, "POST /cart/items", authenticated, h.handleAddItem)
	h.muxHandle(mux, "PUT /cart/items/{itemId}", authenticated, h.handleUpdateItem)
	h.muxHandle(mux, "DELETE /cart/items/{itemId}", authenticated, h.handleRemoveItem)
	h.muxHandle(mux, "DELETE /cart", authenticated, h.handleClearCart)

	h.muxHandle(mux, "POST /orders", authenticated, h.handlePlaceOrder)
	h.muxHandle(mux, "GET /orders", authenticated, h.handleListOrders)
	h.muxHandle(mux, "GET /orders/{id}", authenticated, h.handleGetOrder)
	h.muxHandle(mux, "PUT /orders/{id}", authenticated, h.handleUpdateOrderStatus)
	h.muxHandle(mux, "GET /admin/orders", authenticated, h.handleListAllOrders)

	h.muxHandle(mux, "GET /inventory/{productId}", public, h.handleStockLevel)
	h.muxHandle(mux, "POST /admin/inventory/{productId}/restock", authenticated, h.handleRestock)

	return mux
}

// muxHandle wires pattern through
// Trace → Request Logger → Auth → Rate Limit → Metrics → Access Log → Handler.
func (h *Handler) muxHandle(mux *http.ServeMux, pattern string, a access, handler http.HandlerFunc) {
	var next http.Handler = h.withAccessLog(h.withHTTPMetrics(handler))
	if a == authenticated {
		next = h.withAuth(h.withRateLimit(next))
	}
	wrapped := h.withTrace(ObservabilityMiddleware(h.log)(next))

	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), pattern)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// principal is only called behind withAuth.
func principal(r *http.Request) identity.Principal {
	p, _ := principalFrom(r.Context())
	return p
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cart.GetCart(r.Context(), principal(r).UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	c, err := h.cart.AddItem(r.Context(), appcart.AddItemInput{
		UserID:    principal(r).UserID,
		ProductID: req.ProductID,
		Quantity:  qty,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.Quantity == nil {
		writeDomainError(w, r, apperr.WithCode(apperr.KindValidation, apperr.CodeInvalidQuantity, "quantity is required"))
		return
	}
	c, err := h.cart.UpdateItemQuantity(r.Context(), appcart.UpdateItemInput{
		UserID:   principal(r).UserID,
		ItemID:   r.PathValue("itemId"),
		Quantity: *req.Quantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.cart.RemoveItem(r.Context(), principal(r).UserID, r.PathValue("itemId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cart.Clear(r.Context(), principal(r).UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := h.checkout.Execute(r.Context(), checkout.PlaceOrderInput{
		Principal:      principal(r),
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
		Shipping:       req.ShippingAddress,
		Payment:        req.method(),
		ClientTotal:    req.Total,
	})
	if err != nil {
		status := statusOf(err)
		if apperr.KindOf(err) == apperr.KindOutOfStock {
			status = http.StatusConflict
		}
		writeDomainErrorStatus(w, r, status, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		w.Header().Set(headerReplayed, "true")
		status = http.StatusOK
	}
	writeData(w, status, toOrderResponse(res.Order))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForUser(r.Context(), principal(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toOrderList(orders))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), apporder.UpdateStatusInput{
		Requester: principal(r),
		OrderID:   r.PathValue("id"),
		Status:    req.Status,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	var filter domorder.ListFilter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		st, err := domorder.ParseStatus(s)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		filter.Status = st
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeDomainError(w, r, apperr.Validation("limit must be a positive integer"))
			return
		}
		filter.Limit = n
	}
	orders, err := h.orders.ListAll(r.Context(), principal(r), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toOrderList(orders))
}

func (h *Handler) handleStockLevel(w http.ResponseWriter, r *http.Request) {
	lvl, err := h.inventory.StockLevel(r.Context(), r.PathValue("productId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toStockResponse(lvl))
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	lvl, err := h.inventory.Restock(r.Context(), appinventory.RestockInput{
		Requester: principal(r),
		ProductID: r.PathValue("productId"),
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toStockResponse(lvl))
}
