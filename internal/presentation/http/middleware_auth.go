package httppresentation

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/identity"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability/logctx"
	"golang.org/x/time/rate"
)

// Authenticator verifies a bearer token issued by the identity provider.
type Authenticator interface {
	Verify(token string) (identity.Principal, error)
}

var errMissingBearer = apperr.New(apperr.KindUnauthorized, "missing bearer token")

func principalFrom(ctx context.Context) (identity.Principal, bool) {
	return identity.FromContext(ctx)
}

// withAuth rejects requests without a valid bearer token and binds the
// verified principal, and its user id on the request logger, into the context.
func (h *Handler) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearer(r.Header.Get("Authorization"))
		if !ok {
			writeDomainError(w, r, errMissingBearer)
			return
		}
		p, err := h.auth.Verify(token)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		ctx := identity.WithPrincipal(r.Context(), p)
		ctx, _ = logctx.Enrich(ctx, h.log, observability.F("user_id", p.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// userLimiter keeps one token bucket per user.
type userLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

func newUserLimiter(rps float64, burst int) *userLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &userLimiter{limit: rate.Limit(rps), burst: burst, buckets: make(map[string]*rate.Limiter)}
}

func (l *userLimiter) allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

const kindRateLimited apperr.Kind = "RateLimited"

var errRateLimited = apperr.New(kindRateLimited, "too many requests")

func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if p, ok := principalFrom(r.Context()); ok {
			key = p.UserID
		}
		if !h.limiter.allow(key) {
			w.Header().Set("Retry-After", "1")
			writeDomainErrorStatus(w, r, http.StatusTooManyRequests, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
