// Package identity verifies bearer tokens issued by the external identity
// provider and turns their claims into a domain principal.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/identity"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = apperr.New(apperr.KindUnauthorized, "invalid or expired token")

// Claims are the JWT claims the storefront expects.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type Options struct {
	Secret   []byte
	Issuer   string
	Audience string
	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration
}

// Verifier validates HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
	opts   Options
}

func NewVerifier(opts Options) (*Verifier, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("identity: secret is required")
	}
	popts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(opts.Leeway),
	}
	if opts.Issuer != "" {
		popts = append(popts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		popts = append(popts, jwt.WithAudience(opts.Audience))
	}
	return &Verifier{secret: opts.Secret, parser: jwt.NewParser(popts...), opts: opts}, nil
}

func (v *Verifier) Verify(token string) (domain.Principal, error) {
	claims := &Claims{}
	tok, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return domain.Principal{}, apperr.Wrap(ErrInvalidToken, err)
	}
	if !tok.Valid {
		return domain.Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return domain.Principal{}, apperr.Wrap(ErrInvalidToken, errors.New("token subject is required"))
	}

	role := domain.RoleCustomer
	if claims.Role == string(domain.RoleAdmin) {
		role = domain.RoleAdmin
	}
	return domain.Principal{UserID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// Issue signs a token for p. Only tests and local tooling mint tokens.
func (v *Verifier) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    v.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: p.Email,
		Role:  string(p.Role),
	}
	if v.opts.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.opts.Audience}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign: %w", err)
	}
	return s, nil
}
