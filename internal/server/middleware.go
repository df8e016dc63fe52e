package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/sustainboard/esg-cli/internal/auth"
	"github.com/sustainboard/esg-cli/internal/model"
)

type ctxKey int

const claimsKey ctxKey = iota

// claimsFrom returns the authenticated claims stored by the middleware.
func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}

// authenticate rejects requests without a valid bearer token and stores
// the claims on the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// adminOnly guards the user management routes.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := claimsFrom(r.Context()); claims == nil || claims.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole wraps a single handler with a role check.
func (s *Server) requireRole(role model.Role, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims := claimsFrom(r.Context()); claims == nil || claims.Role != role {
			writeError(w, http.StatusForbidden, "insufficient role")
			return
		}
		h(w, r)
	}
}

// authorizeCompany enforces tenant isolation: admins see every company,
// everyone else only their own.
func authorizeCompany(claims *auth.Claims, companyID string) bool {
	if claims == nil {
		return false
	}
	return claims.Role == model.RoleAdmin || claims.CompanyID == companyID
}

// ipLimiter applies a per-client token bucket.
type ipLimiter struct {
	mu      sync.Mutex
	perSec  rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

func newIPLimiter(perSec float64, burst int) *ipLimiter {
	if perSec <= 0 {
		perSec = 20
	}
	if burst <= 0 {
		burst = int(perSec) * 2
	}
	return &ipLimiter{
		perSec:  rate.Limit(perSec),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

func (l *ipLimiter) get(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.clients[client]
	if !ok {
		lim = rate.NewLimiter(l.perSec, l.burst)
		l.clients[client] = lim
	}
	return lim
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}
		if !s.limiter.get(client).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
