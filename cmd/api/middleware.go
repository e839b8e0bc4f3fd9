package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/auth"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/handler"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/repository"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/response"
)

const (
	msgNoToken     = "Not authorized, no token"
	msgTokenFailed = "Not authorized, token failed"
)

var (
	errNoToken = errors.New("no token")
	errRevoked = errors.New("token revoked")
	// the token could not be checked; says nothing about its validity
	errAuthUnavailable = errors.New("auth backend unavailable")
)

// AuthMiddleware rejects requests without a valid, unrevoked token for an
// existing user.
func (app *application) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, user, err := app.authenticate(c)
		if err != nil {
			if errors.Is(err, errNoToken) {
				response.Unauthorized(c, msgNoToken)
				return
			}
			if errors.Is(err, errAuthUnavailable) {
				app.Logger.Error("auth check failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
				response.InternalError(c, "")
				return
			}
			app.Logger.Debug("auth rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Unauthorized(c, msgTokenFailed)
			return
		}
		c.Set(handler.ClaimsKey, claims)
		c.Set(handler.UserKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (app *application) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, user, err := app.authenticate(c)
		if errors.Is(err, errAuthUnavailable) {
			app.Logger.Error("auth check failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.InternalError(c, "")
			return
		}
		if err == nil {
			c.Set(handler.ClaimsKey, claims)
			c.Set(handler.UserKey, user)
		}
		c.Next()
	}
}

func (app *application) authenticate(c *gin.Context) (*auth.UserClaims, *model.User, error) {
	token := handler.TokenFromRequest(c, app.Config.JWT.CookieName)
	if token == "" {
		return nil, nil, errNoToken
	}
	claims, err := app.Handler.TokenMaker.VerifyToken(token)
	if err != nil {
		return nil, nil, err
	}

	ctx := c.Request.Context()
	revoked, err := app.Handler.Cache.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errAuthUnavailable, err)
	}
	if revoked {
		return nil, nil, errRevoked
	}

	// Check if user still exists
	user, err := app.Handler.Repository.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %w", errAuthUnavailable, err)
	}
	return claims, user, nil
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter hands out one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	ttl      time.Duration
	nowF     func() time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      3 * time.Minute,
		nowF:     time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowF()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// cleanup forgets clients idle for longer than the ttl.
func (l *ipRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.nowF().Add(-l.ttl)
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

func (app *application) rateLimit(l *ipRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			response.TooManyRequests(c, "")
			return
		}
		c.Next()
	}
}

// corsMiddleware echoes the request origin when it is trusted so that the
// auth cookie can be sent cross-origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	trusted := make(map[string]bool, len(origins))
	for _, o := range origins {
		trusted[o] = true
	}
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); trusted[origin] {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
