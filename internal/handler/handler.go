package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/auth"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/cache"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/mailer"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/practice"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/repository"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

const (
	ClaimsKey = "claims"
	UserKey   = "user"
)

type Handler struct {
	Logger     *zap.Logger
	Repository repository.Store
	Cache      cache.Store
	Mailer     mailer.Sender
	Coach      practice.Coach
	TokenMaker *auth.JWTMaker

	JwtTTL       time.Duration
	CookieName   string
	SecureCookie bool

	OTPTTL            time.Duration
	OTPResendCooldown time.Duration
	OTPResetWindow    time.Duration

	nowF func() time.Time
}

func (h *Handler) now() time.Time {
	if h.nowF != nil {
		return h.nowF()
	}
	return time.Now().UTC()
}

// GetClaimsFromContext returns the claims set by the auth middleware, or nil.
func (h *Handler) GetClaimsFromContext(c *gin.Context) *auth.UserClaims {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*auth.UserClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetUserFromContext returns the user loaded by the auth middleware, or nil.
func (h *Handler) GetUserFromContext(c *gin.Context) *model.User {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// TokenFromRequest reads a bearer token from the Authorization header,
// falling back to the auth cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if fields := strings.Fields(c.GetHeader("Authorization")); len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
		return fields[1]
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

func (h *Handler) setAuthCookie(c *gin.Context, token string, maxAge int) {
	if h.SecureCookie {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteStrictMode)
	}
	c.SetCookie(h.CookieName, token, maxAge, "/", "", h.SecureCookie, true)
}
