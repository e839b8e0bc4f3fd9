package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/mailer"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/repository"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/response"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgInvalidEmail  = "Invalid email format"
	msgShortPassword = "Password must be at least 6 characters long"
	msgLongPassword  = "Password must be at most 72 bytes long"
	msgUserNotFound  = "User not found"
)

// SignUp creates an account, logs it in and sends a welcome email.
func (h *Handler) SignUp(c *gin.Context) {
	var req model.SignUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Sugar().Warnw("signup bad request", "err", err)
		response.BadRequest(c, msgInvalidBody)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = pkg.NormalizeEmail(req.Email)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		response.BadRequest(c, "All fields are required")
		return
	}
	if !pkg.IsValidEmail(req.Email) {
		response.BadRequest(c, msgInvalidEmail)
		return
	}
	if !pkg.IsValidPassword(req.Password) {
		response.BadRequest(c, msgShortPassword)
		return
	}
	if pkg.IsPasswordTooLong(req.Password) {
		response.BadRequest(c, msgLongPassword)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Repository.GetUserByEmail(ctx, req.Email); err == nil {
		response.BadRequest(c, "User already exists")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		h.Logger.Sugar().Errorw("signup lookup failed", "email", req.Email, "err", err)
		response.InternalError(c, "")
		return
	}

	pwHash, err := pkg.HashPassword(req.Password)
	if err != nil {
		h.Logger.Sugar().Errorw("failed to hash password", "err", err)
		response.InternalError(c, "")
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
	}
	if err := h.Repository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			response.BadRequest(c, "User already exists")
			return
		}
		h.Logger.Sugar().Errorw("user create failed", "email", req.Email, "err", err)
		response.InternalError(c, "")
		return
	}

	token, claims, err := h.TokenMaker.GenerateToken(user.UserID, user.Email, h.JwtTTL)
	if err != nil {
		h.Logger.Sugar().Errorw("error creating token", "err", err)
		response.InternalError(c, "")
		return
	}
	h.setAuthCookie(c, token, int(h.JwtTTL.Seconds()))
	h.sendAsync(mailer.WelcomeEmail(user.Email))

	response.Created(c, "Signup Successfully !", gin.H{
		"token":     token,
		"expiresAt": claims.ExpiresAt.Time,
		"user":      user.Response(),
	})
}

// Login verifies credentials and returns a JWT, also set as a cookie.
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Sugar().Warnw("login bad request", "err", err)
		response.BadRequest(c, msgInvalidBody)
		return
	}
	req.Email = pkg.NormalizeEmail(req.Email)

	if req.Email == "" || req.Password == "" {
		response.BadRequest(c, "Please provide email and password")
		return
	}
	if !pkg.IsValidEmail(req.Email) {
		response.BadRequest(c, msgInvalidEmail)
		return
	}
	if !pkg.IsValidPassword(req.Password) {
		response.BadRequest(c, msgShortPassword)
		return
	}
	// no stored hash can match a password bcrypt refused to hash
	if pkg.IsPasswordTooLong(req.Password) {
		response.Unauthorized(c, "Invalid email or password")
		return
	}

	ctx := c.Request.Context()
	user, err := h.Repository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Logger.Sugar().Warnw("login user not found", "email", req.Email)
			response.Unauthorized(c, "Invalid email or password")
			return
		}
		h.Logger.Sugar().Errorw("login lookup failed", "email", req.Email, "err", err)
		response.InternalError(c, "")
		return
	}
	ok, err := pkg.PasswordMatches(user.PasswordHash, req.Password)
	if err != nil {
		h.Logger.Sugar().Errorw("stored password hash unusable", "user_id", user.UserID, "err", err)
		response.InternalError(c, "")
		return
	}
	if !ok {
		h.Logger.Sugar().Warnw("login password mismatch", "email", req.Email)
		response.Unauthorized(c, "Invalid email or password")
		return
	}

	token, claims, err := h.TokenMaker.GenerateToken(user.UserID, user.Email, h.JwtTTL)
	if err != nil {
		h.Logger.Sugar().Errorw("error creating token", "err", err)
		response.InternalError(c, "")
		return
	}
	h.setAuthCookie(c, token, int(h.JwtTTL.Seconds()))

	response.OK(c, "Logged in Successfully", gin.H{
		"token":             token,
		"expiresAt":         claims.ExpiresAt.Time,
		"_id":               user.UserID,
		"name":              user.Name,
		"email":             user.Email,
		"isAccountVerified": user.IsAccountVerified,
	})
}

// ListUsers returns the public projection of every user.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Repository.ListUsers(c.Request.Context())
	if err != nil {
		h.Logger.Error("failed to list users", zap.Error(err))
		response.InternalError(c, "Failed to fetch users")
		return
	}
	out := make([]model.UserRes, 0, len(users))
	for i := range users {
		out = append(out, users[i].Response())
	}
	response.OK(c, "", gin.H{"users": out, "count": len(out)})
}

// Me returns the current user profile
func (h *Handler) Me(c *gin.Context) {
	user := h.GetUserFromContext(c)
	if user == nil {
		response.Unauthorized(c, "")
		return
	}
	response.OK(c, "", gin.H{"user": user.Response()})
}
