package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/auth"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/mailer"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/repository"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/response"
)

const (
	msgMissingDetails  = "Missing Details"
	msgInvalidOTP      = "Invalid OTP"
	msgOTPExpired      = "OTP Expired"
	msgAlreadyVerified = "Account Already verified"
	msgOTPThrottled    = "Please wait before requesting another OTP"
	msgOTPAttempts     = "Too many invalid attempts, please request a new OTP"

	// wrong guesses allowed before a pending code is discarded
	maxOTPAttempts = 5

	// upper bound for background mail delivery
	mailTimeout = 30 * time.Second
)

// Logout clears the auth cookie and revokes the presented token, if any.
func (h *Handler) Logout(c *gin.Context) {
	if token := TokenFromRequest(c, h.CookieName); token != "" {
		if claims, err := h.TokenMaker.VerifyToken(token); err == nil {
			if err := h.Cache.RevokeToken(c.Request.Context(), claims.ID, claims.Remaining()); err != nil {
				h.Logger.Error("failed to revoke token", zap.String("user_id", claims.UserID), zap.Error(err))
			}
		}
	}
	h.setAuthCookie(c, "", -1)
	response.Message(c, "Logout successful")
}

func (h *Handler) IsAuth(c *gin.Context) {
	response.Message(c, "User Authenticated")
}

// SendVerifyOTP emails a fresh account verification code.
func (h *Handler) SendVerifyOTP(c *gin.Context) {
	h.sendVerifyOTP(c, "Verification OTP sent on your Email")
}

// ResendOTP behaves like SendVerifyOTP and exists for the resend button.
func (h *Handler) ResendOTP(c *gin.Context) {
	h.sendVerifyOTP(c, "New OTP sent on your Email")
}

func (h *Handler) sendVerifyOTP(c *gin.Context, successMsg string) {
	user := h.GetUserFromContext(c)
	if user == nil {
		response.Unauthorized(c, "")
		return
	}
	if user.IsAccountVerified {
		response.Conflict(c, msgAlreadyVerified)
		return
	}
	key := "verify:" + user.UserID
	if !h.allowOTPSend(c, key) {
		return
	}
	sent := false
	defer func() {
		if !sent {
			h.releaseOTPSend(c, key)
		}
	}()

	otp, err := auth.GenerateOTP()
	if err != nil {
		h.Logger.Error("failed to generate otp", zap.Error(err))
		response.InternalError(c, "")
		return
	}
	user.SetOTP(model.OTPVerify, auth.HashOTP(otp), h.now().Add(h.OTPTTL))

	ctx := c.Request.Context()
	if err := h.Repository.UpdateUser(ctx, user); err != nil {
		h.Logger.Error("failed to store verify otp", zap.String("user_id", user.UserID), zap.Error(err))
		response.InternalError(c, "")
		return
	}
	if err := h.Mailer.Send(ctx, mailer.VerifyOTPEmail(user.Email, otp, h.OTPTTL)); err != nil {
		h.Logger.Error("failed to send verify otp", zap.String("user_id", user.UserID), zap.Error(err))
		response.InternalError(c, "Failed to send OTP email")
		return
	}
	sent = true
	response.Message(c, successMsg)
}

// VerifyAccount marks the current user verified when the OTP matches.
func (h *Handler) VerifyAccount(c *gin.Context) {
	var req model.VerifyAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, msgMissingDetails)
		return
	}
	user := h.GetUserFromContext(c)
	if user == nil {
		response.Unauthorized(c, "")
		return
	}
	if req.OTP == "" {
		response.BadRequest(c, msgMissingDetails)
		return
	}
	if user.IsAccountVerified {
		response.Conflict(c, msgAlreadyVerified)
		return
	}
	if !h.verifyOTP(c, user, model.OTPVerify, req.OTP, h.now()) {
		return
	}

	user.IsAccountVerified = true
	user.ClearVerifyOTP()
	if err := h.Repository.UpdateUser(c.Request.Context(), user); err != nil {
		h.Logger.Error("failed to verify account", zap.String("user_id", user.UserID), zap.Error(err))
		response.InternalError(c, "")
		return
	}
	response.Message(c, "Email Verified Successfully")
}

// SendResetOTP emails a password reset code to a registered address.
func (h *Handler) SendResetOTP(c *gin.Context) {
	var req model.SendResetOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Please provide email")
		return
	}
	email := pkg.NormalizeEmail(req.Email)
	if email == "" {
		response.BadRequest(c, "Please provide email")
		return
	}

	user, ok := h.lookupUserByEmail(c, email)
	if !ok {
		return
	}
	key := "reset:" + user.UserID
	if !h.allowOTPSend(c, key) {
		return
	}
	sent := false
	defer func() {
		if !sent {
			h.releaseOTPSend(c, key)
		}
	}()

	otp, err := auth.GenerateOTP()
	if err != nil {
		h.Logger.Error("failed to generate otp", zap.Error(err))
		response.InternalError(c, "")
		return
	}
	user.SetOTP(model.OTPReset, auth.HashOTP(otp), h.now().Add(h.OTPTTL))

	ctx := c.Request.Context()
	if err := h.Repository.UpdateUser(ctx, user); err != nil {
		h.Logger.Error("failed to store reset otp", zap.String("user_id", user.UserID), zap.Error(err))
		response.InternalError(c, "")
		return
	}
	if err := h.Mailer.Send(ctx, mailer.ResetOTPEmail(user.Email, otp, h.OTPTTL)); err != nil {
		h.Logger.Error("failed to send reset otp", zap.String("user_id", user.UserID), zap.Error(err))
		response.InternalError(c, "Failed to send OTP email")
		return
	}
	sent = true
	response.Message(c, "Reset Password OTP sent on your Email")
}

// VerifyResetOTP consumes a reset code and opens a short window in which
// the password may be changed without presenting the code again.
func (h *Handler) VerifyResetOTP(c *gin.Context) {
	var req model.VerifyResetOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, msgMissingDetails)
		return
	}
	email := pkg.NormalizeEmail(req.Email)
	if email == "" || req.OTP == "" {
		response.BadRequest(c, msgMissingDetails)
		return
	}

	user, ok := h.lookupUserByEmail(c, email)
	if !ok {
		return
	}
	now := h.now()
	if !h.verifyOTP(c, user, model.OTPReset, req.OTP, now) {
		return
	}

	until := now.Add(h.OTPResetWindow)
	user.ClearResetOTP()
	user.ResetAuthorizedUntil = &until
	if err := h.Repository.UpdateUser(c.Request.Context(), user); err != nil {
		h.Logger.Error("failed to open reset window", zap.String("user_id", user.UserID), zap.Error(err))
		response.InternalError(c, "")
		return
	}
	response.Message(c, "OTP Verified Successfully")
}

// ResetPassword sets a new password. The caller proves ownership of the
// address either with the reset OTP itself or through an open reset window.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, msgInvalidBody)
		return
	}
	if req.NewPassword == "" {
		response.BadRequest(c, "New Password is required")
		return
	}
	email := pkg.NormalizeEmail(req.Email)
	if email == "" {
		response.BadRequest(c, "Please provide email")
		return
	}
	if !pkg.IsValidPassword(req.NewPassword) {
		response.BadRequest(c, msgShortPassword)
		return
	}
	if pkg.IsPasswordTooLong(req.NewPassword) {
		response.BadRequest(c, msgLongPassword)
		return
	}

	user, ok := h.lookupUserByEmail(c, email)
	if !ok {
		return
	}
	now := h.now()
	if req.OTP != "" {
		if !h.verifyOTP(c, user, model.OTPReset, req.OTP, now) {
			return
		}
	} else if user.ResetAuthorizedUntil == nil || !now.Before(*user.ResetAuthorizedUntil) {
		response.BadRequest(c, "Password reset not authorized")
		return
	}

	pwHash, err := pkg.HashPassword(req.NewPassword)
	if err != nil {
		h.Logger.Sugar().Errorw("failed to hash password", "err", err)
		response.InternalError(c, "")
		return
	}
	user.PasswordHash = pwHash
	user.ClearResetOTP()
	user.ResetAuthorizedUntil = nil
	if err := h.Repository.UpdateUser(c.Request.Context(), user); err != nil {
		h.Logger.Error("failed to reset password", zap.String("user_id", user.UserID), zap.Error(err))
		response.InternalError(c, "")
		return
	}
	response.Message(c, "Password reset successfully")
}

// checkOTP returns the client message for a rejected code, or "" when the
// code matches and has not expired.
func checkOTP(provided, storedHash string, expireAt *time.Time, now time.Time) string {
	if !auth.OTPEqual(provided, storedHash) {
		return msgInvalidOTP
	}
	if expireAt == nil || now.After(*expireAt) {
		return msgOTPExpired
	}
	return ""
}

// verifyOTP checks provided against the user's pending code for purpose and
// writes the error response when it does not pass. Wrong guesses are counted;
// the code is discarded after maxOTPAttempts of them.
func (h *Handler) verifyOTP(c *gin.Context, user *model.User, purpose model.OTPPurpose, provided string, now time.Time) bool {
	hash, expireAt := user.PendingOTP(purpose)
	msg := checkOTP(provided, hash, expireAt, now)
	if msg == "" {
		return true
	}
	if msg == msgInvalidOTP && hash != "" {
		attempts, err := h.Repository.RecordOTPFailure(c.Request.Context(), user.UserID, purpose, maxOTPAttempts)
		if err != nil {
			h.Logger.Error("failed to record otp failure", zap.String("user_id", user.UserID), zap.Error(err))
			response.InternalError(c, "")
			return false
		}
		if attempts >= maxOTPAttempts {
			h.Logger.Warn("otp discarded after repeated failures",
				zap.String("user_id", user.UserID), zap.String("purpose", string(purpose)))
			response.TooManyRequests(c, msgOTPAttempts)
			return false
		}
	}
	response.BadRequest(c, msg)
	return false
}

func (h *Handler) lookupUserByEmail(c *gin.Context, email string) (*model.User, bool) {
	user, err := h.Repository.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, msgUserNotFound)
			return nil, false
		}
		h.Logger.Error("user lookup failed", zap.String("email", email), zap.Error(err))
		response.InternalError(c, "")
		return nil, false
	}
	return user, true
}

// allowOTPSend enforces one OTP email per key per cooldown and writes the
// error response when the send must not happen.
func (h *Handler) allowOTPSend(c *gin.Context, key string) bool {
	ok, err := h.Cache.Allow(c.Request.Context(), key, h.OTPResendCooldown)
	if err != nil {
		h.Logger.Error("otp throttle check failed", zap.String("key", key), zap.Error(err))
		response.InternalError(c, "")
		return false
	}
	if !ok {
		response.TooManyRequests(c, msgOTPThrottled)
		return false
	}
	return true
}

// releaseOTPSend frees the cooldown reserved for a send that did not go out.
func (h *Handler) releaseOTPSend(c *gin.Context, key string) {
	if err := h.Cache.Release(c.Request.Context(), key); err != nil {
		h.Logger.Warn("failed to release otp throttle", zap.String("key", key), zap.Error(err))
	}
}

// sendAsync delivers mail the request does not wait for. Failures are logged.
func (h *Handler) sendAsync(email mailer.Email) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := h.Mailer.Send(ctx, email); err != nil {
			h.Logger.Warn("background email failed", zap.Strings("to", email.To), zap.String("subject", email.Subject), zap.Error(err))
		}
	}()
}
