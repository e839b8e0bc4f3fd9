package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/auth"
)

const (
	verifySubject = "Account verification OTP"
	resetSubject  = "Account Password Reset OTP"
)

func TestIsAuth(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "asha@example.com", "secret1")

	rec := env.do(t, http.MethodGet, "/api/auth/is-auth", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User Authenticated", decode(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/api/auth/is-auth", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, no token", decode(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/api/auth/is-auth", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, token failed", decode(t, rec)["message"])
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "asha@example.com", "secret1")
	claims, err := env.h.TokenMaker.VerifyToken(token)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", decode(t, rec)["message"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)

	revoked, err := env.cache.IsRevoked(t.Context(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	rec = env.do(t, http.MethodGet, "/api/auth/is-auth", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_WithoutToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyAccountFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "asha@example.com", "secret1")

	rec := env.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Verification OTP sent on your Email", decode(t, rec)["message"])
	otp := env.mailer.lastOTP(t, verifySubject)

	stored, err := env.store.GetUserByEmail(t.Context(), "asha@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, otp, stored.VerifyOTPHash, "otp must be stored hashed")
	require.NotNil(t, stored.VerifyOTPExpireAt)
	assert.Equal(t, env.now.Add(time.Hour), *stored.VerifyOTPExpireAt)

	rec = env.do(t, http.MethodPost, "/api/auth/resend-otp", nil, token)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "second send inside the cooldown")

	rec = env.do(t, http.MethodPost, "/api/auth/verify-account", gin.H{}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing Details", decode(t, rec)["message"])

	wrong := "100000"
	if otp == wrong {
		wrong = "100001"
	}
	rec = env.do(t, http.MethodPost, "/api/auth/verify-account", gin.H{"otp": wrong}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid OTP", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/verify-account", gin.H{"otp": otp}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email Verified Successfully", decode(t, rec)["message"])

	stored, err = env.store.GetUserByEmail(t.Context(), "asha@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsAccountVerified)
	assert.Empty(t, stored.VerifyOTPHash)
	assert.Nil(t, stored.VerifyOTPExpireAt)

	env.h.OTPResendCooldown = 0
	rec = env.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Account Already verified", decode(t, rec)["message"])
}

func TestVerifyAccount_Expired(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "asha@example.com", "secret1")

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, token).Code)
	otp := env.mailer.lastOTP(t, verifySubject)

	env.now = env.now.Add(time.Hour + time.Second)
	rec := env.do(t, http.MethodPost, "/api/auth/verify-account", gin.H{"otp": otp}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OTP Expired", decode(t, rec)["message"])
}

func TestResendOTP_ReplacesPreviousCode(t *testing.T) {
	env := newTestEnv(t)
	env.h.OTPResendCooldown = 0
	token := env.signUp(t, "asha@example.com", "secret1")

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, token).Code)
	first := env.mailer.lastOTP(t, verifySubject)

	rec := env.do(t, http.MethodPost, "/api/auth/resend-otp", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New OTP sent on your Email", decode(t, rec)["message"])
	second := env.mailer.lastOTP(t, verifySubject)

	stored, err := env.store.GetUserByEmail(t.Context(), "asha@example.com")
	require.NoError(t, err)
	assert.True(t, auth.OTPEqual(second, stored.VerifyOTPHash))
	if first != second {
		assert.False(t, auth.OTPEqual(first, stored.VerifyOTPHash))
	}
}

func TestSendVerifyOTP_MailFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "asha@example.com", "secret1")
	env.mailer.fail(errors.New("smtp down"))

	rec := env.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "smtp down")

	// nothing was delivered, so the retry is not throttled
	env.mailer.fail(nil)
	rec = env.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env.mailer.lastOTP(t, verifySubject)

	rec = env.do(t, http.MethodPost, "/api/auth/resend-otp", nil, token)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Please wait before requesting another OTP", decode(t, rec)["message"])
}

func TestSendResetOTP_MailFailureKeepsRetryOpen(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "asha@example.com", "secret1")
	env.mailer.fail(errors.New("smtp down"))

	rec := env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "asha@example.com"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to send OTP email", decode(t, rec)["message"])

	env.mailer.fail(nil)
	rec = env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "asha@example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "asha@example.com"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "asha@example.com", "secret1")

	rec := env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide email", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "Asha@example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reset Password OTP sent on your Email", decode(t, rec)["message"])
	otp := env.mailer.lastOTP(t, resetSubject)

	rec = env.do(t, http.MethodPost, "/api/auth/reset-password",
		gin.H{"email": "asha@example.com", "newPassword": "newsecret"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password reset not authorized", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", gin.H{"email": "asha@example.com", "otp": otp}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP Verified Successfully", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", gin.H{"email": "asha@example.com", "otp": otp}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "a code is single use")
	assert.Equal(t, "Invalid OTP", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/reset-password",
		gin.H{"email": "asha@example.com", "newPassword": "newsecret"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset successfully", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/reset-password",
		gin.H{"email": "asha@example.com", "newPassword": "another1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "the window closes after one reset")

	rec = env.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "asha@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "asha@example.com", "password": "newsecret"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetPassword_WithOTP(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "asha@example.com", "secret1")

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "asha@example.com"}, "").Code)
	otp := env.mailer.lastOTP(t, resetSubject)

	rec := env.do(t, http.MethodPost, "/api/auth/reset-password",
		gin.H{"email": "asha@example.com", "newPassword": "newsecret", "otp": otp}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.store.GetUserByEmail(t.Context(), "asha@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored.ResetOTPHash)
	assert.Nil(t, stored.ResetAuthorizedUntil)
}

func TestResetPassword_WindowExpires(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "asha@example.com", "secret1")

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "asha@example.com"}, "").Code)
	otp := env.mailer.lastOTP(t, resetSubject)
	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", gin.H{"email": "asha@example.com", "otp": otp}, "").Code)

	env.now = env.now.Add(16 * time.Minute)
	rec := env.do(t, http.MethodPost, "/api/auth/reset-password",
		gin.H{"email": "asha@example.com", "newPassword": "newsecret"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password reset not authorized", decode(t, rec)["message"])
}

func TestResetPassword_Validation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name   string
		body   gin.H
		status int
		msg    string
	}{
		{"no password", gin.H{"email": "asha@example.com"}, http.StatusBadRequest, "New Password is required"},
		{"no email", gin.H{"newPassword": "newsecret"}, http.StatusBadRequest, "Please provide email"},
		{"short", gin.H{"email": "asha@example.com", "newPassword": "123"}, http.StatusBadRequest, "Password must be at least 6 characters long"},
		{"long", gin.H{"email": "asha@example.com", "newPassword": strings.Repeat("p", 80)}, http.StatusBadRequest, "Password must be at most 72 bytes long"},
		{"unknown user", gin.H{"email": "nobody@example.com", "newPassword": "newsecret"}, http.StatusNotFound, "User not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/reset-password", tc.body, "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, decode(t, rec)["message"])
		})
	}
}

// no generated code starts with zero
const wrongOTP = "000000"

func TestVerifyResetOTP_DiscardsCodeAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "asha@example.com", "secret1")

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "asha@example.com"}, "").Code)
	otp := env.mailer.lastOTP(t, resetSubject)

	guess := gin.H{"email": "asha@example.com", "otp": wrongOTP}
	for i := 1; i < maxOTPAttempts; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", guess, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid OTP", decode(t, rec)["message"])
	}
	rec := env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", guess, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many invalid attempts, please request a new OTP", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", gin.H{"email": "asha@example.com", "otp": otp}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "the real code is gone")
	rec = env.do(t, http.MethodPost, "/api/auth/reset-password",
		gin.H{"email": "asha@example.com", "newPassword": "newsecret", "otp": otp}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stored, err := env.store.GetUserByEmail(t.Context(), "asha@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored.ResetOTPHash)
	assert.Nil(t, stored.ResetOTPExpireAt)

	// a fresh code starts a fresh count
	require.NoError(t, env.cache.Release(t.Context(), "reset:"+stored.UserID))
	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "asha@example.com"}, "").Code)
	otp = env.mailer.lastOTP(t, resetSubject)
	rec = env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", guess, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", gin.H{"email": "asha@example.com", "otp": otp}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyAccount_DiscardsCodeAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "asha@example.com", "secret1")

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, token).Code)
	otp := env.mailer.lastOTP(t, verifySubject)

	for i := 1; i < maxOTPAttempts; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/verify-account", gin.H{"otp": wrongOTP}, token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/auth/verify-account", gin.H{"otp": wrongOTP}, token)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/verify-account", gin.H{"otp": otp}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid OTP", decode(t, rec)["message"])
}

func TestVerifyOTP_ExpiredCodeIsNotCounted(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "asha@example.com", "secret1")
	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/auth/send-reset-otp", gin.H{"email": "asha@example.com"}, "").Code)
	otp := env.mailer.lastOTP(t, resetSubject)

	env.now = env.now.Add(2 * time.Hour)
	rec := env.do(t, http.MethodPost, "/api/auth/verify-reset-otp", gin.H{"email": "asha@example.com", "otp": otp}, "")
	assert.Equal(t, "OTP Expired", decode(t, rec)["message"])

	stored, err := env.store.GetUserByEmail(t.Context(), "asha@example.com")
	require.NoError(t, err)
	assert.Zero(t, stored.ResetOTPAttempts)
}

func TestCheckOTP(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)
	earlier := now.Add(-time.Minute)
	hash := auth.HashOTP("123456")

	assert.Equal(t, "", checkOTP("123456", hash, &later, now))
	assert.Equal(t, msgInvalidOTP, checkOTP("654321", hash, &later, now))
	assert.Equal(t, msgInvalidOTP, checkOTP("123456", "", &later, now))
	assert.Equal(t, msgOTPExpired, checkOTP("123456", hash, &earlier, now))
	assert.Equal(t, msgOTPExpired, checkOTP("123456", hash, nil, now))
}
