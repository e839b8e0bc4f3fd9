package model

import "time"

// OTPPurpose names which pending code a one-time password belongs to.
type OTPPurpose string

const (
	OTPVerify OTPPurpose = "verify"
	OTPReset  OTPPurpose = "reset"
)

type User struct {
	UserID            string     `json:"_id" bson:"_id"`
	Name              string     `json:"name" bson:"name"`
	Email             string     `json:"email" bson:"email"`
	PasswordHash      string     `json:"-" bson:"password_hash"`
	IsAccountVerified bool       `json:"isAccountVerified" bson:"is_account_verified"`
	VerifyOTPHash     string     `json:"-" bson:"verify_otp_hash"`
	VerifyOTPExpireAt *time.Time `json:"-" bson:"verify_otp_expire_at,omitempty"`
	VerifyOTPAttempts int        `json:"-" bson:"verify_otp_attempts"`
	ResetOTPHash      string     `json:"-" bson:"reset_otp_hash"`
	ResetOTPExpireAt  *time.Time `json:"-" bson:"reset_otp_expire_at,omitempty"`
	ResetOTPAttempts  int        `json:"-" bson:"reset_otp_attempts"`
	// set by a successful reset-OTP check; reset-password is allowed until then
	ResetAuthorizedUntil *time.Time `json:"-" bson:"reset_authorized_until,omitempty"`
	CreatedAt            time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" bson:"updated_at"`
}

// ClearVerifyOTP drops any pending account verification code.
func (u *User) ClearVerifyOTP() {
	u.VerifyOTPHash = ""
	u.VerifyOTPExpireAt = nil
	u.VerifyOTPAttempts = 0
}

// ClearResetOTP drops any pending password reset code.
func (u *User) ClearResetOTP() {
	u.ResetOTPHash = ""
	u.ResetOTPExpireAt = nil
	u.ResetOTPAttempts = 0
}

// SetOTP stores a fresh code for purpose and restarts its attempt count.
func (u *User) SetOTP(purpose OTPPurpose, hash string, expireAt time.Time) {
	switch purpose {
	case OTPVerify:
		u.VerifyOTPHash, u.VerifyOTPExpireAt, u.VerifyOTPAttempts = hash, &expireAt, 0
	case OTPReset:
		u.ResetOTPHash, u.ResetOTPExpireAt, u.ResetOTPAttempts = hash, &expireAt, 0
	}
}

// PendingOTP returns the stored hash and expiry of the code for purpose.
func (u *User) PendingOTP(purpose OTPPurpose) (string, *time.Time) {
	if purpose == OTPReset {
		return u.ResetOTPHash, u.ResetOTPExpireAt
	}
	return u.VerifyOTPHash, u.VerifyOTPExpireAt
}

func (u *User) Response() UserRes {
	return UserRes{
		UserID:            u.UserID,
		Name:              u.Name,
		Email:             u.Email,
		IsAccountVerified: u.IsAccountVerified,
		CreatedAt:         u.CreatedAt,
	}
}

type SignUpReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserRes struct {
	UserID            string    `json:"_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	IsAccountVerified bool      `json:"isAccountVerified"`
	CreatedAt         time.Time `json:"createdAt"`
}

type VerifyAccountReq struct {
	OTP string `json:"otp"`
}

type SendResetOTPReq struct {
	Email string `json:"email"`
}

type VerifyResetOTPReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResetPasswordReq struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
	OTP         string `json:"otp"`
}
