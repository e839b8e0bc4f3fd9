package mailer

import (
	"fmt"
	"time"
)

func WelcomeEmail(to string) Email {
	return Email{
		To:      []string{to},
		Subject: "Welcome to Ai Interview Coach",
		Body:    fmt.Sprintf("Welcome to Ai Interview Coach website. Your account has been created with email id: %s", to),
	}
}

func VerifyOTPEmail(to, otp string, ttl time.Duration) Email {
	return Email{
		To:      []string{to},
		Subject: "Account verification OTP",
		Body: fmt.Sprintf("Your OTP is %s. Verify your account using this OTP. It expires in %s.",
			otp, humanize(ttl)),
	}
}

func ResetOTPEmail(to, otp string, ttl time.Duration) Email {
	return Email{
		To:      []string{to},
		Subject: "Account Password Reset OTP",
		Body: fmt.Sprintf("Your OTP is %s. Reset your account password using this OTP. It expires in %s.",
			otp, humanize(ttl)),
	}
}

func humanize(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
	return d.String()
}
