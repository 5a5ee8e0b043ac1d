package identifiers

import (
	"math"
	"time"

	helper "schoolerp_backend/internals/helpers"
)

const otpDigits = "0123456789"

// NewOTP returns a 6-digit numeric code.
func NewOTP() (string, error) {
	return randomString(otpDigits, 6)
}

type OTPPolicy struct {
	Validity    time.Duration
	MaxAttempts int
	MaxRequests int
	Window      time.Duration
	MinGap      time.Duration
}

var DefaultOTPPolicy = OTPPolicy{
	Validity:    10 * time.Minute,
	MaxAttempts: 3,
	MaxRequests: 5,
	Window:      30 * time.Minute,
	MinGap:      2 * time.Minute,
}

// CheckOTPThrottle decides whether a new code may be sent given the previous send times
// for the same destination. History order does not matter.
func (p OTPPolicy) CheckOTPThrottle(history []time.Time, now time.Time) error {
	var last time.Time
	var oldestInWindow time.Time
	inWindow := 0
	for _, t := range history {
		if t.After(last) {
			last = t
		}
		if now.Sub(t) < p.Window {
			inWindow++
			if oldestInWindow.IsZero() || t.Before(oldestInWindow) {
				oldestInWindow = t
			}
		}
	}

	if !last.IsZero() {
		if since := now.Sub(last); since < p.MinGap {
			return helper.StateErr("OTP_TOO_SOON", "please wait before requesting another code").
				With("retry_after_seconds", ceilSeconds(p.MinGap-since))
		}
	}
	if inWindow >= p.MaxRequests {
		return helper.StateErr("OTP_TOO_MANY_REQUESTS", "too many code requests, please try again later").
			With("retry_after_seconds", ceilSeconds(oldestInWindow.Add(p.Window).Sub(now)))
	}
	return nil
}

func CheckOTPThrottle(history []time.Time, now time.Time) error {
	return DefaultOTPPolicy.CheckOTPThrottle(history, now)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
