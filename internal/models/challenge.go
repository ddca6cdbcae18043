package models

import "time"

// Challenge is a pending OTP login for a single identifier (an email address).
type Challenge struct {
	Identifier string    `json:"identifier"`
	Code       string    `json:"-"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Live reports whether the challenge is still within ttl of its issuance at now.
func (c Challenge) Live(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.IssuedAt) <= ttl
}

// Issued is the result of issuing a challenge. Delivered is false when the
// notifier could not send the code; the code remains valid either way.
type Issued struct {
	Code      string
	Delivered bool
}

type VerifyOutcome int

const (
	VerifyNotFound VerifyOutcome = iota
	VerifyMismatch
	VerifySuccess
)

func (o VerifyOutcome) String() string {
	switch o {
	case VerifySuccess:
		return "success"
	case VerifyMismatch:
		return "mismatch"
	default:
		return "not_found"
	}
}
