package models

import "time"

// Session is the signed-in identity the CLI keeps between invocations.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	SignedInAt   time.Time
}
