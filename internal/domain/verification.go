package domain

// EmailVerification is the per-user email verification record. PK: user_id.
//
// Code and Email travel together: the code is only valid for the exact email
// snapshot it was issued against, and both are cleared once verification
// succeeds. VerifiedEmail holds the last address that was proven; the account
// counts as verified only while it equals the user's current email.
type EmailVerification struct {
	UserID            string `json:"user_id" dynamodbav:"user_id"`
	Code              string `json:"-" dynamodbav:"code"`
	Email             string `json:"email,omitempty" dynamodbav:"email"`
	IssuedAt          int64  `json:"issued_at,omitempty" dynamodbav:"issued_at"` // Unix seconds
	VerifiedEmail     string `json:"verified_email,omitempty" dynamodbav:"verified_email"`
	NeedsVerification bool   `json:"needs_verification,omitempty" dynamodbav:"needs_verification"`
}

// RecoveryOTP stores a password recovery one-time code.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type RecoveryOTP struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
