package domain

import "time"

// VerificationRequest is the single pending link attempt for an internal user.
// PK: user_id. A new request for the same user overwrites the previous one.
// ExpiresAt is a Unix timestamp also used as DynamoDB TTL.
type VerificationRequest struct {
	UserID           string    `json:"user_id" dynamodbav:"user_id"`
	RequestID        string    `json:"request_id" dynamodbav:"request_id"`
	ExternalUsername string    `json:"external_username" dynamodbav:"external_username"`
	CodeHash         string    `json:"code_hash" dynamodbav:"code_hash"`
	Consumed         bool      `json:"consumed" dynamodbav:"consumed"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt        int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Pending reports whether the request can still be completed at now.
func (v *VerificationRequest) Pending(now time.Time) bool {
	return !v.Consumed && now.Unix() < v.ExpiresAt
}

type GenerateCodeRequest struct {
	RobloxUsername string `json:"robloxUsername" validate:"required,min=3,max=20,roblox_username"`
}

// VerifyUserRequest is not format-validated: a malformed code simply fails to match.
type VerifyUserRequest struct {
	RobloxUsername string `json:"robloxUsername"`
	Code           string `json:"code"`
}
