package domain

import "time"

// LinkedAccount records a completed verification. Written once; never updated.
type LinkedAccount struct {
	UserID           string    `json:"user_id" dynamodbav:"user_id"`
	ExternalUserID   int64     `json:"external_user_id" dynamodbav:"external_user_id"`
	ExternalUsername string    `json:"external_username" dynamodbav:"external_username"`
	DisplayName      string    `json:"display_name" dynamodbav:"display_name"`
	AvatarURL        string    `json:"avatar_url" dynamodbav:"avatar_url"`
	LinkedAt         time.Time `json:"linked_at" dynamodbav:"linked_at"`
}

// ExternalProfile is the live view of an account on the external platform.
type ExternalProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// Identity is the caller resolved by the identity gate.
type Identity struct {
	UserID string
	Email  string
}
