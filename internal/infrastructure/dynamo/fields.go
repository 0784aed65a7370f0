package dynamo

// DynamoDB attribute names used in keys, conditions and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID    = "user_id"
	fieldRequestID = "request_id"
	fieldConsumed  = "consumed"
	fieldExpiresAt = "expires_at"
)
