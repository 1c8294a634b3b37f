package constants

const (
	// gin context keys
	DbField        = "db"
	UserIDField    = "user_id"
	RequestIDField = "request_id"
	LangField      = "lang"

	// request headers
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)
