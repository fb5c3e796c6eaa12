package middleware

// Context keys used to store request metadata.
const (
	ContextKeySubject   = "subject"
	ContextKeyScope     = "scope"
	ContextKeyRequestID = "request_id"
)
