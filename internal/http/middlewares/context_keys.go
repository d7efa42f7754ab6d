package middlewares

// Keys stored on the gin context. Handlers receive the caller explicitly;
// these exist for logging and error envelopes only.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "user_id"
)
