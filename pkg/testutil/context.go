package testutil

import (
	"net/http"

	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, as the RequestID
// middleware would. Use when calling a handler method directly.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
