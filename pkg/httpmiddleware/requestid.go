package httpmiddleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id between the admin UI, the gateway
// and the catalog service.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 128

type ctxRequestID struct{}

// RequestIDFromContext returns the id stored by RequestID or WithRequestID,
// or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID{}).(string)
	return id
}

// WithRequestID returns a copy of ctx carrying id. The catalog service client
// forwards it upstream, so one id ties a gateway log line to the catalog
// call it caused.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID{}, id)
}

// RequestID tags every request with an id. The id sent by the caller is kept
// when usable, otherwise a UUID is minted. It is echoed in the response, so
// the UI can quote it when an error envelope is shown, and every zctx log
// line of the request carries it as request_id.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := incomingRequestID(r)
			w.Header().Set(RequestIDHeader, id)

			ctx := zctx.With(WithRequestID(r.Context(), id), zap.String("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// incomingRequestID returns the caller's id when it is 1..128 printable ASCII
// characters after trimming, and a fresh UUID otherwise.
func incomingRequestID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if id == "" || len(id) > maxRequestIDLen {
		return uuid.NewString()
	}
	for i := range len(id) {
		if c := id[i]; c < ' ' || c > '~' {
			return uuid.NewString()
		}
	}
	return id
}
