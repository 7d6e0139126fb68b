package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/ecocart/internal/session"
	"github.com/utafrali/ecocart/pkg/httputil"
	"github.com/utafrali/ecocart/pkg/middleware"
)

type contextKey string

const sessionKey contextKey = "session"

// RequireSession resolves the X-Session-ID header into the session's stores.
// Requests without a usable id are rejected with 401.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.SessionHeader)
		if id == "" {
			writeUnauthorized(w, "X-Session-ID header is required")
			return
		}
		sess, err := h.sessions.Session(id)
		if err != nil {
			writeUnauthorized(w, "X-Session-ID header is invalid")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: msg},
	})
}

// sessionFrom returns the session stored by RequireSession.
func sessionFrom(ctx context.Context) session.Session {
	sess, _ := ctx.Value(sessionKey).(session.Session)
	return sess
}

// ContentTypeJSON rejects bodies that declare a non-JSON content type.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
