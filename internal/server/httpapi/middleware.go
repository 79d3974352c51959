package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const sessionErrKey ctxKey = "sessionErr"

// tokenFromRequest reads the session token from the Authorization bearer
// or, failing that, the X-rair-token header.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, common.AuthorizationScheme) {
		return strings.TrimSpace(strings.TrimPrefix(h, common.AuthorizationScheme))
	}
	return strings.TrimSpace(r.Header.Get(common.AccessTokenHeaderName))
}

// authenticate attaches the session to the request context when a valid
// token is present. A bad token is remembered and only rejected by routes
// that need a session, so an expired client can still log in again.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		session, err := s.svc.Auth.Authenticate(token)
		if err != nil {
			ctx = context.WithValue(ctx, sessionErrKey, err)
		} else {
			ctx = auth.WithAuthContext(ctx, session)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionOf returns the caller attached by authenticate, or the anonymous
// zero value.
func sessionOf(r *http.Request) auth.AuthContext {
	a, _ := auth.FromContext(r.Context())
	return a
}

func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionOf(r).Authenticated() {
			next.ServeHTTP(w, r)
			return
		}
		err := common.ErrorUnauthorized
		if e, ok := r.Context().Value(sessionErrKey).(error); ok {
			err = e
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": err.Error()})
	})
}

// requireFileOwner short-circuits with 403/404 unless the requester owns
// the file in the {id} URL parameter or is a super-admin.
func (s *HTTPServer) requireFileOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := s.svc.Files.IsFileOwner(r.Context(), chi.URLParam(r, "id"), sessionOf(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
