package api

import (
	"context"
	"net/http"

	"github.com/codewithboateng/champlint/internal/storage"
)

type ctxKey int

const userKey ctxKey = 1

func (s *Server) withCORS(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if origin := s.pickCORSOrigin(r); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if origin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}

func withAuth(s *Server, next http.HandlerFunc, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.sessionUser(w, r)
		if !ok {
			return
		}
		_ = s.UserStore.LogAudit(u.Username, action, r.URL.Path, map[string]any{"method": r.Method})
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

// withAdmin is withAuth restricted to the admin role.
func withAdmin(s *Server, next http.HandlerFunc, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.sessionUser(w, r)
		if !ok {
			return
		}
		if !u.IsAdmin() {
			_ = s.UserStore.LogAudit(u.Username, action+":denied", r.URL.Path, map[string]any{"method": r.Method})
			s.err(w, http.StatusForbidden, "admin role required")
			return
		}
		_ = s.UserStore.LogAudit(u.Username, action, r.URL.Path, map[string]any{"method": r.Method})
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

func (s *Server) sessionUser(w http.ResponseWriter, r *http.Request) (storage.User, bool) {
	tok, err := readSessionCookie(r)
	if err != nil {
		s.err(w, http.StatusUnauthorized, "unauthorized")
		return storage.User{}, false
	}
	u, err := s.UserStore.GetSession(tok)
	if err != nil {
		s.err(w, http.StatusUnauthorized, "unauthorized")
		return storage.User{}, false
	}
	return u, true
}

func userFromCtx(ctx context.Context) (storage.User, bool) {
	u, ok := ctx.Value(userKey).(storage.User)
	return u, ok
}
