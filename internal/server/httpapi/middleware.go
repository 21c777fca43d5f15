package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/common"
	"github.com/clipstream/backend/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// requireAuth gates a handler behind access-token authorization. The token is
// taken from the accessToken cookie first, then from an Authorization bearer
// header. On success the sanitized principal is attached to the request
// context; no token refresh happens here.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := accessTokenFromRequest(r)
		if token == "" {
			s.writeError(r.Context(), w, common.ErrorUnauthorized)
			return
		}

		user, err := s.sessions.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(r.Context(), w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if rest, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}

// userFromContext returns the principal attached by requireAuth.
func userFromContext(ctx context.Context) (*models.PublicUser, bool) {
	user, ok := ctx.Value(userKey).(*models.PublicUser)
	return user, ok
}
