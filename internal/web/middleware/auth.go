package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"

	"github.com/pushkind/dantes/internal/logging"
)

// Identity is the authenticated user attached to the request context.
type Identity struct {
	Email string
	Name  string
	HubID int64
	Roles []string
}

// HasRole reports whether the identity carries the given role.
func (id *Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// sessionClaims is the JWT payload issued by the auth service.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Name  string   `json:"name"`
	HubID int64    `json:"hub_id"`
	Roles []string `json:"roles"`
}

type contextKey int

const identityKey contextKey = iota

// SessionAuth validates the JWT session cookie and attaches the caller's
// identity to the request context. Requests without a valid session get
// 401.
func SessionAuth(secret, cookieName string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				unauthorized(w, r, "missing session")
				return
			}

			claims := &sessionClaims{}
			token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, r, "invalid session")
				return
			}

			id := &Identity{
				Email: claims.Email,
				Name:  claims.Name,
				HubID: claims.HubID,
				Roles: claims.Roles,
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers lacking the given role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id == nil || !id.HasRole(role) {
				logging.FromContext(r.Context()).Warn("auth: role denied",
					"path", r.URL.Path,
					"role", role,
				)
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFrom returns the authenticated identity, or nil outside
// SessionAuth.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

func unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	logging.FromContext(r.Context()).Warn("auth: rejected",
		"path", r.URL.Path,
		"reason", reason,
	)
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
}
