package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clinicore/hospital-platform/internal/identity"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

// RoleResolver looks up the roles held by an authenticated account.
type RoleResolver interface {
	RolesFor(ctx context.Context, userID, email string) ([]string, error)
}

// Guard authenticates requests and gates routes by role. Callers without a
// valid token are pointed back to the login screen; authenticated callers
// on the wrong screen are pointed to the restricted page.
type Guard struct {
	gateway identity.Gateway
	roles   RoleResolver
	logger  *logging.Logger
}

// NewGuard creates a route guard.
func NewGuard(gateway identity.Gateway, roles RoleResolver, logger *logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Default()
	}
	return &Guard{gateway: gateway, roles: roles, logger: logger}
}

type redirectResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

func writeRedirect(w http.ResponseWriter, status int, message, target string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(redirectResponse{Error: message, Redirect: target})
}

// Authenticate verifies the bearer token and attaches a Session to the
// request context. Accounts with no role assignment get the "user"
// fallback, which opens no workspace.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			writeRedirect(w, http.StatusUnauthorized, "authentication required", "/login")
			return
		}

		claims, err := g.gateway.Verify(r.Context(), token)
		if err != nil {
			writeRedirect(w, http.StatusUnauthorized, "authentication required", "/login")
			return
		}

		roles, err := g.roles.RolesFor(r.Context(), claims.UserID, claims.Email)
		if err != nil {
			g.logger.Error("role lookup failed", "user_id", claims.UserID, "error", err)
			http.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
			return
		}
		if len(roles) == 0 {
			roles = []string{"user"}
		}

		sess := &Session{
			UserID: claims.UserID,
			Email:  claims.Email,
			Token:  token,
			Roles:  roles,
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// RequireRole gates a route to holders of the given role. Admin passes
// every gate.
func (g *Guard) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := FromContext(r.Context())
			if !ok {
				writeRedirect(w, http.StatusUnauthorized, "authentication required", "/login")
				return
			}
			if !sess.HasRole(role) {
				writeRedirect(w, http.StatusForbidden, "this workspace belongs to another role", "/restricted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
