package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore/hospital-platform/internal/identity"
	"github.com/clinicore/hospital-platform/internal/session"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

// Handler handles HTTP requests for authentication and the user directory
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new directory handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Logout handles POST /logout for the authenticated caller
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.svc.Logout(r.Context(), sess.Token, sess.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": "/login"})
}

// Register handles POST /register and POST /admin/users
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// AddUser handles POST /admin/add-user
func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.svc.AdminRegister(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// RosterResponse is the response for the admin user list
type RosterResponse struct {
	Users []*User `json:"users"`
	Count int     `json:"count"`
}

// Roster handles GET /admin/users
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Roster(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	writeJSON(w, http.StatusOK, RosterResponse{Users: users, Count: len(users)})
}

// ActiveRoster handles GET /admin/users/active
func (h *Handler) ActiveRoster(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ActiveRoster(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	writeJSON(w, http.StatusOK, RosterResponse{Users: users, Count: len(users)})
}

// ForceLogout handles POST /admin/users/{id}/force-logout
func (h *Handler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.ForceLogout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrRoleTaken),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, identity.ErrIdentityExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrNoWorkspace),
		errors.Is(err, identity.ErrWeakPassword):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("directory operation failed", "error", err)
		http.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
