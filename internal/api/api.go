// Package api is the HTTP surface: a public read side over the filtered
// views, an anonymous correction intake, and an allowlist-gated admin back
// office over the base tables.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/msarchive/msarchive/internal/auth"
	"github.com/msarchive/msarchive/internal/captcha"
	"github.com/msarchive/msarchive/internal/config"
	"github.com/msarchive/msarchive/internal/db"
)

// maxBodySize bounds every decoded request body.
const maxBodySize = 200 * 1024 // 200KB

// CorrectionRateLimiter throttles the anonymous intake (10 req/10min per IP).
var CorrectionRateLimiter = NewRateLimiter(10, 10*time.Minute)

type API struct {
	db      *db.DB
	auth    *auth.Auth
	captcha *captcha.Verifier
	cfg     *config.Config
}

func New(database *db.DB, a *auth.Auth, verifier *captcha.Verifier, cfg *config.Config) *API {
	return &API{db: database, auth: a, captcha: verifier, cfg: cfg}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("GET /api/me", a.handleMe)

	// Public read surface
	a.RegisterPublicRoutes(mux)

	// Anonymous correction intake
	mux.HandleFunc("POST /api/corrections", RateLimitMiddleware(CorrectionRateLimiter, a.handleSubmitCorrection))

	// Admin back office
	a.RegisterIncidentRoutes(mux)
	a.RegisterSuspectRoutes(mux)
	a.RegisterWeaponRoutes(mux)
	a.RegisterLegislationRoutes(mux)
	a.RegisterCorrectionRoutes(mux)
	a.RegisterSourceRoutes(mux)
	a.RegisterUserRoutes(mux)
	a.RegisterAuditRoutes(mux)
	a.RegisterExportRoutes(mux)
}

// --- Auth ---

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		jsonError(w, "a valid email is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		jsonError(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hash, err := a.auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	user, err := a.db.CreateUser(db.CreateUserInput{
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			jsonError(w, "email already registered", http.StatusConflict)
			return
		}
		slog.Error("creating user", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	token, err := a.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, passwordHash, err := a.db.GetUserByEmail(req.Email)
	if err != nil {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !a.auth.CheckPassword(passwordHash, req.Password) {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := a.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	_ = a.db.TouchLastSeen(user.ID)

	jsonResp(w, http.StatusOK, map[string]interface{}{
		"user":     user,
		"token":    token,
		"is_admin": a.db.IsAdmin(user.Email),
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := a.auth.ExtractClaims(r)
	if claims == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	user, err := a.db.GetUserByID(claims.UserID)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusOK, map[string]interface{}{
		"user":     user,
		"is_admin": a.db.IsAdmin(user.Email),
	})
}

// --- Helpers ---

// requireAdmin authenticates and authorizes an admin request. The response
// on failure is a deliberately uniform 401: a missing token, an invalid
// token, and a valid token whose email is not allowlisted are
// indistinguishable from outside.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := a.auth.ExtractClaims(r)
	if claims == nil || !a.db.IsAdmin(claims.Email) {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return claims.Email, true
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(dst)
}

// jsonResp writes a success envelope: {"data": ...}.
func jsonResp(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

// storeError surfaces a failed admin write. Constraint violations and other
// store failures travel verbatim in the error envelope so the back office
// sees what the database rejected, not a masked internal error.
func storeError(w http.ResponseWriter, op string, err error) {
	slog.Error(op, "error", err)
	jsonError(w, err.Error(), http.StatusBadRequest)
}

// jsonError writes an error envelope: {"error": "..."}.
func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
