package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"medisync/internal/auth"
	"medisync/internal/database"
	"medisync/internal/middleware"
	"medisync/internal/repository"
	"medisync/internal/services"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	User    *UserResponse `json:"user,omitempty"`
	Token   string        `json:"token,omitempty"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HandleLogin authenticates a user and runs the expiry sweep. Completing
// expired prescriptions here means stale Active rows never survive past
// the next login.
func HandleLogin(db *database.DB, jwtManager *auth.JWTManager, completions *services.CompletionService) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest

		contentType := r.Header.Get("Content-Type")
		if contentType == "application/json" {
			if err := decodeJSON(r, &req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid form data")
				return
			}
			req.Username = r.FormValue("username")
			req.Password = r.FormValue("password")
		}

		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		user, err := userRepo.Authenticate(req.Username, req.Password)
		if err == repository.ErrNotFound {
			// Same error whether the user is unknown, inactive or the
			// password is wrong
			respondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "An error occurred")
			return
		}

		if _, err := completions.CompleteExpired(time.Now()); err != nil {
			// The sweep re-runs on the next login; don't fail this one
			log.Error().Err(err).Msg("expiry sweep failed")
		}

		token, err := jwtManager.GenerateToken(user.ID, user.FullName(), user.Role)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate authentication token")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			Path:     "/",
			MaxAge:   int(jwtManager.SessionDuration().Seconds()),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})

		respondJSON(w, http.StatusOK, AuthResponse{
			Success: true,
			Message: "Login successful",
			User:    userResponse(user),
			Token:   token,
		})
	}
}

// HandleLogout clears the authentication cookie
func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Logout successful",
		})
	}
}

// HandleGetCurrentUser returns the current authenticated user's information
func HandleGetCurrentUser(db *database.DB) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.GetSession(r)
		if !sess.Valid() {
			respondError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		user, err := userRepo.GetByID(sess.UserID)
		if err == repository.ErrNotFound {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to retrieve user information")
			return
		}

		if user.Status != "Active" {
			respondError(w, http.StatusForbidden, "Account is inactive")
			return
		}

		respondJSON(w, http.StatusOK, userResponse(user))
	}
}

// HandleRefreshToken issues a fresh token from a still-valid one
func HandleRefreshToken(db *database.DB, jwtManager *auth.JWTManager) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		newToken, err := jwtManager.RefreshToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		claims, err := jwtManager.ValidateToken(newToken)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to validate new token")
			return
		}

		user, err := userRepo.GetByID(claims.UserID)
		if err == repository.ErrNotFound {
			respondError(w, http.StatusUnauthorized, "User not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to verify user")
			return
		}

		if user.Status != "Active" {
			respondError(w, http.StatusForbidden, "Account is inactive")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    newToken,
			Path:     "/",
			MaxAge:   int(jwtManager.SessionDuration().Seconds()),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})

		respondJSON(w, http.StatusOK, AuthResponse{
			Success: true,
			Message: "Token refreshed successfully",
			Token:   newToken,
		})
	}
}

// tokenFromRequest extracts the JWT from cookie or Authorization header
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}

	return ""
}
