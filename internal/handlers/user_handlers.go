package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"medisync/internal/database"
	"medisync/internal/models"
	"medisync/internal/repository"
)

// CreateUserRequest represents the staff account creation payload
type CreateUserRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	Email         string `json:"email,omitempty"`
	ContactNumber string `json:"contact_number,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
}

// UpdateUserRequest represents the staff account update payload. Password
// is changed only when non-empty.
type UpdateUserRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password,omitempty"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	Email         string `json:"email,omitempty"`
	ContactNumber string `json:"contact_number,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
}

func userResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.FullName(),
		Role:      string(u.Role),
		Email:     u.Email.String,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func validRole(role string) bool {
	switch models.Role(role) {
	case models.RoleAdmin, models.RoleDoctor, models.RoleNurse, models.RolePharmacist:
		return true
	}
	return false
}

// HandleCreateUser creates a staff account
func HandleCreateUser(db *database.DB) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}
		if req.FirstName == "" || req.LastName == "" {
			respondError(w, http.StatusBadRequest, "First and last name are required")
			return
		}
		if !validRole(req.Role) {
			respondError(w, http.StatusBadRequest, "Invalid role")
			return
		}

		exists, err := userRepo.UsernameExists(req.Username)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "An error occurred")
			return
		}
		if exists {
			respondError(w, http.StatusConflict, "Username already exists")
			return
		}

		user := &models.User{
			Username:  req.Username,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      models.Role(req.Role),
			Status:    "Active",
		}
		if req.Email != "" {
			user.Email = sql.NullString{String: req.Email, Valid: true}
		}
		if req.ContactNumber != "" {
			user.ContactNumber = sql.NullString{String: req.ContactNumber, Valid: true}
		}
		if req.LicenseNumber != "" {
			user.LicenseNumber = sql.NullString{String: req.LicenseNumber, Valid: true}
		}

		if err := userRepo.Create(user); err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				respondError(w, http.StatusConflict, "Username already exists")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to create user")
			return
		}

		respondJSON(w, http.StatusCreated, userResponse(user))
	}
}

// HandleUpdateUser updates a staff account
func HandleUpdateUser(db *database.DB) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		var req UpdateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if !validRole(req.Role) {
			respondError(w, http.StatusBadRequest, "Invalid role")
			return
		}
		switch req.Status {
		case "Active", "Inactive", "Deleted":
		default:
			respondError(w, http.StatusBadRequest, "Invalid status")
			return
		}

		user := &models.User{
			ID:        id,
			Username:  strings.TrimSpace(req.Username),
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      models.Role(req.Role),
			Status:    req.Status,
		}
		if req.Email != "" {
			user.Email = sql.NullString{String: req.Email, Valid: true}
		}
		if req.ContactNumber != "" {
			user.ContactNumber = sql.NullString{String: req.ContactNumber, Valid: true}
		}
		if req.LicenseNumber != "" {
			user.LicenseNumber = sql.NullString{String: req.LicenseNumber, Valid: true}
		}

		if err := userRepo.Update(user); err != nil {
			respondServiceError(w, err)
			return
		}

		updated, err := userRepo.GetByID(id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, userResponse(updated))
	}
}

// HandleListUsers lists staff accounts, optionally filtered with ?q=
func HandleListUsers(db *database.DB) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			users []*models.User
			err   error
		)
		if term := r.URL.Query().Get("q"); term != "" {
			users, err = userRepo.Search(term)
		} else {
			users, err = userRepo.List()
		}
		if err != nil {
			respondServiceError(w, err)
			return
		}

		out := make([]*UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, userResponse(u))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// HandleGetUser returns one staff account
func HandleGetUser(db *database.DB) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		user, err := userRepo.GetByID(id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, userResponse(user))
	}
}

// HandleListUsersByRole lists Active users of the role in ?role=, for the
// doctor and nurse pick-lists on patient forms
func HandleListUsersByRole(db *database.DB) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		if !validRole(role) {
			respondError(w, http.StatusBadRequest, "Invalid role")
			return
		}

		users, err := userRepo.ListActiveByRole(models.Role(role))
		if err != nil {
			respondServiceError(w, err)
			return
		}

		out := make([]*UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, userResponse(u))
		}
		respondJSON(w, http.StatusOK, out)
	}
}
