package repository

import (
	"database/sql"

	"medisync/internal/database"
	"medisync/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `user_id, username, password, first_name, last_name, role, status,
	       email_address, contact_number, license_number, created_at, updated_at`

// Authenticate matches username and password against an Active user. The
// plaintext comparison is the preserved login contract of the system.
func (r *UserRepository) Authenticate(username, password string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = ? AND password = ? AND status = 'Active'
	`
	return r.scanUser(r.db.QueryRow(query, username, password), "authenticate user")
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = ?
	`
	return r.scanUser(r.db.QueryRow(query, id), "get user")
}

// GetByUsername retrieves a non-deleted user by username
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = ? AND status != 'Deleted'
	`
	return r.scanUser(r.db.QueryRow(query, username), "get user by username")
}

// UsernameExists reports whether a non-deleted user already holds the username
func (r *UserRepository) UsernameExists(username string) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE username = ? AND status != 'Deleted'`
	var count int
	if err := r.db.QueryRow(query, username).Scan(&count); err != nil {
		return false, storageErr("check username", err)
	}
	return count > 0, nil
}

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (username, password, first_name, last_name, role, status,
		                   email_address, contact_number, license_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	result, err := r.db.Exec(query,
		user.Username,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Role,
		user.Status,
		user.Email,
		user.ContactNumber,
		user.LicenseNumber,
	)
	if err != nil {
		return storageErr("create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get last insert id", err)
	}

	user.ID = id
	return nil
}

// Update updates a user's profile fields. The password is only changed when
// a non-empty one is supplied.
func (r *UserRepository) Update(user *models.User) error {
	var (
		result sql.Result
		err    error
	)
	if user.Password != "" {
		query := `
			UPDATE users
			SET username = ?, password = ?, first_name = ?, last_name = ?, role = ?,
			    status = ?, email_address = ?, contact_number = ?, license_number = ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE user_id = ?
		`
		result, err = r.db.Exec(query,
			user.Username, user.Password, user.FirstName, user.LastName, user.Role,
			user.Status, user.Email, user.ContactNumber, user.LicenseNumber, user.ID,
		)
	} else {
		query := `
			UPDATE users
			SET username = ?, first_name = ?, last_name = ?, role = ?,
			    status = ?, email_address = ?, contact_number = ?, license_number = ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE user_id = ?
		`
		result, err = r.db.Exec(query,
			user.Username, user.FirstName, user.LastName, user.Role,
			user.Status, user.Email, user.ContactNumber, user.LicenseNumber, user.ID,
		)
	}
	if err != nil {
		return storageErr("update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("check rows affected", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves all non-deleted users
func (r *UserRepository) List() ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE status != 'Deleted'
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// Search retrieves non-deleted users matching name, username or role
func (r *UserRepository) Search(term string) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE status != 'Deleted'
		  AND (username LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR role LIKE ?)
		ORDER BY created_at DESC
	`
	like := "%" + term + "%"
	rows, err := r.db.Query(query, like, like, like, like)
	if err != nil {
		return nil, storageErr("search users", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// ListActiveByRole retrieves Active users holding a role, ordered by name.
// Used for pharmacist notification fan-out and the doctor/nurse pick-lists.
func (r *UserRepository) ListActiveByRole(role models.Role) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = ? AND status = 'Active'
		ORDER BY last_name, first_name
	`
	rows, err := r.db.Query(query, role)
	if err != nil {
		return nil, storageErr("list users by role", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

func (r *UserRepository) scanUser(row *sql.Row, op string) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Status,
		&user.Email,
		&user.ContactNumber,
		&user.LicenseNumber,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &user, nil
}

func (r *UserRepository) scanUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Password,
			&user.FirstName,
			&user.LastName,
			&user.Role,
			&user.Status,
			&user.Email,
			&user.ContactNumber,
			&user.LicenseNumber,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, storageErr("scan user", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
