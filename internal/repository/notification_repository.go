package repository

import (
	"database/sql"

	"medisync/internal/database"
	"medisync/internal/models"
)

type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification. Notifications are read-only afterward;
// there is no read/unread flag.
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, related_table, related_id, title, message, type)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		n.UserID,
		n.RelatedTable,
		n.RelatedID,
		n.Title,
		n.Message,
		n.Priority,
	)
	if err != nil {
		return storageErr("create notification", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get last insert id", err)
	}

	n.ID = id
	return nil
}

// ListForUser retrieves a user's notifications from the past 30 days,
// newest first.
func (r *NotificationRepository) ListForUser(userID int64) ([]*models.Notification, error) {
	query := `
		SELECT notification_id, user_id, related_table, related_id, title, message, type, created_at
		FROM notifications
		WHERE user_id = ?
		  AND created_at >= datetime('now', '-30 days')
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, storageErr("list notifications", err)
	}
	defer rows.Close()

	return r.scanNotifications(rows)
}

// ListForUserByPriority retrieves a user's notifications of one priority
// from the past 30 days.
func (r *NotificationRepository) ListForUserByPriority(userID int64, priority models.NotificationPriority) ([]*models.Notification, error) {
	query := `
		SELECT notification_id, user_id, related_table, related_id, title, message, type, created_at
		FROM notifications
		WHERE user_id = ?
		  AND type = ?
		  AND created_at >= datetime('now', '-30 days')
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, userID, priority)
	if err != nil {
		return nil, storageErr("list notifications by priority", err)
	}
	defer rows.Close()

	return r.scanNotifications(rows)
}

// SearchForUser filters a user's 30-day notifications by title or message.
func (r *NotificationRepository) SearchForUser(userID int64, term string) ([]*models.Notification, error) {
	query := `
		SELECT notification_id, user_id, related_table, related_id, title, message, type, created_at
		FROM notifications
		WHERE user_id = ?
		  AND (title LIKE ? OR message LIKE ?)
		  AND created_at >= datetime('now', '-30 days')
		ORDER BY created_at DESC
	`
	like := "%" + term + "%"
	rows, err := r.db.Query(query, userID, like, like)
	if err != nil {
		return nil, storageErr("search notifications", err)
	}
	defer rows.Close()

	return r.scanNotifications(rows)
}

// ListAll retrieves every user's notifications from the past 30 days with
// the owning user's name and role, for the admin view.
func (r *NotificationRepository) ListAll() ([]*models.Notification, error) {
	query := `
		SELECT n.notification_id, n.user_id, n.related_table, n.related_id,
		       n.title, n.message, n.type, n.created_at,
		       u.first_name || ' ' || u.last_name AS user_name,
		       u.role
		FROM notifications n
		JOIN users u ON n.user_id = u.user_id
		WHERE n.created_at >= datetime('now', '-30 days')
		ORDER BY n.created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, storageErr("list all notifications", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.RelatedTable,
			&n.RelatedID,
			&n.Title,
			&n.Message,
			&n.Priority,
			&n.CreatedAt,
			&n.UserName,
			&n.UserRole,
		)
		if err != nil {
			return nil, storageErr("scan notification", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// CountByPriorityForUser counts a user's 30-day notifications of one priority.
func (r *NotificationRepository) CountByPriorityForUser(userID int64, priority models.NotificationPriority) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = ?
		  AND type = ?
		  AND created_at >= datetime('now', '-30 days')
	`
	var count int64
	err := r.db.QueryRow(query, userID, priority).Scan(&count)
	if err != nil {
		return 0, storageErr("count notifications", err)
	}
	return count, nil
}

func (r *NotificationRepository) scanNotifications(rows *sql.Rows) ([]*models.Notification, error) {
	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.RelatedTable,
			&n.RelatedID,
			&n.Title,
			&n.Message,
			&n.Priority,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, storageErr("scan notification", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}
