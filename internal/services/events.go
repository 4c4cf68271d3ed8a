package services

import (
	"database/sql"

	"medisync/internal/models"
)

// Event is a notification drafted by a lifecycle operation. Operations
// return events instead of writing notifications themselves; the caller
// hands them to the NotificationService once the mutation has committed.
type Event struct {
	UserID       int64
	RelatedTable string
	RelatedID    int64
	Title        string
	Message      string
	Priority     models.NotificationPriority
}

func (e Event) notification() *models.Notification {
	return &models.Notification{
		UserID:       e.UserID,
		RelatedTable: sql.NullString{String: e.RelatedTable, Valid: e.RelatedTable != ""},
		RelatedID:    sql.NullInt64{Int64: e.RelatedID, Valid: e.RelatedID != 0},
		Title:        e.Title,
		Message:      e.Message,
		Priority:     e.Priority,
	}
}
