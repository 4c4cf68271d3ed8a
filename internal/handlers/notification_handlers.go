package handlers

import (
	"net/http"
	"time"

	"medisync/internal/database"
	"medisync/internal/middleware"
	"medisync/internal/models"
	"medisync/internal/repository"
	"medisync/internal/services"
)

// NotificationResponse represents one notification in list views
type NotificationResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	Priority     string `json:"priority"`
	RelatedTable string `json:"related_table,omitempty"`
	RelatedID    int64  `json:"related_id,omitempty"`
	CreatedAt    string `json:"created_at"`
	TimeAgo      string `json:"time_ago"`
	UserName     string `json:"user_name,omitempty"`
	UserRole     string `json:"user_role,omitempty"`
}

func notificationResponse(n *models.Notification, now time.Time) *NotificationResponse {
	return &NotificationResponse{
		ID:           n.ID,
		Title:        n.Title,
		Message:      n.Message,
		Priority:     string(n.Priority),
		RelatedTable: n.RelatedTable.String,
		RelatedID:    n.RelatedID.Int64,
		CreatedAt:    n.CreatedAt.Format(time.RFC3339),
		TimeAgo:      n.TimeAgo(now),
		UserName:     n.UserName,
		UserRole:     n.UserRole,
	}
}

func notificationList(w http.ResponseWriter, list []*models.Notification, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}
	now := time.Now()
	out := make([]*NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, notificationResponse(n, now))
	}
	respondJSON(w, http.StatusOK, out)
}

// HandleListNotifications lists the caller's notifications from the last
// 30 days, optionally filtered with ?priority= or ?q=
func HandleListNotifications(notifications *services.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.GetSession(r)

		if priority := r.URL.Query().Get("priority"); priority != "" {
			switch models.NotificationPriority(priority) {
			case models.PriorityInfo, models.PriorityAttention, models.PriorityUrgent:
			default:
				respondError(w, http.StatusBadRequest, "Invalid priority")
				return
			}
			list, err := notifications.ListForUserByPriority(sess.UserID, models.NotificationPriority(priority))
			notificationList(w, list, err)
			return
		}

		if term := r.URL.Query().Get("q"); term != "" {
			list, err := notifications.SearchForUser(sess.UserID, term)
			notificationList(w, list, err)
			return
		}

		list, err := notifications.ListForUser(sess.UserID)
		notificationList(w, list, err)
	}
}

// HandleNotificationCounts returns the caller's per-priority counts for
// the badge row
func HandleNotificationCounts(db *database.DB) http.HandlerFunc {
	notificationRepo := repository.NewNotificationRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.GetSession(r)

		counts := make(map[string]int64, 3)
		for _, p := range []models.NotificationPriority{
			models.PriorityInfo, models.PriorityAttention, models.PriorityUrgent,
		} {
			n, err := notificationRepo.CountByPriorityForUser(sess.UserID, p)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			counts[string(p)] = n
		}
		respondJSON(w, http.StatusOK, counts)
	}
}

// HandleListAllNotifications lists every user's notifications for the
// admin overview
func HandleListAllNotifications(notifications *services.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := notifications.ListAll()
		notificationList(w, list, err)
	}
}
