package handlers

import (
	"net/http"
	"time"

	"medisync/internal/database"
	"medisync/internal/middleware"
	"medisync/internal/models"
	"medisync/internal/repository"
)

// DashboardResponse carries the role-specific KPI counters
type DashboardResponse struct {
	ActivePatients       *int64 `json:"active_patients,omitempty"`
	ActivePrescriptions  *int64 `json:"active_prescriptions,omitempty"`
	PendingVerifications *int64 `json:"pending_verifications,omitempty"`
	PreparationsDue      *int64 `json:"preparations_due,omitempty"`
	AdministrationsToday *int64 `json:"administrations_today,omitempty"`
	UrgentNotifications  *int64 `json:"urgent_notifications,omitempty"`
}

// HandleDashboard returns the KPI counters relevant to the caller's role
func HandleDashboard(db *database.DB) http.HandlerFunc {
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.GetSession(r)
		now := time.Now()

		var resp DashboardResponse
		count := func(dst **int64, f func() (int64, error)) bool {
			n, err := f()
			if err != nil {
				respondServiceError(w, err)
				return false
			}
			*dst = &n
			return true
		}

		switch sess.Role {
		case models.RoleAdmin:
			if !count(&resp.ActivePatients, reportRepo.CountActivePatients) ||
				!count(&resp.ActivePrescriptions, reportRepo.CountActivePrescriptions) ||
				!count(&resp.PendingVerifications, reportRepo.CountPendingVerifications) ||
				!count(&resp.AdministrationsToday, func() (int64, error) {
					return reportRepo.CountAdministrationsToday(now)
				}) {
				return
			}
		case models.RoleDoctor:
			if !count(&resp.ActivePatients, reportRepo.CountActivePatients) ||
				!count(&resp.ActivePrescriptions, reportRepo.CountActivePrescriptions) {
				return
			}
		case models.RolePharmacist:
			if !count(&resp.PendingVerifications, reportRepo.CountPendingVerifications) ||
				!count(&resp.PreparationsDue, func() (int64, error) {
					return reportRepo.CountPreparationsDue(now)
				}) {
				return
			}
		case models.RoleNurse:
			if !count(&resp.ActivePatients, reportRepo.CountActivePatients) ||
				!count(&resp.AdministrationsToday, func() (int64, error) {
					return reportRepo.CountAdministrationsToday(now)
				}) {
				return
			}
		}

		if !count(&resp.UrgentNotifications, func() (int64, error) {
			return notificationRepo.CountByPriorityForUser(sess.UserID, models.PriorityUrgent)
		}) {
			return
		}

		respondJSON(w, http.StatusOK, resp)
	}
}
