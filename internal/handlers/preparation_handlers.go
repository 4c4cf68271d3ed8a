package handlers

import (
	"net/http"
	"time"

	"medisync/internal/middleware"
	"medisync/internal/services"
)

// PreparationDueResponse is a preparation queue row
type PreparationDueResponse struct {
	PreparationID  int64  `json:"preparation_id"`
	PrescriptionID int64  `json:"prescription_id"`
	PatientName    string `json:"patient_name"`
	BrandName      string `json:"brand_name"`
	GenericName    string `json:"generic_name"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	Status         string `json:"status"`
	LastAdminTime  string `json:"last_administration_time,omitempty"`
}

// HandleListPreparationsDue lists doses entering the preparation window
func HandleListPreparationsDue(preparations *services.PreparationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		due, err := preparations.ListDue(time.Now())
		if err != nil {
			respondServiceError(w, err)
			return
		}

		out := make([]*PreparationDueResponse, 0, len(due))
		for _, d := range due {
			resp := &PreparationDueResponse{
				PreparationID:  d.PreparationID,
				PrescriptionID: d.PrescriptionID,
				PatientName:    d.PatientFirstName + " " + d.PatientLastName,
				BrandName:      d.BrandName,
				GenericName:    d.GenericName,
				Dosage:         d.Dosage,
				Frequency:      d.Frequency,
				Status:         string(d.Status),
			}
			if d.LastAdminTime.Valid {
				resp.LastAdminTime = d.LastAdminTime.Time.Format(time.RFC3339)
			}
			out = append(out, resp)
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// HandleMarkPrepared flips a queued preparation to Prepared
func HandleMarkPrepared(preparations *services.PreparationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid preparation ID")
			return
		}

		sess := middleware.GetSession(r)
		if err := preparations.MarkPrepared(sess, id); err != nil {
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"preparation_id": id,
			"status":         "Prepared",
		})
	}
}
