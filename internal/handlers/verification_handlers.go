package handlers

import (
	"net/http"
	"strconv"
	"time"

	"medisync/internal/middleware"
	"medisync/internal/models"
	"medisync/internal/services"
)

// VerifyRequest represents the pharmacist's decision payload
type VerifyRequest struct {
	Decision   string `json:"decision"` // Approve, Request Modification or Reject
	LotNumber  string `json:"medication_lot_number,omitempty"`
	Quantity   int64  `json:"quantity_dispensed,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"` // YYYY-MM-DD
	Reason     string `json:"reason,omitempty"`
}

// PendingPrescriptionResponse is a verification queue row
type PendingPrescriptionResponse struct {
	PrescriptionID int64  `json:"prescription_id"`
	PatientName    string `json:"patient_name"`
	BrandName      string `json:"brand_name"`
	GenericName    string `json:"generic_name"`
	Dosage         string `json:"dosage"`
	PrescribedBy   string `json:"prescribed_by"`
	CreatedAt      string `json:"created_at"`
}

// HandleVerifyPrescription applies a verification decision
func HandleVerifyPrescription(verifications *services.VerificationService, notifications *services.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid prescription ID")
			return
		}

		var req VerifyRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		in := services.VerifyInput{
			PrescriptionID: id,
			Decision:       models.VerificationDecision(req.Decision),
			LotNumber:      req.LotNumber,
			Quantity:       req.Quantity,
			Reason:         req.Reason,
		}
		if req.ExpiryDate != "" {
			expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid expiry date")
				return
			}
			in.ExpiryDate = &expiry
		}

		sess := middleware.GetSession(r)
		newStatus, events, err := verifications.Verify(sess, in)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		notifications.Dispatch(events)

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"prescription_id": id,
			"status":          string(newStatus),
		})
	}
}

// HandleListPendingVerifications lists the verification queue, optionally
// filtered with ?q=
func HandleListPendingVerifications(verifications *services.VerificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			pending []*models.PendingPrescription
			err     error
		)
		if term := r.URL.Query().Get("q"); term != "" {
			pending, err = verifications.SearchPending(term)
		} else {
			pending, err = verifications.ListPending()
		}
		if err != nil {
			respondServiceError(w, err)
			return
		}

		out := make([]*PendingPrescriptionResponse, 0, len(pending))
		for _, p := range pending {
			out = append(out, &PendingPrescriptionResponse{
				PrescriptionID: p.PrescriptionID,
				PatientName:    p.PatientFirstName + " " + p.PatientLastName,
				BrandName:      p.BrandName,
				GenericName:    p.GenericName,
				Dosage:         p.Dosage,
				PrescribedBy:   p.PrescribedBy,
				CreatedAt:      p.CreatedAt.Format(time.RFC3339),
			})
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// HandleListExpiringMedications lists dispensed lots expiring within
// ?days= days (default 30)
func HandleListExpiringMedications(verifications *services.VerificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 30
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				respondError(w, http.StatusBadRequest, "Invalid days parameter")
				return
			}
			days = n
		}

		expiring, err := verifications.ListExpiring(time.Now(), days)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		type row struct {
			VerificationID  int64  `json:"verification_id"`
			PrescriptionID  int64  `json:"prescription_id"`
			PatientName     string `json:"patient_name"`
			BrandName       string `json:"brand_name"`
			GenericName     string `json:"generic_name"`
			Quantity        int64  `json:"quantity_dispensed,omitempty"`
			ExpiryDate      string `json:"expiry_date"`
			DaysUntilExpiry int    `json:"days_until_expiry"`
		}
		out := make([]row, 0, len(expiring))
		for _, e := range expiring {
			out = append(out, row{
				VerificationID:  e.VerificationID,
				PrescriptionID:  e.PrescriptionID,
				PatientName:     e.PatientFirstName + " " + e.PatientLastName,
				BrandName:       e.BrandName,
				GenericName:     e.GenericName,
				Quantity:        e.Quantity.Int64,
				ExpiryDate:      e.ExpiryDate.Format("2006-01-02"),
				DaysUntilExpiry: e.DaysUntilExpiry,
			})
		}
		respondJSON(w, http.StatusOK, out)
	}
}
