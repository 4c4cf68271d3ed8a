package handlers

import (
	"net/http"
	"time"

	"medisync/internal/middleware"
	"medisync/internal/models"
	"medisync/internal/services"
)

// CreatePrescriptionRequest represents the doctor's prescription order payload
type CreatePrescriptionRequest struct {
	PatientID     int64  `json:"patient_id"`
	MedicineID    int64  `json:"medicine_id"`
	Dosage        string `json:"dosage"`
	Frequency     string `json:"frequency"`
	DurationStart string `json:"duration_start"` // YYYY-MM-DD
	DurationEnd   string `json:"duration_end"`   // YYYY-MM-DD
	Instructions  string `json:"special_instructions,omitempty"`
}

// UpdatePrescriptionRequest carries the doctor-editable fields; omitted
// members are left unchanged
type UpdatePrescriptionRequest struct {
	Dosage        *string `json:"dosage,omitempty"`
	Frequency     *string `json:"frequency,omitempty"`
	DurationStart *string `json:"duration_start,omitempty"`
	DurationEnd   *string `json:"duration_end,omitempty"`
	Instructions  *string `json:"special_instructions,omitempty"`
	MedicineID    *int64  `json:"medicine_id,omitempty"`
}

// PrescriptionResponse represents prescription data in responses
type PrescriptionResponse struct {
	ID            int64  `json:"id"`
	PatientID     int64  `json:"patient_id"`
	DoctorID      int64  `json:"doctor_id"`
	MedicineID    int64  `json:"medicine_id"`
	Dosage        string `json:"dosage"`
	Frequency     string `json:"frequency"`
	DurationStart string `json:"duration_start"`
	DurationEnd   string `json:"duration_end"`
	Instructions  string `json:"special_instructions,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

func prescriptionResponse(p *models.Prescription) *PrescriptionResponse {
	return &PrescriptionResponse{
		ID:            p.ID,
		PatientID:     p.PatientID,
		DoctorID:      p.DoctorID,
		MedicineID:    p.MedicineID,
		Dosage:        p.Dosage,
		Frequency:     p.Frequency,
		DurationStart: p.DurationStart.Format("2006-01-02"),
		DurationEnd:   p.DurationEnd.Format("2006-01-02"),
		Instructions:  p.SpecialInstructions.String,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

// HandleCreatePrescription creates a prescription order
func HandleCreatePrescription(prescriptions *services.PrescriptionService, notifications *services.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePrescriptionRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		start, err := time.Parse("2006-01-02", req.DurationStart)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid duration start date")
			return
		}
		end, err := time.Parse("2006-01-02", req.DurationEnd)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid duration end date")
			return
		}

		sess := middleware.GetSession(r)
		prescription, events, err := prescriptions.Create(sess, services.CreateInput{
			PatientID:     req.PatientID,
			MedicineID:    req.MedicineID,
			Dosage:        req.Dosage,
			Frequency:     req.Frequency,
			DurationStart: start,
			DurationEnd:   end,
			Instructions:  req.Instructions,
		})
		if err != nil {
			respondServiceError(w, err)
			return
		}
		notifications.Dispatch(events)

		respondJSON(w, http.StatusCreated, prescriptionResponse(prescription))
	}
}

// HandleUpdatePrescription patches a prescription and returns it to the
// verification queue
func HandleUpdatePrescription(prescriptions *services.PrescriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid prescription ID")
			return
		}

		var req UpdatePrescriptionRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		in := services.UpdateInput{
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			Instructions: req.Instructions,
			MedicineID:   req.MedicineID,
		}
		if req.DurationStart != nil {
			start, err := time.Parse("2006-01-02", *req.DurationStart)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid duration start date")
				return
			}
			in.DurationStart = &start
		}
		if req.DurationEnd != nil {
			end, err := time.Parse("2006-01-02", *req.DurationEnd)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid duration end date")
				return
			}
			in.DurationEnd = &end
		}

		sess := middleware.GetSession(r)
		prescription, err := prescriptions.Update(sess, id, in)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, prescriptionResponse(prescription))
	}
}

// HandleListMyPrescriptions lists the authenticated doctor's prescriptions
func HandleListMyPrescriptions(prescriptions *services.PrescriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.GetSession(r)

		list, err := prescriptions.ListByDoctor(sess.UserID)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		out := make([]*PrescriptionResponse, 0, len(list))
		for _, p := range list {
			out = append(out, prescriptionResponse(p))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// HandleGetAdministrationHistory returns a prescription's administration log
func HandleGetAdministrationHistory(administrations *services.AdministrationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid prescription ID")
			return
		}

		history, err := administrations.ListByPrescription(id)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		type entry struct {
			ID               int64  `json:"id"`
			NurseID          int64  `json:"nurse_id"`
			AdministeredAt   string `json:"administration_time"`
			Assessment       string `json:"patient_assessment"`
			AdverseReactions string `json:"adverse_reactions"`
			Remarks          string `json:"remarks,omitempty"`
			Status           string `json:"status"`
		}
		out := make([]entry, 0, len(history))
		for _, a := range history {
			out = append(out, entry{
				ID:               a.ID,
				NurseID:          a.NurseID,
				AdministeredAt:   a.AdministeredAt.Format(time.RFC3339),
				Assessment:       string(a.Assessment),
				AdverseReactions: a.AdverseReactions,
				Remarks:          a.Remarks.String,
				Status:           string(a.Status),
			})
		}
		respondJSON(w, http.StatusOK, out)
	}
}
