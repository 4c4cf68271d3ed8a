package handlers

import (
	"net/http"
	"strconv"
	"time"

	"medisync/internal/middleware"
	"medisync/internal/models"
	"medisync/internal/services"
)

// RecordAdministrationRequest represents the nurse's administration payload
type RecordAdministrationRequest struct {
	PrescriptionID   int64  `json:"prescription_id"`
	AdministeredAt   string `json:"administration_time,omitempty"` // RFC3339, defaults to now
	Assessment       string `json:"patient_assessment"`
	AdverseReactions string `json:"adverse_reactions,omitempty"`
	Remarks          string `json:"remarks,omitempty"`
}

// HandleRecordAdministration records one administration event
func HandleRecordAdministration(administrations *services.AdministrationService, notifications *services.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecordAdministrationRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		administeredAt := time.Now()
		if req.AdministeredAt != "" {
			t, err := time.Parse(time.RFC3339, req.AdministeredAt)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid administration time")
				return
			}
			administeredAt = t
		}

		sess := middleware.GetSession(r)
		admin, events, err := administrations.Record(sess, services.RecordInput{
			PrescriptionID:   req.PrescriptionID,
			AdministeredAt:   administeredAt,
			Assessment:       models.AssessmentLevel(req.Assessment),
			AdverseReactions: req.AdverseReactions,
			Remarks:          req.Remarks,
		})
		if err != nil {
			respondServiceError(w, err)
			return
		}
		notifications.Dispatch(events)

		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"administration_id": admin.ID,
			"prescription_id":   admin.PrescriptionID,
			"status":            string(admin.Status),
		})
	}
}

// HandleListAssignedPatients lists the nurse's ready-to-administer patients
func HandleListAssignedPatients(administrations *services.AdministrationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.GetSession(r)

		patients, err := administrations.ListAssignedPatients(sess, time.Now())
		if err != nil {
			respondServiceError(w, err)
			return
		}

		type row struct {
			PatientID   int64  `json:"patient_id"`
			PatientName string `json:"patient_name"`
			DateOfBirth string `json:"date_of_birth"`
			Sex         string `json:"sex"`
			RoomNumber  string `json:"room_number,omitempty"`
			Diagnosis   string `json:"diagnosis,omitempty"`
			GenericName string `json:"generic_name"`
			BrandName   string `json:"brand_name"`
		}
		out := make([]row, 0, len(patients))
		for _, p := range patients {
			out = append(out, row{
				PatientID:   p.PatientID,
				PatientName: p.FirstName + " " + p.LastName,
				DateOfBirth: p.DateOfBirth.Format("2006-01-02"),
				Sex:         p.Sex,
				RoomNumber:  p.RoomNumber.String,
				Diagnosis:   p.Diagnosis.String,
				GenericName: p.GenericName,
				BrandName:   p.BrandName,
			})
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// HandleListAdministrablePrescriptions lists a patient's Active
// prescriptions of one medicine, named by ?generic= and ?brand=
func HandleListAdministrablePrescriptions(administrations *services.AdministrationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := strconv.ParseInt(r.URL.Query().Get("patient_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid patient ID")
			return
		}
		generic := r.URL.Query().Get("generic")
		brand := r.URL.Query().Get("brand")
		if generic == "" || brand == "" {
			respondError(w, http.StatusBadRequest, "generic and brand parameters are required")
			return
		}

		details, err := administrations.ListActiveForPatient(patientID, generic, brand, time.Now())
		if err != nil {
			respondServiceError(w, err)
			return
		}

		type row struct {
			PrescriptionID int64  `json:"prescription_id"`
			Dosage         string `json:"dosage"`
			Frequency      string `json:"frequency"`
			DurationStart  string `json:"duration_start"`
			DurationEnd    string `json:"duration_end"`
			Instructions   string `json:"special_instructions,omitempty"`
			PrescribedBy   string `json:"prescribed_by"`
			LotNumber      string `json:"medication_lot_number,omitempty"`
			ExpiryDate     string `json:"expiry_date,omitempty"`
		}
		out := make([]row, 0, len(details))
		for _, d := range details {
			item := row{
				PrescriptionID: d.PrescriptionID,
				Dosage:         d.Dosage,
				Frequency:      d.Frequency,
				DurationStart:  d.DurationStart.Format("2006-01-02"),
				DurationEnd:    d.DurationEnd.Format("2006-01-02"),
				Instructions:   d.SpecialInstructions.String,
				PrescribedBy:   d.PrescribedBy,
				LotNumber:      d.LotNumber.String,
			}
			if d.ExpiryDate.Valid {
				item.ExpiryDate = d.ExpiryDate.Time.Format("2006-01-02")
			}
			out = append(out, item)
		}
		respondJSON(w, http.StatusOK, out)
	}
}
