package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"medisync/internal/database"
	"medisync/internal/middleware"
	"medisync/internal/models"
	"medisync/internal/repository"
)

// PatientRequest represents the patient admission / update payload
type PatientRequest struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	DateOfBirth          string `json:"date_of_birth"` // YYYY-MM-DD
	Sex                  string `json:"sex"`
	EmergencyContactName string `json:"emergency_contact_name,omitempty"`
	EmergencyRelation    string `json:"emergency_relation,omitempty"`
	EmergencyContact     string `json:"emergency_contact,omitempty"`
	RoomNumber           string `json:"room_number,omitempty"`
	AdmissionDate        string `json:"admission_date,omitempty"` // YYYY-MM-DD
	Diagnosis            string `json:"diagnosis,omitempty"`
	DoctorID             int64  `json:"doctor_id,omitempty"`
	NurseID              int64  `json:"nurse_id,omitempty"`
	Status               string `json:"status,omitempty"`
}

// PatientResponse represents patient data in responses
type PatientResponse struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DateOfBirth   string `json:"date_of_birth"`
	Sex           string `json:"sex"`
	RoomNumber    string `json:"room_number,omitempty"`
	AdmissionDate string `json:"admission_date,omitempty"`
	Diagnosis     string `json:"diagnosis,omitempty"`
	DoctorID      int64  `json:"doctor_id,omitempty"`
	NurseID       int64  `json:"nurse_id,omitempty"`
	Status        string `json:"status"`
}

func patientResponse(p *models.Patient) *PatientResponse {
	resp := &PatientResponse{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: p.DateOfBirth.Format("2006-01-02"),
		Sex:         p.Sex,
		RoomNumber:  p.RoomNumber.String,
		Diagnosis:   p.Diagnosis.String,
		DoctorID:    p.DoctorID.Int64,
		NurseID:     p.NurseID.Int64,
		Status:      p.Status,
	}
	if p.AdmissionDate.Valid {
		resp.AdmissionDate = p.AdmissionDate.Time.Format("2006-01-02")
	}
	return resp
}

func patientFromRequest(req *PatientRequest) (*models.Patient, string) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, "First and last name are required"
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, "Invalid date of birth"
	}
	if req.Sex != "Male" && req.Sex != "Female" {
		return nil, "Sex must be Male or Female"
	}

	p := &models.Patient{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Sex:         req.Sex,
	}
	if req.EmergencyContactName != "" {
		p.EmergencyContactName = sql.NullString{String: req.EmergencyContactName, Valid: true}
	}
	if req.EmergencyRelation != "" {
		p.EmergencyRelation = sql.NullString{String: req.EmergencyRelation, Valid: true}
	}
	if req.EmergencyContact != "" {
		p.EmergencyContact = sql.NullString{String: req.EmergencyContact, Valid: true}
	}
	if req.RoomNumber != "" {
		p.RoomNumber = sql.NullString{String: req.RoomNumber, Valid: true}
	}
	if req.AdmissionDate != "" {
		admitted, err := time.Parse("2006-01-02", req.AdmissionDate)
		if err != nil {
			return nil, "Invalid admission date"
		}
		p.AdmissionDate = sql.NullTime{Time: admitted, Valid: true}
	}
	if req.Diagnosis != "" {
		p.Diagnosis = sql.NullString{String: req.Diagnosis, Valid: true}
	}
	if req.DoctorID != 0 {
		p.DoctorID = sql.NullInt64{Int64: req.DoctorID, Valid: true}
	}
	if req.NurseID != 0 {
		p.NurseID = sql.NullInt64{Int64: req.NurseID, Valid: true}
	}
	return p, ""
}

// HandleCreatePatient admits a patient
func HandleCreatePatient(db *database.DB) http.HandlerFunc {
	patientRepo := repository.NewPatientRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		patient, msg := patientFromRequest(&req)
		if msg != "" {
			respondError(w, http.StatusBadRequest, msg)
			return
		}

		sess := middleware.GetSession(r)
		patient.AddedBy = sql.NullInt64{Int64: sess.UserID, Valid: true}

		if err := patientRepo.Create(patient); err != nil {
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, patientResponse(patient))
	}
}

// HandleUpdatePatient updates a patient record
func HandleUpdatePatient(db *database.DB) http.HandlerFunc {
	patientRepo := repository.NewPatientRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid patient ID")
			return
		}

		var req PatientRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		patient, msg := patientFromRequest(&req)
		if msg != "" {
			respondError(w, http.StatusBadRequest, msg)
			return
		}
		patient.ID = id
		patient.Status = req.Status
		if patient.Status == "" {
			patient.Status = "Active"
		}
		if patient.Status != "Active" && patient.Status != "Discharged" {
			respondError(w, http.StatusBadRequest, "Invalid status")
			return
		}

		if err := patientRepo.Update(patient); err != nil {
			respondServiceError(w, err)
			return
		}

		updated, err := patientRepo.GetByID(id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, patientResponse(updated))
	}
}

// HandleGetPatient returns one patient record
func HandleGetPatient(db *database.DB) http.HandlerFunc {
	patientRepo := repository.NewPatientRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid patient ID")
			return
		}

		patient, err := patientRepo.GetByID(id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, patientResponse(patient))
	}
}

// HandleListPatients lists patients, optionally filtered with ?q=
func HandleListPatients(db *database.DB) http.HandlerFunc {
	patientRepo := repository.NewPatientRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			patients []*models.Patient
			err      error
		)
		if term := r.URL.Query().Get("q"); term != "" {
			patients, err = patientRepo.Search(term)
		} else {
			patients, err = patientRepo.List()
		}
		if err != nil {
			respondServiceError(w, err)
			return
		}

		out := make([]*PatientResponse, 0, len(patients))
		for _, p := range patients {
			out = append(out, patientResponse(p))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// HandleListMyPatients lists the authenticated doctor's patients
func HandleListMyPatients(db *database.DB) http.HandlerFunc {
	patientRepo := repository.NewPatientRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.GetSession(r)

		patients, err := patientRepo.ListByDoctor(sess.UserID)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		out := make([]*PatientResponse, 0, len(patients))
		for _, p := range patients {
			out = append(out, patientResponse(p))
		}
		respondJSON(w, http.StatusOK, out)
	}
}
