package handlers

import (
	"database/sql"
	"net/http"

	"medisync/internal/database"
	"medisync/internal/models"
	"medisync/internal/repository"
)

// MedicineRequest represents the formulary entry payload
type MedicineRequest struct {
	BrandName    string `json:"brand_name"`
	GenericName  string `json:"generic_name"`
	Formulation  string `json:"formulation,omitempty"`
	Strength     string `json:"strength,omitempty"`
	IsControlled bool   `json:"is_controlled"`
}

// MedicineResponse represents formulary data in responses
type MedicineResponse struct {
	ID           int64  `json:"id"`
	BrandName    string `json:"brand_name"`
	GenericName  string `json:"generic_name"`
	Formulation  string `json:"formulation,omitempty"`
	Strength     string `json:"strength,omitempty"`
	IsControlled bool   `json:"is_controlled"`
}

func medicineResponse(m *models.Medicine) *MedicineResponse {
	return &MedicineResponse{
		ID:           m.ID,
		BrandName:    m.BrandName,
		GenericName:  m.GenericName,
		Formulation:  m.Formulation.String,
		Strength:     m.Strength.String,
		IsControlled: m.IsControlled,
	}
}

// HandleCreateMedicine adds a formulary entry
func HandleCreateMedicine(db *database.DB) http.HandlerFunc {
	medicineRepo := repository.NewMedicineRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var req MedicineRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.BrandName == "" || req.GenericName == "" {
			respondError(w, http.StatusBadRequest, "Brand and generic name are required")
			return
		}

		medicine := &models.Medicine{
			BrandName:    req.BrandName,
			GenericName:  req.GenericName,
			IsControlled: req.IsControlled,
		}
		if req.Formulation != "" {
			medicine.Formulation = sql.NullString{String: req.Formulation, Valid: true}
		}
		if req.Strength != "" {
			medicine.Strength = sql.NullString{String: req.Strength, Valid: true}
		}

		if err := medicineRepo.Create(medicine); err != nil {
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, medicineResponse(medicine))
	}
}

// HandleGetMedicine returns one formulary entry
func HandleGetMedicine(db *database.DB) http.HandlerFunc {
	medicineRepo := repository.NewMedicineRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid medicine ID")
			return
		}

		medicine, err := medicineRepo.GetByID(id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, medicineResponse(medicine))
	}
}

// HandleListMedicines lists the formulary, optionally filtered with ?q=
func HandleListMedicines(db *database.DB) http.HandlerFunc {
	medicineRepo := repository.NewMedicineRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			medicines []*models.Medicine
			err       error
		)
		if term := r.URL.Query().Get("q"); term != "" {
			medicines, err = medicineRepo.Search(term)
		} else {
			medicines, err = medicineRepo.List()
		}
		if err != nil {
			respondServiceError(w, err)
			return
		}

		out := make([]*MedicineResponse, 0, len(medicines))
		for _, m := range medicines {
			out = append(out, medicineResponse(m))
		}
		respondJSON(w, http.StatusOK, out)
	}
}
