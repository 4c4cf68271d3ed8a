package repository

import (
	"database/sql"

	"medisync/internal/database"
	"medisync/internal/models"
)

type PatientRepository struct {
	db *database.DB
}

func NewPatientRepository(db *database.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

const patientColumns = `patient_id, patient_first_name, patient_last_name, date_of_birth, sex,
	       emergency_contact_name, emergency_person_relationship, emergency_contact_number,
	       room_number, admission_date, diagnosis, doctor_id, nurse_id, added_by, status,
	       created_at, updated_at`

// Create registers a new patient with status Active.
func (r *PatientRepository) Create(p *models.Patient) error {
	query := `
		INSERT INTO patients
			(patient_first_name, patient_last_name, date_of_birth, sex,
			 emergency_contact_name, emergency_person_relationship, emergency_contact_number,
			 room_number, admission_date, diagnosis, doctor_id, nurse_id, added_by, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'Active')
	`
	var admission interface{}
	if p.AdmissionDate.Valid {
		admission = p.AdmissionDate.Time.Format(dateLayout)
	}
	result, err := r.db.Exec(query,
		p.FirstName,
		p.LastName,
		p.DateOfBirth.Format(dateLayout),
		p.Sex,
		p.EmergencyContactName,
		p.EmergencyRelation,
		p.EmergencyContact,
		p.RoomNumber,
		admission,
		p.Diagnosis,
		p.DoctorID,
		p.NurseID,
		p.AddedBy,
	)
	if err != nil {
		return storageErr("create patient", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get last insert id", err)
	}

	p.ID = id
	p.Status = "Active"
	return nil
}

// Update replaces a patient's editable fields.
func (r *PatientRepository) Update(p *models.Patient) error {
	query := `
		UPDATE patients
		SET patient_first_name = ?, patient_last_name = ?, date_of_birth = ?, sex = ?,
		    emergency_contact_name = ?, emergency_person_relationship = ?, emergency_contact_number = ?,
		    room_number = ?, diagnosis = ?, doctor_id = ?, nurse_id = ?, status = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE patient_id = ?
	`
	result, err := r.db.Exec(query,
		p.FirstName,
		p.LastName,
		p.DateOfBirth.Format(dateLayout),
		p.Sex,
		p.EmergencyContactName,
		p.EmergencyRelation,
		p.EmergencyContact,
		p.RoomNumber,
		p.Diagnosis,
		p.DoctorID,
		p.NurseID,
		p.Status,
		p.ID,
	)
	if err != nil {
		return storageErr("update patient", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("check rows affected", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a patient by ID
func (r *PatientRepository) GetByID(id int64) (*models.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE patient_id = ?
	`
	var p models.Patient
	err := r.db.QueryRow(query, id).Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.Sex,
		&p.EmergencyContactName,
		&p.EmergencyRelation,
		&p.EmergencyContact,
		&p.RoomNumber,
		&p.AdmissionDate,
		&p.Diagnosis,
		&p.DoctorID,
		&p.NurseID,
		&p.AddedBy,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get patient", err)
	}

	return &p, nil
}

// List retrieves all patients, most recently admitted first.
func (r *PatientRepository) List() ([]*models.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, storageErr("list patients", err)
	}
	defer rows.Close()

	return r.scanPatients(rows)
}

// Search filters patients by name, room number or ID.
func (r *PatientRepository) Search(term string) ([]*models.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE patient_first_name LIKE ?
		   OR patient_last_name LIKE ?
		   OR room_number LIKE ?
		   OR CAST(patient_id AS TEXT) LIKE ?
		ORDER BY created_at DESC
	`
	like := "%" + term + "%"
	rows, err := r.db.Query(query, like, like, like, like)
	if err != nil {
		return nil, storageErr("search patients", err)
	}
	defer rows.Close()

	return r.scanPatients(rows)
}

// ListByDoctor retrieves a doctor's active patients.
func (r *PatientRepository) ListByDoctor(doctorID int64) ([]*models.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE doctor_id = ? AND status = 'Active'
		ORDER BY room_number, patient_last_name
	`
	rows, err := r.db.Query(query, doctorID)
	if err != nil {
		return nil, storageErr("list patients by doctor", err)
	}
	defer rows.Close()

	return r.scanPatients(rows)
}

func (r *PatientRepository) scanPatients(rows *sql.Rows) ([]*models.Patient, error) {
	var patients []*models.Patient
	for rows.Next() {
		var p models.Patient
		err := rows.Scan(
			&p.ID,
			&p.FirstName,
			&p.LastName,
			&p.DateOfBirth,
			&p.Sex,
			&p.EmergencyContactName,
			&p.EmergencyRelation,
			&p.EmergencyContact,
			&p.RoomNumber,
			&p.AdmissionDate,
			&p.Diagnosis,
			&p.DoctorID,
			&p.NurseID,
			&p.AddedBy,
			&p.Status,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, storageErr("scan patient", err)
		}
		patients = append(patients, &p)
	}

	return patients, rows.Err()
}
