package repository

import (
	"database/sql"
	"time"

	"medisync/internal/database"
	"medisync/internal/models"
)

type AdministrationRepository struct {
	db *database.DB
}

func NewAdministrationRepository(db *database.DB) *AdministrationRepository {
	return &AdministrationRepository{db: db}
}

// Record inserts an administration event and, in the same transaction,
// returns the prescription's preparation to the To be Prepared queue so
// the next dose can be staged. Rows are append-only, never updated.
func (r *AdministrationRepository) Record(a *models.Administration) error {
	tx, err := r.db.BeginTx()
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO medication_administration
			(prescription_id, nurse_id, administration_time, patient_assessment,
			 adverse_reactions, remarks, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		a.PrescriptionID,
		a.NurseID,
		a.AdministeredAt,
		a.Assessment,
		a.AdverseReactions,
		a.Remarks,
		a.Status,
	)
	if err != nil {
		return storageErr("record administration", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get last insert id", err)
	}

	_, err = tx.Exec(`
		UPDATE medicine_preparation
		SET status = 'To be Prepared', updated_at = CURRENT_TIMESTAMP
		WHERE prescription_id = ? AND status = 'Prepared'
	`, a.PrescriptionID)
	if err != nil {
		return storageErr("reset preparation", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}

	a.ID = id
	return nil
}

// GetLastTime returns the most recent administration time for a
// prescription; ErrNotFound when no dose has been given yet.
func (r *AdministrationRepository) GetLastTime(prescriptionID int64) (time.Time, error) {
	query := `
		SELECT administration_time
		FROM medication_administration
		WHERE prescription_id = ?
		ORDER BY administration_time DESC
		LIMIT 1
	`
	var last time.Time
	err := r.db.QueryRow(query, prescriptionID).Scan(&last)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, storageErr("get last administration time", err)
	}
	return last, nil
}

// ListByPrescription retrieves all administration events for a
// prescription, newest first.
func (r *AdministrationRepository) ListByPrescription(prescriptionID int64) ([]*models.Administration, error) {
	query := `
		SELECT administration_id, prescription_id, nurse_id, administration_time,
		       patient_assessment, adverse_reactions, remarks, status, created_at
		FROM medication_administration
		WHERE prescription_id = ?
		ORDER BY administration_time DESC
	`
	rows, err := r.db.Query(query, prescriptionID)
	if err != nil {
		return nil, storageErr("list administrations", err)
	}
	defer rows.Close()

	return r.scanAdministrations(rows)
}

// ListAssignedPatients returns a nurse's active patients that have a
// Prepared medication inside its duration window, ready to administer.
func (r *AdministrationRepository) ListAssignedPatients(nurseID int64, now time.Time) ([]*models.AssignedPatient, error) {
	query := `
		SELECT DISTINCT p.patient_id,
		       p.patient_first_name,
		       p.patient_last_name,
		       p.date_of_birth,
		       p.sex,
		       p.room_number,
		       p.diagnosis,
		       m.generic_name,
		       m.brand_name
		FROM patients p
		JOIN prescriptions pr ON p.patient_id = pr.patient_id
		JOIN medicine_preparation mp ON pr.prescription_id = mp.prescription_id
		JOIN medicines m ON pr.medicine_id = m.medicine_id
		WHERE p.nurse_id = ?
		  AND p.status = 'Active'
		  AND pr.status = 'Active'
		  AND pr.duration_start <= ?
		  AND pr.duration_end >= ?
		  AND mp.status = 'Prepared'
		ORDER BY p.room_number, p.patient_last_name
	`
	today := now.Format(dateLayout)
	rows, err := r.db.Query(query, nurseID, today, today)
	if err != nil {
		return nil, storageErr("list assigned patients", err)
	}
	defer rows.Close()

	var patients []*models.AssignedPatient
	for rows.Next() {
		var p models.AssignedPatient
		err := rows.Scan(
			&p.PatientID,
			&p.FirstName,
			&p.LastName,
			&p.DateOfBirth,
			&p.Sex,
			&p.RoomNumber,
			&p.Diagnosis,
			&p.GenericName,
			&p.BrandName,
		)
		if err != nil {
			return nil, storageErr("scan assigned patient", err)
		}
		patients = append(patients, &p)
	}

	return patients, rows.Err()
}

// ActivePrescriptionDetail is a nurse-facing view of an administrable
// prescription including its dispensed lot.
type ActivePrescriptionDetail struct {
	DoctorID            int64
	PrescriptionID      int64
	PatientID           int64
	MedicineID          int64
	BrandName           string
	GenericName         string
	Dosage              string
	Frequency           string
	DurationStart       time.Time
	DurationEnd         time.Time
	SpecialInstructions sql.NullString
	PrescribedBy        string
	LotNumber           sql.NullString
	ExpiryDate          sql.NullTime
}

// ListActiveForPatient returns the patient's Active prescriptions of a given
// medicine that are inside their duration window.
func (r *AdministrationRepository) ListActiveForPatient(patientID int64, genericName, brandName string, now time.Time) ([]*ActivePrescriptionDetail, error) {
	query := `
		SELECT pr.doctor_id,
		       pr.prescription_id,
		       pr.patient_id,
		       m.medicine_id,
		       m.brand_name,
		       m.generic_name,
		       pr.dosage,
		       pr.frequency,
		       pr.duration_start,
		       pr.duration_end,
		       pr.special_instructions,
		       u.first_name || ' ' || u.last_name AS prescribed_by,
		       pv.medication_lot_number,
		       pv.expiry_date
		FROM prescriptions pr
		JOIN medicines m ON pr.medicine_id = m.medicine_id
		JOIN users u ON pr.doctor_id = u.user_id
		LEFT JOIN prescription_verification pv ON pr.prescription_id = pv.prescription_id
		WHERE pr.patient_id = ?
		  AND pr.status = 'Active'
		  AND pr.duration_start <= ?
		  AND pr.duration_end >= ?
		  AND m.generic_name = ?
		  AND m.brand_name = ?
		ORDER BY pr.created_at DESC
	`
	today := now.Format(dateLayout)
	rows, err := r.db.Query(query, patientID, today, today, genericName, brandName)
	if err != nil {
		return nil, storageErr("list active prescriptions for patient", err)
	}
	defer rows.Close()

	var details []*ActivePrescriptionDetail
	for rows.Next() {
		var d ActivePrescriptionDetail
		err := rows.Scan(
			&d.DoctorID,
			&d.PrescriptionID,
			&d.PatientID,
			&d.MedicineID,
			&d.BrandName,
			&d.GenericName,
			&d.Dosage,
			&d.Frequency,
			&d.DurationStart,
			&d.DurationEnd,
			&d.SpecialInstructions,
			&d.PrescribedBy,
			&d.LotNumber,
			&d.ExpiryDate,
		)
		if err != nil {
			return nil, storageErr("scan active prescription detail", err)
		}
		details = append(details, &d)
	}

	return details, rows.Err()
}

func (r *AdministrationRepository) scanAdministrations(rows *sql.Rows) ([]*models.Administration, error) {
	var administrations []*models.Administration
	for rows.Next() {
		var a models.Administration
		err := rows.Scan(
			&a.ID,
			&a.PrescriptionID,
			&a.NurseID,
			&a.AdministeredAt,
			&a.Assessment,
			&a.AdverseReactions,
			&a.Remarks,
			&a.Status,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, storageErr("scan administration", err)
		}
		administrations = append(administrations, &a)
	}

	return administrations, rows.Err()
}
