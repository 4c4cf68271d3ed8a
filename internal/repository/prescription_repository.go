package repository

import (
	"database/sql"
	"time"

	"medisync/internal/database"
	"medisync/internal/models"
)

type PrescriptionRepository struct {
	db *database.DB
}

func NewPrescriptionRepository(db *database.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

const dateLayout = "2006-01-02"

// CreateWithVerification inserts a prescription with status Pending
// Verification together with its empty verification companion row. Both
// inserts happen in one transaction; a failure of either leaves nothing
// behind.
func (r *PrescriptionRepository) CreateWithVerification(p *models.Prescription) error {
	tx, err := r.db.BeginTx()
	if err != nil {
		return storageErr("begin create prescription", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO prescriptions
			(patient_id, doctor_id, medicine_id, dosage, frequency,
			 duration_start, duration_end, special_instructions, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'Pending Verification')
	`,
		p.PatientID,
		p.DoctorID,
		p.MedicineID,
		p.Dosage,
		p.Frequency,
		p.DurationStart.Format(dateLayout),
		p.DurationEnd.Format(dateLayout),
		p.SpecialInstructions,
	)
	if err != nil {
		return storageErr("insert prescription", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get last insert id", err)
	}

	_, err = tx.Exec(`
		INSERT INTO prescription_verification (prescription_id, pharmacist_id, decision)
		VALUES (?, NULL, NULL)
	`, id)
	if err != nil {
		return storageErr("insert verification row", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit create prescription", err)
	}

	p.ID = id
	p.Status = models.StatusPendingVerification
	return nil
}

// UpdateFields holds the doctor-editable prescription fields; nil members
// are left untouched.
type UpdateFields struct {
	Dosage              *string
	DurationStart       *time.Time
	DurationEnd         *time.Time
	Frequency           *string
	SpecialInstructions *string
	MedicineID          *int64
}

// Empty reports whether no field is supplied.
func (f UpdateFields) Empty() bool {
	return f.Dosage == nil && f.DurationStart == nil && f.DurationEnd == nil &&
		f.Frequency == nil && f.SpecialInstructions == nil && f.MedicineID == nil
}

// Update patches the supplied fields and unconditionally resets the status
// to Pending Verification, re-entering the verification queue.
func (r *PrescriptionRepository) Update(id int64, fields UpdateFields) error {
	set := ""
	var args []interface{}

	add := func(clause string, value interface{}) {
		set += clause + ", "
		args = append(args, value)
	}

	if fields.Dosage != nil {
		add("dosage = ?", *fields.Dosage)
	}
	if fields.DurationStart != nil {
		add("duration_start = ?", fields.DurationStart.Format(dateLayout))
	}
	if fields.DurationEnd != nil {
		add("duration_end = ?", fields.DurationEnd.Format(dateLayout))
	}
	if fields.Frequency != nil {
		add("frequency = ?", *fields.Frequency)
	}
	if fields.SpecialInstructions != nil {
		add("special_instructions = ?", *fields.SpecialInstructions)
	}
	if fields.MedicineID != nil {
		add("medicine_id = ?", *fields.MedicineID)
	}

	query := `UPDATE prescriptions SET ` + set +
		`status = 'Pending Verification', updated_at = CURRENT_TIMESTAMP WHERE prescription_id = ?`
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return storageErr("update prescription", err)
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

// GetByID retrieves a prescription by ID
func (r *PrescriptionRepository) GetByID(id int64) (*models.Prescription, error) {
	query := `
		SELECT prescription_id, patient_id, doctor_id, medicine_id, dosage, frequency,
		       duration_start, duration_end, special_instructions, status, created_at, updated_at
		FROM prescriptions
		WHERE prescription_id = ?
	`
	var p models.Prescription
	err := r.db.QueryRow(query, id).Scan(
		&p.ID,
		&p.PatientID,
		&p.DoctorID,
		&p.MedicineID,
		&p.Dosage,
		&p.Frequency,
		&p.DurationStart,
		&p.DurationEnd,
		&p.SpecialInstructions,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get prescription", err)
	}

	return &p, nil
}

// ListByDoctor retrieves a doctor's prescriptions, newest first
func (r *PrescriptionRepository) ListByDoctor(doctorID int64) ([]*models.Prescription, error) {
	query := `
		SELECT prescription_id, patient_id, doctor_id, medicine_id, dosage, frequency,
		       duration_start, duration_end, special_instructions, status, created_at, updated_at
		FROM prescriptions
		WHERE doctor_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, doctorID)
	if err != nil {
		return nil, storageErr("list prescriptions by doctor", err)
	}
	defer rows.Close()

	return r.scanPrescriptions(rows)
}

// ListPending returns the pharmacist verification queue, newest first.
func (r *PrescriptionRepository) ListPending() ([]*models.PendingPrescription, error) {
	query := pendingQuery + ` ORDER BY pr.created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, storageErr("list pending prescriptions", err)
	}
	defer rows.Close()

	return r.scanPending(rows)
}

// SearchPending filters the verification queue by patient name, medicine
// name or prescription id.
func (r *PrescriptionRepository) SearchPending(term string) ([]*models.PendingPrescription, error) {
	query := pendingQuery + `
		  AND (p.patient_first_name LIKE ?
		       OR p.patient_last_name LIKE ?
		       OR m.brand_name LIKE ?
		       OR m.generic_name LIKE ?
		       OR CAST(pr.prescription_id AS TEXT) LIKE ?)
		ORDER BY pr.created_at DESC
	`
	like := "%" + term + "%"
	rows, err := r.db.Query(query, like, like, like, like, like)
	if err != nil {
		return nil, storageErr("search pending prescriptions", err)
	}
	defer rows.Close()

	return r.scanPending(rows)
}

const pendingQuery = `
	SELECT pr.prescription_id,
	       p.patient_first_name,
	       p.patient_last_name,
	       m.brand_name,
	       m.generic_name,
	       pr.dosage,
	       u.first_name || ' ' || u.last_name AS prescribed_by,
	       pr.created_at
	FROM prescriptions pr
	JOIN patients p ON pr.patient_id = p.patient_id
	JOIN medicines m ON pr.medicine_id = m.medicine_id
	JOIN users u ON pr.doctor_id = u.user_id
	WHERE pr.status = 'Pending Verification'`

// NotificationDetails carries the joined fields notification messages need.
type NotificationDetails struct {
	PrescriptionID int64
	DoctorID       int64
	PatientName    string
	NurseID        sql.NullInt64
	BrandName      string
	GenericName    string
}

// GetNotificationDetails fetches the details needed to word notifications
// about a prescription.
func (r *PrescriptionRepository) GetNotificationDetails(id int64) (*NotificationDetails, error) {
	query := `
		SELECT pr.prescription_id,
		       pr.doctor_id,
		       p.patient_first_name || ' ' || p.patient_last_name,
		       p.nurse_id,
		       m.brand_name,
		       m.generic_name
		FROM prescriptions pr
		JOIN patients p ON pr.patient_id = p.patient_id
		JOIN medicines m ON pr.medicine_id = m.medicine_id
		WHERE pr.prescription_id = ?
	`
	var d NotificationDetails
	err := r.db.QueryRow(query, id).Scan(
		&d.PrescriptionID,
		&d.DoctorID,
		&d.PatientName,
		&d.NurseID,
		&d.BrandName,
		&d.GenericName,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get notification details", err)
	}
	return &d, nil
}

// ExpiredPrescription is an Active prescription whose duration has ended.
type ExpiredPrescription struct {
	PrescriptionID int64
	DoctorID       int64
	PatientName    string
	BrandName      string
	GenericName    string
}

// ListExpiredActive returns Active prescriptions whose duration_end has
// passed, with the fields the completion notifications need.
func (r *PrescriptionRepository) ListExpiredActive(today time.Time) ([]*ExpiredPrescription, error) {
	query := `
		SELECT pr.prescription_id,
		       pr.doctor_id,
		       p.patient_first_name || ' ' || p.patient_last_name,
		       m.brand_name,
		       m.generic_name
		FROM prescriptions pr
		JOIN patients p ON pr.patient_id = p.patient_id
		JOIN medicines m ON pr.medicine_id = m.medicine_id
		WHERE pr.status = 'Active'
		  AND pr.duration_end < ?
	`
	rows, err := r.db.Query(query, today.Format(dateLayout))
	if err != nil {
		return nil, storageErr("list expired prescriptions", err)
	}
	defer rows.Close()

	var expired []*ExpiredPrescription
	for rows.Next() {
		var e ExpiredPrescription
		err := rows.Scan(&e.PrescriptionID, &e.DoctorID, &e.PatientName, &e.BrandName, &e.GenericName)
		if err != nil {
			return nil, storageErr("scan expired prescription", err)
		}
		expired = append(expired, &e)
	}

	return expired, rows.Err()
}

// CompleteIfActive transitions a prescription to Completed only if it is
// still Active, guarding against a concurrent sweep having moved it first.
func (r *PrescriptionRepository) CompleteIfActive(id int64) (bool, error) {
	query := `
		UPDATE prescriptions
		SET status = 'Completed', updated_at = CURRENT_TIMESTAMP
		WHERE prescription_id = ? AND status = 'Active'
	`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, storageErr("complete prescription", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storageErr("check rows affected", err)
	}
	return rows > 0, nil
}

func (r *PrescriptionRepository) scanPrescriptions(rows *sql.Rows) ([]*models.Prescription, error) {
	var prescriptions []*models.Prescription
	for rows.Next() {
		var p models.Prescription
		err := rows.Scan(
			&p.ID,
			&p.PatientID,
			&p.DoctorID,
			&p.MedicineID,
			&p.Dosage,
			&p.Frequency,
			&p.DurationStart,
			&p.DurationEnd,
			&p.SpecialInstructions,
			&p.Status,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, storageErr("scan prescription", err)
		}
		prescriptions = append(prescriptions, &p)
	}

	return prescriptions, rows.Err()
}

func (r *PrescriptionRepository) scanPending(rows *sql.Rows) ([]*models.PendingPrescription, error) {
	var pending []*models.PendingPrescription
	for rows.Next() {
		var p models.PendingPrescription
		err := rows.Scan(
			&p.PrescriptionID,
			&p.PatientFirstName,
			&p.PatientLastName,
			&p.BrandName,
			&p.GenericName,
			&p.Dosage,
			&p.PrescribedBy,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, storageErr("scan pending prescription", err)
		}
		pending = append(pending, &p)
	}

	return pending, rows.Err()
}
