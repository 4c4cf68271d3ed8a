package repository

import (
	"time"

	"medisync/internal/database"
)

// ReportRepository serves the read models behind the admin reports and the
// per-role dashboard counters.
type ReportRepository struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ReportFilter narrows report queries; nil members are ignored.
type ReportFilter struct {
	From      *time.Time
	To        *time.Time
	PatientID *int64
	DoctorID  *int64
	NurseID   *int64
}

// PrescriptionRecord is one row of the prescription activity report.
type PrescriptionRecord struct {
	PrescriptionID int64
	PatientName    string
	DoctorName     string
	BrandName      string
	GenericName    string
	Dosage         string
	Frequency      string
	Status         string
	CreatedAt      time.Time
}

// GetPrescriptionRecords lists prescriptions matching the filter, newest first.
func (r *ReportRepository) GetPrescriptionRecords(f ReportFilter) ([]*PrescriptionRecord, error) {
	query := `
		SELECT pr.prescription_id,
		       p.patient_first_name || ' ' || p.patient_last_name,
		       u.first_name || ' ' || u.last_name,
		       m.brand_name,
		       m.generic_name,
		       pr.dosage,
		       pr.frequency,
		       pr.status,
		       pr.created_at
		FROM prescriptions pr
		JOIN patients p ON pr.patient_id = p.patient_id
		JOIN users u ON pr.doctor_id = u.user_id
		JOIN medicines m ON pr.medicine_id = m.medicine_id
		WHERE 1 = 1
	`
	var args []interface{}
	if f.From != nil {
		query += ` AND pr.created_at >= ?`
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		query += ` AND pr.created_at < date(?, '+1 day')`
		args = append(args, f.To.Format(dateLayout))
	}
	if f.PatientID != nil {
		query += ` AND pr.patient_id = ?`
		args = append(args, *f.PatientID)
	}
	if f.DoctorID != nil {
		query += ` AND pr.doctor_id = ?`
		args = append(args, *f.DoctorID)
	}
	query += ` ORDER BY pr.created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("get prescription records", err)
	}
	defer rows.Close()

	var records []*PrescriptionRecord
	for rows.Next() {
		var rec PrescriptionRecord
		err := rows.Scan(
			&rec.PrescriptionID,
			&rec.PatientName,
			&rec.DoctorName,
			&rec.BrandName,
			&rec.GenericName,
			&rec.Dosage,
			&rec.Frequency,
			&rec.Status,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, storageErr("scan prescription record", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// VerificationRecord is one row of the verification activity report.
type VerificationRecord struct {
	VerificationID int64
	PrescriptionID int64
	PatientName    string
	PharmacistName string
	Decision       string
	Reason         string
	VerifiedAt     time.Time
}

// GetVerificationRecords lists decided verifications matching the filter.
func (r *ReportRepository) GetVerificationRecords(f ReportFilter) ([]*VerificationRecord, error) {
	query := `
		SELECT pv.verification_id,
		       pv.prescription_id,
		       p.patient_first_name || ' ' || p.patient_last_name,
		       u.first_name || ' ' || u.last_name,
		       pv.decision,
		       COALESCE(pv.reason, ''),
		       pv.verified_at
		FROM prescription_verification pv
		JOIN prescriptions pr ON pv.prescription_id = pr.prescription_id
		JOIN patients p ON pr.patient_id = p.patient_id
		JOIN users u ON pv.pharmacist_id = u.user_id
		WHERE pv.decision IS NOT NULL
	`
	var args []interface{}
	if f.From != nil {
		query += ` AND pv.verified_at >= ?`
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		query += ` AND pv.verified_at < date(?, '+1 day')`
		args = append(args, f.To.Format(dateLayout))
	}
	if f.PatientID != nil {
		query += ` AND pr.patient_id = ?`
		args = append(args, *f.PatientID)
	}
	query += ` ORDER BY pv.verified_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("get verification records", err)
	}
	defer rows.Close()

	var records []*VerificationRecord
	for rows.Next() {
		var rec VerificationRecord
		err := rows.Scan(
			&rec.VerificationID,
			&rec.PrescriptionID,
			&rec.PatientName,
			&rec.PharmacistName,
			&rec.Decision,
			&rec.Reason,
			&rec.VerifiedAt,
		)
		if err != nil {
			return nil, storageErr("scan verification record", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// AdministrationRecord is one row of the nurse administration log report.
type AdministrationRecord struct {
	AdministrationID int64
	PrescriptionID   int64
	PatientName      string
	NurseName        string
	BrandName        string
	GenericName      string
	Dosage           string
	AdministeredAt   time.Time
	Assessment       string
	AdverseReactions string
	Status           string
}

// GetAdministrationLog lists administration events matching the filter.
func (r *ReportRepository) GetAdministrationLog(f ReportFilter) ([]*AdministrationRecord, error) {
	query := administrationRecordQuery + ` WHERE 1 = 1`
	var args []interface{}
	if f.From != nil {
		query += ` AND ma.administration_time >= ?`
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		query += ` AND ma.administration_time < date(?, '+1 day')`
		args = append(args, f.To.Format(dateLayout))
	}
	if f.PatientID != nil {
		query += ` AND pr.patient_id = ?`
		args = append(args, *f.PatientID)
	}
	if f.NurseID != nil {
		query += ` AND ma.nurse_id = ?`
		args = append(args, *f.NurseID)
	}
	query += ` ORDER BY ma.administration_time DESC`

	return r.queryAdministrationRecords(query, args)
}

// GetMissedAdministrations lists Missed administration events.
func (r *ReportRepository) GetMissedAdministrations(f ReportFilter) ([]*AdministrationRecord, error) {
	query := administrationRecordQuery + ` WHERE ma.status = 'Missed'`
	var args []interface{}
	if f.PatientID != nil {
		query += ` AND pr.patient_id = ?`
		args = append(args, *f.PatientID)
	}
	if f.NurseID != nil {
		query += ` AND ma.nurse_id = ?`
		args = append(args, *f.NurseID)
	}
	query += ` ORDER BY ma.administration_time DESC`

	return r.queryAdministrationRecords(query, args)
}

const administrationRecordQuery = `
	SELECT ma.administration_id,
	       ma.prescription_id,
	       p.patient_first_name || ' ' || p.patient_last_name,
	       u.first_name || ' ' || u.last_name,
	       m.brand_name,
	       m.generic_name,
	       pr.dosage,
	       ma.administration_time,
	       ma.patient_assessment,
	       ma.adverse_reactions,
	       ma.status
	FROM medication_administration ma
	JOIN prescriptions pr ON ma.prescription_id = pr.prescription_id
	JOIN patients p ON pr.patient_id = p.patient_id
	JOIN medicines m ON pr.medicine_id = m.medicine_id
	JOIN users u ON ma.nurse_id = u.user_id`

func (r *ReportRepository) queryAdministrationRecords(query string, args []interface{}) ([]*AdministrationRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("get administration records", err)
	}
	defer rows.Close()

	var records []*AdministrationRecord
	for rows.Next() {
		var rec AdministrationRecord
		err := rows.Scan(
			&rec.AdministrationID,
			&rec.PrescriptionID,
			&rec.PatientName,
			&rec.NurseName,
			&rec.BrandName,
			&rec.GenericName,
			&rec.Dosage,
			&rec.AdministeredAt,
			&rec.Assessment,
			&rec.AdverseReactions,
			&rec.Status,
		)
		if err != nil {
			return nil, storageErr("scan administration record", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// ControlledActivity is one row of the controlled-substances report.
type ControlledActivity struct {
	PrescriptionID int64
	PatientName    string
	DoctorName     string
	BrandName      string
	GenericName    string
	Dosage         string
	Status         string
	CreatedAt      time.Time
}

// GetControlledSubstancesActivity lists prescriptions of controlled
// medicines matching the filter.
func (r *ReportRepository) GetControlledSubstancesActivity(f ReportFilter) ([]*ControlledActivity, error) {
	query := `
		SELECT pr.prescription_id,
		       p.patient_first_name || ' ' || p.patient_last_name,
		       u.first_name || ' ' || u.last_name,
		       m.brand_name,
		       m.generic_name,
		       pr.dosage,
		       pr.status,
		       pr.created_at
		FROM prescriptions pr
		JOIN patients p ON pr.patient_id = p.patient_id
		JOIN users u ON pr.doctor_id = u.user_id
		JOIN medicines m ON pr.medicine_id = m.medicine_id
		WHERE m.is_controlled = 1
	`
	var args []interface{}
	if f.From != nil {
		query += ` AND pr.created_at >= ?`
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		query += ` AND pr.created_at < date(?, '+1 day')`
		args = append(args, f.To.Format(dateLayout))
	}
	if f.DoctorID != nil {
		query += ` AND pr.doctor_id = ?`
		args = append(args, *f.DoctorID)
	}
	query += ` ORDER BY pr.created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("get controlled substances activity", err)
	}
	defer rows.Close()

	var records []*ControlledActivity
	for rows.Next() {
		var rec ControlledActivity
		err := rows.Scan(
			&rec.PrescriptionID,
			&rec.PatientName,
			&rec.DoctorName,
			&rec.BrandName,
			&rec.GenericName,
			&rec.Dosage,
			&rec.Status,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, storageErr("scan controlled activity", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Dashboard holds the per-role dashboard counters; only the fields relevant
// to the requesting role are populated.
type Dashboard struct {
	ActivePatients       int64
	ActivePrescriptions  int64
	PendingVerifications int64
	PreparationsDue      int64
	AdministrationsToday int64
	UrgentNotifications  int64
}

func (r *ReportRepository) count(query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}

// CountActivePatients counts patients with status Active.
func (r *ReportRepository) CountActivePatients() (int64, error) {
	return r.count(`SELECT COUNT(*) FROM patients WHERE status = 'Active'`)
}

// CountActivePrescriptions counts prescriptions with status Active.
func (r *ReportRepository) CountActivePrescriptions() (int64, error) {
	return r.count(`SELECT COUNT(*) FROM prescriptions WHERE status = 'Active'`)
}

// CountPendingVerifications counts the verification queue.
func (r *ReportRepository) CountPendingVerifications() (int64, error) {
	return r.count(`SELECT COUNT(*) FROM prescriptions WHERE status = 'Pending Verification'`)
}

// CountPreparationsDue counts To be Prepared rows of in-window Active
// prescriptions.
func (r *ReportRepository) CountPreparationsDue(now time.Time) (int64, error) {
	today := now.Format(dateLayout)
	return r.count(`
		SELECT COUNT(*)
		FROM medicine_preparation mp
		JOIN prescriptions pr ON mp.prescription_id = pr.prescription_id
		WHERE mp.status = 'To be Prepared'
		  AND pr.status = 'Active'
		  AND pr.duration_start <= ?
		  AND pr.duration_end >= ?
	`, today, today)
}

// CountAdministrationsToday counts administration events recorded today.
func (r *ReportRepository) CountAdministrationsToday(now time.Time) (int64, error) {
	return r.count(`
		SELECT COUNT(*)
		FROM medication_administration
		WHERE date(administration_time) = ?
	`, now.Format(dateLayout))
}
