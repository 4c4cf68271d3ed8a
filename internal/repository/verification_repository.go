package repository

import (
	"database/sql"
	"time"

	"medisync/internal/database"
	"medisync/internal/models"
)

type VerificationRepository struct {
	db *database.DB
}

func NewVerificationRepository(db *database.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Decision is a pharmacist ruling ready to be applied to a prescription.
// Lot, quantity and expiry are only set for approvals; reason only for
// modification requests and rejections.
type Decision struct {
	PrescriptionID int64
	PharmacistID   int64
	Decision       models.VerificationDecision
	LotNumber      sql.NullString
	Quantity       sql.NullInt64
	ExpiryDate     sql.NullTime
	Reason         sql.NullString
}

// Apply records the decision in one transaction: the verification row is
// populated, the prescription status follows the decision mapping, and an
// approval gains a To be Prepared preparation row if none exists yet.
func (r *VerificationRepository) Apply(d Decision) (models.PrescriptionStatus, error) {
	newStatus, ok := models.StatusForDecision(d.Decision)
	if !ok {
		return "", storageErr("apply decision", sql.ErrNoRows)
	}

	tx, err := r.db.BeginTx()
	if err != nil {
		return "", storageErr("begin verification", err)
	}
	defer tx.Rollback()

	var expiry interface{}
	if d.ExpiryDate.Valid {
		expiry = d.ExpiryDate.Time.Format(dateLayout)
	}

	result, err := tx.Exec(`
		UPDATE prescription_verification
		SET pharmacist_id = ?,
		    medication_lot_number = ?,
		    quantity_dispensed = ?,
		    expiry_date = ?,
		    decision = ?,
		    reason = ?,
		    verified_at = CURRENT_TIMESTAMP
		WHERE prescription_id = ?
	`,
		d.PharmacistID,
		d.LotNumber,
		d.Quantity,
		expiry,
		d.Decision,
		d.Reason,
		d.PrescriptionID,
	)
	if err != nil {
		return "", storageErr("update verification", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", storageErr("check rows affected", err)
	}
	if rows == 0 {
		return "", ErrNotFound
	}

	_, err = tx.Exec(`
		UPDATE prescriptions
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE prescription_id = ?
	`, newStatus, d.PrescriptionID)
	if err != nil {
		return "", storageErr("update prescription status", err)
	}

	if d.Decision == models.DecisionApprove {
		var existing int64
		err := tx.QueryRow(`
			SELECT preparation_id FROM medicine_preparation WHERE prescription_id = ?
		`, d.PrescriptionID).Scan(&existing)
		if err == sql.ErrNoRows {
			_, err = tx.Exec(`
				INSERT INTO medicine_preparation
					(prescription_id, quantity_prepared, lot_number, status)
				VALUES (?, ?, ?, 'To be Prepared')
			`, d.PrescriptionID, d.Quantity, d.LotNumber)
		}
		if err != nil {
			return "", storageErr("create preparation row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", storageErr("commit verification", err)
	}

	return newStatus, nil
}

// GetByPrescriptionID retrieves the verification companion row.
func (r *VerificationRepository) GetByPrescriptionID(prescriptionID int64) (*models.Verification, error) {
	query := `
		SELECT verification_id, prescription_id, pharmacist_id, medication_lot_number,
		       quantity_dispensed, expiry_date, decision, reason, verified_at
		FROM prescription_verification
		WHERE prescription_id = ?
	`
	var v models.Verification
	err := r.db.QueryRow(query, prescriptionID).Scan(
		&v.ID,
		&v.PrescriptionID,
		&v.PharmacistID,
		&v.LotNumber,
		&v.QuantityDispensed,
		&v.ExpiryDate,
		&v.Decision,
		&v.Reason,
		&v.VerifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get verification", err)
	}

	return &v, nil
}

// ListExpiring returns dispensed lots of Active prescriptions whose expiry
// date falls within the next `days` days.
func (r *VerificationRepository) ListExpiring(now time.Time, days int) ([]*models.ExpiringMedication, error) {
	query := `
		SELECT pv.verification_id,
		       pr.prescription_id,
		       p.patient_first_name,
		       p.patient_last_name,
		       m.brand_name,
		       m.generic_name,
		       pv.quantity_dispensed,
		       pv.expiry_date
		FROM prescription_verification pv
		JOIN prescriptions pr ON pv.prescription_id = pr.prescription_id
		JOIN patients p ON pr.patient_id = p.patient_id
		JOIN medicines m ON pr.medicine_id = m.medicine_id
		WHERE pv.expiry_date > ?
		  AND pv.expiry_date <= ?
		  AND pr.status = 'Active'
		ORDER BY pv.expiry_date ASC
	`
	today := now.Format(dateLayout)
	horizon := now.AddDate(0, 0, days).Format(dateLayout)
	rows, err := r.db.Query(query, today, horizon)
	if err != nil {
		return nil, storageErr("list expiring medications", err)
	}
	defer rows.Close()

	var expiring []*models.ExpiringMedication
	for rows.Next() {
		var e models.ExpiringMedication
		err := rows.Scan(
			&e.VerificationID,
			&e.PrescriptionID,
			&e.PatientFirstName,
			&e.PatientLastName,
			&e.BrandName,
			&e.GenericName,
			&e.Quantity,
			&e.ExpiryDate,
		)
		if err != nil {
			return nil, storageErr("scan expiring medication", err)
		}
		e.DaysUntilExpiry = int(e.ExpiryDate.Sub(now).Hours() / 24)
		expiring = append(expiring, &e)
	}

	return expiring, rows.Err()
}
