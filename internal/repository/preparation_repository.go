package repository

import (
	"database/sql"
	"fmt"
	"time"

	"medisync/internal/database"
	"medisync/internal/models"
)

type PreparationRepository struct {
	db *database.DB
}

func NewPreparationRepository(db *database.DB) *PreparationRepository {
	return &PreparationRepository{db: db}
}

// MarkPrepared flips a preparation from To be Prepared to Prepared. The
// status guard makes the call idempotent: a second call matches no rows and
// reports ErrAlreadyProcessed.
func (r *PreparationRepository) MarkPrepared(preparationID int64) error {
	query := `
		UPDATE medicine_preparation
		SET status = 'Prepared', updated_at = CURRENT_TIMESTAMP
		WHERE preparation_id = ? AND status = 'To be Prepared'
	`
	result, err := r.db.Exec(query, preparationID)
	if err != nil {
		return storageErr("mark prepared", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("check rows affected", err)
	}
	if rows == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// GetByPrescriptionID retrieves the preparation row for a prescription.
func (r *PreparationRepository) GetByPrescriptionID(prescriptionID int64) (*models.Preparation, error) {
	query := `
		SELECT preparation_id, prescription_id, quantity_prepared, lot_number,
		       status, created_at, updated_at
		FROM medicine_preparation
		WHERE prescription_id = ?
	`
	var p models.Preparation
	err := r.db.QueryRow(query, prescriptionID).Scan(
		&p.ID,
		&p.PrescriptionID,
		&p.QuantityPrepared,
		&p.LotNumber,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get preparation", err)
	}

	return &p, nil
}

// ListCandidatesToPrepare returns To be Prepared rows whose prescription is
// Active and inside its duration window, joined with the most recent
// administration time. The 30-minute dose-window filter is applied by the
// caller in Go.
func (r *PreparationRepository) ListCandidatesToPrepare(now time.Time) ([]*models.PreparationDue, error) {
	query := `
		SELECT mp.preparation_id,
		       pr.prescription_id,
		       p.patient_first_name,
		       p.patient_last_name,
		       m.brand_name,
		       m.generic_name,
		       pr.dosage,
		       pr.frequency,
		       mp.quantity_prepared,
		       mp.status,
		       (SELECT MAX(ma.administration_time)
		        FROM medication_administration ma
		        WHERE ma.prescription_id = pr.prescription_id) AS last_admin_time
		FROM medicine_preparation mp
		JOIN prescriptions pr ON mp.prescription_id = pr.prescription_id
		JOIN patients p ON pr.patient_id = p.patient_id
		JOIN medicines m ON pr.medicine_id = m.medicine_id
		WHERE pr.status = 'Active'
		  AND p.status = 'Active'
		  AND pr.duration_start <= ?
		  AND pr.duration_end >= ?
		  AND mp.status = 'To be Prepared'
		ORDER BY pr.created_at DESC
	`
	today := now.Format(dateLayout)
	rows, err := r.db.Query(query, today, today)
	if err != nil {
		return nil, storageErr("list preparations due", err)
	}
	defer rows.Close()

	var due []*models.PreparationDue
	for rows.Next() {
		var (
			d         models.PreparationDue
			lastAdmin sql.NullString
		)
		err := rows.Scan(
			&d.PreparationID,
			&d.PrescriptionID,
			&d.PatientFirstName,
			&d.PatientLastName,
			&d.BrandName,
			&d.GenericName,
			&d.Dosage,
			&d.Frequency,
			&d.QuantityPrepared,
			&d.Status,
			&lastAdmin,
		)
		if err != nil {
			return nil, storageErr("scan preparation due", err)
		}
		// MAX() strips the column's declared type, so the driver returns
		// the stored text instead of a time.Time.
		if lastAdmin.Valid {
			ts, err := parseTimestamp(lastAdmin.String)
			if err != nil {
				return nil, storageErr("parse last administration time", err)
			}
			d.LastAdminTime = sql.NullTime{Time: ts, Valid: true}
		}
		due = append(due, &d)
	}

	return due, rows.Err()
}

// timestampLayouts mirrors the formats the sqlite3 driver writes for
// time.Time values, most precise first.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
