package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"medisync/internal/database"
	"medisync/internal/models"
)

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
func nullInt64(n int64) sql.NullInt64   { return sql.NullInt64{Int64: n, Valid: true} }
func nullTime(t time.Time) sql.NullTime { return sql.NullTime{Time: t, Valid: true} }

// setupTestDB creates a migrated SQLite database in a temp directory.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *database.DB, username string, role models.Role) int64 {
	t.Helper()

	result, err := db.Exec(`
		INSERT INTO users (username, password, first_name, last_name, role, status)
		VALUES (?, 'pass123', ?, 'Dela Cruz', ?, 'Active')
	`, username, username, role)
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get user id: %v", err)
	}
	return id
}

func seedPatient(t *testing.T, db *database.DB, doctorID, nurseID int64) int64 {
	t.Helper()

	result, err := db.Exec(`
		INSERT INTO patients
			(patient_first_name, patient_last_name, date_of_birth, sex,
			 room_number, admission_date, diagnosis, doctor_id, nurse_id, status)
		VALUES ('Maria', 'Santos', '1985-03-12', 'Female', '204A', '2026-01-05',
		        'Community-acquired pneumonia', ?, ?, 'Active')
	`, doctorID, nurseID)
	if err != nil {
		t.Fatalf("Failed to seed patient: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get patient id: %v", err)
	}
	return id
}

func seedMedicine(t *testing.T, db *database.DB, brand, generic string) int64 {
	t.Helper()

	result, err := db.Exec(`
		INSERT INTO medicines (brand_name, generic_name, formulation, strength, is_controlled)
		VALUES (?, ?, 'Tablet', '500mg', 0)
	`, brand, generic)
	if err != nil {
		t.Fatalf("Failed to seed medicine %s: %v", brand, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get medicine id: %v", err)
	}
	return id
}

// seedPrescription goes through the real creation path so the verification
// companion row exists, then optionally advances the duration window.
func seedPrescription(t *testing.T, db *database.DB, patientID, doctorID, medicineID int64, start, end time.Time) *models.Prescription {
	t.Helper()

	p := &models.Prescription{
		PatientID:     patientID,
		DoctorID:      doctorID,
		MedicineID:    medicineID,
		Dosage:        "500mg",
		Frequency:     "Twice a day",
		DurationStart: start,
		DurationEnd:   end,
	}
	if err := NewPrescriptionRepository(db).CreateWithVerification(p); err != nil {
		t.Fatalf("Failed to seed prescription: %v", err)
	}
	return p
}

// approvePrescription applies an Approve decision, moving the prescription to
// Active and creating its preparation row.
func approvePrescription(t *testing.T, db *database.DB, prescriptionID, pharmacistID int64) {
	t.Helper()

	_, err := NewVerificationRepository(db).Apply(Decision{
		PrescriptionID: prescriptionID,
		PharmacistID:   pharmacistID,
		Decision:       models.DecisionApprove,
		LotNumber:      nullString("LOT-2026-001"),
		Quantity:       nullInt64(30),
		ExpiryDate:     nullTime(time.Now().AddDate(1, 0, 0)),
	})
	if err != nil {
		t.Fatalf("Failed to approve prescription: %v", err)
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
