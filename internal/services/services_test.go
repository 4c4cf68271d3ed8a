package services

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"medisync/internal/database"
	"medisync/internal/models"
	"medisync/internal/repository"
	"medisync/internal/session"
)

// testEnv is a migrated database with one user of each role, a patient
// assigned to the doctor and nurse, and a medicine on the formulary.
type testEnv struct {
	db         *database.DB
	doctorID   int64
	nurseID    int64
	pharmID    int64
	patientID  int64
	medicineID int64

	prescriptions   *repository.PrescriptionRepository
	verifications   *repository.VerificationRepository
	preparations    *repository.PreparationRepository
	administrations *repository.AdministrationRepository
	notifications   *repository.NotificationRepository
	users           *repository.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(), "run migrations")

	env := &testEnv{
		db:              db,
		prescriptions:   repository.NewPrescriptionRepository(db),
		verifications:   repository.NewVerificationRepository(db),
		preparations:    repository.NewPreparationRepository(db),
		administrations: repository.NewAdministrationRepository(db),
		notifications:   repository.NewNotificationRepository(db),
		users:           repository.NewUserRepository(db),
	}

	env.doctorID = env.addUser(t, "dr.reyes", "Elena", "Reyes", models.RoleDoctor)
	env.nurseID = env.addUser(t, "nurse.cruz", "Carla", "Cruz", models.RoleNurse)
	env.pharmID = env.addUser(t, "pharm.uy", "Ben", "Uy", models.RolePharmacist)

	result, err := db.Exec(`
		INSERT INTO patients
			(patient_first_name, patient_last_name, date_of_birth, sex,
			 room_number, admission_date, diagnosis, doctor_id, nurse_id, status)
		VALUES ('Maria', 'Santos', '1985-03-12', 'Female', '204A', '2026-01-05',
		        'Community-acquired pneumonia', ?, ?, 'Active')
	`, env.doctorID, env.nurseID)
	require.NoError(t, err, "seed patient")
	env.patientID, err = result.LastInsertId()
	require.NoError(t, err)

	result, err = db.Exec(`
		INSERT INTO medicines (brand_name, generic_name, formulation, strength, is_controlled)
		VALUES ('Biogesic', 'Paracetamol', 'Tablet', '500mg', 0)
	`)
	require.NoError(t, err, "seed medicine")
	env.medicineID, err = result.LastInsertId()
	require.NoError(t, err)

	return env
}

func (e *testEnv) addUser(t *testing.T, username, first, last string, role models.Role) int64 {
	t.Helper()

	result, err := e.db.Exec(`
		INSERT INTO users (username, password, first_name, last_name, role, status)
		VALUES (?, 'pass123', ?, ?, ?, 'Active')
	`, username, first, last, role)
	require.NoError(t, err, "seed user %s", username)
	id, err := result.LastInsertId()
	require.NoError(t, err)
	return id
}

func (e *testEnv) doctorSession() session.Session {
	return session.Session{UserID: e.doctorID, Name: "Elena Reyes", Role: models.RoleDoctor}
}

func (e *testEnv) nurseSession() session.Session {
	return session.Session{UserID: e.nurseID, Name: "Carla Cruz", Role: models.RoleNurse}
}

func (e *testEnv) pharmacistSession() session.Session {
	return session.Session{UserID: e.pharmID, Name: "Ben Uy", Role: models.RolePharmacist}
}

// newPrescription inserts a prescription through the real creation path.
func (e *testEnv) newPrescription(t *testing.T, frequency string, start, end time.Time) *models.Prescription {
	t.Helper()

	p := &models.Prescription{
		PatientID:     e.patientID,
		DoctorID:      e.doctorID,
		MedicineID:    e.medicineID,
		Dosage:        "500mg",
		Frequency:     frequency,
		DurationStart: start,
		DurationEnd:   end,
	}
	require.NoError(t, e.prescriptions.CreateWithVerification(p))
	return p
}

// approve moves a prescription to Active, creating its preparation row.
func (e *testEnv) approve(t *testing.T, prescriptionID int64) {
	t.Helper()

	_, err := e.verifications.Apply(repository.Decision{
		PrescriptionID: prescriptionID,
		PharmacistID:   e.pharmID,
		Decision:       models.DecisionApprove,
		LotNumber:      nullString("LOT-2026-001"),
		Quantity:       nullInt64(30),
	})
	require.NoError(t, err)
}

// administer records a dose directly, bypassing the service layer.
func (e *testEnv) administer(t *testing.T, prescriptionID int64, at time.Time) {
	t.Helper()

	require.NoError(t, e.administrations.Record(&models.Administration{
		PrescriptionID:   prescriptionID,
		NurseID:          e.nurseID,
		AdministeredAt:   at,
		Assessment:       models.AssessmentActive,
		AdverseReactions: "None",
		Status:           models.AdminAdministered,
	}))
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
func nullInt64(n int64) sql.NullInt64   { return sql.NullInt64{Int64: n, Valid: true} }

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
