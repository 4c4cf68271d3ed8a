package repository

import (
	"errors"
	"testing"
	"time"

	"medisync/internal/models"
)

func TestPreparationMarkPrepared(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreparationRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	pharmacistID := seedUser(t, db, "pharm.one", models.RolePharmacist)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	p := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 1))
	approvePrescription(t, db, p.ID, pharmacistID)

	prep, err := repo.GetByPrescriptionID(p.ID)
	if err != nil {
		t.Fatalf("GetByPrescriptionID() error = %v", err)
	}

	if err := repo.MarkPrepared(prep.ID); err != nil {
		t.Fatalf("MarkPrepared() error = %v", err)
	}

	prepared, err := repo.GetByPrescriptionID(p.ID)
	if err != nil {
		t.Fatalf("GetByPrescriptionID() error = %v", err)
	}
	if prepared.Status != models.PrepPrepared {
		t.Errorf("status = %s, want %s", prepared.Status, models.PrepPrepared)
	}

	// Second mark hits no To be Prepared row.
	if err := repo.MarkPrepared(prep.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("MarkPrepared() second call error = %v, want ErrAlreadyProcessed", err)
	}

	if err := repo.MarkPrepared(9999); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("MarkPrepared() unknown id error = %v, want ErrAlreadyProcessed", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-08-31 08:00:00+00:00", time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)},
		{"2026-08-31 08:00:00.123456789+00:00", time.Date(2026, 8, 31, 8, 0, 0, 123456789, time.UTC)},
		{"2026-08-31T08:00:00", time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)},
		{"2026-08-31 08:00:00", time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)},
		{"2026-08-31", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := parseTimestamp(tt.in)
		if err != nil {
			t.Errorf("parseTimestamp(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Error("parseTimestamp() accepted garbage input")
	}
}

func TestPreparationListCandidatesToPrepare(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreparationRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	pharmacistID := seedUser(t, db, "pharm.one", models.RolePharmacist)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	// In window, never administered: a candidate with no last admin time.
	inWindow := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 30))
	approvePrescription(t, db, inWindow.ID, pharmacistID)

	// Duration already over: excluded.
	ended := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 7, 1), date(2026, 7, 31))
	approvePrescription(t, db, ended.ID, pharmacistID)

	// Pending, so no preparation row at all.
	seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 30))

	candidates, err := repo.ListCandidatesToPrepare(now)
	if err != nil {
		t.Fatalf("ListCandidatesToPrepare() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("ListCandidatesToPrepare() returned %d rows, want 1", len(candidates))
	}
	c := candidates[0]
	if c.PrescriptionID != inWindow.ID {
		t.Errorf("candidate prescription id = %d, want %d", c.PrescriptionID, inWindow.ID)
	}
	if c.LastAdminTime.Valid {
		t.Error("candidate has a last admin time before any administration")
	}
	if c.Frequency != "Twice a day" {
		t.Errorf("frequency = %s, want Twice a day", c.Frequency)
	}

	// A Prepared row leaves the prepare queue.
	if err := repo.MarkPrepared(c.PreparationID); err != nil {
		t.Fatalf("MarkPrepared() error = %v", err)
	}
	candidates, err = repo.ListCandidatesToPrepare(now)
	if err != nil {
		t.Fatalf("ListCandidatesToPrepare() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("ListCandidatesToPrepare() after prepare returned %d rows, want 0", len(candidates))
	}

	// Administering resets the cycle and the row returns with its last
	// administration time filled in.
	adminTime := now.Add(-2 * time.Hour)
	admin := &models.Administration{
		PrescriptionID:   inWindow.ID,
		NurseID:          nurseID,
		AdministeredAt:   adminTime,
		Assessment:       models.AssessmentActive,
		AdverseReactions: "None",
		Status:           models.AdminAdministered,
	}
	if err := NewAdministrationRepository(db).Record(admin); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	candidates, err = repo.ListCandidatesToPrepare(now)
	if err != nil {
		t.Fatalf("ListCandidatesToPrepare() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("ListCandidatesToPrepare() after administration returned %d rows, want 1", len(candidates))
	}
	if !candidates[0].LastAdminTime.Valid {
		t.Fatal("candidate missing last admin time after administration")
	}
	if !candidates[0].LastAdminTime.Time.Equal(adminTime) {
		t.Errorf("last admin time = %v, want %v", candidates[0].LastAdminTime.Time, adminTime)
	}
}
