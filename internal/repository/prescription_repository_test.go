package repository

import (
	"errors"
	"testing"

	"medisync/internal/models"
)

func TestPrescriptionCreateWithVerification(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPrescriptionRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	p := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 1))

	if p.ID == 0 {
		t.Error("CreateWithVerification() did not set the prescription ID")
	}
	if p.Status != models.StatusPendingVerification {
		t.Errorf("status = %s, want %s", p.Status, models.StatusPendingVerification)
	}

	// The empty verification companion row must exist.
	v, err := NewVerificationRepository(db).GetByPrescriptionID(p.ID)
	if err != nil {
		t.Fatalf("GetByPrescriptionID() error = %v", err)
	}
	if v.Decision.Valid {
		t.Errorf("new verification row already has decision %s", v.Decision.String)
	}
	if v.PharmacistID.Valid {
		t.Error("new verification row already has a pharmacist")
	}

	pending, err := repo.ListPending()
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("ListPending() returned %d rows, want 1", len(pending))
	}
	if pending[0].PrescriptionID != p.ID {
		t.Errorf("pending prescription id = %d, want %d", pending[0].PrescriptionID, p.ID)
	}
	if pending[0].PrescribedBy != "dr.reyes Dela Cruz" {
		t.Errorf("prescribed by = %s, want dr.reyes Dela Cruz", pending[0].PrescribedBy)
	}
}

func TestPrescriptionUpdateResetsStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPrescriptionRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	pharmacistID := seedUser(t, db, "pharm.one", models.RolePharmacist)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	p := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 1))
	approvePrescription(t, db, p.ID, pharmacistID)

	active, err := repo.GetByID(p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if active.Status != models.StatusActive {
		t.Fatalf("status after approval = %s, want %s", active.Status, models.StatusActive)
	}

	dosage := "250mg"
	if err := repo.Update(p.ID, UpdateFields{Dosage: &dosage}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	updated, err := repo.GetByID(p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if updated.Dosage != "250mg" {
		t.Errorf("dosage = %s, want 250mg", updated.Dosage)
	}
	if updated.Status != models.StatusPendingVerification {
		t.Errorf("status after edit = %s, want %s", updated.Status, models.StatusPendingVerification)
	}

	if err := repo.Update(9999, UpdateFields{Dosage: &dosage}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() missing prescription error = %v, want ErrNotFound", err)
	}
}

func TestPrescriptionExpirySweep(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPrescriptionRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	pharmacistID := seedUser(t, db, "pharm.one", models.RolePharmacist)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	now := date(2026, 8, 31)

	// Active and past its end date: swept.
	expired := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 8, 20))
	approvePrescription(t, db, expired.ID, pharmacistID)

	// Active but still inside its window: left alone.
	current := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 15))
	approvePrescription(t, db, current.ID, pharmacistID)

	// Past its end date but never approved: not Active, not swept.
	seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 7, 1), date(2026, 7, 10))

	list, err := repo.ListExpiredActive(now)
	if err != nil {
		t.Fatalf("ListExpiredActive() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListExpiredActive() returned %d rows, want 1", len(list))
	}
	if list[0].PrescriptionID != expired.ID {
		t.Errorf("expired prescription id = %d, want %d", list[0].PrescriptionID, expired.ID)
	}
	if list[0].PatientName != "Maria Santos" {
		t.Errorf("patient name = %s, want Maria Santos", list[0].PatientName)
	}

	completed, err := repo.CompleteIfActive(expired.ID)
	if err != nil {
		t.Fatalf("CompleteIfActive() error = %v", err)
	}
	if !completed {
		t.Error("CompleteIfActive() = false on an Active prescription")
	}

	// A second pass finds nothing to do.
	completed, err = repo.CompleteIfActive(expired.ID)
	if err != nil {
		t.Fatalf("CompleteIfActive() second call error = %v", err)
	}
	if completed {
		t.Error("CompleteIfActive() = true on an already Completed prescription")
	}

	final, err := repo.GetByID(expired.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if final.Status != models.StatusCompleted {
		t.Errorf("status = %s, want %s", final.Status, models.StatusCompleted)
	}
}

func TestPrescriptionGetNotificationDetails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPrescriptionRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	p := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 1))

	d, err := repo.GetNotificationDetails(p.ID)
	if err != nil {
		t.Fatalf("GetNotificationDetails() error = %v", err)
	}
	if d.DoctorID != doctorID {
		t.Errorf("doctor id = %d, want %d", d.DoctorID, doctorID)
	}
	if d.PatientName != "Maria Santos" {
		t.Errorf("patient name = %s, want Maria Santos", d.PatientName)
	}
	if !d.NurseID.Valid || d.NurseID.Int64 != nurseID {
		t.Errorf("nurse id = %+v, want %d", d.NurseID, nurseID)
	}
	if d.BrandName != "Biogesic" || d.GenericName != "Paracetamol" {
		t.Errorf("medicine = %s (%s), want Biogesic (Paracetamol)", d.BrandName, d.GenericName)
	}

	if _, err := repo.GetNotificationDetails(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetNotificationDetails() missing id error = %v, want ErrNotFound", err)
	}
}

func TestPrescriptionListByDoctor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPrescriptionRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	otherDoctorID := seedUser(t, db, "dr.tan", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	seedPrescription(t, db, patientID, doctorID, medicineID, date(2026, 8, 1), date(2026, 9, 1))
	seedPrescription(t, db, patientID, doctorID, medicineID, date(2026, 8, 5), date(2026, 9, 5))
	seedPrescription(t, db, patientID, otherDoctorID, medicineID, date(2026, 8, 1), date(2026, 9, 1))

	mine, err := repo.ListByDoctor(doctorID)
	if err != nil {
		t.Fatalf("ListByDoctor() error = %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("ListByDoctor() returned %d rows, want 2", len(mine))
	}
	for _, p := range mine {
		if p.DoctorID != doctorID {
			t.Errorf("unexpected doctor id %d in list", p.DoctorID)
		}
	}
}
