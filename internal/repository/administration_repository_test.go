package repository

import (
	"errors"
	"testing"
	"time"

	"medisync/internal/models"
)

func TestAdministrationRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdministrationRepository(db)
	prepRepo := NewPreparationRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	pharmacistID := seedUser(t, db, "pharm.one", models.RolePharmacist)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	p := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 30))
	approvePrescription(t, db, p.ID, pharmacistID)

	prep, err := prepRepo.GetByPrescriptionID(p.ID)
	if err != nil {
		t.Fatalf("GetByPrescriptionID() error = %v", err)
	}
	if err := prepRepo.MarkPrepared(prep.ID); err != nil {
		t.Fatalf("MarkPrepared() error = %v", err)
	}

	adminTime := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	a := &models.Administration{
		PrescriptionID:   p.ID,
		NurseID:          nurseID,
		AdministeredAt:   adminTime,
		Assessment:       models.AssessmentDrowsy,
		AdverseReactions: "None",
		Status:           models.AdminAdministered,
	}
	if err := repo.Record(a); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if a.ID == 0 {
		t.Error("Record() did not set the administration ID")
	}

	// Recording a dose re-opens the prepare cycle.
	after, err := prepRepo.GetByPrescriptionID(p.ID)
	if err != nil {
		t.Fatalf("GetByPrescriptionID() error = %v", err)
	}
	if after.Status != models.PrepToBePrepared {
		t.Errorf("preparation status = %s, want %s", after.Status, models.PrepToBePrepared)
	}

	history, err := repo.ListByPrescription(p.ID)
	if err != nil {
		t.Fatalf("ListByPrescription() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("ListByPrescription() returned %d rows, want 1", len(history))
	}
	if history[0].Assessment != models.AssessmentDrowsy {
		t.Errorf("assessment = %s, want Drowsy", history[0].Assessment)
	}
	if !history[0].AdministeredAt.Equal(adminTime) {
		t.Errorf("administered at = %v, want %v", history[0].AdministeredAt, adminTime)
	}
}

func TestAdministrationGetLastTime(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdministrationRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	pharmacistID := seedUser(t, db, "pharm.one", models.RolePharmacist)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	p := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 30))
	approvePrescription(t, db, p.ID, pharmacistID)

	if _, err := repo.GetLastTime(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLastTime() before any dose error = %v, want ErrNotFound", err)
	}

	first := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	second := time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{first, second} {
		a := &models.Administration{
			PrescriptionID:   p.ID,
			NurseID:          nurseID,
			AdministeredAt:   at,
			Assessment:       models.AssessmentActive,
			AdverseReactions: "None",
			Status:           models.AdminAdministered,
		}
		if err := repo.Record(a); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	last, err := repo.GetLastTime(p.ID)
	if err != nil {
		t.Fatalf("GetLastTime() error = %v", err)
	}
	if !last.Equal(second) {
		t.Errorf("GetLastTime() = %v, want %v", last, second)
	}
}

func TestAdministrationListAssignedPatients(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdministrationRepository(db)
	prepRepo := NewPreparationRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	otherNurseID := seedUser(t, db, "nurse.tan", models.RoleNurse)
	pharmacistID := seedUser(t, db, "pharm.one", models.RolePharmacist)
	patientID := seedPatient(t, db, doctorID, nurseID)
	medicineID := seedMedicine(t, db, "Biogesic", "Paracetamol")

	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	p := seedPrescription(t, db, patientID, doctorID, medicineID,
		date(2026, 8, 1), date(2026, 9, 30))
	approvePrescription(t, db, p.ID, pharmacistID)

	// Nothing Prepared yet: empty worklist.
	patients, err := repo.ListAssignedPatients(nurseID, now)
	if err != nil {
		t.Fatalf("ListAssignedPatients() error = %v", err)
	}
	if len(patients) != 0 {
		t.Errorf("ListAssignedPatients() before prepare returned %d rows, want 0", len(patients))
	}

	prep, err := prepRepo.GetByPrescriptionID(p.ID)
	if err != nil {
		t.Fatalf("GetByPrescriptionID() error = %v", err)
	}
	if err := prepRepo.MarkPrepared(prep.ID); err != nil {
		t.Fatalf("MarkPrepared() error = %v", err)
	}

	patients, err = repo.ListAssignedPatients(nurseID, now)
	if err != nil {
		t.Fatalf("ListAssignedPatients() error = %v", err)
	}
	if len(patients) != 1 {
		t.Fatalf("ListAssignedPatients() returned %d rows, want 1", len(patients))
	}
	if patients[0].PatientID != patientID {
		t.Errorf("patient id = %d, want %d", patients[0].PatientID, patientID)
	}
	if patients[0].GenericName != "Paracetamol" {
		t.Errorf("generic name = %s, want Paracetamol", patients[0].GenericName)
	}

	// Another nurse sees nothing.
	others, err := repo.ListAssignedPatients(otherNurseID, now)
	if err != nil {
		t.Fatalf("ListAssignedPatients() error = %v", err)
	}
	if len(others) != 0 {
		t.Errorf("ListAssignedPatients() for other nurse returned %d rows, want 0", len(others))
	}

	// Recording the dose empties the worklist until the next prepare.
	a := &models.Administration{
		PrescriptionID:   p.ID,
		NurseID:          nurseID,
		AdministeredAt:   now,
		Assessment:       models.AssessmentActive,
		AdverseReactions: "None",
		Status:           models.AdminAdministered,
	}
	if err := repo.Record(a); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	patients, err = repo.ListAssignedPatients(nurseID, now)
	if err != nil {
		t.Fatalf("ListAssignedPatients() error = %v", err)
	}
	if len(patients) != 0 {
		t.Errorf("ListAssignedPatients() after administration returned %d rows, want 0", len(patients))
	}
}

func TestAdministrationListActiveForPatient(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdministrationRepository(db)

	doctorID := seedUser(t, db, "dr.reyes", models.RoleDoctor)
	nurseID := seedUser(t, db, "nurse.cruz", models.RoleNurse)
	pharmacistID := seedUser(t, db, "pharm.one", models.RolePharmacist)
	patientID := seedPatient(t, db, doctorID, nurseID)
	paracetamolID := seedMedicine(t, db, "Biogesic", "Paracetamol")
	amoxicillinID := seedMedicine(t, db, "Amoxil", "Amoxicillin")

	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	match := seedPrescription(t, db, patientID, doctorID, paracetamolID,
		date(2026, 8, 1), date(2026, 9, 30))
	approvePrescription(t, db, match.ID, pharmacistID)

	other := seedPrescription(t, db, patientID, doctorID, amoxicillinID,
		date(2026, 8, 1), date(2026, 9, 30))
	approvePrescription(t, db, other.ID, pharmacistID)

	details, err := repo.ListActiveForPatient(patientID, "Paracetamol", "Biogesic", now)
	if err != nil {
		t.Fatalf("ListActiveForPatient() error = %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("ListActiveForPatient() returned %d rows, want 1", len(details))
	}
	d := details[0]
	if d.PrescriptionID != match.ID {
		t.Errorf("prescription id = %d, want %d", d.PrescriptionID, match.ID)
	}
	if d.PrescribedBy != "dr.reyes Dela Cruz" {
		t.Errorf("prescribed by = %s, want dr.reyes Dela Cruz", d.PrescribedBy)
	}
	if !d.LotNumber.Valid || d.LotNumber.String != "LOT-2026-001" {
		t.Errorf("lot number = %+v, want LOT-2026-001", d.LotNumber)
	}
}
