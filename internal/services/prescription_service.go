package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"medisync/internal/models"
	"medisync/internal/repository"
	"medisync/internal/session"
)

// PrescriptionService handles prescription creation and doctor-initiated
// edits, the entry point of the lifecycle.
type PrescriptionService struct {
	prescriptions *repository.PrescriptionRepository
	users         *repository.UserRepository
	logger        zerolog.Logger
}

func NewPrescriptionService(prescriptions *repository.PrescriptionRepository, users *repository.UserRepository, logger zerolog.Logger) *PrescriptionService {
	return &PrescriptionService{
		prescriptions: prescriptions,
		users:         users,
		logger:        logger,
	}
}

// CreateInput carries a new prescription order.
type CreateInput struct {
	PatientID     int64
	MedicineID    int64
	Dosage        string
	Frequency     string
	DurationStart time.Time
	DurationEnd   time.Time
	Instructions  string
}

// Create inserts a prescription in Pending Verification together with its
// empty verification row (one transaction, both or neither). The returned
// events alert every active pharmacist and, when the patient has an
// assigned nurse, that nurse.
func (s *PrescriptionService) Create(sess session.Session, in CreateInput) (*models.Prescription, []Event, error) {
	if !sess.Is(models.RoleDoctor) {
		return nil, nil, invalid("only a doctor can create a prescription")
	}
	if in.PatientID == 0 {
		return nil, nil, invalid("patient is required")
	}
	if in.MedicineID == 0 {
		return nil, nil, invalid("medicine is required")
	}
	if in.Dosage == "" {
		return nil, nil, invalid("dosage is required")
	}
	if in.Frequency == "" {
		return nil, nil, invalid("frequency is required")
	}
	if in.DurationEnd.Before(in.DurationStart) {
		return nil, nil, invalid("duration end must not precede duration start")
	}

	p := &models.Prescription{
		PatientID:     in.PatientID,
		DoctorID:      sess.UserID,
		MedicineID:    in.MedicineID,
		Dosage:        in.Dosage,
		Frequency:     in.Frequency,
		DurationStart: in.DurationStart,
		DurationEnd:   in.DurationEnd,
		SpecialInstructions: sql.NullString{
			String: in.Instructions,
			Valid:  in.Instructions != "",
		},
	}

	if err := s.prescriptions.CreateWithVerification(p); err != nil {
		return nil, nil, err
	}

	events, err := s.creationEvents(sess, p.ID)
	if err != nil {
		// The prescription is committed; missing notifications are not
		// worth failing the operation over.
		s.logger.Warn().Err(err).Int64("prescription_id", p.ID).
			Msg("could not draft creation notifications")
	}

	s.logger.Info().Int64("prescription_id", p.ID).Int64("doctor_id", sess.UserID).
		Msg("prescription created")
	return p, events, nil
}

func (s *PrescriptionService) creationEvents(sess session.Session, prescriptionID int64) ([]Event, error) {
	details, err := s.prescriptions.GetNotificationDetails(prescriptionID)
	if err != nil {
		return nil, err
	}

	pharmacists, err := s.users.ListActiveByRole(models.RolePharmacist)
	if err != nil {
		return nil, err
	}

	medication := fmt.Sprintf("%s (%s)", details.BrandName, details.GenericName)

	var events []Event
	for _, pharmacist := range pharmacists {
		events = append(events, Event{
			UserID:       pharmacist.ID,
			RelatedTable: "prescriptions",
			RelatedID:    prescriptionID,
			Title:        "New Prescription - Verification Required",
			Message: fmt.Sprintf("New prescription for %s - %s requires verification by %s",
				details.PatientName, medication, sess.Name),
			Priority: models.PriorityAttention,
		})
	}

	if details.NurseID.Valid {
		events = append(events, Event{
			UserID:       details.NurseID.Int64,
			RelatedTable: "prescriptions",
			RelatedID:    prescriptionID,
			Title:        "New Prescription - Patient Update",
			Message: fmt.Sprintf("New prescription created for your patient %s - %s by Dr. %s",
				details.PatientName, medication, sess.Name),
			Priority: models.PriorityInfo,
		})
	}

	return events, nil
}

// UpdateInput carries the doctor-editable fields; nil members are left
// unchanged.
type UpdateInput struct {
	Dosage        *string
	DurationStart *time.Time
	DurationEnd   *time.Time
	Frequency     *string
	Instructions  *string
	MedicineID    *int64
}

// Update patches the supplied fields and resets the prescription to Pending
// Verification regardless of its prior status, re-entering the
// pharmacist's queue.
func (s *PrescriptionService) Update(sess session.Session, prescriptionID int64, in UpdateInput) (*models.Prescription, error) {
	if !sess.Is(models.RoleDoctor) {
		return nil, invalid("only a doctor can update a prescription")
	}

	existing, err := s.prescriptions.GetByID(prescriptionID)
	if err != nil {
		return nil, err
	}
	if existing.DoctorID != sess.UserID {
		return nil, invalid("only the prescribing doctor can update this prescription")
	}

	fields := repository.UpdateFields{
		Dosage:              in.Dosage,
		DurationStart:       in.DurationStart,
		DurationEnd:         in.DurationEnd,
		Frequency:           in.Frequency,
		SpecialInstructions: in.Instructions,
		MedicineID:          in.MedicineID,
	}
	if fields.Empty() {
		return nil, invalid("no fields to update")
	}

	if err := s.prescriptions.Update(prescriptionID, fields); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("prescription_id", prescriptionID).
		Msg("prescription updated, returned to verification queue")
	return s.prescriptions.GetByID(prescriptionID)
}

// ListByDoctor returns the doctor's own prescriptions, newest first.
func (s *PrescriptionService) ListByDoctor(doctorID int64) ([]*models.Prescription, error) {
	return s.prescriptions.ListByDoctor(doctorID)
}
