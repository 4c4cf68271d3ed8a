package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medisync/internal/audit"
	"medisync/internal/models"
	"medisync/internal/repository"
	"medisync/internal/session"
)

// AdministrationService records medication administrations and derives
// their on-time status.
type AdministrationService struct {
	administrations *repository.AdministrationRepository
	prescriptions   *repository.PrescriptionRepository
	trail           *audit.Trail
	logger          zerolog.Logger
}

func NewAdministrationService(administrations *repository.AdministrationRepository, prescriptions *repository.PrescriptionRepository, trail *audit.Trail, logger zerolog.Logger) *AdministrationService {
	return &AdministrationService{
		administrations: administrations,
		prescriptions:   prescriptions,
		trail:           trail,
		logger:          logger,
	}
}

// RecordInput carries one administration event.
type RecordInput struct {
	PrescriptionID   int64
	AdministeredAt   time.Time
	Assessment       models.AssessmentLevel
	AdverseReactions string
	Remarks          string
}

// CalculateStatus decides whether a dose given now is on time. The first
// dose of a prescription is always Administered; after that the dose is
// Missed when more than one full interval has elapsed since the previous
// one. An unrecognized frequency yields Administered, since no schedule
// can be derived for it.
func (s *AdministrationService) CalculateStatus(prescriptionID int64, frequency string, now time.Time) (models.AdministrationStatus, error) {
	last, err := s.administrations.GetLastTime(prescriptionID)
	if err == repository.ErrNotFound {
		return models.AdminAdministered, nil
	}
	if err != nil {
		return "", err
	}

	interval, ok := models.FrequencyInterval(frequency)
	if !ok {
		return models.AdminAdministered, nil
	}

	if now.Sub(last) > interval {
		return models.AdminMissed, nil
	}
	return models.AdminAdministered, nil
}

// Record validates and stores an administration event, resets the
// prescription's preparation in the same transaction, appends the audit
// trail entry and drafts the notification for the prescribing doctor.
func (s *AdministrationService) Record(sess session.Session, in RecordInput) (*models.Administration, []Event, error) {
	if !sess.Is(models.RoleNurse) {
		return nil, nil, invalid("only a nurse can record an administration")
	}
	if !in.Assessment.Valid() {
		return nil, nil, invalid("invalid patient assessment: %s", in.Assessment)
	}

	prescription, err := s.prescriptions.GetByID(in.PrescriptionID)
	if err != nil {
		return nil, nil, err
	}

	status, err := s.CalculateStatus(in.PrescriptionID, prescription.Frequency, in.AdministeredAt)
	if err != nil {
		return nil, nil, err
	}

	reactions := strings.TrimSpace(in.AdverseReactions)
	if reactions == "" {
		reactions = "None"
	}

	a := &models.Administration{
		PrescriptionID:   in.PrescriptionID,
		NurseID:          sess.UserID,
		AdministeredAt:   in.AdministeredAt,
		Assessment:       in.Assessment,
		AdverseReactions: reactions,
		Status:           status,
	}
	if remarks := strings.TrimSpace(in.Remarks); remarks != "" {
		a.Remarks = sql.NullString{String: remarks, Valid: true}
	}

	if err := s.administrations.Record(a); err != nil {
		return nil, nil, err
	}

	details, err := s.prescriptions.GetNotificationDetails(in.PrescriptionID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("prescription_id", in.PrescriptionID).
			Msg("could not draft administration notification")
	}

	if err := s.trail.Append(audit.Entry{
		PrescriptionID:   in.PrescriptionID,
		PatientName:      patientNameOf(details),
		Medication:       medicationOf(details),
		Dosage:           prescription.Dosage,
		Frequency:        prescription.Frequency,
		AdministeredAt:   in.AdministeredAt,
		Assessment:       string(in.Assessment),
		AdverseReactions: reactions,
		Status:           string(status),
		NurseName:        sess.Name,
		NurseID:          sess.UserID,
		Remarks:          strings.TrimSpace(in.Remarks),
	}); err != nil {
		s.logger.Error().Err(err).Int64("administration_id", a.ID).
			Msg("failed to append audit trail entry")
	}

	var events []Event
	if details != nil {
		title, priority := "Medication Administered", models.PriorityInfo
		if status == models.AdminMissed {
			title, priority = "Medication Missed (Late)", models.PriorityAttention
		}
		events = append(events, Event{
			UserID:       details.DoctorID,
			RelatedTable: "medication_administration",
			RelatedID:    a.ID,
			Title:        title,
			Message: fmt.Sprintf("%s - %s administered by %s",
				details.PatientName, details.GenericName, sess.Name),
			Priority: priority,
		})
	}

	s.logger.Info().
		Int64("administration_id", a.ID).
		Int64("prescription_id", in.PrescriptionID).
		Str("status", string(status)).
		Msg("administration recorded")
	return a, events, nil
}

// ListAssignedPatients returns the nurse's ready-to-administer list.
func (s *AdministrationService) ListAssignedPatients(sess session.Session, now time.Time) ([]*models.AssignedPatient, error) {
	if !sess.Is(models.RoleNurse) {
		return nil, invalid("only a nurse has assigned patients")
	}
	return s.administrations.ListAssignedPatients(sess.UserID, now)
}

// ListActiveForPatient returns the administrable prescriptions of one
// medicine for a patient.
func (s *AdministrationService) ListActiveForPatient(patientID int64, genericName, brandName string, now time.Time) ([]*repository.ActivePrescriptionDetail, error) {
	return s.administrations.ListActiveForPatient(patientID, genericName, brandName, now)
}

// ListByPrescription returns a prescription's administration history.
func (s *AdministrationService) ListByPrescription(prescriptionID int64) ([]*models.Administration, error) {
	return s.administrations.ListByPrescription(prescriptionID)
}

func patientNameOf(d *repository.NotificationDetails) string {
	if d == nil {
		return ""
	}
	return d.PatientName
}

func medicationOf(d *repository.NotificationDetails) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", d.BrandName, d.GenericName)
}
