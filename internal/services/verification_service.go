package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medisync/internal/models"
	"medisync/internal/repository"
	"medisync/internal/session"
)

// VerificationService handles the pharmacist's verification decisions.
type VerificationService struct {
	verifications *repository.VerificationRepository
	prescriptions *repository.PrescriptionRepository
	logger        zerolog.Logger
}

func NewVerificationService(verifications *repository.VerificationRepository, prescriptions *repository.PrescriptionRepository, logger zerolog.Logger) *VerificationService {
	return &VerificationService{
		verifications: verifications,
		prescriptions: prescriptions,
		logger:        logger,
	}
}

// VerifyInput carries one verification decision. Lot number, quantity and
// expiry date apply to approvals; reason applies to modification requests
// and rejections.
type VerifyInput struct {
	PrescriptionID int64
	Decision       models.VerificationDecision
	LotNumber      string
	Quantity       int64
	ExpiryDate     *time.Time
	Reason         string
}

// Verify validates the decision, applies it atomically (verification row,
// status transition, preparation row on approval) and drafts the decision
// notification for the prescribing doctor.
func (s *VerificationService) Verify(sess session.Session, in VerifyInput) (models.PrescriptionStatus, []Event, error) {
	if !sess.Is(models.RolePharmacist) {
		return "", nil, invalid("only a pharmacist can verify a prescription")
	}

	if _, ok := models.StatusForDecision(in.Decision); !ok {
		return "", nil, invalid("invalid decision: %s", in.Decision)
	}

	switch in.Decision {
	case models.DecisionApprove:
		if strings.TrimSpace(in.LotNumber) == "" {
			return "", nil, invalid("lot number is required to approve")
		}
		if in.Quantity <= 0 {
			return "", nil, invalid("quantity dispensed must be a positive number")
		}
	case models.DecisionRequestModification, models.DecisionReject:
		if strings.TrimSpace(in.Reason) == "" {
			return "", nil, invalid("a reason is required for %s", in.Decision)
		}
	}

	d := repository.Decision{
		PrescriptionID: in.PrescriptionID,
		PharmacistID:   sess.UserID,
		Decision:       in.Decision,
	}
	if in.Decision == models.DecisionApprove {
		d.LotNumber = sql.NullString{String: in.LotNumber, Valid: true}
		d.Quantity = sql.NullInt64{Int64: in.Quantity, Valid: true}
		if in.ExpiryDate != nil {
			d.ExpiryDate = sql.NullTime{Time: *in.ExpiryDate, Valid: true}
		}
	} else {
		d.Reason = sql.NullString{String: in.Reason, Valid: true}
	}

	newStatus, err := s.verifications.Apply(d)
	if err != nil {
		return "", nil, err
	}

	events, err := s.decisionEvents(sess, in.PrescriptionID, in.Decision)
	if err != nil {
		s.logger.Warn().Err(err).Int64("prescription_id", in.PrescriptionID).
			Msg("could not draft decision notification")
	}

	s.logger.Info().
		Int64("prescription_id", in.PrescriptionID).
		Str("decision", string(in.Decision)).
		Str("status", string(newStatus)).
		Msg("prescription verified")
	return newStatus, events, nil
}

func (s *VerificationService) decisionEvents(sess session.Session, prescriptionID int64, decision models.VerificationDecision) ([]Event, error) {
	details, err := s.prescriptions.GetNotificationDetails(prescriptionID)
	if err != nil {
		return nil, err
	}

	var (
		statusText string
		priority   models.NotificationPriority
	)
	switch decision {
	case models.DecisionApprove:
		statusText, priority = "Approved", models.PriorityInfo
	case models.DecisionRequestModification:
		statusText, priority = "Modification Requested", models.PriorityAttention
	case models.DecisionReject:
		statusText, priority = "Rejected", models.PriorityUrgent
	}

	medication := fmt.Sprintf("%s (%s)", details.BrandName, details.GenericName)
	return []Event{{
		UserID:       details.DoctorID,
		RelatedTable: "prescription_verification",
		RelatedID:    prescriptionID,
		Title:        fmt.Sprintf("Prescription %s", statusText),
		Message: fmt.Sprintf("Prescription for %s - %s has been %s by %s",
			details.PatientName, medication, strings.ToLower(statusText), sess.Name),
		Priority: priority,
	}}, nil
}

// ListPending returns the verification queue, newest first.
func (s *VerificationService) ListPending() ([]*models.PendingPrescription, error) {
	return s.prescriptions.ListPending()
}

// SearchPending filters the verification queue.
func (s *VerificationService) SearchPending(term string) ([]*models.PendingPrescription, error) {
	return s.prescriptions.SearchPending(term)
}

// ListExpiring returns dispensed lots expiring within the next `days` days.
func (s *VerificationService) ListExpiring(now time.Time, days int) ([]*models.ExpiringMedication, error) {
	return s.verifications.ListExpiring(now, days)
}
