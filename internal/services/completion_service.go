package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"medisync/internal/models"
	"medisync/internal/repository"
)

// CompletionService closes out prescriptions whose duration has elapsed.
// It runs on every successful login rather than on a timer, so the sweep
// must stay cheap and idempotent.
type CompletionService struct {
	prescriptions *repository.PrescriptionRepository
	notifications *NotificationService
	logger        zerolog.Logger
}

func NewCompletionService(prescriptions *repository.PrescriptionRepository, notifications *NotificationService, logger zerolog.Logger) *CompletionService {
	return &CompletionService{
		prescriptions: prescriptions,
		notifications: notifications,
		logger:        logger,
	}
}

// CompleteExpired marks every Active prescription past its end date as
// Completed and notifies the prescribing doctor. Each row is updated and
// notified independently; a failure on one does not stop the sweep.
// Returns the number of prescriptions completed.
func (s *CompletionService) CompleteExpired(now time.Time) (int, error) {
	expired, err := s.prescriptions.ListExpiredActive(now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, e := range expired {
		done, err := s.prescriptions.CompleteIfActive(e.PrescriptionID)
		if err != nil {
			s.logger.Error().Err(err).Int64("prescription_id", e.PrescriptionID).
				Msg("failed to complete expired prescription")
			continue
		}
		if !done {
			continue
		}
		completed++

		s.notifications.Dispatch([]Event{{
			UserID:       e.DoctorID,
			RelatedTable: "prescriptions",
			RelatedID:    e.PrescriptionID,
			Title:        "Prescription Completed Automatically",
			Message: fmt.Sprintf("Prescription #%d (%s) for patient %s has reached its end date and has been marked as Completed.",
				e.PrescriptionID, e.GenericName, e.PatientName),
			Priority: models.PriorityInfo,
		}})
	}

	if completed > 0 {
		s.logger.Info().Int("count", completed).Msg("expired prescriptions completed")
	}
	return completed, nil
}
