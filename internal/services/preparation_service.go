package services

import (
	"time"

	"github.com/rs/zerolog"

	"medisync/internal/models"
	"medisync/internal/repository"
	"medisync/internal/session"
)

// PreparationService drives the pharmacist's preparation queue.
type PreparationService struct {
	preparations *repository.PreparationRepository
	logger       zerolog.Logger
}

func NewPreparationService(preparations *repository.PreparationRepository, logger zerolog.Logger) *PreparationService {
	return &PreparationService{preparations: preparations, logger: logger}
}

// preparationLead is how far ahead of the next scheduled dose a
// prescription enters the preparation queue.
const preparationLead = 30 * time.Minute

// ListDue returns active prescriptions whose next dose is due now or
// within the preparation lead window. A prescription with no recorded
// administration yet is always due; so is one with an unrecognized
// frequency, since no schedule can be derived for it.
func (s *PreparationService) ListDue(now time.Time) ([]*models.PreparationDue, error) {
	candidates, err := s.preparations.ListCandidatesToPrepare(now)
	if err != nil {
		return nil, err
	}

	due := make([]*models.PreparationDue, 0, len(candidates))
	for _, c := range candidates {
		if !c.LastAdminTime.Valid {
			due = append(due, c)
			continue
		}
		interval, ok := models.FrequencyInterval(c.Frequency)
		if !ok {
			due = append(due, c)
			continue
		}
		next := c.LastAdminTime.Time.Add(interval)
		if !now.Before(next.Add(-preparationLead)) {
			due = append(due, c)
		}
	}
	return due, nil
}

// MarkPrepared flips a queued preparation to Prepared.
func (s *PreparationService) MarkPrepared(sess session.Session, preparationID int64) error {
	if !sess.Is(models.RolePharmacist) {
		return invalid("only a pharmacist can mark a preparation")
	}
	if err := s.preparations.MarkPrepared(preparationID); err != nil {
		return err
	}
	s.logger.Info().Int64("preparation_id", preparationID).Msg("medication prepared")
	return nil
}
