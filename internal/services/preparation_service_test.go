package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisync/internal/models"
	"medisync/internal/repository"
)

func TestPreparationServiceListDue(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	// Twice a day is a 12-hour interval: the next dose opens for
	// preparation 30 minutes before it falls due.
	tests := []struct {
		name      string
		frequency string
		lastDose  time.Time
		wantDue   bool
	}{
		{"first dose is always due", "Twice a day", time.Time{}, true},
		{"well before the window", "Twice a day", now.Add(-2 * time.Hour), false},
		{"just before the window opens", "Twice a day", now.Add(-11*time.Hour - 29*time.Minute), false},
		{"inside the window", "Twice a day", now.Add(-11*time.Hour - 31*time.Minute), true},
		{"past the due time", "Twice a day", now.Add(-13 * time.Hour), true},
		{"unknown frequency is always due", "As needed", now.Add(-1 * time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewPreparationService(env.preparations, nopLogger())

			p := env.newPrescription(t, tt.frequency, day(2026, 8, 1), day(2026, 9, 30))
			env.approve(t, p.ID)
			if !tt.lastDose.IsZero() {
				env.administer(t, p.ID, tt.lastDose)
			}

			due, err := svc.ListDue(now)
			require.NoError(t, err)
			if tt.wantDue {
				require.Len(t, due, 1)
				assert.Equal(t, p.ID, due[0].PrescriptionID)
			} else {
				assert.Empty(t, due)
			}
		})
	}
}

func TestPreparationServiceMarkPrepared(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPreparationService(env.preparations, nopLogger())

	p := env.newPrescription(t, "Twice a day", day(2026, 8, 1), day(2026, 9, 30))
	env.approve(t, p.ID)

	prep, err := env.preparations.GetByPrescriptionID(p.ID)
	require.NoError(t, err)

	t.Run("wrong role", func(t *testing.T) {
		err := svc.MarkPrepared(env.nurseSession(), prep.ID)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("mark and re-mark", func(t *testing.T) {
		require.NoError(t, svc.MarkPrepared(env.pharmacistSession(), prep.ID))

		prepared, err := env.preparations.GetByPrescriptionID(p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PrepPrepared, prepared.Status)

		err = svc.MarkPrepared(env.pharmacistSession(), prep.ID)
		assert.ErrorIs(t, err, repository.ErrAlreadyProcessed)
	})

	t.Run("prepared rows leave the queue", func(t *testing.T) {
		due, err := svc.ListDue(time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}
