package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisync/internal/models"
)

func TestVerificationServiceVerifyValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewVerificationService(env.verifications, env.prescriptions, nopLogger())

	p := env.newPrescription(t, "Twice a day", day(2026, 8, 1), day(2026, 9, 1))

	tests := []struct {
		name string
		sess string
		in   VerifyInput
	}{
		{
			"wrong role",
			"nurse",
			VerifyInput{PrescriptionID: p.ID, Decision: models.DecisionApprove, LotNumber: "LOT-1", Quantity: 10},
		},
		{
			"unknown decision",
			"pharmacist",
			VerifyInput{PrescriptionID: p.ID, Decision: "Maybe"},
		},
		{
			"approve without lot number",
			"pharmacist",
			VerifyInput{PrescriptionID: p.ID, Decision: models.DecisionApprove, Quantity: 10},
		},
		{
			"approve without quantity",
			"pharmacist",
			VerifyInput{PrescriptionID: p.ID, Decision: models.DecisionApprove, LotNumber: "LOT-1"},
		},
		{
			"reject without reason",
			"pharmacist",
			VerifyInput{PrescriptionID: p.ID, Decision: models.DecisionReject},
		},
		{
			"modification request without reason",
			"pharmacist",
			VerifyInput{PrescriptionID: p.ID, Decision: models.DecisionRequestModification},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := env.pharmacistSession()
			if tt.sess == "nurse" {
				sess = env.nurseSession()
			}
			_, _, err := svc.Verify(sess, tt.in)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "expected a validation error, got %v", err)
		})
	}

	// None of the rejected attempts may have touched the prescription.
	current, err := env.prescriptions.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingVerification, current.Status)
}

func TestVerificationServiceApprove(t *testing.T) {
	env := newTestEnv(t)
	svc := NewVerificationService(env.verifications, env.prescriptions, nopLogger())

	p := env.newPrescription(t, "Twice a day", day(2026, 8, 1), day(2026, 9, 1))

	expiry := day(2027, 8, 1)
	status, events, err := svc.Verify(env.pharmacistSession(), VerifyInput{
		PrescriptionID: p.ID,
		Decision:       models.DecisionApprove,
		LotNumber:      "LOT-2026-017",
		Quantity:       60,
		ExpiryDate:     &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, status)

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, env.doctorID, e.UserID)
	assert.Equal(t, "prescription_verification", e.RelatedTable)
	assert.Equal(t, p.ID, e.RelatedID)
	assert.Equal(t, "Prescription Approved", e.Title)
	assert.Equal(t, "Prescription for Maria Santos - Biogesic (Paracetamol) has been approved by Ben Uy", e.Message)
	assert.Equal(t, models.PriorityInfo, e.Priority)

	// The preparation row is queued for the pharmacist.
	prep, err := env.preparations.GetByPrescriptionID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrepToBePrepared, prep.Status)
}

func TestVerificationServiceDeny(t *testing.T) {
	tests := []struct {
		name         string
		decision     models.VerificationDecision
		wantStatus   models.PrescriptionStatus
		wantTitle    string
		wantMessage  string
		wantPriority models.NotificationPriority
	}{
		{
			"request modification",
			models.DecisionRequestModification,
			models.StatusModificationRequested,
			"Prescription Modification Requested",
			"Prescription for Maria Santos - Biogesic (Paracetamol) has been modification requested by Ben Uy",
			models.PriorityAttention,
		},
		{
			"reject",
			models.DecisionReject,
			models.StatusRejected,
			"Prescription Rejected",
			"Prescription for Maria Santos - Biogesic (Paracetamol) has been rejected by Ben Uy",
			models.PriorityUrgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewVerificationService(env.verifications, env.prescriptions, nopLogger())

			p := env.newPrescription(t, "Twice a day", day(2026, 8, 1), day(2026, 9, 1))

			status, events, err := svc.Verify(env.pharmacistSession(), VerifyInput{
				PrescriptionID: p.ID,
				Decision:       tt.decision,
				Reason:         "Dosage exceeds the daily maximum",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)

			require.Len(t, events, 1)
			assert.Equal(t, tt.wantTitle, events[0].Title)
			assert.Equal(t, tt.wantMessage, events[0].Message)
			assert.Equal(t, tt.wantPriority, events[0].Priority)

			v, err := env.verifications.GetByPrescriptionID(p.ID)
			require.NoError(t, err)
			assert.Equal(t, "Dosage exceeds the daily maximum", v.Reason.String)
			assert.False(t, v.LotNumber.Valid, "denied decision must not store a lot number")
		})
	}
}
