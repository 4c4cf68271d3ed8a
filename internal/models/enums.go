package models

import "time"

// PrescriptionStatus is the lifecycle state of a prescription. The string
// values are the wire contract shared with the database schema and must not
// change.
type PrescriptionStatus string

const (
	StatusPendingVerification   PrescriptionStatus = "Pending Verification"
	StatusActive                PrescriptionStatus = "Active"
	StatusCompleted             PrescriptionStatus = "Completed"
	StatusRejected              PrescriptionStatus = "Rejected"
	StatusModificationRequested PrescriptionStatus = "Modification Requested"
)

// VerificationDecision is a pharmacist's ruling on a pending prescription.
type VerificationDecision string

const (
	DecisionApprove             VerificationDecision = "Approve"
	DecisionRequestModification VerificationDecision = "Request Modification"
	DecisionReject              VerificationDecision = "Reject"
)

// StatusForDecision maps a verification decision to the prescription status
// it produces. The bool result is false for unknown decisions.
func StatusForDecision(d VerificationDecision) (PrescriptionStatus, bool) {
	switch d {
	case DecisionApprove:
		return StatusActive, true
	case DecisionRequestModification:
		return StatusModificationRequested, true
	case DecisionReject:
		return StatusRejected, true
	}
	return "", false
}

// PreparationStatus is the two-state dose preparation cycle.
type PreparationStatus string

const (
	PrepToBePrepared PreparationStatus = "To be Prepared"
	PrepPrepared     PreparationStatus = "Prepared"
)

// AdministrationStatus records whether a dose was given on time.
type AdministrationStatus string

const (
	AdminAdministered AdministrationStatus = "Administered"
	AdminMissed       AdministrationStatus = "Missed"
)

// AssessmentLevel is the nurse's observation of the patient at dose time.
type AssessmentLevel string

const (
	AssessmentActive   AssessmentLevel = "Active"
	AssessmentDrowsy   AssessmentLevel = "Drowsy"
	AssessmentSleeping AssessmentLevel = "Sleeping"
	AssessmentConfused AssessmentLevel = "Confused"
)

// Valid reports whether the assessment is one of the accepted levels.
func (a AssessmentLevel) Valid() bool {
	switch a {
	case AssessmentActive, AssessmentDrowsy, AssessmentSleeping, AssessmentConfused:
		return true
	}
	return false
}

// NotificationPriority is the priority class of a notification.
type NotificationPriority string

const (
	PriorityInfo      NotificationPriority = "Info"
	PriorityAttention NotificationPriority = "Attention"
	PriorityUrgent    NotificationPriority = "Urgent"
)

// Role identifies a user's workflow role.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleDoctor     Role = "Doctor"
	RoleNurse      Role = "Nurse"
	RolePharmacist Role = "Pharmacist"
)

// frequencyIntervals is the canonical dosing-frequency table used by both
// the preparation-window filter and administration lateness calculation.
var frequencyIntervals = map[string]time.Duration{
	"Once a day":        24 * time.Hour,
	"Twice a day":       12 * time.Hour,
	"Three times a day": 8 * time.Hour,
	"Four times a day":  6 * time.Hour,
	"Every 6 hours":     6 * time.Hour,
	"Every 8 hours":     8 * time.Hour,
	"Every 12 hours":    12 * time.Hour,
}

// FrequencyInterval returns the dosing interval for a frequency label.
// Unrecognized labels return ok=false; callers fail open on those.
func FrequencyInterval(frequency string) (time.Duration, bool) {
	d, ok := frequencyIntervals[frequency]
	return d, ok
}

// Frequencies lists the accepted frequency labels.
func Frequencies() []string {
	return []string{
		"Once a day",
		"Twice a day",
		"Three times a day",
		"Four times a day",
		"Every 6 hours",
		"Every 8 hours",
		"Every 12 hours",
	}
}
