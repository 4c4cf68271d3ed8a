package models

import (
	"testing"
	"time"
)

func TestStatusForDecision(t *testing.T) {
	tests := []struct {
		decision VerificationDecision
		want     PrescriptionStatus
		ok       bool
	}{
		{DecisionApprove, StatusActive, true},
		{DecisionRequestModification, StatusModificationRequested, true},
		{DecisionReject, StatusRejected, true},
		{"Maybe", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := StatusForDecision(tt.decision)
		if got != tt.want || ok != tt.ok {
			t.Errorf("StatusForDecision(%q) = (%q, %v), want (%q, %v)", tt.decision, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFrequencyInterval(t *testing.T) {
	tests := []struct {
		frequency string
		want      time.Duration
		ok        bool
	}{
		{"Once a day", 24 * time.Hour, true},
		{"Twice a day", 12 * time.Hour, true},
		{"Three times a day", 8 * time.Hour, true},
		{"Four times a day", 6 * time.Hour, true},
		{"Every 6 hours", 6 * time.Hour, true},
		{"Every 8 hours", 8 * time.Hour, true},
		{"Every 12 hours", 12 * time.Hour, true},
		{"As needed", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := FrequencyInterval(tt.frequency)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FrequencyInterval(%q) = (%v, %v), want (%v, %v)", tt.frequency, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAssessmentLevelValid(t *testing.T) {
	for _, a := range []AssessmentLevel{AssessmentActive, AssessmentDrowsy, AssessmentSleeping, AssessmentConfused} {
		if !a.Valid() {
			t.Errorf("AssessmentLevel(%q).Valid() = false, want true", a)
		}
	}
	for _, a := range []AssessmentLevel{"", "Agitated", "active"} {
		if a.Valid() {
			t.Errorf("AssessmentLevel(%q).Valid() = true, want false", a)
		}
	}
}

func TestNotificationTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{"seconds", 30 * time.Second, "Just now"},
		{"one minute", time.Minute, "1 minute ago"},
		{"minutes", 45 * time.Minute, "45 minutes ago"},
		{"one hour", time.Hour, "1 hour ago"},
		{"hours", 5 * time.Hour, "5 hours ago"},
		{"days", 3 * 24 * time.Hour, "3 days ago"},
		{"weeks", 2 * 7 * 24 * time.Hour, "2 weeks ago"},
		{"months", 65 * 24 * time.Hour, "2 months ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Notification{CreatedAt: now.Add(-tt.age)}
			if got := n.TimeAgo(now); got != tt.want {
				t.Errorf("TimeAgo() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMedicineDisplayName(t *testing.T) {
	m := &Medicine{BrandName: "Biogesic", GenericName: "Paracetamol"}
	if got := m.DisplayName(); got != "Biogesic (Paracetamol)" {
		t.Errorf("DisplayName() = %q, want %q", got, "Biogesic (Paracetamol)")
	}
}
