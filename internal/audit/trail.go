// Package audit writes the daily append-only medication administration
// trail. One text file per calendar day under the configured directory,
// never rotated or pruned.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one administration event in the trail.
type Entry struct {
	PrescriptionID   int64
	PatientName      string
	Medication       string
	Dosage           string
	Frequency        string
	AdministeredAt   time.Time
	Assessment       string
	AdverseReactions string
	Status           string
	NurseName        string
	NurseID          int64
	Remarks          string
}

// Trail appends fixed-format blocks to Logs/medication_admin_YYYYMMDD.txt.
type Trail struct {
	dir string
}

// New returns a Trail writing under dir (created on first append).
func New(dir string) *Trail {
	return &Trail{dir: dir}
}

const separator = "================================================================================"

// Append writes one entry block to today's file.
func (t *Trail) Append(e Entry) error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	now := time.Now()
	path := filepath.Join(t.dir, fmt.Sprintf("medication_admin_%s.txt", now.Format("20060102")))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(t.format(e, now)); err != nil {
		return fmt.Errorf("failed to write audit log entry: %w", err)
	}
	return nil
}

func (t *Trail) format(e Entry, now time.Time) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(separator + "\n")
	b.WriteString("MEDICATION ADMINISTRATION AUDIT LOG\n")
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Prescription ID: %d\n", e.PrescriptionID)
	fmt.Fprintf(&b, "Patient: %s\n", orNA(e.PatientName))
	fmt.Fprintf(&b, "Medication: %s\n", orNA(e.Medication))
	fmt.Fprintf(&b, "Dosage: %s\n", orNA(e.Dosage))
	fmt.Fprintf(&b, "Frequency: %s\n", orNA(e.Frequency))
	fmt.Fprintf(&b, "Administration Time: %s\n", e.AdministeredAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Patient Assessment: %s\n", orNA(e.Assessment))
	fmt.Fprintf(&b, "Adverse Reactions: %s\n", orNone(e.AdverseReactions))
	fmt.Fprintf(&b, "Status: %s\n", orNA(e.Status))
	fmt.Fprintf(&b, "Administered By: %s (ID: %d)\n", orNA(e.NurseName), e.NurseID)
	fmt.Fprintf(&b, "Remarks: %s\n", orNone(e.Remarks))
	b.WriteString(separator + "\n\n")

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
