package models

import (
	"database/sql"
	"fmt"
	"time"
)

// User represents a hospital system user
type User struct {
	ID            int64
	Username      string
	Password      string
	FirstName     string
	LastName      string
	Role          Role
	Status        string
	Email         sql.NullString
	ContactNumber sql.NullString
	LicenseNumber sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName returns "First Last" for display and notification messages.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Patient represents an admitted patient
type Patient struct {
	ID                   int64
	FirstName            string
	LastName             string
	DateOfBirth          time.Time
	Sex                  string
	EmergencyContactName sql.NullString
	EmergencyRelation    sql.NullString
	EmergencyContact     sql.NullString
	RoomNumber           sql.NullString
	AdmissionDate        sql.NullTime
	Diagnosis            sql.NullString
	DoctorID             sql.NullInt64
	NurseID              sql.NullInt64
	AddedBy              sql.NullInt64
	Status               string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FullName returns "First Last" for display.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Medicine represents a formulary entry
type Medicine struct {
	ID           int64
	BrandName    string
	GenericName  string
	Formulation  sql.NullString
	Strength     sql.NullString
	IsControlled bool
	CreatedAt    time.Time
}

// DisplayName returns "Brand (generic)" the way notification messages name a drug.
func (m *Medicine) DisplayName() string {
	return fmt.Sprintf("%s (%s)", m.BrandName, m.GenericName)
}

// Prescription represents one doctor-ordered medication course
type Prescription struct {
	ID                  int64
	PatientID           int64
	DoctorID            int64
	MedicineID          int64
	Dosage              string
	Frequency           string
	DurationStart       time.Time
	DurationEnd         time.Time
	SpecialInstructions sql.NullString
	Status              PrescriptionStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Verification is the one-to-one companion row of a prescription, created
// empty and populated when a pharmacist renders a decision.
type Verification struct {
	ID                int64
	PrescriptionID    int64
	PharmacistID      sql.NullInt64
	LotNumber         sql.NullString
	QuantityDispensed sql.NullInt64
	ExpiryDate        sql.NullTime
	Decision          sql.NullString
	Reason            sql.NullString
	VerifiedAt        sql.NullTime
}

// Preparation tracks the To be Prepared / Prepared dose cycle; one row per
// prescription, created when the prescription is approved.
type Preparation struct {
	ID               int64
	PrescriptionID   int64
	QuantityPrepared sql.NullInt64
	LotNumber        sql.NullString
	Status           PreparationStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Administration is one append-only medication administration event.
type Administration struct {
	ID               int64
	PrescriptionID   int64
	NurseID          int64
	AdministeredAt   time.Time
	Assessment       AssessmentLevel
	AdverseReactions string
	Remarks          sql.NullString
	Status           AdministrationStatus
	CreatedAt        time.Time
}

// Notification is a fire-and-forget record addressed to one user.
type Notification struct {
	ID           int64
	UserID       int64
	RelatedTable sql.NullString
	RelatedID    sql.NullInt64
	Title        string
	Message      string
	Priority     NotificationPriority
	CreatedAt    time.Time

	// Computed fields (set by repository for admin views)
	UserName string
	UserRole string
}

// TimeAgo formats the notification age as a relative label for list views.
func (n *Notification) TimeAgo(now time.Time) string {
	diff := now.Sub(n.CreatedAt)

	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	default:
		return plural(int(diff.Hours()/24/30), "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// PreparationDue is a row in the pharmacist's prepare list: a To be Prepared
// preparation joined with its prescription, patient and medicine, plus the
// most recent administration time if any.
type PreparationDue struct {
	PreparationID    int64
	PrescriptionID   int64
	PatientFirstName string
	PatientLastName  string
	BrandName        string
	GenericName      string
	Dosage           string
	Frequency        string
	QuantityPrepared sql.NullInt64
	Status           PreparationStatus
	LastAdminTime    sql.NullTime
}

// PendingPrescription is a row in the pharmacist's verification queue.
type PendingPrescription struct {
	PrescriptionID   int64
	PatientFirstName string
	PatientLastName  string
	BrandName        string
	GenericName      string
	Dosage           string
	PrescribedBy     string
	CreatedAt        time.Time
}

// AssignedPatient is a nurse's ready-to-administer list row: an active
// patient with a Prepared medication inside its duration window.
type AssignedPatient struct {
	PatientID   int64
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Sex         string
	RoomNumber  sql.NullString
	Diagnosis   sql.NullString
	GenericName string
	BrandName   string
}

// ExpiringMedication is a dispensed lot approaching its expiry date.
type ExpiringMedication struct {
	VerificationID   int64
	PrescriptionID   int64
	PatientFirstName string
	PatientLastName  string
	BrandName        string
	GenericName      string
	Quantity         sql.NullInt64
	ExpiryDate       time.Time
	DaysUntilExpiry  int
}
