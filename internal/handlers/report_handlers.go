package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"medisync/internal/database"
	"medisync/internal/repository"
)

// reportFilter builds a ReportFilter from query parameters.
func reportFilter(r *http.Request) (repository.ReportFilter, error) {
	var f repository.ReportFilter

	if v := r.URL.Query().Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("invalid from date")
		}
		f.From = &from
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("invalid to date")
		}
		f.To = &to
	}
	for _, p := range []struct {
		param string
		dst   **int64
	}{
		{"patient_id", &f.PatientID},
		{"doctor_id", &f.DoctorID},
		{"nurse_id", &f.NurseID},
	} {
		if v := r.URL.Query().Get(p.param); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return f, fmt.Errorf("invalid %s", p.param)
			}
			*p.dst = &id
		}
	}
	return f, nil
}

// report is a generic tabular report ready for JSON, CSV or PDF output.
type report struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// render writes the report in the format requested by ?format= (json
// default, csv or pdf).
func (rep *report) render(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("format") {
	case "csv":
		rep.renderCSV(w)
	case "pdf":
		rep.renderPDF(w)
	default:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"title":   rep.Title,
			"headers": rep.Headers,
			"rows":    rep.Rows,
		})
	}
}

func (rep *report) renderCSV(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write(rep.Headers)
	for _, row := range rep.Rows {
		_ = cw.Write(row)
	}
	cw.Flush()
}

func (rep *report) renderPDF(w http.ResponseWriter) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(rep.Title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, rep.Title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Cell(0, 6, "Generated "+time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(rep.Headers))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range rep.Headers {
		pdf.CellFormat(colWidth, 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rep.Rows {
		for _, cell := range row {
			pdf.CellFormat(colWidth, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
	if err := pdf.Output(w); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render PDF")
	}
}

// HandlePrescriptionReport serves the prescription activity report
func HandlePrescriptionReport(db *database.DB) http.HandlerFunc {
	reportRepo := repository.NewReportRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := reportFilter(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		records, err := reportRepo.GetPrescriptionRecords(filter)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		rep := &report{
			Title:   "Prescription Activity Report",
			Headers: []string{"ID", "Patient", "Doctor", "Medication", "Dosage", "Frequency", "Status", "Created"},
		}
		for _, rec := range records {
			rep.Rows = append(rep.Rows, []string{
				strconv.FormatInt(rec.PrescriptionID, 10),
				rec.PatientName,
				rec.DoctorName,
				fmt.Sprintf("%s (%s)", rec.BrandName, rec.GenericName),
				rec.Dosage,
				rec.Frequency,
				rec.Status,
				rec.CreatedAt.Format("2006-01-02"),
			})
		}
		rep.render(w, r)
	}
}

// HandleVerificationReport serves the verification activity report
func HandleVerificationReport(db *database.DB) http.HandlerFunc {
	reportRepo := repository.NewReportRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := reportFilter(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		records, err := reportRepo.GetVerificationRecords(filter)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		rep := &report{
			Title:   "Verification Activity Report",
			Headers: []string{"ID", "Prescription", "Patient", "Pharmacist", "Decision", "Reason", "Verified"},
		}
		for _, rec := range records {
			rep.Rows = append(rep.Rows, []string{
				strconv.FormatInt(rec.VerificationID, 10),
				strconv.FormatInt(rec.PrescriptionID, 10),
				rec.PatientName,
				rec.PharmacistName,
				rec.Decision,
				rec.Reason,
				rec.VerifiedAt.Format("2006-01-02 15:04"),
			})
		}
		rep.render(w, r)
	}
}

// HandleAdministrationReport serves the administration log report;
// ?missed=true restricts it to Missed doses
func HandleAdministrationReport(db *database.DB) http.HandlerFunc {
	reportRepo := repository.NewReportRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := reportFilter(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var records []*repository.AdministrationRecord
		title := "Medication Administration Log"
		if r.URL.Query().Get("missed") == "true" {
			title = "Missed Administrations Report"
			records, err = reportRepo.GetMissedAdministrations(filter)
		} else {
			records, err = reportRepo.GetAdministrationLog(filter)
		}
		if err != nil {
			respondServiceError(w, err)
			return
		}

		rep := &report{
			Title:   title,
			Headers: []string{"ID", "Patient", "Nurse", "Medication", "Dosage", "Time", "Assessment", "Reactions", "Status"},
		}
		for _, rec := range records {
			rep.Rows = append(rep.Rows, []string{
				strconv.FormatInt(rec.AdministrationID, 10),
				rec.PatientName,
				rec.NurseName,
				fmt.Sprintf("%s (%s)", rec.BrandName, rec.GenericName),
				rec.Dosage,
				rec.AdministeredAt.Format("2006-01-02 15:04"),
				rec.Assessment,
				rec.AdverseReactions,
				rec.Status,
			})
		}
		rep.render(w, r)
	}
}

// HandleControlledSubstancesReport serves the controlled-substances
// activity report
func HandleControlledSubstancesReport(db *database.DB) http.HandlerFunc {
	reportRepo := repository.NewReportRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := reportFilter(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		records, err := reportRepo.GetControlledSubstancesActivity(filter)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		rep := &report{
			Title:   "Controlled Substances Activity Report",
			Headers: []string{"ID", "Patient", "Doctor", "Medication", "Dosage", "Status", "Created"},
		}
		for _, rec := range records {
			rep.Rows = append(rep.Rows, []string{
				strconv.FormatInt(rec.PrescriptionID, 10),
				rec.PatientName,
				rec.DoctorName,
				fmt.Sprintf("%s (%s)", rec.BrandName, rec.GenericName),
				rec.Dosage,
				rec.Status,
				rec.CreatedAt.Format("2006-01-02"),
			})
		}
		rep.render(w, r)
	}
}
