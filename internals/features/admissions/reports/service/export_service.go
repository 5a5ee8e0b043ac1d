package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	appDto "schoolerp_backend/internals/features/admissions/applications/dto"
	appModel "schoolerp_backend/internals/features/admissions/applications/model"
	appService "schoolerp_backend/internals/features/admissions/applications/service"
)

const (
	SheetName  = "Admissions"
	MaxRows    = 10000
	dateLayout = "2006-01-02 15:04"
)

var Header = []string{
	"Reference ID", "Applicant", "Email", "Phone", "Course", "Category", "Application Status",
	"School", "Rank", "Outcome", "Student Choice", "Enrollment", "Payment", "Finalized",
	"Account Allocated", "Admission No.", "Submitted At",
}

// Row is one decision with its application and school.
type Row struct {
	ReferenceID       string    `gorm:"column:application_reference_id"`
	ApplicantName     string    `gorm:"column:application_applicant_name"`
	Email             string    `gorm:"column:application_email"`
	Phone             string    `gorm:"column:application_phone"`
	Course            string    `gorm:"column:application_course_applied"`
	Category          string    `gorm:"column:application_category"`
	ApplicationStatus string    `gorm:"column:application_status"`
	SchoolName        string    `gorm:"column:school_name"`
	Rank              string    `gorm:"column:decision_rank"`
	Outcome           string    `gorm:"column:decision_outcome"`
	IsStudentChoice   bool      `gorm:"column:decision_is_student_choice"`
	Enrollment        string    `gorm:"column:decision_enrollment_status"`
	Payment           string    `gorm:"column:decision_payment_status"`
	Finalized         bool      `gorm:"column:decision_payment_finalized"`
	AccountAllocated  bool      `gorm:"column:decision_account_allocated"`
	AdmissionNumber   *string   `gorm:"column:decision_admission_number"`
	SubmittedAt       time.Time `gorm:"column:application_created_at"`
}

func (r Row) cells() []any {
	adm := ""
	if r.AdmissionNumber != nil {
		adm = *r.AdmissionNumber
	}
	return []any{
		r.ReferenceID, r.ApplicantName, r.Email, r.Phone, r.Course, r.Category, r.ApplicationStatus,
		r.SchoolName, r.Rank, r.Outcome, yesNo(r.IsStudentChoice), r.Enrollment, r.Payment,
		yesNo(r.Finalized), yesNo(r.AccountAllocated), adm, r.SubmittedAt.Format(dateLayout),
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

type Service struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{DB: db} }

func (s *Service) Rows(ctx context.Context, q appDto.ListApplicationsQuery) ([]Row, error) {
	var rows []Row
	err := appService.FilterQuery(s.DB.WithContext(ctx).Model(&appModel.ApplicationModel{}), q).
		Select(`admission_applications.application_reference_id, admission_applications.application_applicant_name,
			admission_applications.application_email, admission_applications.application_phone,
			admission_applications.application_course_applied, admission_applications.application_category,
			admission_applications.application_status, admission_applications.application_created_at,
			sc.school_name, d.decision_rank, d.decision_outcome, d.decision_is_student_choice,
			d.decision_enrollment_status, d.decision_payment_status, d.decision_payment_finalized,
			d.decision_account_allocated, d.decision_admission_number`).
		Joins("JOIN admission_decisions d ON d.decision_application_id = admission_applications.application_id").
		Joins("JOIN schools sc ON sc.school_id = d.decision_school_id").
		Order("admission_applications.application_created_at DESC, d.decision_rank").
		Limit(MaxRows).
		Scan(&rows).Error
	return rows, err
}

// ExportApplicationsXLSX renders one row per decision.
func (s *Service) ExportApplicationsXLSX(ctx context.Context, q appDto.ListApplicationsQuery) ([]byte, int, error) {
	rows, err := s.Rows(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	data, err := BuildWorkbook(rows)
	return data, len(rows), err
}

func BuildWorkbook(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		vals := r.cells()
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(Header))
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(SheetName, "A1", last+"1", bold)
	}
	_ = f.AutoFilter(SheetName, "A1:"+last+"1", nil)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	for i, h := range Header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w := float64(len(h)) * 1.2
		if w < 12 {
			w = 12
		}
		_ = f.SetColWidth(SheetName, col, col, w)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func FileName(now time.Time) string {
	return "admissions_" + now.Format("20060102_150405") + ".xlsx"
}
