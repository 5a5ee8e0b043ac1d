// file: internals/features/admissions/applications/service/application_service.go
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dto "schoolerp_backend/internals/features/admissions/applications/dto"
	model "schoolerp_backend/internals/features/admissions/applications/model"
	decisionModel "schoolerp_backend/internals/features/admissions/decisions/model"
	"schoolerp_backend/internals/features/admissions/identifiers"
	"schoolerp_backend/internals/features/notifications/email"
	otpService "schoolerp_backend/internals/features/users/otp/service"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
)

type Service struct {
	DB                       *gorm.DB
	Mail                     email.Sender
	RequireEmailVerification bool
}

func New(db *gorm.DB, mail email.Sender, requireVerification bool) *Service {
	return &Service{DB: db, Mail: mail, RequireEmailVerification: requireVerification}
}

/* ===============================
   Submit
=================================*/

// Submit stores the application and one pending decision per preferred school
// in a single transaction. The confirmation email is queued after commit.
func (s *Service) Submit(ctx context.Context, req *dto.SubmitApplicationRequest) (*dto.SubmitResponse, error) {
	if fields := helper.ValidateStruct(req); fields != nil {
		return nil, helper.NewValidation(fields)
	}
	if fields := req.CheckPreferences(); fields != nil {
		return nil, helper.NewValidation(fields)
	}
	dob, err := dbtime.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, helper.FieldError("date_of_birth", "must be a date in YYYY-MM-DD format")
	}
	if dob.After(dbtime.Today()) {
		return nil, helper.FieldError("date_of_birth", "must not be in the future")
	}
	if s.RequireEmailVerification && strings.TrimSpace(req.VerificationToken) == "" {
		return nil, helper.FieldError("verification_token", "verify your email before submitting")
	}

	app := req.ToModel(dob)
	prefs := app.Preferences()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	if s.RequireEmailVerification {
		if err := otpService.ConsumeVerificationToken(ctx, tx, app.ApplicationEmail, req.VerificationToken); err != nil {
			return nil, err
		}
	}

	names, err := activeSchoolNames(ctx, tx, prefs)
	if err != nil {
		return nil, err
	}

	now := dbtime.Now()
	ref, err := identifiers.UniqueReferenceID(ctx, tx, now)
	if err != nil {
		return nil, err
	}
	app.ApplicationReferenceID = ref
	if err := tx.Create(app).Error; err != nil {
		if helper.IsUniqueViolation(err, "uq_applications_reference") {
			return nil, helper.Conflict("REFERENCE_ID_TAKEN", "please submit again")
		}
		return nil, err
	}

	decisions := make([]decisionModel.DecisionModel, 0, len(prefs))
	for _, p := range prefs {
		decisions = append(decisions, decisionModel.NewPendingDecision(app.ApplicationID, p.SchoolID, p.Rank))
	}
	if len(decisions) > 0 {
		if err := tx.Create(&decisions).Error; err != nil {
			if helper.IsUniqueViolation(err, "uq_decisions_application_school") {
				return nil, helper.FieldError("second_school_id", "a school may be chosen only once")
			}
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	views := make([]dto.DecisionView, 0, len(decisions))
	schoolNames := make([]string, 0, len(decisions))
	for i := range decisions {
		views = append(views, toView(&decisions[i], names[decisions[i].DecisionSchoolID]))
		schoolNames = append(schoolNames, names[decisions[i].DecisionSchoolID])
	}

	zap.L().Info("[ADMISSION] application submitted",
		zap.String("reference_id", ref),
		zap.Int("preferences", len(decisions)))

	if s.Mail != nil {
		s.Mail.SendMessages(email.ApplicationConfirmation(app.ApplicationEmail, email.ApplicationData{
			ApplicantName: app.ApplicationApplicantName,
			ReferenceID:   ref,
			Schools:       schoolNames,
			SubmittedAt:   now,
		}))
	}

	return &dto.SubmitResponse{ReferenceID: ref, Application: app, Decisions: views}, nil
}

// activeSchoolNames checks every preferred school exists and is active.
func activeSchoolNames(ctx context.Context, tx *gorm.DB, prefs []model.Preference) (map[uuid.UUID]string, error) {
	out := map[uuid.UUID]string{}
	if len(prefs) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(prefs))
	for _, p := range prefs {
		ids = append(ids, p.SchoolID)
	}
	var rows []struct {
		SchoolID   uuid.UUID `gorm:"column:school_id"`
		SchoolName string    `gorm:"column:school_name"`
	}
	if err := tx.WithContext(ctx).Table("schools").
		Select("school_id, school_name").
		Where("school_id IN ? AND school_is_active", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.SchoolID] = r.SchoolName
	}
	fields := map[string][]string{}
	for _, p := range prefs {
		if _, ok := out[p.SchoolID]; !ok {
			fields[rankField(p.Rank)] = []string{"school does not exist or is not accepting applications"}
		}
	}
	if len(fields) > 0 {
		return nil, helper.NewValidation(fields)
	}
	return out, nil
}

func rankField(rank string) string {
	switch rank {
	case "1st":
		return "first_school_id"
	case "2nd":
		return "second_school_id"
	default:
		return "third_school_id"
	}
}

/* ===============================
   Reads
=================================*/

func toView(d *decisionModel.DecisionModel, schoolName string) dto.DecisionView {
	return dto.DecisionView{
		DecisionID:       d.DecisionID,
		SchoolID:         d.DecisionSchoolID,
		SchoolName:       schoolName,
		Rank:             d.DecisionRank,
		Outcome:          d.DecisionOutcome,
		DecisionDate:     d.DecisionDate,
		Comments:         d.DecisionComments,
		IsStudentChoice:  d.DecisionIsStudentChoice,
		EnrollmentStatus: d.DecisionEnrollmentStatus,
		PaymentStatus:    d.DecisionPaymentStatus,
		PaymentFinalized: d.DecisionPaymentFinalized,
		AccountAllocated: d.DecisionAccountAllocated,
	}
}

func decisionViews(ctx context.Context, db *gorm.DB, applicationID uuid.UUID) ([]dto.DecisionView, error) {
	var rows []struct {
		decisionModel.DecisionModel
		SchoolName string `gorm:"column:school_name"`
	}
	if err := db.WithContext(ctx).
		Table("admission_decisions AS d").
		Select("d.*, sc.school_name").
		Joins("JOIN schools sc ON sc.school_id = d.decision_school_id").
		Where("d.decision_application_id = ?", applicationID).
		Order("d.decision_rank").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]dto.DecisionView, 0, len(rows))
	for i := range rows {
		out = append(out, toView(&rows[i].DecisionModel, rows[i].SchoolName))
	}
	return out, nil
}

func (s *Service) Track(ctx context.Context, referenceID string) (*dto.TrackResponse, error) {
	ref := strings.ToUpper(strings.TrimSpace(referenceID))
	if ref == "" {
		return nil, helper.FieldError("reference_id", "this field is required")
	}
	var app model.ApplicationModel
	if err := s.DB.WithContext(ctx).Where("application_reference_id = ?", ref).Take(&app).Error; err != nil {
		return nil, helper.NotFoundOr(err, "APPLICATION_NOT_FOUND", "no application with this reference id")
	}
	views, err := decisionViews(ctx, s.DB, app.ApplicationID)
	if err != nil {
		return nil, err
	}
	return &dto.TrackResponse{
		ReferenceID:    app.ApplicationReferenceID,
		ApplicantName:  app.ApplicationApplicantName,
		CourseApplied:  app.ApplicationCourseApplied,
		Status:         app.ApplicationStatus,
		ReviewComments: app.ApplicationReviewComments,
		SubmittedAt:    app.ApplicationCreatedAt,
		Decisions:      views,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*dto.ApplicationDetail, error) {
	var app model.ApplicationModel
	if err := s.DB.WithContext(ctx).Where("application_id = ?", id).Take(&app).Error; err != nil {
		return nil, helper.NotFoundOr(err, "APPLICATION_NOT_FOUND", "application not found")
	}
	views, err := decisionViews(ctx, s.DB, app.ApplicationID)
	if err != nil {
		return nil, err
	}
	return &dto.ApplicationDetail{Application: &app, Decisions: views}, nil
}

// FilterQuery applies the list filters; the export reuses it.
func FilterQuery(db *gorm.DB, q dto.ListApplicationsQuery) *gorm.DB {
	if q.Status != "" {
		db = db.Where("application_status = ?", q.Status)
	}
	if q.Category != "" {
		db = db.Where("application_category = ?", q.Category)
	}
	if q.SchoolID != "" {
		db = db.Where(`EXISTS (SELECT 1 FROM admission_decisions d
			WHERE d.decision_application_id = admission_applications.application_id
			  AND d.decision_school_id = ?)`, q.SchoolID)
	}
	if term := strings.TrimSpace(q.Q); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		db = db.Where(`(lower(application_applicant_name) LIKE ? OR lower(application_email) LIKE ?
			OR lower(application_reference_id) LIKE ?)`, like, like, like)
	}
	return db
}

func (s *Service) List(ctx context.Context, q dto.ListApplicationsQuery, p helper.Paging) ([]model.ApplicationModel, int64, error) {
	base := FilterQuery(s.DB.WithContext(ctx).Model(&model.ApplicationModel{}), q)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ApplicationModel
	err := base.
		Order("application_created_at DESC, application_id").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error
	return rows, total, err
}

type ReviewInput struct {
	Status     model.ApplicationStatus
	Comments   *string
	ReviewerID *uuid.UUID
}

// ReviewApplication changes the application-level status only; per-school
// outcomes live on the decisions.
func (s *Service) ReviewApplication(ctx context.Context, id uuid.UUID, in ReviewInput) (*model.ApplicationModel, error) {
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	var app model.ApplicationModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", id).Take(&app).Error; err != nil {
		return nil, helper.NotFoundOr(err, "APPLICATION_NOT_FOUND", "application not found")
	}
	now := dbtime.Now()
	if err := tx.Model(&app).Updates(map[string]any{
		"application_status":          in.Status,
		"application_review_comments": in.Comments,
		"application_reviewed_by":     in.ReviewerID,
		"application_reviewed_at":     now,
	}).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	app.ApplicationStatus = in.Status
	app.ApplicationReviewComments = in.Comments
	app.ApplicationReviewedBy = in.ReviewerID
	app.ApplicationReviewedAt = &now
	return &app, nil
}
