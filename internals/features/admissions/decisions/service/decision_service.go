// file: internals/features/admissions/decisions/service/decision_service.go
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appModel "schoolerp_backend/internals/features/admissions/applications/model"
	dto "schoolerp_backend/internals/features/admissions/decisions/dto"
	model "schoolerp_backend/internals/features/admissions/decisions/model"
	invoiceModel "schoolerp_backend/internals/features/finance/invoices/model"
	"schoolerp_backend/internals/features/notifications/email"
	schoolModel "schoolerp_backend/internals/features/schools/model"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
	"schoolerp_backend/internals/observability"
)

// Service runs every decision transition in its own transaction. Emails are
// queued only after commit.
type Service struct {
	DB          *gorm.DB
	Mail        email.Sender
	EmailDomain string
}

func New(db *gorm.DB, mail email.Sender, emailDomain string) *Service {
	return &Service{DB: db, Mail: mail, EmailDomain: emailDomain}
}

func observe(op string, err error) {
	observability.DecisionTransitions.WithLabelValues(op, observability.Result(err, helper.CodeOf(err))).Inc()
}

func (s *Service) send(msgs ...*email.Message) {
	if s.Mail != nil {
		s.Mail.SendMessages(msgs...)
	}
}

/* ===============================
   Loading
=================================*/

func lockDecision(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.DecisionModel, error) {
	var d model.DecisionModel
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("decision_id = ?", id).
		Take(&d).Error
	if err != nil {
		return nil, helper.NotFoundOr(err, "DECISION_NOT_FOUND", "admission decision not found")
	}
	return &d, nil
}

// lockApplicationDecisions locks every decision of one application, in a fixed
// order so concurrent enrollments cannot deadlock.
func lockApplicationDecisions(ctx context.Context, tx *gorm.DB, applicationID uuid.UUID) ([]model.DecisionModel, error) {
	var rows []model.DecisionModel
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("decision_application_id = ?", applicationID).
		Order("decision_id").
		Find(&rows).Error
	return rows, err
}

func loadApplication(ctx context.Context, db *gorm.DB, id uuid.UUID) (*appModel.ApplicationModel, error) {
	var a appModel.ApplicationModel
	if err := db.WithContext(ctx).Where("application_id = ?", id).Take(&a).Error; err != nil {
		return nil, helper.NotFoundOr(err, "APPLICATION_NOT_FOUND", "application not found")
	}
	return &a, nil
}

func loadSchool(ctx context.Context, db *gorm.DB, id uuid.UUID) (*schoolModel.SchoolModel, error) {
	var sc schoolModel.SchoolModel
	if err := db.WithContext(ctx).Where("school_id = ?", id).Take(&sc).Error; err != nil {
		return nil, helper.NotFoundOr(err, "SCHOOL_NOT_FOUND", "school not found")
	}
	return &sc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.DecisionModel, error) {
	var d model.DecisionModel
	if err := s.DB.WithContext(ctx).Where("decision_id = ?", id).Take(&d).Error; err != nil {
		return nil, helper.NotFoundOr(err, "DECISION_NOT_FOUND", "admission decision not found")
	}
	return &d, nil
}

/* ===============================
   Review
=================================*/

type ReviewInput struct {
	Outcome    model.Outcome
	Comments   *string
	ReviewerID *uuid.UUID
}

func (s *Service) Review(ctx context.Context, id uuid.UUID, in ReviewInput) (out *model.DecisionModel, err error) {
	defer func() { observe("review", err) }()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	d, err := lockDecision(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := d.CanReview(in.Outcome); err != nil {
		return nil, err
	}

	now := dbtime.Now()
	d.DecisionOutcome = in.Outcome
	d.DecisionDate = &now
	d.DecisionReviewedBy = in.ReviewerID
	d.DecisionComments = in.Comments
	if !d.KeepsStudentChoice(in.Outcome) {
		d.DecisionIsStudentChoice = false
		d.DecisionStudentChoiceAt = nil
	}
	if err := tx.Save(d).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	zap.L().Info("[DECISION] reviewed",
		zap.String("decision_id", id.String()),
		zap.String("outcome", string(in.Outcome)))
	return d, nil
}

/* ===============================
   Enroll / Withdraw
=================================*/

type EnrollInput struct {
	PaymentReference *string
	Finalize         bool
}

func (s *Service) Enroll(ctx context.Context, id uuid.UUID, in EnrollInput) (out *model.DecisionModel, err error) {
	defer func() { observe("enroll", err) }()

	var appIDs []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&model.DecisionModel{}).
		Where("decision_id = ?", id).
		Pluck("decision_application_id", &appIDs).Error; err != nil {
		return nil, err
	}
	if len(appIDs) == 0 {
		return nil, helper.NotFound("DECISION_NOT_FOUND", "admission decision not found")
	}
	appID := appIDs[0]

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	all, err := lockApplicationDecisions(ctx, tx, appID)
	if err != nil {
		return nil, err
	}
	var d *model.DecisionModel
	for i := range all {
		if all[i].DecisionID == id {
			d = &all[i]
			break
		}
	}
	if d == nil {
		return nil, helper.NotFound("DECISION_NOT_FOUND", "admission decision not found")
	}

	if err := d.CanEnroll(all); err != nil {
		return nil, s.describeElsewhere(ctx, tx, err)
	}

	now := dbtime.Now()
	if d.DecisionOutcome == model.OutcomePending {
		d.DecisionOutcome = model.OutcomeAccepted
		d.DecisionDate = &now
	}
	d.DecisionEnrollmentStatus = model.Enrolled
	d.DecisionEnrolledAt = &now
	d.DecisionWithdrawnAt = nil
	d.DecisionWithdrawalReason = nil
	d.DecisionIsStudentChoice = true
	d.DecisionStudentChoiceAt = &now

	if ref := trimmed(in.PaymentReference); ref != nil {
		d.DecisionPaymentStatus = model.PaymentCompleted
		d.DecisionPaymentReference = ref
		d.DecisionPaymentCompletedAt = &now
	}
	if in.Finalize && d.DecisionPaymentStatus == model.PaymentCompleted {
		d.DecisionPaymentFinalized = true
		d.DecisionPaymentFinalizedAt = &now
	}

	if err := tx.Model(&model.DecisionModel{}).
		Where("decision_application_id = ? AND decision_id <> ?", appID, id).
		Updates(map[string]any{
			"decision_is_student_choice": false,
			"decision_student_choice_at": nil,
		}).Error; err != nil {
		return nil, err
	}
	if err := tx.Save(d).Error; err != nil {
		if helper.IsUniqueViolation(err, "uq_decisions_one_enrolled") {
			return nil, helper.Conflict("ACTIVE_ENROLLMENT_ELSEWHERE", "the application is already enrolled at another school")
		}
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	zap.L().Info("[DECISION] enrolled",
		zap.String("decision_id", id.String()),
		zap.String("application_id", appID.String()),
		zap.Bool("finalized", d.DecisionPaymentFinalized))
	return d, nil
}

// describeElsewhere names the school holding the active enrollment.
func (s *Service) describeElsewhere(ctx context.Context, tx *gorm.DB, err error) error {
	ae, ok := helper.AsAppError(err)
	if !ok || ae.Code != "ACTIVE_ENROLLMENT_ELSEWHERE" {
		return err
	}
	schoolID, _ := ae.Meta["enrolled_school_id"].(uuid.UUID)
	if sc, lerr := loadSchool(ctx, tx, schoolID); lerr == nil {
		ae.Message = "the application is already enrolled at " + sc.SchoolName + ", withdraw that enrollment first"
		ae.With("enrolled_school_name", sc.SchoolName)
	}
	return ae
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) Withdraw(ctx context.Context, id uuid.UUID, reason string, force bool) (out *model.DecisionModel, err error) {
	defer func() { observe("withdraw", err) }()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	d, err := lockDecision(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := d.CanWithdraw(force); err != nil {
		return nil, err
	}

	now := dbtime.Now()
	d.DecisionEnrollmentStatus = model.Withdrawn
	d.DecisionWithdrawnAt = &now
	d.DecisionWithdrawalReason = trimmed(&reason)
	d.DecisionIsStudentChoice = false
	d.DecisionStudentChoiceAt = nil
	if err := tx.Save(d).Error; err != nil {
		return nil, err
	}
	cancelled, err := cancelOpenInvoices(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	zap.L().Info("[DECISION] withdrawn",
		zap.String("decision_id", id.String()),
		zap.Bool("forced", force && d.DecisionPaymentFinalized),
		zap.Int64("invoices_cancelled", cancelled))
	return d, nil
}

// cancelOpenInvoices closes the unpaid admission invoices of a decision. The
// decision row is already locked.
func cancelOpenInvoices(ctx context.Context, tx *gorm.DB, decisionID uuid.UUID) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&invoiceModel.FeeInvoiceModel{}).
		Where("fee_invoice_decision_id = ? AND fee_invoice_status IN ?", decisionID,
			[]invoiceModel.InvoiceStatus{invoiceModel.InvoicePending, invoiceModel.InvoiceOverdue}).
		Update("fee_invoice_status", invoiceModel.InvoiceCancelled)
	return res.RowsAffected, res.Error
}

/* ===============================
   Payment
=================================*/

// FinalizePayment latches the payment. An already finalized decision yields
// (false, decision, nil).
func (s *Service) FinalizePayment(ctx context.Context, id uuid.UUID) (ok bool, out *model.DecisionModel, err error) {
	defer func() {
		if err == nil && !ok {
			observe("finalize_payment", helper.StateErr("ALREADY_FINALIZED", ""))
			return
		}
		observe("finalize_payment", err)
	}()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return false, nil, tx.Error
	}
	defer tx.Rollback()

	d, err := lockDecision(ctx, tx, id)
	if err != nil {
		return false, nil, err
	}
	done, err := d.CanFinalizePayment()
	if err != nil {
		return false, nil, err
	}
	if done {
		return false, d, nil
	}

	now := dbtime.Now()
	d.DecisionPaymentFinalized = true
	d.DecisionPaymentFinalizedAt = &now
	if err := tx.Save(d).Error; err != nil {
		return false, nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return false, nil, err
	}

	s.sendReceipt(ctx, d)
	return true, d, nil
}

func (s *Service) sendReceipt(ctx context.Context, d *model.DecisionModel) {
	app, err := loadApplication(ctx, s.DB, d.DecisionApplicationID)
	if err != nil {
		zap.L().Warn("[DECISION] receipt skipped", zap.Error(err))
		return
	}
	sc, err := loadSchool(ctx, s.DB, d.DecisionSchoolID)
	if err != nil {
		zap.L().Warn("[DECISION] receipt skipped", zap.Error(err))
		return
	}
	ref := ""
	if d.DecisionPaymentReference != nil {
		ref = *d.DecisionPaymentReference
	}
	s.send(email.PaymentReceipt(app.ApplicationEmail, email.ReceiptData{
		ApplicantName:    app.ApplicationApplicantName,
		ReferenceID:      app.ApplicationReferenceID,
		SchoolName:       sc.SchoolName,
		PaymentReference: ref,
		FinalizedAt:      *d.DecisionPaymentFinalizedAt,
	}))
}

// RecordPayment marks the admission payment completed inside the caller's
// transaction. Used by the gateway when an admission invoice is paid.
func RecordPayment(ctx context.Context, tx *gorm.DB, id uuid.UUID, reference string) (err error) {
	defer func() { observe("record_payment", err) }()

	d, err := lockDecision(ctx, tx, id)
	if err != nil {
		return err
	}
	if d.DecisionPaymentStatus == model.PaymentCompleted {
		return nil
	}
	if err := d.CanRecordPayment(); err != nil {
		return err
	}
	now := dbtime.Now()
	ref := strings.TrimSpace(reference)
	return tx.Model(&model.DecisionModel{}).
		Where("decision_id = ?", id).
		Updates(map[string]any{
			"decision_payment_status":       model.PaymentCompleted,
			"decision_payment_reference":    ref,
			"decision_payment_completed_at": now,
		}).Error
}

// MarkPaymentFailed records a gateway failure unless the payment is finalized.
func MarkPaymentFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID) (err error) {
	defer func() { observe("payment_failed", err) }()

	d, err := lockDecision(ctx, tx, id)
	if err != nil {
		return err
	}
	if d.DecisionPaymentFinalized || d.DecisionPaymentStatus == model.PaymentCompleted {
		return nil
	}
	return tx.Model(&model.DecisionModel{}).
		Where("decision_id = ?", id).
		Update("decision_payment_status", model.PaymentFailed).Error
}

/* ===============================
   Student choice
=================================*/

func (s *Service) ChooseSchool(ctx context.Context, id uuid.UUID) (out *model.DecisionModel, err error) {
	defer func() { observe("choose", err) }()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	d, err := lockDecision(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := d.CanChoose(); err != nil {
		return nil, err
	}
	now := dbtime.Now()
	if err := tx.Model(&model.DecisionModel{}).
		Where("decision_application_id = ? AND decision_id <> ?", d.DecisionApplicationID, id).
		Updates(map[string]any{
			"decision_is_student_choice": false,
			"decision_student_choice_at": nil,
		}).Error; err != nil {
		return nil, err
	}
	d.DecisionIsStudentChoice = true
	d.DecisionStudentChoiceAt = &now
	if err := tx.Save(d).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return d, nil
}

/* ===============================
   Queries
=================================*/

func (s *Service) ListForSchool(ctx context.Context, schoolID uuid.UUID, q dto.ListDecisionsQuery, p helper.Paging) ([]dto.DecisionRow, int64, error) {
	base := s.DB.WithContext(ctx).
		Table("admission_decisions AS d").
		Joins("JOIN admission_applications a ON a.application_id = d.decision_application_id").
		Joins("JOIN schools sc ON sc.school_id = d.decision_school_id").
		Where("d.decision_school_id = ?", schoolID)

	if q.Outcome != "" {
		base = base.Where("d.decision_outcome = ?", q.Outcome)
	}
	if q.Enrollment != "" {
		base = base.Where("d.decision_enrollment_status = ?", q.Enrollment)
	}
	if term := strings.TrimSpace(q.Q); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		base = base.Where("(lower(a.application_applicant_name) LIKE ? OR lower(a.application_reference_id) LIKE ?)", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []dto.DecisionRow
	err := base.
		Select(`d.*, a.application_reference_id, a.application_applicant_name, a.application_email,
			a.application_course_applied, a.application_category, sc.school_name`).
		Order("d.decision_created_at DESC, d.decision_id").
		Offset(p.Offset).Limit(p.Limit).
		Scan(&rows).Error
	return rows, total, err
}

func (s *Service) EnrollmentStatus(ctx context.Context, referenceID string) (*dto.EnrollmentStatusResponse, error) {
	var app appModel.ApplicationModel
	if err := s.DB.WithContext(ctx).
		Where("application_reference_id = ?", strings.ToUpper(strings.TrimSpace(referenceID))).
		Take(&app).Error; err != nil {
		return nil, helper.NotFoundOr(err, "APPLICATION_NOT_FOUND", "no application with this reference id")
	}
	var rows []model.DecisionModel
	if err := s.DB.WithContext(ctx).
		Where("decision_application_id = ?", app.ApplicationID).
		Order("decision_rank").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := &dto.EnrollmentStatusResponse{
		ReferenceID:   app.ApplicationReferenceID,
		ApplicantName: app.ApplicationApplicantName,
	}
	for i := range rows {
		d := &rows[i]
		switch d.DecisionOutcome {
		case model.OutcomeAccepted:
			out.AcceptedSchools++
		case model.OutcomePending, model.OutcomeUnderReview:
			out.PendingDecisions++
		}
		if !d.IsEnrolled() {
			continue
		}
		out.Enrolled = true
		out.DecisionID = &d.DecisionID
		out.SchoolID = &d.DecisionSchoolID
		out.EnrolledAt = d.DecisionEnrolledAt
		out.PaymentStatus = string(d.DecisionPaymentStatus)
		out.PaymentFinalized = d.DecisionPaymentFinalized
		out.AccountAllocated = d.DecisionAccountAllocated
		out.AdmissionNumber = d.DecisionAdmissionNumber
		if sc, err := loadSchool(ctx, s.DB, d.DecisionSchoolID); err == nil {
			out.SchoolName = sc.SchoolName
		}
	}
	return out, nil
}

// CheckReference rejects public calls whose reference id does not own the decision.
func (s *Service) CheckReference(ctx context.Context, id uuid.UUID, referenceID string) error {
	var n int64
	if err := s.DB.WithContext(ctx).
		Table("admission_decisions AS d").
		Joins("JOIN admission_applications a ON a.application_id = d.decision_application_id").
		Where("d.decision_id = ? AND a.application_reference_id = ?", id, strings.ToUpper(strings.TrimSpace(referenceID))).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return helper.NotFound("DECISION_NOT_FOUND", "no decision matches this reference id")
	}
	return nil
}
