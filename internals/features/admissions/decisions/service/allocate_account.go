package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	model "schoolerp_backend/internals/features/admissions/decisions/model"
	"schoolerp_backend/internals/features/admissions/identifiers"
	"schoolerp_backend/internals/features/notifications/email"
	accountService "schoolerp_backend/internals/features/users/accounts/service"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
)

type AllocationResult struct {
	DecisionID  uuid.UUID                  `json:"decision_id"`
	StudentID   uuid.UUID                  `json:"student_id"`
	UserID      uuid.UUID                  `json:"user_id"`
	Credentials accountService.Credentials `json:"credentials"`
}

// AllocateAccount creates the student login for a finalized enrollment. The
// plain password leaves this function once and is never stored.
func (s *Service) AllocateAccount(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (out *AllocationResult, err error) {
	defer func() { observe("allocate_account", err) }()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	d, err := lockDecision(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := d.CanAllocateAccount(); err != nil {
		return nil, err
	}

	app, err := loadApplication(ctx, tx, d.DecisionApplicationID)
	if err != nil {
		return nil, err
	}
	school, err := loadSchool(ctx, tx, d.DecisionSchoolID)
	if err != nil {
		return nil, err
	}

	admissionNo, err := identifiers.NextAdmissionNumber(ctx, tx, school.SchoolID)
	if err != nil {
		return nil, err
	}

	prov, err := accountService.ProvisionStudent(ctx, tx, accountService.ProvisionInput{
		School:          school,
		Application:     app,
		DecisionID:      d.DecisionID,
		AdmissionNumber: admissionNo,
		EmailDomain:     s.EmailDomain,
	})
	if err != nil {
		return nil, err
	}

	now := dbtime.Now()
	if err := tx.Model(&model.DecisionModel{}).
		Where("decision_id = ? AND decision_account_allocated = FALSE", id).
		Updates(map[string]any{
			"decision_account_allocated": true,
			"decision_student_user_id":   prov.User.UserID,
			"decision_admission_number":  admissionNo,
			"decision_allocated_at":      now,
			"decision_allocated_by":      actor,
		}).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, helper.Conflict("ACCOUNT_ALREADY_ALLOCATED", "a student account was already created for this decision")
		}
		return nil, err
	}

	zap.L().Info("[DECISION] account allocated",
		zap.String("decision_id", id.String()),
		zap.String("school_id", school.SchoolID.String()),
		zap.String("admission_number", admissionNo),
		zap.Int("parents", len(prov.Parents)))

	creds := prov.Credentials
	s.send(email.StudentCredentials(app.ApplicationEmail, email.CredentialsData{
		StudentName:     app.ApplicationApplicantName,
		SchoolName:      school.SchoolName,
		AdmissionNumber: creds.AdmissionNumber,
		Username:        creds.Username,
		Email:           creds.Email,
		Password:        creds.Password,
	}))

	return &AllocationResult{
		DecisionID:  id,
		StudentID:   prov.Student.StudentID,
		UserID:      prov.User.UserID,
		Credentials: creds,
	}, nil
}
