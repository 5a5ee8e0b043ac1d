package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appModel "schoolerp_backend/internals/features/admissions/applications/model"
	schoolModel "schoolerp_backend/internals/features/schools/model"
	model "schoolerp_backend/internals/features/users/accounts/model"
	helper "schoolerp_backend/internals/helpers"
)

type ProvisionInput struct {
	School          *schoolModel.SchoolModel
	Application     *appModel.ApplicationModel
	DecisionID      uuid.UUID
	AdmissionNumber string
	EmailDomain     string
}

type Provisioned struct {
	User        model.UserModel
	Student     model.StudentProfileModel
	Parents     []model.ParentProfileModel
	Credentials Credentials
}

// ProvisionStudent creates the login, the student profile and the parent
// profiles inside the caller's transaction.
func ProvisionStudent(ctx context.Context, tx *gorm.DB, in ProvisionInput) (*Provisioned, error) {
	if in.School == nil || in.Application == nil {
		return nil, fmt.Errorf("provision: school and application are required")
	}
	app := in.Application
	creds := BuildCredentials(in.AdmissionNumber, in.School.CodeSuffix(), in.EmailDomain)

	hash, err := HashPassword(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	fullName := strings.TrimSpace(app.ApplicationApplicantName)
	schoolID := in.School.SchoolID
	user := model.UserModel{
		UserName:               creds.Username,
		UserEmail:              creds.Email,
		UserPassword:           hash,
		UserFullName:           &fullName,
		UserRole:               model.RoleStudent,
		UserSchoolID:           &schoolID,
		UserMustChangePassword: true,
		UserIsActive:           true,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		if helper.IsUniqueViolation(err, "uq_users_email") {
			return nil, helper.Conflict("ACCOUNT_EMAIL_TAKEN", "a user with the generated email already exists").
				With("email", creds.Email)
		}
		return nil, err
	}

	appID, decisionID := app.ApplicationID, in.DecisionID
	dob := app.ApplicationDateOfBirth
	category := app.ApplicationCategory
	student := model.StudentProfileModel{
		StudentUserID:          user.UserID,
		StudentSchoolID:        schoolID,
		StudentApplicationID:   &appID,
		StudentDecisionID:      &decisionID,
		StudentAdmissionNumber: in.AdmissionNumber,
		StudentRollNumber:      in.AdmissionNumber,
		StudentFullName:        fullName,
		StudentCourse:          app.ApplicationCourseApplied,
		StudentSemester:        1,
		StudentDateOfBirth:     &dob,
		StudentCategory:        &category,
		StudentPhone:           strPtr(app.ApplicationPhone),
		StudentAddress:         strPtr(app.ApplicationAddress),
	}
	if err := tx.WithContext(ctx).Create(&student).Error; err != nil {
		if helper.IsUniqueViolation(err, "uq_student_school_admission_no") {
			return nil, helper.Conflict("ADMISSION_NUMBER_TAKEN", "admission number already used at this school").
				With("admission_number", in.AdmissionNumber)
		}
		return nil, err
	}

	parents, err := UpsertParentsFromApplication(ctx, tx, student.StudentID, app)
	if err != nil {
		return nil, fmt.Errorf("upsert parents: %w", err)
	}

	return &Provisioned{User: user, Student: student, Parents: parents, Credentials: creds}, nil
}
