package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appModel "schoolerp_backend/internals/features/admissions/applications/model"
	model "schoolerp_backend/internals/features/users/accounts/model"
)

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ParentRecordsFrom projects the parent and guardian blocks of an application
// onto parent profiles. Blocks without an email are skipped.
func ParentRecordsFrom(app *appModel.ApplicationModel, studentID uuid.UUID) []model.ParentProfileModel {
	var out []model.ParentProfileModel
	for _, b := range app.ContactBlocks() {
		email := strings.ToLower(strings.TrimSpace(b.Email))
		if email == "" {
			continue
		}
		first, last := splitName(b.Name)
		if first == "" {
			first = b.Relationship
		}
		out = append(out, model.ParentProfileModel{
			ParentStudentID:        studentID,
			ParentRelationship:     b.Relationship,
			ParentFirstName:        first,
			ParentLastName:         last,
			ParentEmail:            email,
			ParentPhone:            strPtr(b.Phone),
			ParentOccupation:       strPtr(b.Occupation),
			ParentAddress:          strPtr(app.ApplicationAddress),
			ParentIsPrimaryContact: b.Relationship == app.ApplicationPrimaryContact,
		})
	}
	return out
}

// UpsertParentsFromApplication writes the projection, updating the row for an
// existing (student, relationship) pair instead of inserting a second one.
func UpsertParentsFromApplication(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, app *appModel.ApplicationModel) ([]model.ParentProfileModel, error) {
	rows := ParentRecordsFrom(app, studentID)
	if len(rows) == 0 {
		return nil, nil
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "parent_student_id"}, {Name: "parent_relationship"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"parent_first_name", "parent_last_name", "parent_email", "parent_phone",
				"parent_occupation", "parent_address", "parent_is_primary_contact", "parent_updated_at",
			}),
		}).
		Create(&rows).Error
	return rows, err
}
