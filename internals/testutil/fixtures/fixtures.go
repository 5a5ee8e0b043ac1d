//go:build testutil
// +build testutil

// Package fixtures inserts the rows integration tests start from. It only
// touches models so every service package can import it from its own tests.
package fixtures

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	appModel "schoolerp_backend/internals/features/admissions/applications/model"
	decisionModel "schoolerp_backend/internals/features/admissions/decisions/model"
	hostelModel "schoolerp_backend/internals/features/hostel/model"
	schoolModel "schoolerp_backend/internals/features/schools/model"
	accountModel "schoolerp_backend/internals/features/users/accounts/model"
)

var seq atomic.Int64

func next() int64 { return seq.Add(1) }

func School(t *testing.T, db *gorm.DB, name string) schoolModel.SchoolModel {
	t.Helper()
	s := schoolModel.SchoolModel{
		SchoolName:     name,
		SchoolCode:     fmt.Sprintf("RJ%08d", 8100+next()),
		SchoolIsActive: true,
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

var ranks = []string{"1st", "2nd", "3rd"}

// Application stores an application preferring the given schools in order,
// with one pending decision per school.
func Application(t *testing.T, db *gorm.DB, schoolIDs ...uuid.UUID) (appModel.ApplicationModel, []decisionModel.DecisionModel) {
	t.Helper()
	require.LessOrEqual(t, len(schoolIDs), 3)

	n := next()
	father := "Ramesh Verma"
	fatherEmail := fmt.Sprintf("father%d@example.com", n)
	app := appModel.ApplicationModel{
		ApplicationReferenceID:    fmt.Sprintf("ADM-2026-T%05d", n),
		ApplicationApplicantName:  "Asha Verma",
		ApplicationDateOfBirth:    time.Date(2012, 3, 14, 0, 0, 0, 0, time.UTC),
		ApplicationEmail:          fmt.Sprintf("asha%d@example.com", n),
		ApplicationPhone:          "9000000001",
		ApplicationAddress:        "12 Station Road, Jaipur",
		ApplicationCourseApplied:  "Class 9",
		ApplicationCategory:       appModel.CategoryGeneral,
		ApplicationFatherName:     &father,
		ApplicationFatherEmail:    &fatherEmail,
		ApplicationPrimaryContact: "father",
		ApplicationDocuments:      datatypes.JSON("[]"),
		ApplicationStatus:         appModel.ApplicationPending,
	}
	ids := []**uuid.UUID{&app.ApplicationFirstSchoolID, &app.ApplicationSecondSchoolID, &app.ApplicationThirdSchoolID}
	for i := range schoolIDs {
		id := schoolIDs[i]
		*ids[i] = &id
	}
	require.NoError(t, db.Create(&app).Error)

	decisions := make([]decisionModel.DecisionModel, 0, len(schoolIDs))
	for i, id := range schoolIDs {
		decisions = append(decisions, decisionModel.NewPendingDecision(app.ApplicationID, id, ranks[i]))
	}
	if len(decisions) > 0 {
		require.NoError(t, db.Create(&decisions).Error)
	}
	return app, decisions
}

// Student stores a student login and profile in the school.
func Student(t *testing.T, db *gorm.DB, schoolID uuid.UUID) accountModel.StudentProfileModel {
	t.Helper()
	n := next()
	u := accountModel.UserModel{
		UserName:     fmt.Sprintf("student.%05d", 10000+n),
		UserEmail:    fmt.Sprintf("student%d@example.com", n),
		UserPassword: "x",
		UserRole:     "student",
		UserSchoolID: &schoolID,
		UserIsActive: true,
	}
	require.NoError(t, db.Create(&u).Error)

	st := accountModel.StudentProfileModel{
		StudentUserID:          u.UserID,
		StudentSchoolID:        schoolID,
		StudentAdmissionNumber: fmt.Sprintf("%05d", 90000+n),
		StudentRollNumber:      fmt.Sprintf("R%05d", n),
		StudentFullName:        fmt.Sprintf("Student %d", n),
		StudentCourse:          "Class 9",
		StudentSemester:        1,
	}
	require.NoError(t, db.Create(&st).Error)
	return st
}

// Room stores an active block with one room of the given type and no beds.
func Room(t *testing.T, db *gorm.DB, schoolID uuid.UUID, roomType string, annualFee int64) hostelModel.HostelRoomModel {
	t.Helper()
	n := next()
	b := hostelModel.HostelBlockModel{
		HostelBlockSchoolID: schoolID,
		HostelBlockName:     fmt.Sprintf("Block %d", n),
		HostelBlockGender:   "mixed",
		HostelBlockIsActive: true,
	}
	require.NoError(t, db.Create(&b).Error)

	r := hostelModel.HostelRoomModel{
		HostelRoomBlockID:     b.HostelBlockID,
		HostelRoomNumber:      fmt.Sprintf("%d", 100+n),
		HostelRoomType:        roomType,
		HostelRoomCapacity:    hostelModel.RoomCapacity[roomType],
		HostelRoomAnnualFee:   annualFee,
		HostelRoomAmenities:   datatypes.JSON("[]"),
		HostelRoomIsAvailable: true,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}
