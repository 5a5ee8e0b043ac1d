package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appModel "schoolerp_backend/internals/features/admissions/applications/model"
	model "schoolerp_backend/internals/features/users/accounts/model"
)

func TestBuildCredentials(t *testing.T) {
	c := BuildCredentials("10001", "08122", "")
	assert.Equal(t, Credentials{
		AdmissionNumber: "10001",
		Username:        "student.10001",
		Email:           "student.10001@08122.rj.gov.in",
		Password:        "10001#08122",
	}, c)

	custom := BuildCredentials("10002", " 08457 ", "schools.example.org")
	assert.Equal(t, "student.10002@08457.schools.example.org", custom.Email)
	assert.Equal(t, "10002#08457", custom.Password)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("10001#08122")
	require.NoError(t, err)
	assert.NotEqual(t, "10001#08122", h)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("10001#08122")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("10001#00000")))
}

func ptr(s string) *string { return &s }

func TestParentRecordsFrom(t *testing.T) {
	studentID := uuid.New()
	app := &appModel.ApplicationModel{
		ApplicationAddress:          "12 Station Road, Jaipur",
		ApplicationPrimaryContact:   "mother",
		ApplicationFatherName:       ptr("Ramesh Kumar Verma"),
		ApplicationFatherEmail:      ptr(" Ramesh@Example.com "),
		ApplicationFatherPhone:      ptr("9000000002"),
		ApplicationFatherOccupation: ptr("Farmer"),
		ApplicationMotherName:       ptr("Sunita"),
		ApplicationMotherEmail:      ptr("sunita@example.com"),
		ApplicationGuardianName:     ptr("Uncle Without Email"),
	}

	rows := ParentRecordsFrom(app, studentID)
	require.Len(t, rows, 2, "the guardian has no email and is skipped")

	father, mother := rows[0], rows[1]
	assert.Equal(t, "father", father.ParentRelationship)
	assert.Equal(t, "Ramesh", father.ParentFirstName)
	assert.Equal(t, "Kumar Verma", father.ParentLastName)
	assert.Equal(t, "ramesh@example.com", father.ParentEmail)
	assert.Equal(t, "Farmer", *father.ParentOccupation)
	assert.False(t, father.ParentIsPrimaryContact)

	assert.Equal(t, "mother", mother.ParentRelationship)
	assert.Equal(t, "Sunita", mother.ParentFirstName)
	assert.Empty(t, mother.ParentLastName)
	assert.Nil(t, mother.ParentPhone)
	assert.True(t, mother.ParentIsPrimaryContact)

	for _, r := range rows {
		assert.Equal(t, studentID, r.ParentStudentID)
		assert.Equal(t, "12 Station Road, Jaipur", *r.ParentAddress)
	}
}

func TestParentRecordsFromNamelessBlock(t *testing.T) {
	app := &appModel.ApplicationModel{
		ApplicationPrimaryContact: "guardian",
		ApplicationGuardianEmail:  ptr("guardian@example.com"),
	}
	rows := ParentRecordsFrom(app, uuid.New())
	require.Len(t, rows, 1)
	assert.Equal(t, "guardian", rows[0].ParentFirstName)
	assert.True(t, rows[0].ParentIsPrimaryContact)
}

func TestIssueAccessToken(t *testing.T) {
	schoolID := uuid.New()
	studentID := uuid.New()
	u := model.UserModel{UserID: uuid.New(), UserName: "student.10001", UserRole: "student", UserSchoolID: &schoolID}
	now := time.Now()

	signed, exp, err := IssueAccessToken(u, &studentID, "secret", time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	tok, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, u.UserID.String(), claims["sub"])
	assert.Equal(t, "student", claims["role"])
	assert.Equal(t, schoolID.String(), claims["school_id"])
	assert.Equal(t, studentID.String(), claims["student_id"])

	_, _, err = IssueAccessToken(u, nil, " ", 0, now)
	assert.Error(t, err)
}

func TestBuildAccessClaimsDefaults(t *testing.T) {
	u := model.UserModel{UserID: uuid.New(), UserName: "admin", UserRole: "admin"}
	claims := buildAccessClaims(u, nil, time.Unix(1000, 0), accessTTLDefault)
	assert.NotContains(t, claims, "school_id")
	assert.NotContains(t, claims, "student_id")
	assert.EqualValues(t, 1000+int64(accessTTLDefault.Seconds()), claims["exp"])
}
