//go:build testutil
// +build testutil

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolerp_backend/internals/features/notifications/email"
	accountModel "schoolerp_backend/internals/features/users/accounts/model"
	otpService "schoolerp_backend/internals/features/users/otp/service"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
	"schoolerp_backend/internals/testutil/fixtures"
	"schoolerp_backend/internals/testutil/testdb"
)

var h *testdb.DBHandle

func TestMain(m *testing.M) { testdb.Main(m, &h) }

func setup(t *testing.T) (*Service, *email.ConsoleSender, accountModel.ParentProfileModel) {
	t.Helper()
	h.Reset(t)
	mail := email.NewRecordingSender()
	s := New(h.Gorm, otpService.New(h.Gorm, mail), "parent-secret", 0)

	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	st := fixtures.Student(t, h.Gorm, school.SchoolID)
	p := accountModel.ParentProfileModel{
		ParentStudentID:        st.StudentID,
		ParentRelationship:     accountModel.RelationMother,
		ParentFirstName:        "Sunita",
		ParentLastName:         "Verma",
		ParentEmail:            "sunita@example.com",
		ParentIsPrimaryContact: true,
	}
	require.NoError(t, h.Gorm.Create(&p).Error)
	return s, mail, p
}

func login(t *testing.T, s *Service, mail *email.ConsoleSender, addr string) string {
	t.Helper()
	ctx := context.Background()
	_, err := s.RequestLogin(ctx, addr)
	require.NoError(t, err)
	m, ok := mail.Last(otpService.NormalizeEmail(addr))
	require.True(t, ok)
	out, err := s.VerifyLogin(ctx, addr, m.TemplateData.(email.OTPData).Code)
	require.NoError(t, err)
	return out.Token
}

func TestLoginResolveRevoke(t *testing.T) {
	s, mail, p := setup(t)
	ctx := context.Background()

	token := login(t, s, mail, "Sunita@Example.com")
	require.Len(t, token, 64)

	var stored int64
	require.NoError(t, h.Gorm.Table("parent_sessions").
		Where("parent_session_token_hash = ?", token).Count(&stored).Error)
	assert.Zero(t, stored, "only the hash is stored")

	cl, err := s.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, p.ParentID, cl.ParentID)
	assert.Equal(t, p.ParentStudentID, cl.StudentID)
	assert.Equal(t, "sunita@example.com", cl.Email)

	me, err := s.Me(ctx, cl.ParentID, cl.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "GSS Jaipur", me.School)

	require.NoError(t, s.Revoke(ctx, token))
	_, err = s.Resolve(ctx, token)
	assert.Error(t, err)
}

func TestLoginUnknownParent(t *testing.T) {
	s, mail, _ := setup(t)
	_, err := s.RequestLogin(context.Background(), "nobody@example.com")
	assert.Equal(t, "PARENT_NOT_FOUND", helper.CodeOf(err))
	assert.Empty(t, mail.Sent(), "no code is sent to unknown addresses")
}

func TestSessionExpires(t *testing.T) {
	s, mail, _ := setup(t)
	ctx := context.Background()
	token := login(t, s, mail, "sunita@example.com")

	now := dbtime.Now()
	prev := dbtime.NowFunc
	dbtime.NowFunc = func() time.Time { return now.Add(DefaultTTL + time.Second) }
	t.Cleanup(func() { dbtime.NowFunc = prev })

	_, err := s.Resolve(ctx, token)
	assert.Error(t, err)

	n, err := Purge(ctx, h.Gorm, dbtime.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
