//go:build testutil
// +build testutil

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	model "schoolerp_backend/internals/features/admissions/decisions/model"
	"schoolerp_backend/internals/features/notifications/email"
	accountModel "schoolerp_backend/internals/features/users/accounts/model"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/testutil/fixtures"
	"schoolerp_backend/internals/testutil/testdb"
)

var h *testdb.DBHandle

func TestMain(m *testing.M) { testdb.Main(m, &h) }

func newService(t *testing.T) (*Service, *email.ConsoleSender) {
	t.Helper()
	h.Reset(t)
	mail := email.NewRecordingSender()
	return New(h.Gorm, mail, ""), mail
}

func ref(s string) *string { return &s }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, helper.CodeOf(err), err.Error())
}

// paidEnrollment enrolls the decision with a completed and finalized payment.
func paidEnrollment(t *testing.T, s *Service, id uuid.UUID) *model.DecisionModel {
	t.Helper()
	d, err := s.Enroll(context.Background(), id, EnrollInput{PaymentReference: ref("TXN-1"), Finalize: true})
	require.NoError(t, err)
	require.True(t, d.DecisionPaymentFinalized)
	return d
}

func TestEnrollAutoAcceptsPending(t *testing.T) {
	s, _ := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	_, ds := fixtures.Application(t, h.Gorm, school.SchoolID)

	d, err := s.Enroll(context.Background(), ds[0].DecisionID, EnrollInput{})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAccepted, d.DecisionOutcome)
	assert.Equal(t, model.Enrolled, d.DecisionEnrollmentStatus)
	assert.True(t, d.DecisionIsStudentChoice)
	assert.Equal(t, model.PaymentPending, d.DecisionPaymentStatus)
	assert.False(t, d.DecisionPaymentFinalized, "finalize needs a completed payment")

	_, err = s.Enroll(context.Background(), ds[0].DecisionID, EnrollInput{})
	requireCode(t, err, "ALREADY_ENROLLED")
}

func TestEnrollRejectedDecision(t *testing.T) {
	s, _ := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	_, ds := fixtures.Application(t, h.Gorm, school.SchoolID)

	_, err := s.Review(context.Background(), ds[0].DecisionID, ReviewInput{Outcome: model.OutcomeRejected})
	require.NoError(t, err)

	_, err = s.Enroll(context.Background(), ds[0].DecisionID, EnrollInput{})
	requireCode(t, err, "NOT_ADMITTED")
}

func TestEnrollElsewhereNamesTheSchool(t *testing.T) {
	s, _ := newService(t)
	first := fixtures.School(t, h.Gorm, "GSS Jaipur")
	second := fixtures.School(t, h.Gorm, "GSS Ajmer")
	_, ds := fixtures.Application(t, h.Gorm, first.SchoolID, second.SchoolID)

	_, err := s.Enroll(context.Background(), ds[0].DecisionID, EnrollInput{})
	require.NoError(t, err)

	_, err = s.Enroll(context.Background(), ds[1].DecisionID, EnrollInput{})
	requireCode(t, err, "ACTIVE_ENROLLMENT_ELSEWHERE")
	ae, ok := helper.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "GSS Jaipur", ae.Meta["enrolled_school_name"])
	assert.Contains(t, ae.Message, "GSS Jaipur")
}

func TestConcurrentEnrollOneWins(t *testing.T) {
	s, _ := newService(t)
	a := fixtures.School(t, h.Gorm, "GSS Jaipur")
	b := fixtures.School(t, h.Gorm, "GSS Ajmer")
	c := fixtures.School(t, h.Gorm, "GSS Kota")
	app, ds := fixtures.Application(t, h.Gorm, a.SchoolID, b.SchoolID, c.SchoolID)

	var wg sync.WaitGroup
	errs := make([]error, len(ds))
	for i := range ds {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Enroll(context.Background(), ds[i].DecisionID, EnrollInput{})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, "ACTIVE_ENROLLMENT_ELSEWHERE", helper.CodeOf(err))
	}
	assert.Equal(t, 1, ok)

	var enrolled int64
	require.NoError(t, h.Gorm.Model(&model.DecisionModel{}).
		Where("decision_application_id = ? AND decision_enrollment_status = ?", app.ApplicationID, model.Enrolled).
		Count(&enrolled).Error)
	assert.EqualValues(t, 1, enrolled)

	var choices int64
	require.NoError(t, h.Gorm.Model(&model.DecisionModel{}).
		Where("decision_application_id = ? AND decision_is_student_choice", app.ApplicationID).
		Count(&choices).Error)
	assert.EqualValues(t, 1, choices)
}

func TestWithdrawAndReEnroll(t *testing.T) {
	s, _ := newService(t)
	first := fixtures.School(t, h.Gorm, "GSS Jaipur")
	second := fixtures.School(t, h.Gorm, "GSS Ajmer")
	_, ds := fixtures.Application(t, h.Gorm, first.SchoolID, second.SchoolID)
	ctx := context.Background()

	_, err := s.Enroll(ctx, ds[0].DecisionID, EnrollInput{})
	require.NoError(t, err)

	w, err := s.Withdraw(ctx, ds[0].DecisionID, " changed my mind ", false)
	require.NoError(t, err)
	assert.Equal(t, model.Withdrawn, w.DecisionEnrollmentStatus)
	require.NotNil(t, w.DecisionWithdrawalReason)
	assert.Equal(t, "changed my mind", *w.DecisionWithdrawalReason)
	assert.False(t, w.DecisionIsStudentChoice)

	_, err = s.Withdraw(ctx, ds[0].DecisionID, "", false)
	requireCode(t, err, "NOT_ENROLLED")

	d, err := s.Enroll(ctx, ds[1].DecisionID, EnrollInput{})
	require.NoError(t, err)
	assert.Equal(t, model.Enrolled, d.DecisionEnrollmentStatus)

	again, err := s.Get(ctx, ds[0].DecisionID)
	require.NoError(t, err)
	assert.Equal(t, model.Withdrawn, again.DecisionEnrollmentStatus)
}

func TestWithdrawFinalizedNeedsForce(t *testing.T) {
	s, _ := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	_, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
	paidEnrollment(t, s, ds[0].DecisionID)

	_, err := s.Withdraw(context.Background(), ds[0].DecisionID, "", false)
	requireCode(t, err, "PAYMENT_FINALIZED")

	d, err := s.Withdraw(context.Background(), ds[0].DecisionID, "transfer", true)
	require.NoError(t, err)
	assert.Equal(t, model.Withdrawn, d.DecisionEnrollmentStatus)
}

func TestReviewRejectWhileEnrolled(t *testing.T) {
	s, _ := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	_, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
	_, err := s.Enroll(context.Background(), ds[0].DecisionID, EnrollInput{})
	require.NoError(t, err)

	_, err = s.Review(context.Background(), ds[0].DecisionID, ReviewInput{Outcome: model.OutcomeRejected})
	requireCode(t, err, "REJECT_WHILE_ENROLLED")

	_, err = s.Review(context.Background(), ds[0].DecisionID, ReviewInput{Outcome: "maybe"})
	assert.True(t, helper.IsKind(err, helper.KindValidation))
}

func TestReviewKeepsChoiceOfEnrolledDecision(t *testing.T) {
	s, _ := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	_, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
	ctx := context.Background()
	_, err := s.Enroll(ctx, ds[0].DecisionID, EnrollInput{})
	require.NoError(t, err)

	for _, outcome := range []model.Outcome{model.OutcomeUnderReview, model.OutcomeWaitlisted, model.OutcomePending} {
		d, err := s.Review(ctx, ds[0].DecisionID, ReviewInput{Outcome: outcome})
		require.NoError(t, err)
		assert.Equal(t, model.Enrolled, d.DecisionEnrollmentStatus)
		assert.True(t, d.DecisionIsStudentChoice, "still the choice after review to %s", outcome)
	}
}

func TestFinalizePaymentIsIdempotent(t *testing.T) {
	s, mail := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	app, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
	ctx := context.Background()
	id := ds[0].DecisionID

	_, err := s.Enroll(ctx, id, EnrollInput{})
	require.NoError(t, err)

	_, _, err = s.FinalizePayment(ctx, id)
	requireCode(t, err, "PAYMENT_NOT_COMPLETED")

	require.NoError(t, RecordPayment(ctx, h.Gorm, id, "TXN-42"))

	ok, d, err := s.FinalizePayment(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, d.DecisionPaymentFinalized)
	first := *d.DecisionPaymentFinalizedAt

	ok, d, err = s.FinalizePayment(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "second finalize reports no change")
	assert.WithinDuration(t, first, *d.DecisionPaymentFinalizedAt, time.Millisecond)

	receipts := 0
	for _, m := range mail.Sent() {
		if m.TemplateName == "payment_receipt" && m.To[0].Address == app.ApplicationEmail {
			receipts++
		}
	}
	assert.Equal(t, 1, receipts)
}

func TestAllocateAccount(t *testing.T) {
	s, mail := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	app, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
	ctx := context.Background()
	id := ds[0].DecisionID

	_, err := s.AllocateAccount(ctx, id, nil)
	requireCode(t, err, "NOT_ENROLLED")

	paidEnrollment(t, s, id)
	actor := uuid.New()
	res, err := s.AllocateAccount(ctx, id, &actor)
	require.NoError(t, err)

	creds := res.Credentials
	suffix := school.CodeSuffix()
	assert.Equal(t, "10001", creds.AdmissionNumber)
	assert.Equal(t, "student.10001", creds.Username)
	assert.Equal(t, "student.10001@"+suffix+".rj.gov.in", creds.Email)
	assert.Equal(t, "10001#"+suffix, creds.Password)

	var u accountModel.UserModel
	require.NoError(t, h.Gorm.Where("user_id = ?", res.UserID).Take(&u).Error)
	assert.Equal(t, "student", u.UserRole)
	assert.NotEqual(t, creds.Password, u.UserPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.UserPassword), []byte(creds.Password)))

	var st accountModel.StudentProfileModel
	require.NoError(t, h.Gorm.Where("student_id = ?", res.StudentID).Take(&st).Error)
	assert.Equal(t, "10001", st.StudentAdmissionNumber)
	assert.Equal(t, school.SchoolID, st.StudentSchoolID)

	var parents int64
	require.NoError(t, h.Gorm.Model(&accountModel.ParentProfileModel{}).
		Where("parent_student_id = ?", res.StudentID).Count(&parents).Error)
	assert.EqualValues(t, 1, parents, "only the father block carries an email")

	d, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, d.DecisionAccountAllocated)
	require.NotNil(t, d.DecisionAdmissionNumber)
	assert.Equal(t, "10001", *d.DecisionAdmissionNumber)

	last, ok := mail.Last(app.ApplicationEmail)
	require.True(t, ok)
	assert.Contains(t, last.TextContent, creds.Password)

	_, err = s.AllocateAccount(ctx, id, &actor)
	requireCode(t, err, "ACCOUNT_ALREADY_ALLOCATED")
}

func TestConcurrentAllocationsGetDistinctNumbers(t *testing.T) {
	s, _ := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	const n = 6

	ids := make([]uuid.UUID, n)
	for i := range ids {
		_, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
		paidEnrollment(t, s, ds[0].DecisionID)
		ids[i] = ds[0].DecisionID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers := map[string]bool{}
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			res, err := s.AllocateAccount(context.Background(), id, nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[res.Credentials.AdmissionNumber] = true
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	assert.Equal(t, map[string]bool{
		"10001": true, "10002": true, "10003": true,
		"10004": true, "10005": true, "10006": true,
	}, numbers)
}

func TestAdmissionNumbersArePerSchool(t *testing.T) {
	s, _ := newService(t)
	a := fixtures.School(t, h.Gorm, "GSS Jaipur")
	b := fixtures.School(t, h.Gorm, "GSS Ajmer")
	_, da := fixtures.Application(t, h.Gorm, a.SchoolID)
	_, db := fixtures.Application(t, h.Gorm, b.SchoolID)
	paidEnrollment(t, s, da[0].DecisionID)
	paidEnrollment(t, s, db[0].DecisionID)

	ra, err := s.AllocateAccount(context.Background(), da[0].DecisionID, nil)
	require.NoError(t, err)
	rb, err := s.AllocateAccount(context.Background(), db[0].DecisionID, nil)
	require.NoError(t, err)
	assert.Equal(t, "10001", ra.Credentials.AdmissionNumber)
	assert.Equal(t, "10001", rb.Credentials.AdmissionNumber)
}

func TestEnrollmentStatusByReference(t *testing.T) {
	s, _ := newService(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	app, ds := fixtures.Application(t, h.Gorm, school.SchoolID)

	require.NoError(t, s.CheckReference(context.Background(), ds[0].DecisionID, app.ApplicationReferenceID))
	err := s.CheckReference(context.Background(), ds[0].DecisionID, "ADM-2026-NOPE00")
	assert.True(t, helper.IsKind(err, helper.KindNotFound))

	_, err = s.EnrollmentStatus(context.Background(), "ADM-2026-NOPE00")
	assert.True(t, helper.IsKind(err, helper.KindNotFound))
}
