package email

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schoolerp_backend/internals/configs"
)

func TestTemplatesRender(t *testing.T) {
	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	msgs := []*Message{
		OTPMessage("a@example.com", OTPData{Code: "482913", Purpose: "email_verification", ValidFor: 10 * time.Minute}),
		ApplicationConfirmation("a@example.com", ApplicationData{ApplicantName: "Asha", ReferenceID: "ADM-2026-QX7P2M", Schools: []string{"GSS Jaipur", "GSS Ajmer"}}),
		PaymentReceipt("a@example.com", ReceiptData{ApplicantName: "Asha", ReferenceID: "ADM-2026-QX7P2M", SchoolName: "GSS Jaipur", PaymentReference: "TXN-1", FinalizedAt: due}),
		StudentCredentials("a@example.com", CredentialsData{StudentName: "Asha", SchoolName: "GSS Jaipur", AdmissionNumber: "10001", Username: "student.10001", Email: "student.10001@08122.rj.gov.in", Password: "10001#08122"}),
		HostelBooking("a@example.com", HostelBookingData{StudentName: "Asha", BlockName: "Girls Block A", RoomNumber: "101", BedNumber: "B", InvoiceNumber: "HST2026000001", Amount: 24000, DueDate: due}),
	}
	for _, m := range msgs {
		t.Run(m.TemplateName, func(t *testing.T) {
			require.NoError(t, m.Render())
			assert.True(t, m.HasContent())
			assert.Contains(t, m.TextContent, "Admissions Office")
			assert.Contains(t, m.HTMLContent, "<html>")
		})
	}

	assert.Contains(t, msgs[0].TextContent, "482913")
	assert.Contains(t, msgs[0].TextContent, "10m0s")
	assert.Contains(t, msgs[1].TextContent, "  - GSS Ajmer")
	assert.Contains(t, msgs[3].TextContent, "Temporary password: 10001#08122")
	assert.Contains(t, msgs[4].TextContent, "due 01 Jul 2026")
}

func TestOTPSubjectByPurpose(t *testing.T) {
	assert.Equal(t, "Your parent portal login code", OTPMessage("p@example.com", OTPData{Purpose: "parent_login"}).Subject)
	assert.Equal(t, "Your verification code", OTPMessage("p@example.com", OTPData{Purpose: "email_verification"}).Subject)
}

func TestRenderUnknownTemplate(t *testing.T) {
	m := &Message{To: to("", "x@example.com"), TemplateName: "nope"}
	assert.Error(t, m.Render())
}

func TestRenderPlainBody(t *testing.T) {
	m := &Message{To: to("", "x@example.com"), Subject: "hi", BodyStr: "plain text"}
	require.NoError(t, m.Render())
	assert.Equal(t, "plain text", m.TextContent)
	assert.Empty(t, m.HTMLContent)
}

func TestRecordingSender(t *testing.T) {
	s := NewRecordingSender()
	s.SendMessages(
		OTPMessage("first@example.com", OTPData{Code: "111111", ValidFor: time.Minute}),
		OTPMessage("second@example.com", OTPData{Code: "222222", ValidFor: time.Minute}),
		&Message{Subject: "nobody"},
	)

	assert.Len(t, s.Sent(), 2, "messages without recipients are dropped")
	last, ok := s.Last("SECOND@example.com")
	require.True(t, ok)
	assert.Contains(t, last.TextContent, "222222")

	_, ok = s.Last("third@example.com")
	assert.False(t, ok)
}

func TestSendgridSend(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	prev := sendgridHost
	sendgridHost = srv.URL
	defer func() { sendgridHost = prev }()

	s := NewSendgridSender(zap.NewNop(), "SG.key", "Admissions", "noreply@example.org", "[Test] ")
	m := StudentCredentials("asha@example.com", CredentialsData{StudentName: "Asha", SchoolName: "GSS Jaipur", AdmissionNumber: "10001"})
	require.NoError(t, m.Render())
	s.send(m)

	assert.Equal(t, "Bearer SG.key", auth)
	require.NotNil(t, got)
	pers := got["personalizations"].([]any)[0].(map[string]any)
	assert.Equal(t, "[Test] Your student account at GSS Jaipur", pers["subject"])
	assert.Len(t, got["content"], 2)
}

func TestNewSenderFallsBackToConsole(t *testing.T) {
	s := NewSender(configs.Config{MailFromAddress: "noreply@example.org"}, zap.NewNop())
	_, ok := s.(*ConsoleSender)
	assert.True(t, ok)

	s = NewSender(configs.Config{SendgridAPIKey: "SG.key"}, zap.NewNop())
	_, ok = s.(*SendgridSender)
	assert.True(t, ok)
}
