package email

import "time"

type OTPData struct {
	Code      string
	Purpose   string
	ValidFor  time.Duration
	Recipient string
}

func OTPMessage(addr string, d OTPData) *Message {
	subject := "Your verification code"
	if d.Purpose == "parent_login" {
		subject = "Your parent portal login code"
	}
	return &Message{To: to(d.Recipient, addr), Subject: subject, TemplateName: "otp", TemplateData: d}
}

type ApplicationData struct {
	ApplicantName string
	ReferenceID   string
	Schools       []string
	SubmittedAt   time.Time
}

func ApplicationConfirmation(addr string, d ApplicationData) *Message {
	return &Message{
		To:           to(d.ApplicantName, addr),
		Subject:      "Application received: " + d.ReferenceID,
		TemplateName: "application_confirmation",
		TemplateData: d,
	}
}

type ReceiptData struct {
	ApplicantName    string
	ReferenceID      string
	SchoolName       string
	PaymentReference string
	FinalizedAt      time.Time
}

func PaymentReceipt(addr string, d ReceiptData) *Message {
	return &Message{
		To:           to(d.ApplicantName, addr),
		Subject:      "Admission payment confirmed: " + d.SchoolName,
		TemplateName: "payment_receipt",
		TemplateData: d,
	}
}

type CredentialsData struct {
	StudentName     string
	SchoolName      string
	AdmissionNumber string
	Username        string
	Email           string
	Password        string
}

func StudentCredentials(addr string, d CredentialsData) *Message {
	return &Message{
		To:           to(d.StudentName, addr),
		Subject:      "Your student account at " + d.SchoolName,
		TemplateName: "student_credentials",
		TemplateData: d,
	}
}

type HostelBookingData struct {
	StudentName   string
	BlockName     string
	RoomNumber    string
	BedNumber     string
	InvoiceNumber string
	Amount        int64
	DueDate       time.Time
}

func HostelBooking(addr string, d HostelBookingData) *Message {
	return &Message{
		To:           to(d.StudentName, addr),
		Subject:      "Hostel booking " + d.InvoiceNumber,
		TemplateName: "hostel_booking",
		TemplateData: d,
	}
}
