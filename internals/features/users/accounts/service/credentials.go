package service

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const DefaultStudentEmailDomain = "rj.gov.in"

// Credentials are returned exactly once, right after the account is created.
type Credentials struct {
	AdmissionNumber string `json:"admission_number"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
}

// BuildCredentials derives the login identity of a new student from the
// admission number and the last five characters of the school code.
func BuildCredentials(admissionNo, codeSuffix, domain string) Credentials {
	if strings.TrimSpace(domain) == "" {
		domain = DefaultStudentEmailDomain
	}
	suffix := strings.TrimSpace(codeSuffix)
	return Credentials{
		AdmissionNumber: admissionNo,
		Username:        "student." + admissionNo,
		Email:           fmt.Sprintf("student.%s@%s.%s", admissionNo, suffix, domain),
		Password:        admissionNo + "#" + suffix,
	}
}

func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
