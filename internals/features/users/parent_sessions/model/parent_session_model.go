package model

import (
	"time"

	"github.com/google/uuid"
)

// ParentSessionModel stores only the HMAC of the opaque token.
type ParentSessionModel struct {
	ParentSessionID        uuid.UUID  `gorm:"column:parent_session_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"parent_session_id"`
	ParentSessionTokenHash string     `gorm:"column:parent_session_token_hash;type:varchar(64);not null" json:"-"`
	ParentSessionParentID  uuid.UUID  `gorm:"column:parent_session_parent_id;type:uuid;not null" json:"parent_session_parent_id"`
	ParentSessionStudentID uuid.UUID  `gorm:"column:parent_session_student_id;type:uuid;not null" json:"parent_session_student_id"`
	ParentSessionEmail     string     `gorm:"column:parent_session_email;not null" json:"parent_session_email"`
	ParentSessionExpiresAt time.Time  `gorm:"column:parent_session_expires_at;not null" json:"parent_session_expires_at"`
	ParentSessionRevokedAt *time.Time `gorm:"column:parent_session_revoked_at" json:"parent_session_revoked_at,omitempty"`
	ParentSessionCreatedAt time.Time  `gorm:"column:parent_session_created_at;autoCreateTime" json:"parent_session_created_at"`
}

func (ParentSessionModel) TableName() string { return "parent_sessions" }

func (s *ParentSessionModel) Live(now time.Time) bool {
	return s.ParentSessionRevokedAt == nil && now.Before(s.ParentSessionExpiresAt)
}
