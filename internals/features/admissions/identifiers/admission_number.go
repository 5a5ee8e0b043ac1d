package identifiers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "schoolerp_backend/internals/helpers"
)

const (
	AdmissionNumberFirst = 10001
	// Numbers from here up are reserved for manual entries and never scanned.
	AdmissionNumberManualFrom = 90000
)

// NextAdmissionNumberAfter returns the successor of the highest auto-generated number.
func NextAdmissionNumberAfter(existing []int) int {
	max := 0
	for _, n := range existing {
		if n >= AdmissionNumberFirst && n < AdmissionNumberManualFrom && n > max {
			max = n
		}
	}
	if max == 0 {
		return AdmissionNumberFirst
	}
	next := max + 1
	if next >= AdmissionNumberManualFrom {
		return AdmissionNumberFirst
	}
	return next
}

// NextAdmissionNumber must run inside the transaction that inserts the student row.
// The school row lock serialises generators of the same school; the student rows
// in the band are locked as well so a concurrent manual insert cannot slip in.
// Five-digit strings order the same lexically and numerically, so the band filter
// never casts.
func NextAdmissionNumber(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) (string, error) {
	var locked []string
	if err := tx.WithContext(ctx).Raw(
		`SELECT school_id::text FROM schools WHERE school_id = ? FOR UPDATE`, schoolID,
	).Scan(&locked).Error; err != nil {
		return "", err
	}
	if len(locked) == 0 {
		return "", helper.NotFound("SCHOOL_NOT_FOUND", "school not found")
	}

	var raw []string
	if err := tx.WithContext(ctx).Raw(`
		SELECT student_admission_number
		  FROM student_profiles
		 WHERE student_school_id = ?
		   AND student_admission_number ~ '^[0-9]{5}$'
		   AND student_admission_number >= ?
		   AND student_admission_number <  ?
		 FOR UPDATE
	`, schoolID, strconv.Itoa(AdmissionNumberFirst), strconv.Itoa(AdmissionNumberManualFrom)).Scan(&raw).Error; err != nil {
		return "", err
	}

	nums := make([]int, 0, len(raw))
	for _, s := range raw {
		if n, err := strconv.Atoi(s); err == nil {
			nums = append(nums, n)
		}
	}
	return fmt.Sprintf("%05d", NextAdmissionNumberAfter(nums)), nil
}
