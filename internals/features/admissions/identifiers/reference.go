// Package identifiers generates the human-readable ids used across admissions.
package identifiers

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	helper "schoolerp_backend/internals/helpers"
)

const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 6
	referenceMaxTries = 10
)

// randomString draws n symbols from alphabet using crypto/rand.
func randomString(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		k, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[k.Int64()]
	}
	return string(out), nil
}

// NewReferenceID returns "ADM-{year}-{6 uppercase alnum}".
func NewReferenceID(now time.Time) (string, error) {
	suffix, err := randomString(referenceAlphabet, referenceLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ADM-%d-%s", now.Year(), suffix), nil
}

// UniqueReferenceID retries NewReferenceID until an unused value is found.
// The unique constraint on the column still guards the insert itself.
func UniqueReferenceID(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	for i := 0; i < referenceMaxTries; i++ {
		ref, err := NewReferenceID(now)
		if err != nil {
			return "", err
		}
		var exists bool
		if err := tx.WithContext(ctx).Raw(
			`SELECT EXISTS (SELECT 1 FROM admission_applications WHERE application_reference_id = ?)`, ref,
		).Scan(&exists).Error; err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
	return "", helper.Conflict("REFERENCE_ID_EXHAUSTED", "could not allocate a unique reference id, please retry")
}
