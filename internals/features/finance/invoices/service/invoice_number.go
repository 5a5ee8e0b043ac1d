package service

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// FormatInvoiceNumber renders PREFIX{year}{seq:06}, e.g. HST2026000042.
func FormatInvoiceNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%d%06d", prefix, year, seq)
}

// NextInvoiceNumber takes MAX(seq)+1 for the prefix and year. Callers of the
// same prefix/year are serialised by a transaction-scoped advisory lock, so tx
// must be an open transaction.
func NextInvoiceNumber(ctx context.Context, tx *gorm.DB, prefix string, year int) (string, error) {
	stem := prefix + strconv.Itoa(year)
	if err := tx.WithContext(ctx).Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, "invoice:"+stem).Error; err != nil {
		return "", err
	}
	var next int
	if err := tx.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(RIGHT(fee_invoice_number, 6)::int), 0) + 1
		FROM fee_invoices
		WHERE fee_invoice_number LIKE ? AND length(fee_invoice_number) = ?
	`, stem+"%", len(stem)+6).Scan(&next).Error; err != nil {
		return "", err
	}
	return FormatInvoiceNumber(prefix, year, next), nil
}
