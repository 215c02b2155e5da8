package billing

import (
	"fmt"
	"math/rand"
	"time"
)

// NewInvoiceNumber builds a human-readable sale identifier of the form
// INV-YYYYMMDD-NNNN. The 4-digit suffix is random and uniqueness is
// best-effort only; the sale's UUID primary key is the real identity.
func NewInvoiceNumber(at time.Time) string {
	return fmt.Sprintf("INV-%s-%04d", at.Format("20060102"), rand.Intn(10000))
}
