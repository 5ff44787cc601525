package tool

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReference produces a human-readable transaction reference of the form
// <PREFIX>-<YYYYMMDD>-<6 alphanumeric>. Uniqueness is enforced by the database
// unique constraint; callers retry on collision.
func GenerateReference(prefix string, at time.Time) string {
	buf := make([]byte, 6)
	for i := range buf {
		buf[i] = referenceCharset[rand.IntN(len(referenceCharset))]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), buf)
}

// GenerateKioskPIN produces a 6-digit PIN candidate for kiosk check-in.
func GenerateKioskPIN() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}
