package cert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// VerificationToken derives the tamper-evidence marker printed at the
// bottom of every certificate. It is a stable fingerprint of the recipient
// name, course title and issue date: identical inputs always produce the
// identical token, and changing any one input changes it. The hash covers
// the whole joined string so long names cannot mask a differing date.
func VerificationToken(participantName, courseTitle, issueDate string) string {
	raw := fmt.Sprintf("%s-%s-%s", participantName, courseTitle, issueDate)
	sum := sha256.Sum256([]byte(raw))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:16])
}
