package transceiver

import (
	"regexp"

	"github.com/google/uuid"
)

// canonicalUUID matches an 8-4-4-4-12 hex UUID, version 1-5, IETF
// variant, the same pattern the original device's setSenderId/
// setReceiverId enforced.
var canonicalUUID = regexp.MustCompile(
	`^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`,
)

// ValidUUID reports whether s is a canonical-form UUID suitable for a
// sender_id/receiver_id assignment.
func ValidUUID(s string) bool {
	if !canonicalUUID.MatchString(s) {
		return false
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return parsed.Variant() == uuid.RFC4122
}
