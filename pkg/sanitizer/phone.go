package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizeContactPhone parses a holder contact and returns it in E.164 form.
// Input that does not parse as a phone number is returned trimmed and
// unchanged; the contact field is opaque and may legitimately be an email or
// a free-form note.
func NormalizeContactPhone(contact string) string {
	trimmed := strings.TrimSpace(contact)
	if trimmed == "" {
		return ""
	}

	num, err := phonenumbers.Parse(trimmed, "")
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(num) {
		return trimmed
	}

	return phonenumbers.Format(num, phonenumbers.E164)
}
