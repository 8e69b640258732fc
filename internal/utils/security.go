package contextutils

import (
	"strings"
)

// MaskSecret masks a credential (SMTP password, SendGrid API key) for logging.
// Only the first and last four characters of long values are kept.
func MaskSecret(secret string) string {
	if secret == "" {
		return "[EMPTY]"
	}

	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}

	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// MaskEmail hides the local part of a reporter address in log output,
// e.g. "jane.doe@example.com" becomes "j*******@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskSecret(email)
	}
	local, domain := email[:at], email[at:]
	if len(local) == 1 {
		return "*" + domain
	}
	return local[:1] + strings.Repeat("*", len(local)-1) + domain
}
