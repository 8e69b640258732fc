package contextutils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// simpleEmailPattern is the check applied to reporter addresses. It accepts anything
// shaped like local@domain.tld and leaves deliverability to the mail server.
var simpleEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether a reporter-supplied email address is acceptable.
func IsValidEmail(email string) bool {
	return simpleEmailPattern.MatchString(email)
}

// IsValidMailbox checks an operator-configured address (sender, support mailbox)
// using go-playground/validator's RFC 5322 rule.
func IsValidMailbox(email string) bool {
	return validate.Var(email, "required,email") == nil
}
