package vault

// PasswordStrength is an advisory rating for a vault password. The vault
// never rejects a password for being weak; the rating is shown at setup so
// the choice is an informed one.
type PasswordStrength int

const (
	PasswordWeak PasswordStrength = iota
	PasswordFair
	PasswordGood
	PasswordStrong
)

// String returns a human-readable representation of the strength.
func (s PasswordStrength) String() string {
	switch s {
	case PasswordWeak:
		return "Weak"
	case PasswordFair:
		return "Fair"
	case PasswordGood:
		return "Good"
	case PasswordStrong:
		return "Strong"
	default:
		return "Unknown"
	}
}

// EvaluatePassword rates a password by length, the primary factor per NIST
// SP 800-63B. Composition rules are deliberately not enforced.
func EvaluatePassword(password string) PasswordStrength {
	switch length := len(password); {
	case length >= 20:
		return PasswordStrong
	case length >= 14:
		return PasswordGood
	case length >= 8:
		return PasswordFair
	default:
		return PasswordWeak
	}
}
