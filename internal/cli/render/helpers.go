package render

import (
	"github.com/fatih/color"
	"github.com/trebuchet-org/sling/internal/domain/models"
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// verificationWarning explains a failed verification of a deployment that stays on-chain
func verificationWarning(v *models.VerificationReceipt) string {
	switch v.Status {
	case models.VerificationStatusUnavailable:
		return FormatWarning("Verification service unavailable; the contract is deployed, retry with `sling verify`")
	case models.VerificationStatusRejected:
		return FormatWarning("Verification rejected; the contract is deployed but its source is not verified")
	default:
		return ""
	}
}
