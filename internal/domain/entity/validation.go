package entity

// Validation severities. Only SeverityError blocks a submission.
const (
	SeverityError   = "ERROR"
	SeverityWarning = "WARNING"
)

// ValidationResult is one finding of the validation engine
type ValidationResult struct {
	Field        string `json:"field"`
	Message      string `json:"message"`
	Severity     string `json:"severity"`
	DisplayIndex int    `json:"display_index"`
	ClaimIndex   int    `json:"claim_index"`
}

// HasErrors reports whether any result blocks the submission
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}
