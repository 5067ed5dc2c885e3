package shared

// Warning codes
const (
	WarnConsistency    = "CONSISTENCY_WARNING"
	WarnReferentialGap = "REFERENTIAL_GAP_WARNING"
)

// Warning is a recoverable condition that accompanies a successful result.
// Warnings never abort an operation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewWarning creates a warning
func NewWarning(code, message string) Warning {
	return Warning{Code: code, Message: message}
}
