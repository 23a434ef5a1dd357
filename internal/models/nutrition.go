package models

// LabelImage is a food-label photo forwarded to the OCR backend as-is.
type LabelImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IntakeResult is the cumulative intake the backend reports for a user,
// either after a commit or on the status endpoint.
type IntakeResult struct {
	Profile
	Nutrients  []NutrientReading `json:"nutrients"`
	Warnings   []string          `json:"warnings"`
	Advices    []string          `json:"advices"`
	AIFeedback string            `json:"ai_feedback,omitempty"`
}
