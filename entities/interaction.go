package entities

// Severity is the qualitative risk tier of an interaction
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// DrugInteraction describes a known interaction between two medicines
type DrugInteraction struct {
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// InteractionResult is the verdict for one pair of the request.
// Drug1 and Drug2 are the strings exactly as received, in input order.
// A nil Interaction means no rule matched, not that the pair is safe.
type InteractionResult struct {
	Drug1       string           `json:"drug1"`
	Drug2       string           `json:"drug2"`
	Interaction *DrugInteraction `json:"interaction"`
}
