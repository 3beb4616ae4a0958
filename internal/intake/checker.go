package intake

import (
	"github.com/Elevated-Garage/contact-solomon/internal/domain"
)

// Completion is the result of a completion check.
type Completion struct {
	Done    bool     `json:"done"`
	Missing []string `json:"missing"`
}

// CheckCompletion evaluates the nine text-derived required fields in
// canonical order. A field counts as present iff its trimmed, lowercased
// value is non-empty and not filler for that field. The photo step is
// gated by the orchestrator, not here.
//
// This is a pure function of the mapping; the oracle is never consulted.
func CheckCompletion(fields map[string]string) Completion {
	var missing []string
	for _, name := range domain.RequiredTextFields {
		if !domain.FieldAnswered(fields, name) {
			missing = append(missing, name)
		}
	}
	return Completion{Done: len(missing) == 0, Missing: missing}
}
