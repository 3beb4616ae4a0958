package domain

import "strings"

// The ten recognized intake fields. garage_photo_upload is special: it is
// populated only by the photo-upload or photo-skip actions, never by text
// extraction.
const (
	FieldFullName          = "full_name"
	FieldEmail             = "email"
	FieldPhone             = "phone"
	FieldGarageGoals       = "garage_goals"
	FieldSquareFootage     = "square_footage"
	FieldMustHaveFeatures  = "must_have_features"
	FieldBudget            = "budget"
	FieldStartDate         = "start_date"
	FieldFinalNotes        = "final_notes"
	FieldGaragePhotoUpload = "garage_photo_upload"
)

// Markers stored in garage_photo_upload once the photo step resolves.
const (
	PhotoUploaded = "uploaded"
	PhotoSkipped  = "skipped"
)

// FieldOrder is the canonical display and re-ask order for all ten fields.
var FieldOrder = []string{
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldGarageGoals,
	FieldSquareFootage,
	FieldMustHaveFeatures,
	FieldBudget,
	FieldStartDate,
	FieldFinalNotes,
	FieldGaragePhotoUpload,
}

// RequiredTextFields are the nine fields filled from conversation. The
// photo field is gated by the orchestrator, not the completion check.
var RequiredTextFields = FieldOrder[:9]

// fieldLabels maps field names to the human-readable form used in re-asks
// and in the summary document.
var fieldLabels = map[string]string{
	FieldFullName:          "full name",
	FieldEmail:             "email",
	FieldPhone:             "phone number",
	FieldGarageGoals:       "garage goals",
	FieldSquareFootage:     "square footage",
	FieldMustHaveFeatures:  "must-have features",
	FieldBudget:            "budget",
	FieldStartDate:         "start date",
	FieldFinalNotes:        "final notes",
	FieldGaragePhotoUpload: "garage photo",
}

// FieldLabel returns the display label for a field name. Unknown names are
// returned unchanged so callers degrade gracefully.
func FieldLabel(name string) string {
	if label, ok := fieldLabels[name]; ok {
		return label
	}
	return name
}

// KnownField reports whether name is one of the ten recognized fields.
func KnownField(name string) bool {
	_, ok := fieldLabels[name]
	return ok
}

// fillerVocabulary contains answers that are syntactically present but
// semantically empty for every field.
var fillerVocabulary = map[string]struct{}{
	"n/a":      {},
	"na":       {},
	"not sure": {},
	"idk":      {},
	"soon":     {},
	"help":     {},
	"?":        {},
}

// declineAnswers are filler for most fields but meaningful for the fields
// where declining is itself an answer ("any final notes?" "no").
var declineAnswers = map[string]struct{}{
	"no":   {},
	"none": {},
}

// declineOKFields are the fields for which a plain decline counts as a
// real answer.
var declineOKFields = map[string]struct{}{
	FieldFinalNotes:       {},
	FieldMustHaveFeatures: {},
}

// IsFiller reports whether value is "not meaningfully provided" for the
// given field. The check trims and lowercases first; an empty result is
// always filler.
func IsFiller(field, value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return true
	}
	if _, ok := fillerVocabulary[v]; ok {
		return true
	}
	if _, ok := declineAnswers[v]; ok {
		_, declineOK := declineOKFields[field]
		return !declineOK
	}
	return false
}

// FieldAnswered reports whether the field holds a non-filler value in the
// mapping.
func FieldAnswered(fields map[string]string, name string) bool {
	return !IsFiller(name, fields[name])
}
