// Package validation provides input and data validation for the medhub API.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
)

const (
	MinMedicines       = 2
	MaxMedicines       = 20
	MaxNameLength      = 100
	MaxQuestionLength  = 1000
	MaxNotesLength     = 1000
	MaxShortTextLength = 100
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Reminder times are 24h HH:MM
	reminderTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed user input. Details are safe to
// send back to the caller.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Details = append(e.Details, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Details) == 0 {
		return nil
	}
	return e
}

// DataValidatorImpl implements the interfaces.InputValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.InputValidator {
	return &DataValidatorImpl{}
}

// ValidateMedicineList checks that the list has 2 to 20 entries and that each
// entry is 1 to 100 characters once trimmed
func (v *DataValidatorImpl) ValidateMedicineList(medicines []string) error {
	verr := &ValidationError{}

	if len(medicines) < MinMedicines {
		verr.add("medicines", "at least %d medicines are required, got %d", MinMedicines, len(medicines))
	}
	if len(medicines) > MaxMedicines {
		verr.add("medicines", "at most %d medicines are allowed, got %d", MaxMedicines, len(medicines))
	}

	for i, name := range medicines {
		trimmed := strings.TrimSpace(name)
		field := fmt.Sprintf("medicines[%d]", i)
		switch {
		case trimmed == "":
			verr.add(field, "medicine name cannot be empty")
		case utf8.RuneCountInString(trimmed) > MaxNameLength:
			verr.add(field, "medicine name too long: maximum %d characters", MaxNameLength)
		}
	}

	return verr.orNil()
}

// ValidateQuestion validates a free-text question sent to the assistant
func (v *DataValidatorImpl) ValidateQuestion(question string) error {
	verr := &ValidationError{}
	trimmed := strings.TrimSpace(question)

	switch {
	case trimmed == "":
		verr.add("question", "question cannot be empty")
	case utf8.RuneCountInString(trimmed) > MaxQuestionLength:
		verr.add("question", "question too long: maximum %d characters", MaxQuestionLength)
	case v.hasExcessiveRepetition(trimmed):
		verr.add("question", "question contains excessive character repetition")
	}

	return verr.orNil()
}

// ValidateUserID parses the user id forwarded by the authenticating gateway
func (v *DataValidatorImpl) ValidateUserID(input string) (uuid.UUID, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return uuid.Nil, &ValidationError{Details: []FieldError{{Field: "X-User-ID", Message: "missing user id"}}}
	}

	id, err := uuid.Parse(trimmedInput)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, &ValidationError{Details: []FieldError{{Field: "X-User-ID", Message: "user id must be a valid UUID"}}}
	}

	return id, nil
}

// ValidateMedicine checks a cabinet entry
func (v *DataValidatorImpl) ValidateMedicine(m *entities.Medicine) error {
	if m == nil {
		return &ValidationError{Details: []FieldError{{Field: "medicine", Message: "medicine is required"}}}
	}

	verr := &ValidationError{}

	name := strings.TrimSpace(m.Name)
	switch {
	case name == "":
		verr.add("name", "name cannot be empty")
	case utf8.RuneCountInString(name) > MaxNameLength:
		verr.add("name", "name too long: maximum %d characters", MaxNameLength)
	}

	for field, value := range map[string]string{
		"generic_name": m.GenericName,
		"dosage":       m.Dosage,
		"frequency":    m.Frequency,
	} {
		if utf8.RuneCountInString(value) > MaxShortTextLength {
			verr.add(field, "%s too long: maximum %d characters", field, MaxShortTextLength)
		}
	}

	if utf8.RuneCountInString(m.Notes) > MaxNotesLength {
		verr.add("notes", "notes too long: maximum %d characters", MaxNotesLength)
	}

	if m.Quantity < 0 {
		verr.add("quantity", "quantity cannot be negative")
	}

	for i, t := range m.ReminderTimes {
		if !reminderTimeRegex.MatchString(t) {
			verr.add(fmt.Sprintf("reminder_times[%d]", i), "reminder time must be HH:MM, got %q", t)
		}
	}

	// Map iteration order is random, keep details stable for callers
	slices.SortStableFunc(verr.Details, func(a, b FieldError) int {
		return strings.Compare(a.Field, b.Field)
	})

	return verr.orNil()
}

// ReportCatalogQuality generates a data quality report for a reference snapshot
func (v *DataValidatorImpl) ReportCatalogQuality(medicines []entities.ReferenceMedicine) *interfaces.CatalogQualityReport {
	report := &interfaces.CatalogQualityReport{
		TotalRows:             len(medicines),
		DuplicateNames:        []string{},
		RowsWithoutClassNames: []string{},
	}

	seen := make(map[string]bool, len(medicines))
	for _, med := range medicines {
		key := strings.ToLower(strings.TrimSpace(med.Name))
		if seen[key] {
			report.DuplicateNames = append(report.DuplicateNames, med.Name)
		}
		seen[key] = true

		if class, ok := med.Class(); !ok || strings.TrimSpace(class) == "" {
			report.RowsWithoutClass++
			if len(report.RowsWithoutClassNames) < 10 {
				report.RowsWithoutClassNames = append(report.RowsWithoutClassNames, med.Name)
			}
		}

		if med.GenericName == nil || strings.TrimSpace(*med.GenericName) == "" {
			report.RowsWithoutGenericName++
		}
	}

	return report
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
