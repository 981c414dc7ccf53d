package cabinet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/validation"
)

const (
	// DateLayout is the expiry date format of exports and imports
	DateLayout = "2006-01-02"

	// MaxImportRows bounds a single import
	MaxImportRows = 500

	reminderSeparator = ";"
)

// csvHeader is the column order of exports. Imports map columns by name.
var csvHeader = []string{
	"name", "generic_name", "dosage", "frequency", "quantity",
	"expiry_date", "reminder_times", "notes",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RowError reports why an imported row was skipped. Row is the line number
// in the file, the header being line 1.
type RowError struct {
	Row     int                     `json:"row"`
	Details []validation.FieldError `json:"details"`
}

// ImportResult holds the rows ready to be stored and the rejected ones
type ImportResult struct {
	Medicines []entities.Medicine `json:"-"`
	Errors    []RowError          `json:"errors"`
}

// WriteCSV writes the medicines with a header row
func WriteCSV(w io.Writer, medicines []entities.Medicine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, m := range medicines {
		expiry := ""
		if m.ExpiryDate != nil {
			expiry = m.ExpiryDate.Format(DateLayout)
		}
		record := []string{
			m.Name, m.GenericName, m.Dosage, m.Frequency, strconv.Itoa(m.Quantity),
			expiry, strings.Join(m.ReminderTimes, reminderSeparator), m.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses an import file for the given user. The file may be UTF-8 or
// ISO-8859-1, comma or semicolon separated. Only the name column is required;
// unknown columns are ignored. Invalid rows are reported and skipped.
func ReadCSV(r io.Reader, userID uuid.UUID, validator interfaces.InputValidator) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var reader io.Reader
	if utf8.Valid(raw) {
		reader = bytes.NewReader(raw)
	} else {
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw))
	}

	cr := csv.NewReader(reader)
	cr.Comma = detectComma(raw)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &validation.ValidationError{Details: []validation.FieldError{{Field: "file", Message: "file is empty"}}}
	}
	if err != nil {
		return nil, invalidFile(err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, &validation.ValidationError{Details: []validation.FieldError{{Field: "file", Message: "missing required column \"name\""}}}
	}

	result := &ImportResult{Medicines: []entities.Medicine{}, Errors: []RowError{}}
	rows := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalidFile(err)
		}
		if isBlank(record) {
			continue
		}
		rows++
		if rows > MaxImportRows {
			return nil, &validation.ValidationError{Details: []validation.FieldError{{
				Field: "file", Message: fmt.Sprintf("too many rows: maximum %d", MaxImportRows),
			}}}
		}

		m, details := parseRecord(record, columns)
		m.UserID = userID
		if len(details) == 0 {
			var verr *validation.ValidationError
			if err := validator.ValidateMedicine(&m); errors.As(err, &verr) {
				details = verr.Details
			} else if err != nil {
				return nil, err
			}
		}
		if len(details) > 0 {
			line, _ := cr.FieldPos(0)
			result.Errors = append(result.Errors, RowError{Row: line, Details: details})
			continue
		}
		result.Medicines = append(result.Medicines, m)
	}

	return result, nil
}

func parseRecord(record []string, columns map[string]int) (entities.Medicine, []validation.FieldError) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var details []validation.FieldError
	m := entities.Medicine{
		Name:          field("name"),
		GenericName:   field("generic_name"),
		Dosage:        field("dosage"),
		Frequency:     field("frequency"),
		Notes:         field("notes"),
		ReminderTimes: []string{},
	}

	if q := field("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			details = append(details, validation.FieldError{Field: "quantity", Message: fmt.Sprintf("quantity must be an integer, got %q", q)})
		}
		m.Quantity = n
	}

	if d := field("expiry_date"); d != "" {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			details = append(details, validation.FieldError{Field: "expiry_date", Message: fmt.Sprintf("expiry date must be YYYY-MM-DD, got %q", d)})
		} else {
			m.ExpiryDate = &t
		}
	}

	if times := field("reminder_times"); times != "" {
		for _, t := range strings.Split(times, reminderSeparator) {
			if t = strings.TrimSpace(t); t != "" {
				m.ReminderTimes = append(m.ReminderTimes, t)
			}
		}
	}

	return m, details
}

// detectComma picks ';' when the header line has semicolons and no commas
func detectComma(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	if bytes.IndexByte(line, ';') >= 0 && bytes.IndexByte(line, ',') < 0 {
		return ';'
	}
	return ','
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func invalidFile(err error) error {
	return &validation.ValidationError{Details: []validation.FieldError{{Field: "file", Message: "malformed CSV: " + err.Error()}}}
}
