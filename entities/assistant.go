package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Image is an uploaded photo sent to the assistant
type Image struct {
	MIMEType string
	Data     []byte
}

// ChatTurn is one previous exchange of an assistant conversation
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// MedicineIdentification is what the assistant reads off a medicine photo
type MedicineIdentification struct {
	Name         string   `json:"name"`
	GenericName  string   `json:"generic_name"`
	Manufacturer string   `json:"manufacturer"`
	Dosage       string   `json:"dosage"`
	Uses         []string `json:"uses"`
	SideEffects  []string `json:"side_effects"`
	Warnings     []string `json:"warnings"`
	Confidence   float64  `json:"confidence"`
}

func (m *MedicineIdentification) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("name is required")
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("confidence %v is outside [0,1]", m.Confidence)
	}
	m.Uses = nonNil(m.Uses)
	m.SideEffects = nonNil(m.SideEffects)
	m.Warnings = nonNil(m.Warnings)
	return nil
}

// Lab finding statuses
const (
	FindingNormal   = "normal"
	FindingHigh     = "high"
	FindingLow      = "low"
	FindingAbnormal = "abnormal"
	FindingUnknown  = "unknown"
)

type LabFinding struct {
	Test        string `json:"test"`
	Value       string `json:"value"`
	NormalRange string `json:"normal_range"`
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
}

// ReportExplanation is the plain-language reading of a medical report
type ReportExplanation struct {
	Summary         string       `json:"summary"`
	Findings        []LabFinding `json:"findings"`
	Recommendations []string     `json:"recommendations"`
}

func (r *ReportExplanation) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return errors.New("summary is required")
	}
	for i := range r.Findings {
		f := &r.Findings[i]
		if strings.TrimSpace(f.Test) == "" {
			return fmt.Errorf("findings[%d]: test is required", i)
		}
		f.Status = strings.ToLower(strings.TrimSpace(f.Status))
		switch f.Status {
		case FindingNormal, FindingHigh, FindingLow, FindingAbnormal, FindingUnknown:
		case "":
			f.Status = FindingUnknown
		default:
			return fmt.Errorf("findings[%d]: invalid status %q", i, f.Status)
		}
	}
	if r.Findings == nil {
		r.Findings = []LabFinding{}
	}
	r.Recommendations = nonNil(r.Recommendations)
	return nil
}

// Answer is the assistant's reply to a free-text question
type Answer struct {
	Answer   string   `json:"answer"`
	FollowUp []string `json:"follow_up"`
}

func (a *Answer) Validate() error {
	if strings.TrimSpace(a.Answer) == "" {
		return errors.New("answer is required")
	}
	a.FollowUp = nonNil(a.FollowUp)
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
