package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/metrics"
)

// Operation names, used as metric labels
const (
	OpIdentify = "identify"
	OpExplain  = "explain_report"
	OpAsk      = "ask"
)

// maxHistoryTurns bounds how much conversation is replayed to the model
const maxHistoryTurns = 10

// OutputError means the model answered but the answer did not pass validation
type OutputError struct {
	Op  string
	Err error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("invalid %s output: %v", e.Op, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// Compile-time check to ensure Service implements Assistant
var _ interfaces.Assistant = (*Service)(nil)

// Service implements interfaces.Assistant
type Service struct {
	completer Completer
	validator interfaces.InputValidator
}

// NewService creates the assistant. A nil completer disables every operation.
func NewService(completer Completer, validator interfaces.InputValidator) *Service {
	return &Service{completer: completer, validator: validator}
}

// Enabled reports whether a gateway is configured
func (s *Service) Enabled() bool {
	return s.completer != nil
}

type validatable interface {
	Validate() error
}

// run sends the prompt and decodes the validated result into out
func (s *Service) run(ctx context.Context, op string, p Prompt, out validatable) error {
	if s.completer == nil {
		metrics.AssistantRequests.WithLabelValues(op, "disabled").Inc()
		return ErrDisabled
	}

	raw, err := s.completer.Complete(ctx, p)
	if err != nil {
		outcome := "provider_error"
		if errors.Is(err, ErrDisabled) {
			outcome = "disabled"
		}
		metrics.AssistantRequests.WithLabelValues(op, outcome).Inc()
		return err
	}

	if err := decode(raw, out); err != nil {
		metrics.AssistantRequests.WithLabelValues(op, "invalid_output").Inc()
		logging.Warn("Assistant returned invalid output", "operation", op, "error", err, "output_length", len(raw))
		return &OutputError{Op: op, Err: err}
	}

	metrics.AssistantRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

func decode(raw string, out validatable) error {
	object, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(object), out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return out.Validate()
}

func (s *Service) IdentifyMedicine(ctx context.Context, image entities.Image) (*entities.MedicineIdentification, error) {
	var result entities.MedicineIdentification
	err := s.run(ctx, OpIdentify, Prompt{
		System: identifySystemPrompt,
		User:   identifyUserPrompt,
		Image:  &image,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) ExplainReport(ctx context.Context, image entities.Image) (*entities.ReportExplanation, error) {
	var result entities.ReportExplanation
	err := s.run(ctx, OpExplain, Prompt{
		System: explainSystemPrompt,
		User:   explainUserPrompt,
		Image:  &image,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Ask answers a health question. The question is validated here as well as in
// the handler so that other callers get the same limits.
func (s *Service) Ask(ctx context.Context, question string, history []entities.ChatTurn) (*entities.Answer, error) {
	if err := s.validator.ValidateQuestion(question); err != nil {
		return nil, err
	}

	var result entities.Answer
	err := s.run(ctx, OpAsk, Prompt{
		System:  askSystemPrompt,
		User:    strings.TrimSpace(question),
		History: trimHistory(history),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// trimHistory keeps the last turns with a known role and non-empty content
func trimHistory(history []entities.ChatTurn) []entities.ChatTurn {
	kept := make([]entities.ChatTurn, 0, len(history))
	for _, turn := range history {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		kept = append(kept, turn)
	}
	if len(kept) > maxHistoryTurns {
		kept = kept[len(kept)-maxHistoryTurns:]
	}
	return kept
}
