package scraper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"job-pipeline-go/internal/models"
	"job-pipeline-go/pkg/httpclient"
)

var (
	// ErrAllStrategiesExhausted means every strategy in the cascade failed or came back empty.
	ErrAllStrategiesExhausted = errors.New("all strategies exhausted")
	// ErrDeadlineExceeded means the pipeline deadline cut the cascade short with nothing to show.
	ErrDeadlineExceeded = errors.New("pipeline deadline exceeded")
	// ErrUnknownMethod is returned by Run for a method that names no strategy or alias.
	ErrUnknownMethod = errors.New("unknown method")
)

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial-success"
	OutcomeFailed         Outcome = "all-strategies-exhausted"
)

// FailureReason distinguishes the two ways a run can end with no records.
type FailureReason string

const (
	ReasonExhausted        FailureReason = "all-strategies-exhausted"
	ReasonDeadlineExceeded FailureReason = "deadline-exceeded"
)

// Attempt records one strategy's turn in the cascade. Kind is empty for a
// strategy that produced records.
type Attempt struct {
	Strategy  models.StrategyName `json:"strategy"`
	Kind      httpclient.Kind     `json:"kind,omitempty"`
	Err       string              `json:"error,omitempty"`
	Tries     int                 `json:"tries"`
	Records   int                 `json:"records"`
	Discarded int                 `json:"discarded"`
	Elapsed   time.Duration       `json:"elapsed"`
}

func (a Attempt) succeeded() bool {
	return a.Kind == "" && a.Records > 0
}

// Diagnostic explains how a run reached its outcome.
type Diagnostic struct {
	StrategyUsed   models.StrategyName `json:"strategy_used,omitempty"`
	DiscardedCount int                 `json:"discarded_count"`
	Duplicates     int                 `json:"duplicates"`
	ElapsedMs      int64               `json:"elapsed_ms"`
	Attempts       []Attempt           `json:"attempts"`
}

// Failure is set when a run produced no records.
type Failure struct {
	Reason   FailureReason `json:"reason"`
	Attempts []Attempt     `json:"attempts"`
}

func (f *Failure) Error() string {
	parts := make([]string, 0, len(f.Attempts))
	for _, a := range f.Attempts {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Strategy, a.Kind))
	}
	return fmt.Sprintf("%s [%s]", f.Reason, strings.Join(parts, ", "))
}

// Result is what a caller gets back from Run. It is always populated, even
// when every strategy failed.
type Result struct {
	RunID      uuid.UUID    `json:"run_id"`
	Query      models.Query `json:"query"`
	Method     string       `json:"method"`
	Outcome    Outcome      `json:"outcome"`
	Records    []models.Job `json:"records"`
	Diagnostic Diagnostic   `json:"diagnostic"`
	Failure    *Failure     `json:"failure,omitempty"`
}

// Err converts a failed outcome into an error wrapping ErrAllStrategiesExhausted
// or ErrDeadlineExceeded. Successful and partial outcomes return nil.
func (r *Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	sentinel := ErrAllStrategiesExhausted
	if r.Failure.Reason == ReasonDeadlineExceeded {
		sentinel = ErrDeadlineExceeded
	}
	return fmt.Errorf("%w: %s", sentinel, r.Failure.Error())
}
