package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bulkoils/catalog-scraper/internal/database"
	"github.com/bulkoils/catalog-scraper/internal/models"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeRunCompleted is published when a scrape run reaches a
	// terminal state, successful or not.
	EventTypeRunCompleted EventType = "RUN_COMPLETED"
)

// RunCompletedPayload is the payload for RUN_COMPLETED events. Downstream
// consumers use it to decide whether to pick up the run's result file.
type RunCompletedPayload struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	Timestamp      time.Time `json:"timestamp"`
	RunID          string    `json:"run_id"`
	Status         string    `json:"status"`
	Total          int       `json:"total"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	ResultPath     string    `json:"result_path,omitempty"`
	Error          string    `json:"error,omitempty"`
	Source         string    `json:"source"`
}

// Publisher writes run events through the transactional outbox so they
// survive a crash between the run finishing and the relay noticing.
type Publisher struct {
	db     *database.DB
	outbox *database.OutboxRepository
	stream string
	logger *slog.Logger
}

func NewPublisher(db *database.DB, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:     db,
		outbox: database.NewOutboxRepository(db),
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishRunCompleted builds the RUN_COMPLETED payload for a finished run
// and stores it in the outbox.
func (p *Publisher) PublishRunCompleted(ctx context.Context, runID string, result *models.RunResult, resultPath string, runErr error) error {
	return p.publish(ctx, newRunCompletedPayload(runID, result, resultPath, runErr))
}

// newRunCompletedPayload derives the event payload from a run's outcome. A
// non-nil runErr overrides the result status: a run that errored is failed
// no matter what the scraper reported.
func newRunCompletedPayload(runID string, result *models.RunResult, resultPath string, runErr error) *RunCompletedPayload {
	payload := &RunCompletedPayload{
		RunID:      runID,
		ResultPath: resultPath,
	}
	if result != nil {
		payload.Status = string(result.Status)
		payload.Total = result.Total
		payload.ElapsedSeconds = result.Seconds
	}
	if runErr != nil {
		payload.Status = string(models.RunFailed)
		payload.Error = runErr.Error()
	}
	return payload
}

// publish stores a fully-formed payload, filling event metadata defaults.
func (p *Publisher) publish(ctx context.Context, payload *RunCompletedPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeRunCompleted)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "catalog-scraper"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: "scrape_run",
		AggregateID:   payload.RunID,
		EventType:     string(EventTypeRunCompleted),
		Payload:       data,
		TargetStream:  p.stream,
	}

	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := p.outbox.InsertWithTx(ctx, tx, outboxEvent); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"run_id", payload.RunID,
		"outbox_id", outboxEvent.ID,
	)

	return nil
}
