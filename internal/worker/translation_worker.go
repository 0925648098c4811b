package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/modelboard/api/internal/model"
)

// Sweeper schedules translation work across every profile
type Sweeper interface {
	SweepTranslations(ctx context.Context, force bool) (int, error)
}

// TranslationWorker processes translation sweep tasks
type TranslationWorker struct {
	sweeper Sweeper
}

// NewTranslationWorker creates a new translation worker
func NewTranslationWorker(sweeper Sweeper) *TranslationWorker {
	return &TranslationWorker{sweeper: sweeper}
}

// ProcessTask handles translation sweep processing. The sweep only starts
// jobs; they keep running in this process after the task returns.
func (w *TranslationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.SweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal sweep payload: %w: %v", asynq.SkipRetry, err)
		}
	}

	log.Printf("Starting translation sweep (force=%t, request=%s)", payload.Force, payload.RequestID)
	start := time.Now()

	started, err := w.sweeper.SweepTranslations(ctx, payload.Force)
	if err != nil {
		return fmt.Errorf("translation sweep failed: %w", err)
	}

	log.Printf("Translation sweep finished: %d jobs started in %s", started, time.Since(start).Round(time.Millisecond))
	return nil
}
