package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookclub/internal/logging"
)

// TokenPurger deletes expired access tokens.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// PurgeTokensTask removes access tokens past their expiry.
type PurgeTokensTask struct{}

func (t PurgeTokensTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_tokens",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PurgeTokensProcessor creates a processor function for PurgeTokensTask.
func PurgeTokensProcessor(purger TokenPurger, log *logging.Logger) backlite.QueueProcessor[PurgeTokensTask] {
	return func(ctx context.Context, _ PurgeTokensTask) error {
		if purger == nil {
			return fmt.Errorf("token purger not configured")
		}
		deleted, err := purger.PurgeExpiredTokens(ctx)
		if err != nil {
			return fmt.Errorf("purge tokens: %w", err)
		}
		log.Info("purged expired access tokens", "deleted", deleted)
		return nil
	}
}

func NewPurgeTokensQueue(purger TokenPurger, log *logging.Logger) backlite.Queue {
	return backlite.NewQueue(PurgeTokensProcessor(purger, log))
}
