package jobs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/swipeattend/backend/internal/app/services"
)

// Job names
const (
	ReconcileJob    = "stats-reconcile"
	TokenCleanupJob = "token-cleanup"
)

// ReconcileTask recomputes every student's stats and every class's session summary
func ReconcileTask(stats *services.StatsAggregator, logger zerolog.Logger) Task {
	return func(ctx context.Context) error {
		res, err := stats.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		logger.Info().
			Int("students", res.Students).
			Int("classes", res.Classes).
			Int("failed", res.Failed).
			Msg("Attendance stats reconciled")
		return nil
	}
}

// TokenCleanupTask purges expired and long-revoked refresh tokens
func TokenCleanupTask(authService *services.AuthService, logger zerolog.Logger) Task {
	return func(ctx context.Context) error {
		n, err := authService.CleanupTokens(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int64("removed", n).Msg("Refresh tokens cleaned up")
		return nil
	}
}
