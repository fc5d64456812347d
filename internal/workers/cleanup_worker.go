package workers

import (
	"context"
	"time"

	"binkeyit_backend/internal/logger"
	"binkeyit_backend/internal/repositories"
)

// CleanupWorker чистит просроченные OTP-коды.
// Проверка срока при валидации все равно выполняется,
// воркер лишь не дает мусору копиться в таблице.
type CleanupWorker struct {
	userRepo repositories.UserRepository
	interval time.Duration
}

func NewCleanupWorker(userRepo repositories.UserRepository, interval time.Duration) *CleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupWorker{
		userRepo: userRepo,
		interval: interval,
	}
}

// Start запускает фоновую чистку до отмены контекста
func (w *CleanupWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *CleanupWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup worker stopped")
			return
		case <-ticker.C:
			cleared, err := w.userRepo.ClearExpiredOTPs(ctx, time.Now())
			if err != nil {
				logger.Error("Failed to clear expired OTPs", "error", err)
			} else if cleared > 0 {
				logger.Info("Cleared expired OTP codes", "count", cleared)
			}
		}
	}
}
