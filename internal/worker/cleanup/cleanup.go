// Package cleanup は来場者データの自動削除ジョブを提供する。
// 保持期間（デフォルト180日）を超過し、関心を1件も持たない来場者を
// 日次バッチで削除する。関心を持つ来場者はオーナーの一覧に表示されるため残す。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/garagesale/internal/metrics"
	"github.com/hitoshi/garagesale/internal/repository"
)

// DefaultRetentionDays は来場者の既定の保持日数。
const DefaultRetentionDays = 180

// CleanupJob は保持期間を超過した来場者の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	cleaner       repository.ParticipantCleaner
	logger        *slog.Logger
	metrics       metrics.MetricsCollector
	now           func() time.Time
	RetentionDays int // 来場者の保持日数（デフォルト: 180）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は180日。metricsはnilでもよい。
func NewCleanupJob(cleaner repository.ParticipantCleaner, logger *slog.Logger, m metrics.MetricsCollector) *CleanupJob {
	return &CleanupJob{
		cleaner:       cleaner,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
		RetentionDays: DefaultRetentionDays,
	}
}

// Run は保持期間を超過した来場者を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	deleted, err := j.cleaner.DeleteStale(ctx, cutoff)
	if err != nil {
		j.logger.Error("participant cleanup failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("来場者クリーンアップの実行に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordParticipantsCleaned(deleted)
	}

	j.logger.Info("participant cleanup completed",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回、その後intervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。個々の実行の失敗では停止しない。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	j.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *CleanupJob) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("cleanup run will be retried on next tick", slog.String("error", err.Error()))
	}
}
