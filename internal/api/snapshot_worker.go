package api

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartSnapshotWorker records daily burndown snapshots for active sprints.
// The interval is short so a sprint started mid-day still gets a point for
// its first day; the per-day primary key makes reruns overwrite, not
// duplicate.
func (s *Server) StartSnapshotWorker(ctx context.Context) {
	interval := s.config.SnapshotInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting burndown snapshot worker",
		zap.Duration("interval", interval),
	)

	// Run immediately on startup
	s.recordSnapshots(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Snapshot worker shutting down")
			return
		case <-ticker.C:
			s.recordSnapshots(ctx)
		}
	}
}

// recordSnapshots writes today's remaining points for every active sprint
func (s *Server) recordSnapshots(parentCtx context.Context) {
	ctx, cancel := context.WithTimeout(parentCtx, 2*time.Minute)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sprints WHERE status = 'active'`)
	if err != nil {
		s.logger.Error("Failed to fetch active sprints for snapshot", zap.Error(err))
		return
	}

	sprintIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			s.logger.Error("Failed to scan sprint for snapshot", zap.Error(err))
			return
		}
		sprintIDs = append(sprintIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		s.logger.Error("Failed to fetch active sprints for snapshot", zap.Error(err))
		return
	}

	if len(sprintIDs) == 0 {
		s.logger.Debug("No active sprints to snapshot")
		return
	}

	today := time.Now().UTC().Format("2006-01-02")
	successCount := 0
	failCount := 0

	for _, sprintID := range sprintIDs {
		if err := s.recordSprintSnapshot(ctx, sprintID, today); err != nil {
			s.logger.Error("Failed to record burndown snapshot",
				zap.Int64("sprint_id", sprintID),
				zap.Error(err),
			)
			failCount++
		} else {
			successCount++
		}
	}

	s.logger.Info("Burndown snapshots recorded",
		zap.Int("success", successCount),
		zap.Int("failed", failCount),
	)
}

// recordSprintSnapshot upserts one sprint's remaining points for a day
func (s *Server) recordSprintSnapshot(ctx context.Context, sprintID int64, day string) error {
	var remaining int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(story_points), 0) FROM tickets WHERE sprint_id = ? AND status != 'done'`,
		sprintID,
	).Scan(&remaining)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sprint_snapshots (sprint_id, day, remaining_points) VALUES (?, ?, ?)
		 ON CONFLICT (sprint_id, day) DO UPDATE SET remaining_points = excluded.remaining_points`,
		sprintID, day, remaining,
	)
	return err
}
