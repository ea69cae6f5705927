package sandbox

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/clickreserve/click/internal/models"
)

// PurgeExpired deletes one-time tokens that can no longer be redeemed and
// revocations older than maxTokenAge, whose tokens have expired on their own.
// A zero maxTokenAge keeps every revocation.
func PurgeExpired(db *gorm.DB, now time.Time, maxTokenAge time.Duration) (int64, error) {
	res := db.Where("expires_at < ? OR used_at IS NOT NULL", now).Delete(&models.OneTimeToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge one-time tokens: %w", res.Error)
	}
	purged := res.RowsAffected

	if maxTokenAge > 0 {
		res = db.Where("created_at < ?", now.Add(-maxTokenAge)).Delete(&models.RevokedToken{})
		if res.Error != nil {
			return purged, fmt.Errorf("failed to purge revoked tokens: %w", res.Error)
		}
		purged += res.RowsAffected
	}

	return purged, nil
}

// startCleanup schedules PurgeExpired. An empty schedule disables it.
func (s *Server) startCleanup(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		n, err := PurgeExpired(s.db, s.clock.Now(), s.config.TokenExpiry)
		if err != nil {
			s.logger.Error().Err(err).Msg("Token cleanup failed")
			return
		}
		s.logger.Debug().Int64("purged", n).Msg("Token cleanup complete")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	c.Start()
	return c, nil
}
