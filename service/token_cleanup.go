package service

import (
	"time"

	"github.com/h91530/sns/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenCleanup periodically deletes credential token rows that are past
// their cleanup horizon. Expired or used rows are kept until then so
// confirm attempts keep answering "expired or used" instead of "not found".
func TokenCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			r := db.
				Where("cleanup_at IS NOT NULL AND cleanup_at < ?", time.Now()).
				Delete(model.CredentialToken{})
			if r.Error != nil {
				zap.L().Error("Failed to cleanup stale tokens", zap.Error(r.Error))
				continue
			}

			if r.RowsAffected > 0 {
				zap.L().Debug("Cleaned up stale tokens", zap.Int64("rows", r.RowsAffected))
			}
		}
	}()
}
