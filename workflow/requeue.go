package workflow

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/lumeray/royalty_backend/config"
	"github.com/lumeray/royalty_backend/models"
)

// RequeueFailedChunks is the explicit recovery path for a job stuck in
// processing with failed chunks: failed chunks are reset to pending and the
// next worker pass picks them up. Safe to repeat — a failed chunk committed
// no report rows (chunk writes are transactional), so reprocessing cannot
// duplicate reports or amounts. Returns how many chunks were requeued.
func RequeueFailedChunks(ctx context.Context, jobId int) (int64, error) {
	db := config.GetDB()

	// Surfaces utils.ErrorRecordNotFound for unknown job ids.
	if _, err := models.GetUploadJob(db.WithContext(ctx).Omit("file_data"), jobId); err != nil {
		return 0, err
	}

	res := db.WithContext(ctx).Model(&models.JobChunk{}).
		Where("job_id = ? AND status = ?", jobId, models.ChunkStatusFailed).
		Updates(map[string]interface{}{
			"status":         models.ChunkStatusPending,
			"error_message":  nil,
			"processed_rows": 0,
			"matched_count":  0,
			"started_at":     nil,
			"completed_at":   nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		config.GetLogger().WithFields(config.WithCorrelationId(ctx, logrus.Fields{
			"module":   "workflow",
			"job_id":   jobId,
			"requeued": res.RowsAffected,
		})).Info("failed chunks requeued")
	}
	return res.RowsAffected, nil
}
