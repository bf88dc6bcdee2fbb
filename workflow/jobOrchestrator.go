package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumeray/royalty_backend/config"
	"github.com/lumeray/royalty_backend/models"
	"github.com/lumeray/royalty_backend/utils"
)

var ErrEmptyReportFile = errors.New("report file contains no data rows")

// ChunkWindow is one planned slice of spreadsheet rows.
type ChunkWindow struct {
	ChunkNumber int
	StartRow    int
	EndRow      int
}

// PlanJobChunks partitions data rows [2, totalRows+1] into fixed-size
// windows. Row numbers are 1-based spreadsheet rows; row 1 is the header.
func PlanJobChunks(totalRows, chunkSize int) []ChunkWindow {
	if totalRows <= 0 || chunkSize <= 0 {
		return nil
	}
	totalChunks := (totalRows + chunkSize - 1) / chunkSize
	windows := make([]ChunkWindow, 0, totalChunks)
	for chunkNum := 0; chunkNum < totalChunks; chunkNum++ {
		startRow := chunkNum*chunkSize + reportFirstDataRow
		endRow := (chunkNum+1)*chunkSize + 1
		if endRow > totalRows+1 {
			endRow = totalRows + 1
		}
		windows = append(windows, ChunkWindow{
			ChunkNumber: chunkNum,
			StartRow:    startRow,
			EndRow:      endRow,
		})
	}
	return windows
}

// CreateUploadJob accepts an uploaded spreadsheet: counts its data rows with
// a cheap structural scan, persists the job with the raw file bytes, and
// bulk-creates the chunk plan. The upload response is synchronous and fast;
// all matching happens later in worker passes.
func CreateUploadJob(ctx context.Context, uploadedBy int, period string, filename string, fileBytes []byte) (*models.FinancialUploadJob, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	if len(fileBytes) == 0 {
		return nil, errors.New("empty file")
	}
	totalRows, err := CountReportRows(fileBytes)
	if err != nil {
		return nil, err
	}
	if totalRows == 0 {
		return nil, ErrEmptyReportFile
	}

	chunkSize := config.IngestChunkSize()
	windows := PlanJobChunks(totalRows, chunkSize)

	job := &models.FinancialUploadJob{
		UploadedBy:  uploadedBy,
		Period:      period,
		Filename:    filename,
		FileData:    fileBytes,
		Status:      models.JobStatusPending,
		TotalRows:   totalRows,
		ChunkSize:   chunkSize,
		TotalChunks: len(windows),
	}
	if err := db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}

	chunks := make([]*models.JobChunk, 0, len(windows))
	for _, w := range windows {
		chunks = append(chunks, &models.JobChunk{
			JobId:       job.ID,
			ChunkNumber: w.ChunkNumber,
			StartRow:    w.StartRow,
			EndRow:      w.EndRow,
			Status:      models.ChunkStatusPending,
		})
	}
	if err := models.InsertJobChunks(db.WithContext(ctx), chunks); err != nil {
		// The job row exists but has no workable chunk plan; fail it so the
		// uploader sees the error instead of a forever-pending job.
		if markErr := models.MarkUploadJobFailed(db.WithContext(ctx), job.ID, fmt.Sprintf("failed to create chunk plan: %v", err)); markErr != nil {
			config.LogError(ctx, logger, "workflow", "CreateUploadJob", "mark job failed", job.ID, markErr)
		}
		return nil, err
	}

	models.InvalidateUploadJobsCache(uploadedBy)

	logger.WithFields(config.WithCorrelationId(ctx, logrus.Fields{
		"module":       "workflow",
		"job_id":       job.ID,
		"total_rows":   totalRows,
		"total_chunks": len(windows),
	})).Info("financial upload job created")

	return job, nil
}

// claimPendingChunks atomically claims up to limit pending chunks, ordered
// by job then chunk number. The SELECT ... FOR UPDATE SKIP LOCKED plus the
// status-conditional update closes the select-then-update race: two
// concurrent workers can never claim the same chunk.
func claimPendingChunks(ctx context.Context, limit int) ([]*models.JobChunk, error) {
	db := config.GetDB()
	now := time.Now().UTC()

	var claimed []*models.JobChunk
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("status = ?", models.ChunkStatusPending).
			Order("job_id ASC, chunk_number ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for i := range claimed {
			res := tx.Model(&models.JobChunk{}).
				Where("id = ? AND status = ?", claimed[i].ID, models.ChunkStatusPending).
				Updates(map[string]interface{}{
					"status":     models.ChunkStatusProcessing,
					"started_at": &now,
				})
			if res.Error != nil {
				return res.Error
			}
			claimed[i].Status = models.ChunkStatusProcessing
			claimed[i].StartedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// JobPassStatus reports one job's state after a worker pass.
type JobPassStatus struct {
	JobId           int                    `json:"job_id"`
	Status          models.UploadJobStatus `json:"status"`
	CompletedChunks int                    `json:"completed_chunks"`
	TotalChunks     int                    `json:"total_chunks"`
	Finalized       bool                   `json:"finalized"`
}

// IngestPassResult is the worker entry point's response shape.
type IngestPassResult struct {
	Processed int              `json:"processed"`
	Jobs      []*JobPassStatus `json:"jobs"`
	HasMore   bool             `json:"has_more"`
}

// RunIngestPass is one time-boxed worker invocation: claim a bounded batch
// of pending chunks, build the release index once for the whole batch,
// process the chunks sequentially, then update progress and finalize every
// touched job that has no work left. HasMore tells the caller (or the
// self-trigger) whether another pass is needed.
func RunIngestPass(ctx context.Context) (*IngestPassResult, error) {
	db := config.GetDB()
	logger := config.GetLogger()
	result := &IngestPassResult{Jobs: []*JobPassStatus{}}

	chunks, err := claimPendingChunks(ctx, config.WorkerChunkBatchSize())
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return result, nil
	}

	idx, err := LoadReleaseIndex(ctx)
	if err != nil {
		// Catalog read failure is fatal for every claimed chunk in this pass.
		for _, chunk := range chunks {
			if markErr := models.MarkChunkFailed(db.WithContext(ctx), chunk.ID, fmt.Sprintf("release catalog load failed: %v", err)); markErr != nil {
				config.LogError(ctx, logger, "workflow", "RunIngestPass", "mark chunk failed", chunk.ID, markErr)
			}
		}
		return nil, err
	}
	logger.WithFields(config.WithCorrelationId(ctx, logrus.Fields{
		"module":   "workflow",
		"releases": idx.Size(),
		"chunks":   len(chunks),
	})).Info("ingest pass started")

	jobCache := make(map[int]*models.FinancialUploadJob)
	touched := make([]int, 0, len(chunks))

	for _, chunk := range chunks {
		job, ok := jobCache[chunk.JobId]
		if !ok {
			job, err = models.GetUploadJob(db.WithContext(ctx), chunk.JobId)
			if err != nil {
				config.LogError(ctx, logger, "workflow", "RunIngestPass", "load job", chunk.JobId, err)
				_ = models.MarkChunkFailed(db.WithContext(ctx), chunk.ID, fmt.Sprintf("failed to load job: %v", err))
				continue
			}
			jobCache[chunk.JobId] = job
			touched = append(touched, chunk.JobId)
		}

		if len(job.FileData) == 0 {
			// Structural problem; the whole job is unworkable.
			msg := "no file data found"
			_ = models.MarkChunkFailed(db.WithContext(ctx), chunk.ID, msg)
			if job.Status != models.JobStatusFailed {
				if markErr := models.MarkUploadJobFailed(db.WithContext(ctx), job.ID, msg); markErr != nil {
					config.LogError(ctx, logger, "workflow", "RunIngestPass", "mark job failed", job.ID, markErr)
				}
				job.Status = models.JobStatusFailed
			}
			continue
		}

		if job.Status == models.JobStatusPending {
			if err := models.MarkUploadJobProcessing(db.WithContext(ctx), job.ID); err != nil {
				config.LogError(ctx, logger, "workflow", "RunIngestPass", "mark job processing", job.ID, err)
			}
			job.Status = models.JobStatusProcessing
		}

		if _, err := ProcessChunk(ctx, chunk, job, idx); err != nil {
			// Already recorded on the chunk; keep going with siblings.
			continue
		}
		result.Processed++
	}

	for _, jobId := range touched {
		// The pass changed this job's chunk state either way; the uploader's
		// next listing poll must see it.
		models.InvalidateUploadJobsCache(jobCache[jobId].UploadedBy)

		if jobCache[jobId].Status == models.JobStatusFailed {
			result.Jobs = append(result.Jobs, &JobPassStatus{
				JobId:  jobId,
				Status: models.JobStatusFailed,
			})
			continue
		}
		status, err := settleJobProgress(ctx, jobId)
		if err != nil {
			config.LogError(ctx, logger, "workflow", "RunIngestPass", "settle job progress", jobId, err)
			continue
		}
		result.Jobs = append(result.Jobs, status)
	}

	pending, err := countPendingChunks(ctx)
	if err != nil {
		return nil, err
	}
	result.HasMore = pending > 0

	return result, nil
}

func countPendingChunks(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var pending int64
	err := db.WithContext(ctx).Model(&models.JobChunk{}).
		Where("status = ?", models.ChunkStatusPending).
		Count(&pending).Error
	return pending, err
}

// settleJobProgress refreshes a job's counters from its chunk tally and
// finalizes the job if every chunk is completed. A job with failed chunks
// never reaches completed; it stays processing until the failed chunks are
// requeued and succeed.
func settleJobProgress(ctx context.Context, jobId int) (*JobPassStatus, error) {
	db := config.GetDB()

	tally, err := models.TallyJobChunks(db.WithContext(ctx), jobId)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(&models.FinancialUploadJob{}).
		Where("id = ? AND status = ?", jobId, models.JobStatusProcessing).
		Updates(map[string]interface{}{
			"processed_rows":   tally.ProcessedRows,
			"matched_count":    tally.MatchedCount,
			"unmatched_count":  tally.ProcessedRows - tally.MatchedCount,
			"completed_chunks": tally.CompletedChunks,
		}).Error
	if err != nil {
		return nil, err
	}

	status := &JobPassStatus{
		JobId:           jobId,
		Status:          models.JobStatusProcessing,
		CompletedChunks: tally.CompletedChunks,
		TotalChunks:     tally.TotalChunks,
	}

	if chunksComplete(tally) {
		finalized, err := FinalizeJob(ctx, jobId, tally)
		if err != nil {
			return nil, err
		}
		if finalized {
			status.Status = models.JobStatusCompleted
			status.Finalized = true
		} else {
			// Another worker won the transition; report the settled state.
			var job models.FinancialUploadJob
			if err := db.WithContext(ctx).Select("status").First(&job, jobId).Error; err == nil {
				status.Status = job.Status
			}
		}
	}

	return status, nil
}

// chunksComplete is the finalization gate: balances are applied only when
// every chunk of the job is completed. Failed or pending chunks hold the
// job in processing.
func chunksComplete(tally *models.JobChunkTally) bool {
	return tally.TotalChunks > 0 && tally.CompletedChunks == tally.TotalChunks
}

// FinalizeJob applies a completed job's matched amounts to artist balances
// exactly once. The processing->completed transition is a conditional update
// in the same transaction as the balance increments: whichever worker's
// update claims the row also commits the credits, so concurrent "all chunks
// complete" observers cannot double-credit. The redis lock on top is a
// best-effort optimization to skip useless concurrent aggregation.
func FinalizeJob(ctx context.Context, jobId int, tally *models.JobChunkTally) (bool, error) {
	db := config.GetDB()

	if release, lockErr := utils.JobFinalizeLock(ctx, jobId, "workflow", "FinalizeJob"); lockErr == nil {
		defer release()
	}

	now := time.Now().UTC()
	finalized := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FinancialUploadJob{}).
			Where("id = ? AND status = ?", jobId, models.JobStatusProcessing).
			Updates(map[string]interface{}{
				"status":           models.JobStatusCompleted,
				"completed_at":     &now,
				"processed_rows":   tally.ProcessedRows,
				"matched_count":    tally.MatchedCount,
				"unmatched_count":  tally.ProcessedRows - tally.MatchedCount,
				"completed_chunks": tally.CompletedChunks,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race; the winner applies the balances.
			return nil
		}

		totals, err := models.MatchedAmountsByUser(tx, jobId)
		if err != nil {
			return err
		}
		for _, t := range totals {
			if err := models.IncrementUserBalance(tx, t.UserId, t.Total); err != nil {
				return err
			}
		}
		finalized = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if finalized {
		config.GetLogger().WithFields(config.WithCorrelationId(ctx, logrus.Fields{
			"module":        "workflow",
			"job_id":        jobId,
			"matched_count": tally.MatchedCount,
		})).Info("upload job finalized, balances applied")
	}
	return finalized, nil
}
