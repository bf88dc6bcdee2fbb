package models

import (
	"time"

	"gorm.io/gorm"
)

// JobChunk is a fixed-size window of spreadsheet rows, the unit of
// incremental, resumable processing. Chunks are created in bulk at job
// creation and owned exclusively by their parent job.
type JobChunk struct {
	ID            int            `gorm:"primary_key" json:"id"`
	JobId         int            `gorm:"index;not null" json:"job_id"`
	ChunkNumber   int            `gorm:"not null" json:"chunk_number"`
	StartRow      int            `gorm:"not null" json:"start_row"`
	EndRow        int            `gorm:"not null" json:"end_row"`
	Status        JobChunkStatus `gorm:"type:enum('pending', 'processing', 'completed', 'failed');not null;default:pending;index" json:"status"`
	ProcessedRows int            `gorm:"not null;default:0" json:"processed_rows"`
	MatchedCount  int            `gorm:"not null;default:0" json:"matched_count"`
	ErrorMessage  *string        `gorm:"type:text" json:"error_message"`
	StartedAt     *time.Time     `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

const chunkInsertBatchSize = 200

// InsertJobChunks bulk-creates a job's chunk plan.
func InsertJobChunks(tx *gorm.DB, chunks []*JobChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return tx.CreateInBatches(chunks, chunkInsertBatchSize).Error
}

// MarkChunkCompleted records a chunk's counts. Call inside the same
// transaction that inserts the chunk's report rows so the chunk commits
// atomically from the orchestrator's perspective.
func MarkChunkCompleted(tx *gorm.DB, chunkId int, processedRows int, matchedCount int) error {
	now := time.Now().UTC()
	return tx.Model(&JobChunk{}).
		Where("id = ?", chunkId).
		Updates(map[string]interface{}{
			"status":         ChunkStatusCompleted,
			"processed_rows": processedRows,
			"matched_count":  matchedCount,
			"completed_at":   &now,
		}).Error
}

// MarkChunkFailed records the error and isolates the failure to this chunk.
// No automatic retry; see RequeueFailedChunks for the explicit recovery path.
func MarkChunkFailed(tx *gorm.DB, chunkId int, message string) error {
	now := time.Now().UTC()
	return tx.Model(&JobChunk{}).
		Where("id = ?", chunkId).
		Updates(map[string]interface{}{
			"status":        ChunkStatusFailed,
			"error_message": message,
			"completed_at":  &now,
		}).Error
}

// JobChunkTally aggregates a job's chunk statuses and counters in one query.
type JobChunkTally struct {
	TotalChunks     int `json:"total_chunks"`
	CompletedChunks int `json:"completed_chunks"`
	FailedChunks    int `json:"failed_chunks"`
	PendingChunks   int `json:"pending_chunks"`
	ProcessedRows   int `json:"processed_rows"`
	MatchedCount    int `json:"matched_count"`
}

func TallyJobChunks(tx *gorm.DB, jobId int) (*JobChunkTally, error) {
	var tally JobChunkTally
	err := tx.Model(&JobChunk{}).
		Select("COUNT(*) AS total_chunks, " +
			"COALESCE(SUM(status = 'completed'), 0) AS completed_chunks, " +
			"COALESCE(SUM(status = 'failed'), 0) AS failed_chunks, " +
			"COALESCE(SUM(status = 'pending'), 0) AS pending_chunks, " +
			"COALESCE(SUM(processed_rows), 0) AS processed_rows, " +
			"COALESCE(SUM(matched_count), 0) AS matched_count").
		Where("job_id = ?", jobId).
		Scan(&tally).Error
	if err != nil {
		return nil, err
	}
	return &tally, nil
}
